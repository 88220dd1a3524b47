package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"attenddash/internal/backend"
	"attenddash/internal/config"
	"attenddash/internal/session"
	"attenddash/internal/web"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	client := backend.New(cfg.BackendURL)
	client.LoginPath = cfg.LoginPath
	client.RecordsPath = cfg.RecordsPath
	client.ReportPath = cfg.ReportPath

	var store session.Store
	var storeHealthy func(ctx context.Context) bool
	if cfg.SessionStore == "redis" {
		redisStore := session.NewRedisStore(cfg.RedisAddr, cfg.SessionTTL)
		store = redisStore
		storeHealthy = redisStore.Healthy
		log.Println("session store: redis at", cfg.RedisAddr)
	} else {
		store = session.NewMemory()
		log.Println("session store: in-memory")
	}

	guard := &session.Guard{
		Store:      store,
		SigningKey: cfg.SessionSigningKey,
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookie,
		TTL:        cfg.SessionTTL,
		LoginPath:  "/login",
		Secure:     gin.Mode() == gin.ReleaseMode,
	}

	srvApp := &web.Server{
		Cfg:          cfg,
		Backend:      client,
		Guard:        guard,
		StoreHealthy: storeHealthy,
	}

	r := srvApp.Router(securityHeaders())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting dashboard on :%s (backend %s)", cfg.HTTPPort, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
