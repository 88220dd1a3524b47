package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attenddash/internal/backend"
	"attenddash/internal/config"
	"attenddash/internal/export"
	"attenddash/internal/httpmiddleware"
	"attenddash/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// User-facing failure messages. The unreachable and load-failure strings must
// stay distinct: they report different situations.
const (
	MsgUnauthorized = "Unauthorized. Please log in again."
	MsgLoadFailed   = "Failed to load attendance."
	MsgUnreachable  = "Backend unreachable."
	MsgExportFailed = "Export failed."
)

var fetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dashboard_backend_fetch_total",
	Help: "Protected backend fetches by outcome.",
}, []string{"outcome"})

// Server wires the dashboard routes around the backend client and the
// session guard.
type Server struct {
	Cfg     config.App
	Backend *backend.Client
	Guard   *session.Guard

	// StoreHealthy reports session store connectivity for /healthz. Nil
	// means the store has no external dependency.
	StoreHealthy func(ctx context.Context) bool
}

// Router builds the gin engine with all dashboard routes mounted. Extra
// middleware runs on every route, ahead of the handlers.
func (s *Server) Router(extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(extra...)
	r.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", s.healthz)

	r.GET("/", s.index)
	r.GET("/login", s.loginForm)
	r.POST("/login",
		httpmiddleware.NewTokenBucket(s.Cfg.RateLimitPerMin, s.Cfg.RateLimitPerMin).Limit(),
		s.loginSubmit)
	r.GET("/logout", s.logout)

	protected := r.Group("/", s.Guard.RequireAdmin())
	protected.GET("/dashboard", s.dashboard)
	protected.GET("/attendance", s.attendance)
	protected.GET("/api/attendance", s.apiAttendance)
	protected.GET("/report", s.report)

	return r
}

func (s *Server) index(c *gin.Context) {
	if s.Guard.LoggedIn(c) {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) healthz(c *gin.Context) {
	backendUp := s.Backend.Ping(c.Request.Context())
	sessionsUp := true
	if s.StoreHealthy != nil {
		sessionsUp = s.StoreHealthy(c.Request.Context())
	}
	status := http.StatusOK
	if !backendUp || !sessionsUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "backend": backendUp, "sessions": sessionsUp})
}

func (s *Server) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":  "Login - Smart Attendance",
		"Notice": c.Query("notice"),
	})
}

// loginSubmit performs the credential exchange. One attempt per submit; every
// failure renders the form again with a single message.
func (s *Server) loginSubmit(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	cred, err := s.Backend.Login(c.Request.Context(), email, password)
	if err != nil {
		var authErr *backend.AuthError
		msg := MsgUnreachable
		if errors.As(err, &authErr) {
			msg = authErr.Error()
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Title": "Login - Smart Attendance",
			"Error": msg,
		})
		return
	}

	if err := s.Guard.Begin(c, cred); err != nil {
		log.Printf("session begin failed: %v", err)
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Title": "Login - Smart Attendance",
			"Error": "Could not open a session.",
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (s *Server) logout(c *gin.Context) {
	s.Guard.End(c)
	c.Redirect(http.StatusSeeOther, "/login")
}

// forceLogout handles the stale-token case: a 401 from the backend is treated
// exactly like not being logged in, never retried.
func (s *Server) forceLogout(c *gin.Context) {
	s.Guard.End(c)
	c.Redirect(http.StatusSeeOther, "/login?notice="+url.QueryEscape(MsgUnauthorized))
	c.Abort()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, backend.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, backend.ErrBackendUnreachable):
		return "unreachable"
	default:
		return "error"
	}
}

// messageOf maps a fetch failure to its user-facing string.
func messageOf(err error) string {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, backend.ErrBackendUnreachable):
		return MsgUnreachable
	default:
		return MsgLoadFailed
	}
}

// fetchRecords is the shared fetch path for protected views. On a 401 it has
// already forced logout and redirected; handled reports that.
func (s *Server) fetchRecords(c *gin.Context) (records []backend.Record, errMsg string, handled bool) {
	cred, ok := session.Credential(c)
	if !ok {
		s.forceLogout(c)
		return nil, "", true
	}
	records, err := s.Backend.ListRecords(c.Request.Context(), cred.Token)
	fetchOutcomes.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.forceLogout(c)
			return nil, "", true
		}
		log.Printf("attendance fetch failed: %v", err)
		return nil, messageOf(err), false
	}
	return records, "", false
}

func exporterFor(c *gin.Context, s *Server) *export.Exporter {
	id, _ := c.Get(session.ContextSessionID)
	sid, _ := id.(string)
	return &export.Exporter{
		Backend:   s.Backend,
		Store:     s.Guard.Store,
		SessionID: sid,
	}
}
