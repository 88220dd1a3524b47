package session

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"attenddash/internal/backend"
)

// Context keys set by RequireAdmin for downstream handlers.
const (
	ContextCredential = "credential"
	ContextSessionID  = "session_id"
)

// Guard enforces the logged-in precondition on protected views and owns the
// cookie lifecycle around the Store.
type Guard struct {
	Store      Store
	SigningKey string
	Issuer     string
	CookieName string
	TTL        time.Duration
	LoginPath  string
	Secure     bool
}

// RequireAdmin redirects to the login view unless the request carries a valid
// session cookie whose credential is still in the store. It runs before any
// backend fetch: handlers behind it can assume a credential is present.
func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := g.sessionID(c)
		if !ok {
			g.redirectToLogin(c)
			return
		}
		cred, ok, err := g.Store.Read(c.Request.Context(), id)
		if err != nil {
			log.Printf("session store read failed: %v", err)
			g.redirectToLogin(c)
			return
		}
		if !ok {
			g.redirectToLogin(c)
			return
		}
		c.Set(ContextCredential, cred)
		c.Set(ContextSessionID, id)
		c.Next()
	}
}

// Begin opens a new session: stores the credential, signs a ticket, and sets
// the cookie. Called only from the login handler.
func (g *Guard) Begin(c *gin.Context, cred backend.Credential) error {
	id := uuid.New().String()
	if err := g.Store.Save(c.Request.Context(), id, cred); err != nil {
		return err
	}
	ticket, err := IssueTicket(id, g.Issuer, g.SigningKey, g.TTL)
	if err != nil {
		return err
	}
	c.SetCookie(g.CookieName, ticket, int(g.TTL.Seconds()), "/", "", g.Secure, true)
	return nil
}

// End closes the session unconditionally: the store entry is cleared and the
// cookie expired. No backend call is made. Safe to call when not logged in.
func (g *Guard) End(c *gin.Context) {
	if id, ok := g.sessionID(c); ok {
		if err := g.Store.Clear(c.Request.Context(), id); err != nil {
			log.Printf("session store clear failed: %v", err)
		}
	}
	c.SetCookie(g.CookieName, "", -1, "/", "", g.Secure, true)
}

// LoggedIn reports whether the request carries a valid session with a stored
// credential, without redirecting.
func (g *Guard) LoggedIn(c *gin.Context) bool {
	id, ok := g.sessionID(c)
	if !ok {
		return false
	}
	_, ok, err := g.Store.Read(c.Request.Context(), id)
	return err == nil && ok
}

// Credential returns the credential placed in context by RequireAdmin.
func Credential(c *gin.Context) (backend.Credential, bool) {
	v, ok := c.Get(ContextCredential)
	if !ok {
		return backend.Credential{}, false
	}
	cred, ok := v.(backend.Credential)
	return cred, ok
}

func (g *Guard) sessionID(c *gin.Context) (string, bool) {
	ticket, err := c.Cookie(g.CookieName)
	if err != nil || ticket == "" {
		return "", false
	}
	id, err := ParseTicket(ticket, g.SigningKey, g.Issuer)
	if err != nil {
		return "", false
	}
	return id, true
}

func (g *Guard) redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, g.LoginPath)
	c.Abort()
}
