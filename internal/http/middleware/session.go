package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/modules/auth"
)

const ctxKeyPrincipal = "principal"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, bool, error)
}

type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Session resolves the session cookie into an auth.Principal. A lookup
// failure leaves the request anonymous but keeps the cookie; an unknown or
// expired token clears it.
func Session(r SessionResolver, ck SessionCookie, l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(ck.Name)
		if err != nil || token == "" {
			c.Next()
			return
		}
		p, ok, err := r.Resolve(c.Request.Context(), token)
		switch {
		case err != nil:
			l.WarnContext(c.Request.Context(), "session_resolve_failed", "request_id", GetRequestID(c), "err", err)
		case !ok:
			ClearSessionCookie(c, ck)
		default:
			c.Set(ctxKeyPrincipal, p)
		}
		c.Next()
	}
}

// CurrentUser returns the principal of the request, if signed in.
func CurrentUser(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok && p.UserID != ""
}

func SessionToken(c *gin.Context, ck SessionCookie) string {
	v, _ := c.Cookie(ck.Name)
	return v
}

func SetSessionCookie(c *gin.Context, ck SessionCookie, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ck.Name, token, int(ck.TTL.Seconds()), "/", "", ck.Secure, true)
}

func ClearSessionCookie(c *gin.Context, ck SessionCookie) {
	clearCookie(c, ck.Name, ck.Secure)
}
