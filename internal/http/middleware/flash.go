package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/pkg/view"
)

const ctxFlash = "vibeshop.flash"

// Flash lifts the one-shot flash cookie into the request. The cookie is
// expired as soon as it is seen; one that fails verification is dropped
// without reaching the page.
func Flash(codec *flash.Codec, l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(codec.CookieName)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		if f, err := codec.Decode(raw); err != nil {
			l.DebugContext(c.Request.Context(), "flash cookie rejected",
				"request_id", GetRequestID(c), "path", c.Request.URL.Path, "err", err)
		} else {
			c.Set(ctxFlash, f)
		}
		writeFlash(c, codec, "", -1)
		c.Next()
	}
}

// GetFlash returns the message carried over from the previous response.
func GetFlash(c *gin.Context) *view.Flash {
	f, _ := c.Value(ctxFlash).(*view.Flash)
	return f
}

// QueueFlash stores f for the next page the browser loads. Empty messages
// are ignored.
func QueueFlash(c *gin.Context, codec *flash.Codec, f view.Flash) {
	val, err := codec.Encode(f)
	if err != nil {
		return
	}
	writeFlash(c, codec, val, codec.CookieMaxAge())
}

func writeFlash(c *gin.Context, codec *flash.Codec, val string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(codec.CookieName, val, maxAge, "/", "", codec.Secure, true)
}

func clearCookie(c *gin.Context, name string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", secure, true)
}
