package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/pkg/view"
)

// RequireAuth sends anonymous visitors to the login page with a return_to
// pointing back here. JSON clients get a 401.
func RequireAuth(flashCodec *flash.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		deny(c, flashCodec, http.StatusUnauthorized, "로그인이 필요합니다.")
	}
}

func deny(c *gin.Context, flashCodec *flash.Codec, status int, msg string) {
	if WantsJSON(c) {
		c.AbortWithStatusJSON(status, gin.H{"error": msg, "request_id": GetRequestID(c)})
		return
	}
	QueueFlash(c, flashCodec, view.Flash{Kind: view.FlashWarning, Message: msg})
	c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
	c.Abort()
}

func LoginURL(returnTo string) string {
	return "/login?return_to=" + url.QueryEscape(returnTo)
}
