package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/pkg/view"
)

// RequireAdmin lets only admins through. Anonymous visitors go to the login
// page, signed-in non-admins back to the storefront.
func RequireAdmin(flashCodec *flash.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			deny(c, flashCodec, http.StatusUnauthorized, "관리자 로그인이 필요합니다.")
			return
		}
		if !u.IsAdmin() {
			if WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "request_id": GetRequestID(c)})
				return
			}
			QueueFlash(c, flashCodec, view.Flash{Kind: view.FlashError, Message: "관리자만 접근할 수 있습니다."})
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
