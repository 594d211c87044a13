package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vibeshop.com/app/internal/shared/apperr"
)

const (
	CSRFCookie    = "csrf_token"
	CSRFField     = "_csrf"
	CSRFHeader    = "X-CSRF-Token"
	ctxKeyCSRF    = "csrf_token"
	csrfTokenSize = 36
)

var ErrCSRF = apperr.ForbiddenErr("요청이 만료되었습니다. 페이지를 새로고침한 뒤 다시 시도해 주세요.")

// CSRF implements the double-submit cookie pattern. Unsafe requests must
// echo the cookie token in the _csrf form field or the X-CSRF-Token header.
// Paths under skip (provider webhooks) are exempt.
func CSRF(secure bool, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CSRFCookie)
		if err != nil || len(token) != csrfTokenSize {
			token = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CSRFCookie, token, 0, "/", "", secure, true)
		}
		c.Set(ctxKeyCSRF, token)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		for _, p := range skip {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		sent := c.GetHeader(CSRFHeader)
		if sent == "" {
			sent = c.PostForm(CSRFField)
		}
		if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
			Fail(c, ErrCSRF)
			return
		}
		c.Next()
	}
}

func GetCSRFToken(c *gin.Context) string { return c.GetString(ctxKeyCSRF) }
