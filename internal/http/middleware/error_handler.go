package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/shared/apperr"
)

// ErrorPage renders an HTML error page.
type ErrorPage func(c *gin.Context, status int, msg, requestID string)

func WantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(c.Request.URL.Path, "/api/") || strings.HasPrefix(c.Request.URL.Path, "/webhooks/")
}

// Fail records err for ErrorHandler and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler turns the last handler error into a JSON body or an error
// page, unless the handler already wrote a response.
func ErrorHandler(l *slog.Logger, page ErrorPage) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		respondError(c, l, page, c.Errors.Last().Err)
	}
}

func respondError(c *gin.Context, l *slog.Logger, page ErrorPage, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.PublicMessage(err)
	rid := GetRequestID(c)

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	l.LogAttrs(c.Request.Context(), level, "request_failed",
		slog.String("request_id", rid),
		slog.Int("status", status),
		slog.Any("err", err),
	)

	if WantsJSON(c) || page == nil {
		payload := gin.H{"error": msg, "request_id": rid}
		if ae, ok := apperr.As(err); ok && len(ae.Fields) > 0 {
			payload["fields"] = ae.Fields
		}
		c.AbortWithStatusJSON(status, payload)
		return
	}
	c.Abort()
	page(c, status, msg, rid)
}
