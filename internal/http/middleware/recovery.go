package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/shared/apperr"
)

// Recovery logs the panic with its stack and answers with a 500. It renders
// the response itself since ErrorHandler sits deeper in the chain and never
// resumes after a panic.
func Recovery(l *slog.Logger, page ErrorPage) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.LogAttrs(c.Request.Context(), slog.LevelError, "panic_recovered",
			slog.String("request_id", GetRequestID(c)),
			slog.Any("panic", recovered),
			slog.String("stack", string(debug.Stack())),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		respondError(c, l, page, apperr.Wrap(fmt.Errorf("panic: %v", recovered)))
	})
}
