package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/modules/settings"
)

const ctxKeySiteName = "site_name"

type SiteSettings interface {
	Get(ctx context.Context) (settings.Site, error)
}

// Site puts the configured site name in the context for the page chrome.
func Site(src SiteSettings, fallback string, l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := fallback
		if site, err := src.Get(c.Request.Context()); err != nil {
			l.WarnContext(c.Request.Context(), "site_settings_failed", "err", err)
		} else if site.SiteName != "" {
			name = site.SiteName
		}
		c.Set(ctxKeySiteName, name)
		c.Next()
	}
}

func GetSiteName(c *gin.Context) string { return c.GetString(ctxKeySiteName) }
