// Package render writes pages, fragments and redirects for handlers.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/pkg/view"
	"vibeshop.com/app/templates"
)

// Component renders a templ component. The body is buffered so a failed
// render turns into a 500 instead of a truncated page.
func Component(c *gin.Context, status int, comp templ.Component) {
	var buf bytes.Buffer
	if err := comp.Render(c.Request.Context(), &buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

type Renderer struct {
	set    *templates.Set
	logger *slog.Logger
}

func New(set *templates.Set, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{set: set, logger: logger}
}

// Layout collects the page chrome from the request context.
func Layout(c *gin.Context, title string) view.Layout {
	l := view.Layout{
		Title:     title,
		SiteName:  middleware.GetSiteName(c),
		Path:      c.Request.URL.Path,
		CSRF:      middleware.GetCSRFToken(c),
		Flash:     middleware.GetFlash(c),
		CartCount: middleware.GetCartCount(c),
	}
	if p, ok := middleware.CurrentUser(c); ok {
		l.Viewer = &view.Viewer{ID: p.UserID, Name: p.Name, Admin: p.IsAdmin()}
	}
	return l
}

// Page renders a storefront page.
func (r *Renderer) Page(c *gin.Context, status int, name, title string, data any) {
	r.render(c, status, name, view.Page{Layout: Layout(c, title), Data: data})
}

// AdminPage renders a page inside the admin console chrome.
func (r *Renderer) AdminPage(c *gin.Context, status int, name, title string, data any) {
	l := Layout(c, title)
	l.Admin = true
	r.render(c, status, "admin/"+name, view.Page{Layout: l, Data: data})
}

// Fragment renders a partial without the layout.
func (r *Renderer) Fragment(c *gin.Context, status int, name string, data any) {
	Component(c, status, r.set.Fragment(name, data))
}

// Error is the HTML error page used by the error middleware.
func (r *Renderer) Error(c *gin.Context, status int, msg, requestID string) {
	data := view.ErrorPage{Status: status, StatusText: http.StatusText(status), Message: msg, RequestID: requestID}
	var buf bytes.Buffer
	err := r.set.Page("error", view.Page{Layout: Layout(c, http.StatusText(status)), Data: data}).Render(c.Request.Context(), &buf)
	if err != nil {
		r.logger.ErrorContext(c.Request.Context(), "error_page_render_failed", "request_id", requestID, "err", err)
		c.String(status, msg)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (r *Renderer) render(c *gin.Context, status int, name string, p view.Page) {
	if !r.set.Has(name) {
		r.logger.ErrorContext(c.Request.Context(), "unknown_page", "page", name)
		middleware.Fail(c, fmt.Errorf("render: unknown page %q", name))
		return
	}
	Component(c, status, r.set.Page(name, p))
}

func RedirectWithFlash(c *gin.Context, codec *flash.Codec, location string, kind view.FlashKind, msg string) {
	middleware.QueueFlash(c, codec, view.Flash{Kind: kind, Message: msg})
	c.Redirect(http.StatusSeeOther, location)
}

// Redirect is a 303 so the browser follows a POST with a GET.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
