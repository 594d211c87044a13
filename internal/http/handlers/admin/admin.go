// Package admin serves the console under /admin: record lists with their
// row and bulk actions, detail pages, the product editor, site settings and
// the dashboard.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/datatable"
	"vibeshop.com/app/internal/filter"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/internal/modules/dashboard"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

type Handler struct {
	R         *render.Renderer
	Flash     *flash.Codec
	Users     *users.Service
	Orders    *orders.Service
	Products  *products.Service
	Reviews   *reviews.Service
	Settings  *settings.Service
	Dashboard *dashboard.Service
	Metrics   *metrics.Metrics
	Loc       *time.Location
	Logger    *slog.Logger
}

// Register mounts the console routes on an admin-only group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("", h.ShowDashboard)
	g.GET("/settings", h.ShowSettings)
	g.POST("/settings", h.SaveSettings)

	mount(g, h.userList())
	g.GET("/users/:id", h.UserDetail)

	mount(g, h.orderList())
	g.GET("/orders/:id", h.OrderDetail)

	mount(g, h.reviewList())
	g.GET("/reviews/:id", h.ReviewDetail)

	g.GET("/products/new", h.NewProduct)
	g.POST("/products", h.CreateProduct)
	mount(g, h.productList())
	g.GET("/products/:id/edit", h.EditProduct)
	g.POST("/products/:id", h.UpdateProduct)
	g.POST("/products/:id/image", h.UploadImage)
}

// list binds one record type to the generic list routes.
type list[T any] struct {
	h        *Handler
	entity   string
	title    string
	newHref  string
	notFound *apperr.AppError
	fetch    func(ctx context.Context) ([]T, error)
	get      func(ctx context.Context, id string) (T, error)
	// table is built per request so actions can close over the actor.
	table   func(actorID string) *datatable.Table[T]
	filters func(ctx context.Context, q url.Values) (filter.Predicate[T], []view.FilterField, error)
	summary func(items []T) *view.ListSummary
	// extra are actions only offered on the detail page.
	extra map[string]func(ctx context.Context, actorID string, rec T, form url.Values) (string, error)
}

func (l *list[T]) path() string { return "/admin/" + l.entity }

func mount[T any](g *gin.RouterGroup, l *list[T]) {
	base := "/" + l.entity
	g.GET(base, l.shell)
	g.GET(base+"/table", l.fragment)
	g.POST(base+"/bulk", l.bulk)
	g.POST(base+"/:id/actions/:action", l.action)
}

// shell renders the page chrome and filter bar with the table still
// loading; the browser fetches the rows from the table route.
func (l *list[T]) shell(c *gin.Context) {
	q := c.Request.URL.Query()
	_, fields, _ := l.filters(c.Request.Context(), q)
	t := l.table(actor(c))
	st := datatable.ParseState(q)
	tablePath := l.path() + "/table"
	if raw := c.Request.URL.RawQuery; raw != "" {
		tablePath += "?" + raw
	}
	snap := datatable.Snapshot[T]{}.Begin()
	l.h.R.AdminPage(c, http.StatusOK, "list", l.title, view.AdminListPage{
		Entity:    l.entity,
		Title:     l.title,
		Path:      l.path(),
		TablePath: tablePath,
		Query:     c.Request.URL.RawQuery,
		Filters:   fields,
		NewHref:   l.newHref,
		Fragment: view.AdminTableFragment{
			Table:     t.Build(snap, st, l.link(q)),
			TablePath: tablePath,
			CSRF:      middleware.GetCSRFToken(c),
		},
	})
}

func (l *list[T]) fragment(c *gin.Context) {
	q := c.Request.URL.Query()
	frag := view.AdminTableFragment{CSRF: middleware.GetCSRFToken(c)}
	pred, _, ferr := l.filters(c.Request.Context(), q)
	if ferr != nil {
		frag.Error = "날짜 형식이 올바르지 않습니다. (YYYY-MM-DD)"
	}
	snap := datatable.Load(c.Request.Context(), l.fetch)
	if snap.Err != nil {
		l.h.Logger.ErrorContext(c.Request.Context(), "admin_list_failed", "entity", l.entity, "err", snap.Err)
	}
	if snap.Phase == datatable.PhaseLoaded {
		snap.Records = filter.Apply(snap.Records, pred)
		if l.summary != nil {
			frag.Summary = l.summary(snap.Records)
		}
	}
	frag.Table = l.table(actor(c)).Build(snap, datatable.ParseState(q), l.link(q))
	l.h.R.Fragment(c, http.StatusOK, "admin_table", frag)
}

// link keeps the filter params and points table links at the full page.
func (l *list[T]) link(q url.Values) datatable.Link {
	keep := url.Values{}
	for k, vs := range q {
		keep[k] = vs
	}
	for _, k := range datatable.StateParams {
		keep.Del(k)
	}
	return datatable.Link{Path: l.path(), Query: keep}
}

func (l *list[T]) action(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("action")
	rec, err := l.get(ctx, c.Param("id"))
	if err != nil {
		l.h.fail(c, l.notFound, err)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		middleware.Fail(c, apperr.InvalidErr("잘못된 요청입니다.", nil).WithCause(err))
		return
	}
	actorID := actor(c)
	var msg string
	if fn, ok := l.extra[name]; ok {
		msg, err = fn(ctx, actorID, rec, c.Request.PostForm)
	} else {
		msg, err = l.table(actorID).Invoke(ctx, name, rec, c.Request.PostForm)
	}
	l.finish(c, name, msg, err, false)
}

func (l *list[T]) bulk(c *gin.Context) {
	name := c.PostForm("action")
	ids := c.PostFormArray("sel")
	msg, err := l.table(actor(c)).InvokeBulk(c.Request.Context(), name, ids)
	l.finish(c, name, msg, err, err == nil)
}

func (l *list[T]) finish(c *gin.Context, name, msg string, err error, clearSel bool) {
	l.h.Metrics.AdminActions.WithLabelValues(l.entity, name, metrics.Outcome(err)).Inc()
	back := l.returnTo(c, clearSel)
	switch {
	case errors.Is(err, datatable.ErrUnknownAction):
		middleware.Fail(c, apperr.NotFoundErr("알 수 없는 작업입니다.").WithCause(err))
	case err == nil:
		l.h.Logger.InfoContext(c.Request.Context(), "admin_action", "entity", l.entity, "action", name, "actor", actor(c))
		render.RedirectWithFlash(c, l.h.Flash, back, view.FlashSuccess, msg)
	default:
		ae, ok := apperr.As(err)
		if !ok || ae.Kind == apperr.Internal {
			middleware.Fail(c, apperr.Wrap(err))
			return
		}
		render.RedirectWithFlash(c, l.h.Flash, back, view.FlashError, ae.PublicMsg)
	}
}

// returnTo reads the return param: either a local console path or the
// list query string to restore. clearSel drops the row selection.
func (l *list[T]) returnTo(c *gin.Context, clearSel bool) string {
	ret := c.PostForm("return")
	if ret == "" {
		ret = c.Query("return")
	}
	if strings.HasPrefix(ret, "/admin") && !strings.Contains(ret, "//") {
		return ret
	}
	q, err := url.ParseQuery(strings.TrimPrefix(ret, "?"))
	if clearSel {
		q.Del("sel")
	}
	if err != nil || len(q) == 0 {
		return l.path()
	}
	return l.path() + "?" + q.Encode()
}

// fail maps a repository miss to pub and anything else to an internal error.
func (h *Handler) fail(c *gin.Context, pub *apperr.AppError, err error) {
	if isNotFound(err) {
		middleware.Fail(c, pub.WithCause(err))
		return
	}
	middleware.Fail(c, apperr.Wrap(err))
}

func isNotFound(err error) bool {
	return errors.Is(err, users.ErrNotFound) ||
		errors.Is(err, orders.ErrNotFound) ||
		errors.Is(err, products.ErrNotFound) ||
		errors.Is(err, reviews.ErrNotFound)
}

func actor(c *gin.Context) string {
	p, _ := middleware.CurrentUser(c)
	return p.UserID
}

func options[T ~string](values []T, label func(T) string, selected string, withAll bool) []view.Option {
	out := make([]view.Option, 0, len(values)+1)
	if withAll {
		out = append(out, view.Option{Value: filter.All, Label: "전체", Selected: selected == "" || selected == filter.All})
	}
	for _, v := range values {
		out = append(out, view.Option{Value: string(v), Label: label(v), Selected: string(v) == selected})
	}
	return out
}

func textField(q url.Values, placeholder string) view.FilterField {
	return view.FilterField{Name: "q", Label: "검색", Type: "search", Value: q.Get("q"), Placeholder: placeholder}
}

func selectField(name, label string, opts []view.Option) view.FilterField {
	return view.FilterField{Name: name, Label: label, Type: "select", Options: opts}
}
