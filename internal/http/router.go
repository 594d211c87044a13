package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/http/cartcookie"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/http/handlers/admin"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/pkg/view"
	"vibeshop.com/app/templates"
)

// Deps is everything the router mounts. Handlers are built by the caller so
// tests can swap in fakes.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Renderer  *render.Renderer
	Flash     *flash.Codec
	Cart      *cartcookie.Codec
	Sessions  middleware.SessionResolver
	Site      middleware.SiteSettings
	RateStore limiter.Store
	// Uploads serves locally stored files; nil when storage is remote.
	Uploads http.FileSystem

	Store    *handlers.StoreHandler
	CartH    *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Payment  *handlers.PaymentHandler
	Auth     *handlers.AuthHandler
	Account  *handlers.AccountHandler
	Reviews  *handlers.ReviewsHandler
	Admin    *admin.Handler
}

func (d Deps) sessionCookie() middleware.SessionCookie {
	return middleware.SessionCookie{
		Name:   d.Config.Session.CookieName,
		Secure: d.Config.Session.Secure,
		TTL:    d.Config.Session.TTL,
	}
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	l := d.Logger
	errorPage := d.Renderer.Error
	r.Use(
		middleware.RequestID(),
		middleware.Logger(l, "/static/", d.Config.Storage.LocalURLPrefix, "/healthz", "/metrics"),
		middleware.Recovery(l, errorPage),
		middleware.Metrics(d.Metrics),
		middleware.ErrorHandler(l, errorPage),
	)

	r.StaticFS("/static", http.FS(templates.Static()))
	if d.Uploads != nil {
		r.StaticFS(d.Config.Storage.LocalURLPrefix, d.Uploads)
	}
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	// Provider callbacks carry no session or CSRF token.
	r.POST("/webhooks/toss", d.Payment.Webhook)

	web := r.Group("",
		middleware.Flash(d.Flash, l),
		middleware.Site(d.Site, d.Config.App.SiteName, l),
		middleware.Session(d.Sessions, d.sessionCookie(), l),
		middleware.CSRF(d.Config.Session.Secure, "/webhooks/"),
		middleware.CartCount(d.Cart),
	)

	tooMany := func(c *gin.Context) {
		render.RedirectWithFlash(c, d.Flash, backPath(c), view.FlashWarning, "요청이 너무 많습니다. 잠시 후 다시 시도해 주세요.")
		c.Abort()
	}
	rl := d.Config.RateLimit
	authLimit := middleware.RateLimit(d.RateStore, "auth", rl.AuthLimit, rl.AuthPeriod, tooMany)
	reviewLimit := middleware.RateLimit(d.RateStore, "review", rl.ReviewLimit, rl.ReviewPeriod, tooMany)

	web.GET("/", d.Store.Home)
	web.GET("/products", d.Store.Products)
	web.GET("/products/:slug", d.Store.ProductDetail)
	web.GET("/about", d.Store.About)
	web.GET("/services", d.Store.Services)
	web.GET("/contact", d.Store.Contact)
	web.POST("/contact", reviewLimit, d.Store.ContactSubmit)

	web.GET("/cart", d.CartH.Show)
	web.POST("/cart/add", d.CartH.Add)
	web.POST("/cart/update", d.CartH.Update)
	web.POST("/cart/remove", d.CartH.Remove)

	web.GET("/reviews", d.Reviews.List)

	web.GET("/payment/success", d.Payment.Success)
	web.GET("/payment/fail", d.Payment.Fail)

	authGroup := web.Group("", authLimit)
	authGroup.GET("/login", d.Auth.LoginForm)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.GET("/signup", d.Auth.SignupForm)
	authGroup.POST("/signup", d.Auth.Signup)
	authGroup.GET("/auth/google", d.Auth.Google)
	authGroup.GET("/auth/google/callback", d.Auth.GoogleCallback)
	web.POST("/logout", d.Auth.Logout)

	member := web.Group("", middleware.RequireAuth(d.Flash))
	member.GET("/checkout", d.Checkout.Show)
	member.POST("/checkout", d.Checkout.Submit)
	member.GET("/checkout/pay/:number", d.Checkout.Pay)
	member.GET("/order-complete", d.Checkout.Complete)

	member.GET("/reviews/write", d.Reviews.WriteForm)
	member.POST("/reviews/write", reviewLimit, d.Reviews.Write)

	member.GET("/mypage", d.Account.Overview)
	member.GET("/mypage/orders", d.Account.Orders)
	member.GET("/mypage/reviews", d.Account.Reviews)
	member.GET("/mypage/profile", d.Account.Profile)
	member.POST("/mypage/profile", d.Account.ProfileSubmit)
	member.POST("/mypage/password", authLimit, d.Account.Password)

	d.Admin.Register(web.Group("/admin", middleware.RequireAdmin(d.Flash)))

	r.NoRoute(middleware.Flash(d.Flash, l), middleware.Site(d.Site, d.Config.App.SiteName, l), func(c *gin.Context) {
		d.Renderer.Error(c, http.StatusNotFound, "페이지를 찾을 수 없습니다.", middleware.GetRequestID(c))
	})
	return r
}

// backPath is the local page the request came from, or the site root.
func backPath(c *gin.Context) string {
	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Host != c.Request.Host || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
