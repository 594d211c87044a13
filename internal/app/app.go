// Package app wires configuration, storage and the domain services into a
// runnable shop. The web server, the CLI and the router tests share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/docstore"
	apphttp "vibeshop.com/app/internal/http"
	"vibeshop.com/app/internal/http/cartcookie"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/http/handlers/admin"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/jobs"
	"vibeshop.com/app/internal/mailer"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/modules/cart"
	"vibeshop.com/app/internal/modules/checkout"
	"vibeshop.com/app/internal/modules/dashboard"
	"vibeshop.com/app/internal/modules/inquiries"
	"vibeshop.com/app/internal/modules/notify"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/payments"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/storage"
	"vibeshop.com/app/templates"
)

// Options override the collaborators New would otherwise build from the
// configuration.
type Options struct {
	Provider payments.Provider
	Mailer   mailer.Service
	Files    storage.Storage
	// Redis backs the rate limiter. Nil keeps the counters in memory.
	Redis redis.UniversalClient
	// SyncMail delivers notifications inline.
	SyncMail bool
}

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *gorm.DB
	Metrics *metrics.Metrics
	Loc     *time.Location

	Store     docstore.Store
	Files     storage.Storage
	Users     *users.Service
	Auth      *auth.Service
	Products  *products.Service
	Orders    *orders.Service
	Reviews   *reviews.Service
	Settings  *settings.Service
	Payments  *payments.Service
	Cart      *cart.Service
	Checkout  *checkout.Service
	Inquiries *inquiries.Service
	Dashboard *dashboard.Service
	Notifier  *notify.Notifier

	redis redis.UniversalClient
}

// New builds the services. It does not touch the network; the S3 client and
// Redis connect lazily.
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger, DB: db, Metrics: metrics.New(), Loc: cfg.App.Location(), redis: opts.Redis}
	a.Store = docstore.NewRepo(db)

	a.Files = opts.Files
	if a.Files == nil {
		res, err := storage.FromConfig(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("app: storage: %w", err)
		}
		a.Files = res.Storage
	}

	mail := opts.Mailer
	if mail == nil {
		m, err := mailer.FromConfig(cfg.Mail, cfg.SMTP, logger)
		if err != nil {
			return nil, fmt.Errorf("app: mailer: %w", err)
		}
		mail = m
	}

	provider := opts.Provider
	if provider == nil {
		provider = NewProvider(cfg.Payments, logger)
	}

	userRepo := users.NewRepo(a.Store)
	productRepo := products.NewRepo(a.Store)
	orderRepo := orders.NewRepo(a.Store)

	a.Settings = settings.NewService(a.Store, settings.Defaults(cfg.App.SiteName), logger)
	a.Notifier = notify.New(mail, a.Settings, notify.Options{
		From:     cfg.Mail.From,
		FromName: cfg.Mail.FromName,
		Admins:   cfg.Mail.AdminRecipients,
		BaseURL:  cfg.App.BaseURL,
		Sync:     opts.SyncMail,
		Logger:   logger,
	})

	var google *auth.GoogleProvider
	if cfg.OAuth.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	}
	a.Auth = auth.NewService(db, userRepo, auth.Options{SessionTTL: cfg.Session.TTL, Google: google, Logger: logger})
	a.Auth.Subscribe(a.Notifier.Observe)

	a.Users = users.NewService(userRepo, a.Auth, logger)
	a.Products = products.NewService(productRepo, a.Files, logger)
	a.Orders = orders.NewService(orderRepo, logger)
	a.Payments = payments.NewService(db, provider, a.Orders, a.Products, payments.Options{
		BaseURL:           cfg.App.BaseURL,
		LowStockThreshold: cfg.Jobs.LowStockThreshold,
		Listener:          a.Notifier,
		Logger:            logger,
	})
	a.Orders.WithCanceller(a.Payments)
	a.Reviews = reviews.NewService(reviews.NewRepo(a.Store), a.Files, reviews.Options{
		AutoApprove: cfg.Reviews.AutoApprove,
		Limits:      reviews.Limits{MaxFiles: cfg.Reviews.MaxFiles, MaxFileBytes: cfg.Reviews.MaxFileBytes},
		Logger:      logger,
	})
	a.Cart = cart.NewService(productRepo)
	a.Checkout = checkout.NewService(a.Cart, a.Orders, a.Settings, logger)
	a.Inquiries = inquiries.NewService(a.Store, a.Notifier, logger)
	a.Dashboard = dashboard.NewService(userRepo, orderRepo, a.Loc)
	return a, nil
}

// NewProvider picks the payment gateway named by payments.provider.
func NewProvider(cfg config.PaymentsConfig, logger *slog.Logger) payments.Provider {
	if cfg.Provider == "toss" {
		return payments.NewToss(payments.TossConfig{
			BaseURL:    cfg.BaseURL,
			ClientKey:  cfg.ClientKey,
			SecretKey:  cfg.SecretKey,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}, logger)
	}
	return payments.NewMock()
}

// Router mounts every handler.
func (a *App) Router() (*gin.Engine, error) {
	cfg := a.Config
	set, err := templates.Parse(a.Loc)
	if err != nil {
		return nil, err
	}
	rateStore, err := middleware.NewRateStore(cfg.RateLimit, a.redis)
	if err != nil {
		return nil, err
	}

	secret := []byte(cfg.App.Secret)
	secure := cfg.Session.Secure
	r := render.New(set, a.Logger)
	fl := flash.NewCodec(secret, "vs_flash", secure)
	ck := cartcookie.New(secret, "vs_cart", secure)
	userRepo := a.Users.Repo()

	d := apphttp.Deps{
		Config:    cfg,
		Logger:    a.Logger,
		Metrics:   a.Metrics,
		Renderer:  r,
		Flash:     fl,
		Cart:      ck,
		Sessions:  a.Auth,
		Site:      a.Settings,
		RateStore: rateStore,
		Store: &handlers.StoreHandler{
			R: r, Flash: fl, Catalog: products.NewCatalog(a.Products.Repo()), Images: a.Products,
			Reviews: a.Reviews, Inquiries: a.Inquiries, Loc: a.Loc, Logger: a.Logger,
		},
		CartH: &handlers.CartHandler{R: r, Flash: fl, CK: ck, Cart: a.Cart, Images: a.Products, Logger: a.Logger},
		Checkout: &handlers.CheckoutHandler{
			R: r, Flash: fl, CK: ck, Cart: a.Cart, Checkout: a.Checkout, Payments: a.Payments,
			Settings: a.Settings, Users: userRepo, Images: a.Products, Loc: a.Loc, Logger: a.Logger,
		},
		Payment: &handlers.PaymentHandler{R: r, Flash: fl, Payments: a.Payments, Metrics: a.Metrics, Logger: a.Logger},
		Auth: &handlers.AuthHandler{
			R: r, Flash: fl, CK: ck, Auth: a.Auth, Logger: a.Logger,
			Session: middleware.SessionCookie{Name: cfg.Session.CookieName, Secure: secure, TTL: cfg.Session.TTL},
		},
		Account: &handlers.AccountHandler{
			R: r, Flash: fl, Auth: a.Auth, Users: userRepo, Orders: a.Orders.Repo(),
			Reviews: a.Reviews, Loc: a.Loc, Logger: a.Logger,
		},
		Reviews: &handlers.ReviewsHandler{R: r, Flash: fl, Reviews: a.Reviews, Loc: a.Loc, Logger: a.Logger},
		Admin: &admin.Handler{
			R: r, Flash: fl, Users: a.Users, Orders: a.Orders, Products: a.Products, Reviews: a.Reviews,
			Settings: a.Settings, Dashboard: a.Dashboard, Metrics: a.Metrics, Loc: a.Loc, Logger: a.Logger,
		},
	}
	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "local" {
		d.Uploads = http.Dir(cfg.Storage.LocalDir)
	}
	return apphttp.NewRouter(d), nil
}

// Scheduler builds the background jobs.
func (a *App) Scheduler() (*jobs.Scheduler, error) {
	return jobs.New(a.Config.Jobs, a.Loc, jobs.Deps{
		Sessions: a.Auth,
		Stock:    a.Products,
		Digest:   a.Notifier,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
}
