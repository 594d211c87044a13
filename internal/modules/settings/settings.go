// Package settings holds the site configuration admins edit at runtime.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
)

const (
	Collection = "settings"
	SiteID     = "site"
)

type PaymentMethods struct {
	Card     bool `doc:"card"`
	Toss     bool `doc:"toss"`
	Transfer bool `doc:"transfer"`
}

type Notifications struct {
	NewOrder bool `doc:"newOrder"`
	LowStock bool `doc:"lowStock"`
	NewUser  bool `doc:"newUser"`
}

type Site struct {
	SiteName       string         `doc:"siteName"`
	SiteEmail      string         `doc:"siteEmail"`
	SitePhone      string         `doc:"sitePhone"`
	PaymentMethods PaymentMethods `doc:"paymentMethods"`
	Notifications  Notifications  `doc:"notifications"`
}

// Methods lists the enabled payment method codes in display order.
func (s Site) Methods() []string {
	var out []string
	if s.PaymentMethods.Card {
		out = append(out, "card")
	}
	if s.PaymentMethods.Toss {
		out = append(out, "toss")
	}
	if s.PaymentMethods.Transfer {
		out = append(out, "transfer")
	}
	return out
}

func (s Site) MethodEnabled(m string) bool {
	for _, x := range s.Methods() {
		if x == m {
			return true
		}
	}
	return false
}

func (s Site) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.SiteName, validation.Required.Error("사이트 이름을 입력해 주세요."), validation.RuneLength(1, 60)),
		validation.Field(&s.SiteEmail, validation.Required.Error("대표 이메일을 입력해 주세요."), is.EmailFormat.Error("이메일 형식이 올바르지 않습니다.")),
		validation.Field(&s.SitePhone, validation.RuneLength(0, 30)),
		validation.Field(&s.PaymentMethods, validation.By(func(any) error {
			if len(s.Methods()) == 0 {
				return errors.New("결제 수단을 하나 이상 선택해 주세요.")
			}
			return nil
		})),
	)
}

// Defaults applies when the settings document has never been saved.
func Defaults(siteName string) Site {
	return Site{
		SiteName:       siteName,
		SiteEmail:      "contact@vibeshop.local",
		PaymentMethods: PaymentMethods{Card: true, Toss: true, Transfer: true},
		Notifications:  Notifications{NewOrder: true, LowStock: true, NewUser: false},
	}
}

// Service reads and writes the settings/site document. Reads are served
// from memory after the first load.
type Service struct {
	store    docstore.Store
	defaults Site
	logger   *slog.Logger

	mu     sync.RWMutex
	cached *Site
}

func NewService(store docstore.Store, defaults Site, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, defaults: defaults, logger: logger}
}

func (s *Service) Get(ctx context.Context) (Site, error) {
	s.mu.RLock()
	if s.cached != nil {
		defer s.mu.RUnlock()
		return *s.cached, nil
	}
	s.mu.RUnlock()

	site := s.defaults
	d, err := s.store.Get(ctx, Collection, SiteID)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
	case err != nil:
		return Site{}, err
	default:
		if err := d.Decode(&site); err != nil {
			return Site{}, err
		}
	}
	s.mu.Lock()
	s.cached = &site
	s.mu.Unlock()
	return site, nil
}

// Save validates and replaces the settings document.
func (s *Service) Save(ctx context.Context, site Site) error {
	site.SiteName = strings.TrimSpace(site.SiteName)
	site.SiteEmail = strings.TrimSpace(site.SiteEmail)
	site.SitePhone = strings.TrimSpace(site.SitePhone)
	if err := site.Validate(); err != nil {
		return validationErr(err)
	}
	err := s.store.Set(ctx, Collection, SiteID, docstore.Data{
		"siteName":  site.SiteName,
		"siteEmail": site.SiteEmail,
		"sitePhone": site.SitePhone,
		"paymentMethods": map[string]any{
			"card":     site.PaymentMethods.Card,
			"toss":     site.PaymentMethods.Toss,
			"transfer": site.PaymentMethods.Transfer,
		},
		"notifications": map[string]any{
			"newOrder": site.Notifications.NewOrder,
			"lowStock": site.Notifications.LowStock,
			"newUser":  site.Notifications.NewUser,
		},
	})
	if err != nil {
		return apperr.Wrap(err)
	}
	s.mu.Lock()
	s.cached = &site
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "settings_saved", "methods", site.Methods())
	return nil
}

func validationErr(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperr.InvalidErr("설정 값을 확인해 주세요.", nil)
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[strings.ToLower(k)] = v.Error()
	}
	return apperr.InvalidErr("설정 값을 확인해 주세요.", fields)
}
