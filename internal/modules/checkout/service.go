package checkout

import (
	"context"
	"errors"
	"log/slog"

	"vibeshop.com/app/internal/modules/cart"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/internal/shared/apperr"
)

// Form is the checkout form. Binding rules run before any I/O.
type Form struct {
	Name          string `form:"name" binding:"required,max=50"`
	Email         string `form:"email" binding:"required,email,max=255"`
	Phone         string `form:"phone" binding:"required,max=20"`
	Address       string `form:"address" binding:"required,max=200"`
	AddressDetail string `form:"address_detail" binding:"max=200"`
	ZipCode       string `form:"zip_code" binding:"required,max=10"`
	PaymentMethod string `form:"payment_method" binding:"required,oneof=card toss transfer"`
}

type SiteSettings interface {
	Get(ctx context.Context) (settings.Site, error)
}

type Service struct {
	cart     *cart.Service
	orders   *orders.Service
	settings SiteSettings
	logger   *slog.Logger
}

func NewService(c *cart.Service, o *orders.Service, st SiteSettings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cart: c, orders: o, settings: st, logger: logger}
}

// Place turns the cart into a pending order priced from the current
// catalog. Every line must still be purchasable in the requested quantity.
func (s *Service) Place(ctx context.Context, userID string, f Form, c cart.Cart) (orders.Order, error) {
	if c.Empty() {
		return orders.Order{}, ErrEmptyCart
	}
	site, err := s.settings.Get(ctx)
	if err != nil {
		return orders.Order{}, apperr.Wrap(err)
	}
	if !site.MethodEnabled(f.PaymentMethod) {
		return orders.Order{}, ErrMethodDisabled
	}
	page, _, err := s.cart.Build(ctx, c)
	if err != nil {
		return orders.Order{}, err
	}
	if len(page.Items) == 0 {
		return orders.Order{}, ErrEmptyCart
	}
	if err := checkStock(page); err != nil {
		var oos *OutOfStockError
		if errors.As(err, &oos) {
			s.logger.InfoContext(ctx, "checkout_out_of_stock", "user_id", userID, "items", len(oos.Items))
			return orders.Order{}, oos.Public()
		}
		return orders.Order{}, err
	}

	items := make([]orders.Item, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, orders.Item{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Qty,
		})
	}
	return s.orders.Place(ctx, orders.PlaceInput{
		UserID:        userID,
		CustomerName:  f.Name,
		Email:         f.Email,
		Phone:         f.Phone,
		Address:       f.Address,
		AddressDetail: f.AddressDetail,
		ZipCode:       f.ZipCode,
		PaymentMethod: f.PaymentMethod,
		Items:         items,
	})
}

// FindOwned returns the order with the number if it belongs to userID.
func (s *Service) FindOwned(ctx context.Context, userID, number string) (orders.Order, error) {
	o, err := s.orders.Repo().FindByNumber(ctx, number)
	if errors.Is(err, orders.ErrNotFound) {
		return orders.Order{}, ErrOrderNotFoundPub.WithCause(err)
	}
	if err != nil {
		return orders.Order{}, apperr.Wrap(err)
	}
	if o.UserID != userID {
		return orders.Order{}, ErrOrderNotFoundPub
	}
	return o, nil
}
