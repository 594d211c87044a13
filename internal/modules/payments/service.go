package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/shared/apperr"
)

// StockKeeper decrements product stock once an order is paid.
type StockKeeper interface {
	DecrementStock(ctx context.Context, id string, qty int) (products.Product, error)
}

// Listener receives fulfilment notifications. Calls must not block.
type Listener interface {
	OrderPaid(ctx context.Context, o orders.Order)
	LowStock(ctx context.Context, p products.Product)
}

type Options struct {
	// BaseURL is the public site origin used for the redirect URLs.
	BaseURL           string
	LowStockThreshold int
	Listener          Listener
	Logger            *slog.Logger
	// WriteRetries bounds the retries of the order write after a confirmed
	// payment.
	WriteRetries uint64
	RetryBase    time.Duration
}

type Service struct {
	db       *gorm.DB
	provider Provider
	orders   *orders.Service
	stock    StockKeeper
	opts     Options
	logger   *slog.Logger
}

func NewService(db *gorm.DB, p Provider, ord *orders.Service, stock StockKeeper, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.WriteRetries == 0 {
		opts.WriteRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 100 * time.Millisecond
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Service{db: db, provider: p, orders: ord, stock: stock, opts: opts, logger: opts.Logger}
}

func (s *Service) Provider() Provider { return s.provider }

// WidgetParams is everything the browser widget needs to start a payment.
type WidgetParams struct {
	Provider      string
	ClientKey     string
	CustomerKey   string
	Amount        int64
	OrderID       string
	OrderName     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SuccessURL    string
	FailURL       string
}

func (w WidgetParams) Mock() bool { return w.Provider == "mock" }

// Initiate builds the widget parameters for a pending card or toss order.
func (s *Service) Initiate(o orders.Order) (WidgetParams, error) {
	if o.Status != orders.StatusPending {
		return WidgetParams{}, ErrOrderNotPayable
	}
	if o.PaymentMethod != orders.MethodCard && o.PaymentMethod != orders.MethodToss {
		return WidgetParams{}, ErrMethodNotWidget
	}
	customerKey := o.UserID
	if customerKey == "" {
		customerKey = "ANONYMOUS"
	}
	return WidgetParams{
		Provider:      s.provider.Name(),
		ClientKey:     s.provider.ClientKey(),
		CustomerKey:   customerKey,
		Amount:        o.Amount,
		OrderID:       o.OrderNumber,
		OrderName:     o.Name(),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.Email,
		CustomerPhone: digits(o.Phone),
		SuccessURL:    s.opts.BaseURL + "/payment/success",
		FailURL:       s.opts.BaseURL + "/payment/fail",
	}, nil
}

// SuccessParams are the query parameters of the widget's success redirect.
type SuccessParams struct {
	PaymentKey string
	OrderID    string
	Amount     string
}

// ConfirmSuccess finalizes a payment after the widget's success redirect.
// The redirect amount must match the stored order, the provider must
// confirm the payment for that same amount, and only then is the order
// marked paid. Repeating the call for a paid order returns it unchanged.
func (s *Service) ConfirmSuccess(ctx context.Context, in SuccessParams) (orders.Order, error) {
	if in.PaymentKey == "" || in.OrderID == "" {
		return orders.Order{}, ErrInvalidRedirect
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return orders.Order{}, ErrInvalidRedirect
	}
	o, err := s.findOrder(ctx, in.OrderID)
	if err != nil {
		return orders.Order{}, err
	}
	if !decimal.NewFromInt(o.Amount).Equal(amount) {
		s.logger.WarnContext(ctx, "payment_amount_mismatch", "order_number", o.OrderNumber, "expected", o.Amount, "got", amount.String(), "stage", "redirect")
		return orders.Order{}, ErrAmountMismatch
	}
	if o.Status != orders.StatusPending {
		if o.PaymentKey == in.PaymentKey {
			return o, nil
		}
		return orders.Order{}, ErrOrderNotPayable
	}

	p, err := s.provider.Confirm(ctx, ConfirmRequest{PaymentKey: in.PaymentKey, OrderID: o.OrderNumber, Amount: amount})
	if IsProviderCode(err, CodeAlreadyProcessed) {
		p, err = s.provider.Lookup(ctx, in.PaymentKey)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "payment_confirm_failed", "order_number", o.OrderNumber, "payment_key", in.PaymentKey, "err", err)
		var pe *ProviderError
		if errors.As(err, &pe) {
			_ = s.orders.RecordFailure(ctx, o.ID, pe.Code, pe.Message)
		}
		return orders.Order{}, ErrConfirmFailed.WithCause(err)
	}
	if p.OrderID != o.OrderNumber || !p.Done() || !p.TotalAmount.Equal(amount) {
		s.logger.ErrorContext(ctx, "payment_amount_mismatch", "order_number", o.OrderNumber, "payment_key", in.PaymentKey,
			"provider_status", p.Status, "provider_amount", p.TotalAmount.String(), "stage", "confirm")
		return orders.Order{}, ErrAmountMismatch
	}
	s.logger.InfoContext(ctx, "payment_confirmed", "order_number", o.OrderNumber, "payment_key", in.PaymentKey, "method", p.Method)
	return s.markPaid(ctx, o, in.PaymentKey)
}

// HandleFail records the failure reported by the widget's fail redirect.
// The order stays pending.
func (s *Service) HandleFail(ctx context.Context, orderNumber, code, message string) (orders.Order, error) {
	o, err := s.findOrder(ctx, orderNumber)
	if err != nil {
		return orders.Order{}, err
	}
	if err := s.orders.RecordFailure(ctx, o.ID, code, message); err != nil {
		return orders.Order{}, err
	}
	s.logger.InfoContext(ctx, "payment_failed", "order_number", o.OrderNumber, "code", code)
	o.FailureCode, o.FailureMessage = code, message
	return o, nil
}

// CancelPayment cancels the captured payment of an order at the provider.
func (s *Service) CancelPayment(ctx context.Context, o orders.Order, reason string) error {
	if o.PaymentKey == "" {
		return nil
	}
	_, err := s.provider.Cancel(ctx, o.PaymentKey, reason)
	if IsProviderCode(err, "ALREADY_CANCELED_PAYMENT") {
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "payment_cancel_failed", "order_number", o.OrderNumber, "payment_key", o.PaymentKey, "err", err)
		return ErrCancelFailed.WithCause(err)
	}
	s.logger.InfoContext(ctx, "payment_cancelled", "order_number", o.OrderNumber, "payment_key", o.PaymentKey)
	return nil
}

// markPaid writes the confirmed payment onto the order, retrying transient
// write failures, and runs fulfilment the first time the order turns paid.
func (s *Service) markPaid(ctx context.Context, o orders.Order, paymentKey string) (orders.Order, error) {
	var (
		out     orders.Order
		changed bool
	)
	backoff := retry.WithMaxRetries(s.opts.WriteRetries, retry.NewExponential(s.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		got, ch, err := s.orders.MarkPaid(ctx, o.ID, paymentKey)
		if err == nil {
			out, changed = got, ch
			return nil
		}
		if apperr.Is(err, apperr.Conflict) || apperr.Is(err, apperr.NotFound) {
			return err
		}
		s.logger.WarnContext(ctx, "order_mark_paid_retry", "order_id", o.ID, "err", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "order_mark_paid_failed", "order_id", o.ID, "order_number", o.OrderNumber, "payment_key", paymentKey, "err", err)
		return orders.Order{}, err
	}
	if changed {
		s.fulfil(ctx, out)
	}
	return out, nil
}

// fulfil decrements stock for every item, floored at zero, and notifies.
func (s *Service) fulfil(ctx context.Context, o orders.Order) {
	for _, it := range o.Items {
		if it.ProductID == "" || s.stock == nil {
			continue
		}
		p, err := s.stock.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			s.logger.ErrorContext(ctx, "stock_decrement_failed", "order_id", o.ID, "product_id", it.ProductID, "err", err)
			continue
		}
		if s.opts.Listener != nil && p.LowStock(s.opts.LowStockThreshold) {
			s.opts.Listener.LowStock(ctx, p)
		}
	}
	if s.opts.Listener != nil {
		s.opts.Listener.OrderPaid(ctx, o)
	}
}

func (s *Service) findOrder(ctx context.Context, number string) (orders.Order, error) {
	o, err := s.orders.Repo().FindByNumber(ctx, number)
	if errors.Is(err, orders.ErrNotFound) {
		return orders.Order{}, ErrOrderNotFoundPub.WithCause(err)
	}
	if err != nil {
		return orders.Order{}, apperr.Wrap(err)
	}
	return o, nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
