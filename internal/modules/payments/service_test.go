package payments

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/storage"
	"vibeshop.com/app/internal/testutil"
)

type recorder struct {
	mu   sync.Mutex
	paid []string
	low  []string
}

func (r *recorder) OrderPaid(_ context.Context, o orders.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, o.OrderNumber)
}

func (r *recorder) LowStock(_ context.Context, p products.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.low = append(r.low, p.Name)
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	orders   *orders.Service
	products *products.Service
	mock     *Mock
	events   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t, &docstore.Row{}, &ProviderEvent{})
	store := docstore.NewRepo(db)
	ord := orders.NewService(orders.NewRepo(store), nil)
	prod := products.NewService(products.NewRepo(store), storage.NewLocal(t.TempDir(), "/uploads"), nil)
	mock := NewMock()
	rec := &recorder{}
	svc := NewService(db, mock, ord, prod, Options{
		BaseURL:           "https://shop.example.com/",
		LowStockThreshold: 10,
		Listener:          rec,
		RetryBase:         time.Millisecond,
	})
	ord.WithCanceller(svc)
	return &fixture{db: db, svc: svc, orders: ord, products: prod, mock: mock, events: rec}
}

func (f *fixture) place(t *testing.T, stock int) (orders.Order, products.Product) {
	t.Helper()
	ctx := context.Background()
	p, err := f.products.Create(ctx, products.Draft{Name: "텀블러", Price: 15000, Stock: stock, Category: "굿즈", Status: products.StatusActive, Visible: true})
	require.NoError(t, err)
	o, err := f.orders.Place(ctx, orders.PlaceInput{
		UserID:        "u1",
		CustomerName:  "김철수",
		Email:         "kim@example.com",
		Phone:         "010-1234-5678",
		PaymentMethod: orders.MethodCard,
		Items:         []orders.Item{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: 2}},
	})
	require.NoError(t, err)
	return o, p
}

func amountOf(o orders.Order) string { return decimal.NewFromInt(o.Amount).String() }

func TestService_Initiate(t *testing.T) {
	f := newFixture(t)
	o, _ := f.place(t, 20)

	w, err := f.svc.Initiate(o)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, w.OrderID)
	assert.Equal(t, int64(30000), w.Amount)
	assert.Equal(t, "텀블러", w.OrderName)
	assert.Equal(t, "01012345678", w.CustomerPhone)
	assert.Equal(t, "u1", w.CustomerKey)
	assert.Equal(t, "https://shop.example.com/payment/success", w.SuccessURL)
	assert.Equal(t, "https://shop.example.com/payment/fail", w.FailURL)
	assert.True(t, w.Mock())

	o.PaymentMethod = orders.MethodTransfer
	_, err = f.svc.Initiate(o)
	assert.ErrorIs(t, err, ErrMethodNotWidget)

	o.PaymentMethod = orders.MethodCard
	o.Status = orders.StatusPaid
	_, err = f.svc.Initiate(o)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestService_ConfirmSuccess(t *testing.T) {
	ctx := context.Background()

	t.Run("Should confirm, mark paid and fulfil once", func(t *testing.T) {
		f := newFixture(t)
		o, p := f.place(t, 11)
		key := NewMockKey(o.OrderNumber, decimal.NewFromInt(o.Amount))

		got, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: amountOf(o)})
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPaid, got.Status)
		assert.Equal(t, key, got.PaymentKey)
		require.NotNil(t, got.PaidAt)

		again, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: amountOf(o)})
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPaid, again.Status)

		stocked, err := f.products.Repo().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 9, stocked.Stock, "decremented exactly once")
		assert.Equal(t, []string{o.OrderNumber}, f.events.paid)
		assert.Equal(t, []string{"텀블러"}, f.events.low)
	})

	t.Run("Should reject a tampered redirect amount without calling the provider", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.place(t, 20)
		key := NewMockKey(o.OrderNumber, decimal.NewFromInt(100))

		_, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: "100"})
		require.ErrorIs(t, err, ErrAmountMismatch)

		_, err = f.mock.Lookup(ctx, key)
		assert.True(t, IsProviderCode(err, CodeNotFound), "provider was not called")
		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, got.Status)
	})

	t.Run("Should reject when the provider confirms a different amount", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.place(t, 20)
		key := "mock_other"
		f.mock.Put(Payment{PaymentKey: key, OrderID: o.OrderNumber, Status: StatusDone, TotalAmount: decimal.NewFromInt(1)})

		_, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: amountOf(o)})
		require.Error(t, err)
		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, got.Status)
	})

	t.Run("Should record a provider rejection on the order", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.place(t, 20)

		_, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: "real_key", OrderID: o.OrderNumber, Amount: amountOf(o)})
		require.True(t, apperr.Is(err, apperr.Conflict))
		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, got.Status)
		assert.Equal(t, CodeNotFound, got.FailureCode)
	})

	t.Run("Should validate the redirect parameters", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: "k", OrderID: "ORD-1", Amount: "abc"})
		assert.ErrorIs(t, err, ErrInvalidRedirect)
		_, err = f.svc.ConfirmSuccess(ctx, SuccessParams{OrderID: "ORD-1", Amount: "1"})
		assert.ErrorIs(t, err, ErrInvalidRedirect)
		_, err = f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: "k", OrderID: "ORD-404", Amount: "1"})
		assert.True(t, apperr.Is(err, apperr.NotFound))
	})
}

func TestService_HandleFail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o, _ := f.place(t, 20)

	got, err := f.svc.HandleFail(ctx, o.OrderNumber, "PAY_PROCESS_CANCELED", "사용자에 의해 결제가 취소되었습니다.")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, got.Status)

	stored, err := f.orders.Repo().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAY_PROCESS_CANCELED", stored.FailureCode)
	assert.Equal(t, "사용자에 의해 결제가 취소되었습니다.", stored.FailureMessage)
}

func TestService_RefundCancelsAtProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o, _ := f.place(t, 20)
	key := NewMockKey(o.OrderNumber, decimal.NewFromInt(o.Amount))
	paid, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: amountOf(o)})
	require.NoError(t, err)

	_, err = f.orders.Refund(ctx, "admin", paid, "")
	require.NoError(t, err)

	p, err := f.mock.Lookup(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, p.Status)
	got, err := f.orders.Repo().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusRefunded, got.Status)
}

func webhookBody(t *testing.T, p Payment) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"eventType": "PAYMENT_STATUS_CHANGED",
		"createdAt": "2026-01-01T00:00:00.000000",
		"data":      map[string]any{"paymentKey": p.PaymentKey, "orderId": p.OrderID, "status": p.Status},
	})
	require.NoError(t, err)
	return b
}

func TestService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reconcile a confirmed payment the redirect never reported", func(t *testing.T) {
		f := newFixture(t)
		o, p := f.place(t, 20)
		pay := Payment{PaymentKey: "mock_wh", OrderID: o.OrderNumber, Status: StatusDone, TotalAmount: decimal.NewFromInt(o.Amount)}
		f.mock.Put(pay)

		require.NoError(t, f.svc.HandleWebhook(ctx, webhookBody(t, pay)))
		require.NoError(t, f.svc.HandleWebhook(ctx, webhookBody(t, pay)))

		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPaid, got.Status)
		stocked, err := f.products.Repo().Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 18, stocked.Stock)

		var n int64
		require.NoError(t, f.db.Model(&ProviderEvent{}).Count(&n).Error)
		assert.Equal(t, int64(1), n)
	})

	t.Run("Should trust the lookup over the webhook body", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.place(t, 20)
		f.mock.Put(Payment{PaymentKey: "mock_low", OrderID: o.OrderNumber, Status: StatusDone, TotalAmount: decimal.NewFromInt(1)})

		err := f.svc.HandleWebhook(ctx, webhookBody(t, Payment{PaymentKey: "mock_low", OrderID: o.OrderNumber, Status: StatusDone}))
		require.ErrorIs(t, err, ErrAmountMismatch)

		var ev ProviderEvent
		require.NoError(t, f.db.First(&ev).Error)
		assert.Nil(t, ev.ProcessedAt)
		require.NotNil(t, ev.ProcessError)
		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusPending, got.Status)
	})

	t.Run("Should mark a paid order refunded when the provider cancelled it", func(t *testing.T) {
		f := newFixture(t)
		o, _ := f.place(t, 20)
		key := NewMockKey(o.OrderNumber, decimal.NewFromInt(o.Amount))
		_, err := f.svc.ConfirmSuccess(ctx, SuccessParams{PaymentKey: key, OrderID: o.OrderNumber, Amount: amountOf(o)})
		require.NoError(t, err)
		cancelled, err := f.mock.Cancel(ctx, key, "고객 요청")
		require.NoError(t, err)

		require.NoError(t, f.svc.HandleWebhook(ctx, webhookBody(t, cancelled)))
		got, err := f.orders.Repo().Get(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, orders.StatusRefunded, got.Status)
	})

	t.Run("Should reject malformed payloads", func(t *testing.T) {
		f := newFixture(t)
		assert.True(t, apperr.Is(f.svc.HandleWebhook(ctx, []byte("{")), apperr.Invalid))
		err := f.svc.HandleWebhook(ctx, []byte(`{"eventType":"PAYMENT_STATUS_CHANGED","data":{}}`))
		assert.True(t, errors.Is(err, ErrBadWebhook) || apperr.Is(err, apperr.Invalid))
	})
}
