package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vibeshop.com/app/internal/mailer"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/modules/inquiries"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/settings"
)

type staticSettings settings.Site

func (s staticSettings) Get(context.Context) (settings.Site, error) { return settings.Site(s), nil }

func newNotifier(site settings.Site, admins ...string) (*Notifier, *mailer.Mock) {
	m := &mailer.Mock{}
	return New(m, staticSettings(site), Options{From: "no-reply@vibeshop.local", Admins: admins, BaseURL: "https://shop.example.com/"}), m
}

func TestNotifier_OrderPaid(t *testing.T) {
	defer goleak.VerifyNone(t)
	n, m := newNotifier(settings.Defaults("VibeShop"), "ops@vibeshop.local")
	n.OrderPaid(context.Background(), orders.Order{
		ID:           "o1",
		OrderNumber:  "ORD-20260101-ABCDEF",
		CustomerName: "김철수",
		Email:        "kim@example.com",
		Amount:       30000,
		Items:        []orders.Item{{Name: "텀블러", Price: 15000, Quantity: 2}},
	})
	n.Wait()

	sent := m.Sent()
	require.Len(t, sent, 2)
	byTo := map[string]mailer.Email{}
	for _, e := range sent {
		byTo[e.To[0]] = e
	}
	admin := byTo["ops@vibeshop.local"]
	assert.Contains(t, admin.Subject, "ORD-20260101-ABCDEF")
	assert.Contains(t, admin.TextBody, "텀블러 x 2 = ₩30,000")
	assert.Contains(t, admin.TextBody, "https://shop.example.com/admin/orders/o1")
	assert.Equal(t, "VibeShop", admin.FromName)
	assert.Contains(t, byTo["kim@example.com"].TextBody, "김철수님")
}

func TestNotifier_Toggles(t *testing.T) {
	defer goleak.VerifyNone(t)
	site := settings.Defaults("VibeShop")
	site.Notifications = settings.Notifications{}
	n, m := newNotifier(site)
	ctx := context.Background()

	n.OrderPaid(ctx, orders.Order{OrderNumber: "ORD-1"})
	n.LowStock(ctx, products.Product{Name: "머그컵", Stock: 1})
	n.Observe(auth.Event{Kind: auth.EventSignedUp, Email: "new@example.com", At: time.Now()})
	n.Wait()
	assert.Empty(t, m.Sent(), "order without email and disabled toggles send nothing")

	site.Notifications = settings.Notifications{LowStock: true, NewUser: true}
	n, m = newNotifier(site)
	n.LowStockDigest(ctx, []products.Product{{Name: "머그컵", Stock: 1}, {Name: "텀블러", Stock: 0}})
	n.Observe(auth.Event{Kind: auth.EventSignedIn, Email: "old@example.com"})
	n.Observe(auth.Event{Kind: auth.EventSignedUp, Email: "new@example.com", Provider: "password", At: time.Now()})
	n.Wait()

	sent := m.Sent()
	require.Len(t, sent, 2)
	for _, e := range sent {
		assert.Equal(t, []string{site.SiteEmail}, e.To, "falls back to the site email")
	}
}

func TestNotifier_Inquiry(t *testing.T) {
	defer goleak.VerifyNone(t)
	n, m := newNotifier(settings.Defaults("VibeShop"), "cs@vibeshop.local")
	n.opts.Sync = true
	n.Inquiry(context.Background(), inquiries.Inquiry{Name: "홍길동", Email: "hong@example.com", Subject: "배송", Message: "<b>언제</b>"})

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hong@example.com", sent[0].ReplyTo)
	assert.Equal(t, "inquiry", sent[0].Category)
	assert.Contains(t, sent[0].HTMLBody, "&lt;b&gt;언제&lt;/b&gt;")
}
