// Package notify turns shop events into email.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"vibeshop.com/app/internal/mailer"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/modules/inquiries"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/pkg/view"
)

type SiteSettings interface {
	Get(ctx context.Context) (settings.Site, error)
}

type Options struct {
	From     string
	FromName string
	// Admins receive shop notifications. When empty the site email is used.
	Admins  []string
	BaseURL string
	// Sync sends inline instead of in the background.
	Sync    bool
	Timeout time.Duration
	Logger  *slog.Logger
}

// Notifier sends mail in the background so request handlers never wait on
// the mail relay. Wait blocks until queued mail is out.
type Notifier struct {
	mail     mailer.Service
	settings SiteSettings
	opts     Options
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func New(m mailer.Service, st SiteSettings, opts Options) *Notifier {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Notifier{mail: m, settings: st, opts: opts, logger: opts.Logger}
}

func (n *Notifier) Wait() { n.wg.Wait() }

// OrderPaid tells the admins about the order and sends the customer a receipt.
func (n *Notifier) OrderPaid(ctx context.Context, o orders.Order) {
	site, ok := n.site(ctx)
	if !ok {
		return
	}
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("%s x %d = %s", it.Name, it.Quantity, view.KRW(it.Subtotal())))
	}
	summary := fmt.Sprintf("주문번호: %s\n주문자: %s (%s)\n결제수단: %s\n결제금액: %s\n\n%s",
		o.OrderNumber, o.CustomerName, o.Email, orders.MethodLabel(o.PaymentMethod), view.KRW(o.Amount), strings.Join(lines, "\n"))

	if site.Notifications.NewOrder {
		n.send(ctx, "order_paid_admin", n.email(site, n.admins(site),
			fmt.Sprintf("[%s] 새 주문이 결제되었습니다 (%s)", site.SiteName, o.OrderNumber),
			summary+"\n\n"+n.opts.BaseURL+"/admin/orders/"+o.ID))
	}
	if o.Email != "" {
		n.send(ctx, "order_paid_customer", n.email(site, []string{o.Email},
			fmt.Sprintf("[%s] 주문이 완료되었습니다", site.SiteName),
			fmt.Sprintf("%s님, 주문해 주셔서 감사합니다.\n\n%s", o.CustomerName, summary)))
	}
}

// LowStock warns the admins about one product crossing the threshold.
func (n *Notifier) LowStock(ctx context.Context, p products.Product) {
	n.LowStockDigest(ctx, []products.Product{p})
}

// LowStockDigest lists every product below the threshold in one mail.
func (n *Notifier) LowStockDigest(ctx context.Context, items []products.Product) {
	if len(items) == 0 {
		return
	}
	site, ok := n.site(ctx)
	if !ok || !site.Notifications.LowStock {
		return
	}
	lines := make([]string, 0, len(items))
	for _, p := range items {
		lines = append(lines, fmt.Sprintf("- %s: %d개 남음", p.Name, p.Stock))
	}
	subject := fmt.Sprintf("[%s] 재고 부족 알림 (%d개 상품)", site.SiteName, len(items))
	n.send(ctx, "low_stock", n.email(site, n.admins(site), subject,
		strings.Join(lines, "\n")+"\n\n"+n.opts.BaseURL+"/admin/products"))
}

// Observe is an auth observer; it announces new accounts.
func (n *Notifier) Observe(ev auth.Event) {
	if ev.Kind != auth.EventSignedUp {
		return
	}
	ctx := context.Background()
	site, ok := n.site(ctx)
	if !ok || !site.Notifications.NewUser {
		return
	}
	name := ev.Name
	if name == "" {
		name = ev.Email
	}
	n.send(ctx, "new_user", n.email(site, n.admins(site),
		fmt.Sprintf("[%s] 신규 회원 가입: %s", site.SiteName, name),
		fmt.Sprintf("이름: %s\n이메일: %s\n가입 방식: %s\n가입 시각: %s", name, ev.Email, ev.Provider, ev.At.Format(time.RFC3339))))
}

// Inquiry forwards a contact form submission to the admins.
func (n *Notifier) Inquiry(ctx context.Context, in inquiries.Inquiry) {
	site, ok := n.site(ctx)
	if !ok {
		return
	}
	e := n.email(site, n.admins(site),
		fmt.Sprintf("[%s] 문의: %s", site.SiteName, in.Subject),
		fmt.Sprintf("이름: %s\n이메일: %s\n연락처: %s\n\n%s", in.Name, in.Email, in.Phone, in.Message))
	e.ReplyTo = in.Email
	n.send(ctx, "inquiry", e)
}

func (n *Notifier) site(ctx context.Context) (settings.Site, bool) {
	site, err := n.settings.Get(ctx)
	if err != nil {
		n.logger.ErrorContext(ctx, "notify_settings_failed", "err", err)
		return settings.Site{}, false
	}
	return site, true
}

func (n *Notifier) admins(site settings.Site) []string {
	if len(n.opts.Admins) > 0 {
		return n.opts.Admins
	}
	return []string{site.SiteEmail}
}

func (n *Notifier) email(site settings.Site, to []string, subject, text string) mailer.Email {
	fromName := n.opts.FromName
	if fromName == "" {
		fromName = site.SiteName
	}
	return mailer.Email{
		From:     n.opts.From,
		FromName: fromName,
		To:       to,
		Subject:  subject,
		TextBody: text,
		HTMLBody: "<div style=\"font-family:sans-serif;white-space:pre-line\">" + template.HTMLEscapeString(text) + "</div>",
	}
}

func (n *Notifier) send(ctx context.Context, kind string, e mailer.Email) {
	e.Category = kind
	deliver := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
		if err := n.mail.Send(ctx, e); err != nil {
			n.logger.ErrorContext(ctx, "notify_send_failed", "kind", kind, "to", e.To, "err", err)
			return
		}
		n.logger.InfoContext(ctx, "notify_sent", "kind", kind, "to", e.To)
	}
	if n.opts.Sync {
		deliver(ctx)
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		deliver(context.WithoutCancel(ctx))
	}()
}
