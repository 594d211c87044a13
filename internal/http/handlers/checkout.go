package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"vibeshop.com/app/internal/http/cartcookie"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/cart"
	"vibeshop.com/app/internal/modules/checkout"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/payments"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/pkg/view"
)

type CheckoutHandler struct {
	R        *render.Renderer
	Flash    *flash.Codec
	CK       *cartcookie.Codec
	Cart     *cart.Service
	Checkout *checkout.Service
	Payments *payments.Service
	Settings *settings.Service
	Users    *users.Repo
	Images   ImageResolver
	Loc      *time.Location
	Logger   *slog.Logger
}

// Show renders the checkout form prefilled from the member profile.
func (h *CheckoutHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	p, _ := middleware.CurrentUser(c)
	form := checkout.Form{Name: p.Name, Email: p.Email}
	if u, err := h.Users.Get(ctx, p.UserID); err == nil {
		form.Name, form.Phone, form.Address = u.Name, u.Phone, u.Address
	}
	h.renderForm(c, http.StatusOK, form, nil)
}

func (h *CheckoutHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	var form checkout.Form
	if err := c.ShouldBind(&form); err != nil {
		h.renderForm(c, http.StatusBadRequest, form, validation.FromBindError(err, &form))
		return
	}

	o, err := h.Checkout.Place(ctx, userID(c), form, h.CK.Get(c))
	if validation.IsInvalid(err) {
		h.renderForm(c, http.StatusBadRequest, form, validation.FromAppError(err))
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.CK.Clear(c)

	if o.PaymentMethod == orders.MethodTransfer {
		render.RedirectWithFlash(c, h.Flash, completeURL(o.OrderNumber), view.FlashSuccess, "주문이 접수되었습니다.")
		return
	}
	render.Redirect(c, "/checkout/pay/"+url.PathEscape(o.OrderNumber))
}

// Pay renders the payment widget for a pending order of the member.
func (h *CheckoutHandler) Pay(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.Checkout.FindOwned(ctx, userID(c), c.Param("number"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if o.Status != orders.StatusPending {
		render.Redirect(c, completeURL(o.OrderNumber))
		return
	}
	w, err := h.Payments.Initiate(o)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.R.Page(c, http.StatusOK, "payment", "결제하기", widgetView(w))
}

// Complete shows an order of the member after checkout or payment.
func (h *CheckoutHandler) Complete(c *gin.Context) {
	o, err := h.Checkout.FindOwned(c.Request.Context(), userID(c), c.Query("orderId"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.R.Page(c, http.StatusOK, "order_complete", "주문 완료", view.OrderCompletePage{Order: OrderView(o, h.Loc)})
}

func (h *CheckoutHandler) renderForm(c *gin.Context, status int, form checkout.Form, errs view.FieldErrors) {
	ctx := c.Request.Context()
	ct := h.CK.Get(c)
	if ct.Empty() {
		render.RedirectWithFlash(c, h.Flash, "/cart", view.FlashWarning, "장바구니가 비어 있습니다.")
		return
	}
	page, _, err := h.Cart.Build(ctx, ct)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if page.HasUnavailable() && status == http.StatusOK {
		render.RedirectWithFlash(c, h.Flash, "/cart", view.FlashWarning, "구매할 수 없는 상품을 정리한 뒤 주문해 주세요.")
		return
	}
	site, err := h.Settings.Get(ctx)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	methods := site.Methods()
	if form.PaymentMethod == "" && len(methods) > 0 {
		form.PaymentMethod = methods[0]
	}
	opts := make([]view.Option, 0, len(methods))
	for _, m := range methods {
		opts = append(opts, view.Option{Value: m, Label: orders.MethodLabel(m), Selected: m == form.PaymentMethod})
	}
	h.R.Page(c, status, "checkout", "주문/결제", view.CheckoutPage{
		Form:    view.CheckoutForm(form),
		Methods: opts,
		Errors:  errs,
		Cart:    cartPage(ctx, h.Images, page),
	})
}

func completeURL(number string) string {
	return "/order-complete?orderId=" + url.QueryEscape(number)
}

func widgetView(w payments.WidgetParams) view.PaymentWidget {
	out := view.PaymentWidget{
		ClientKey:     w.ClientKey,
		CustomerKey:   w.CustomerKey,
		Amount:        w.Amount,
		AmountText:    view.KRW(w.Amount),
		OrderID:       w.OrderID,
		OrderName:     w.OrderName,
		CustomerName:  w.CustomerName,
		CustomerEmail: w.CustomerEmail,
		CustomerPhone: w.CustomerPhone,
		SuccessURL:    w.SuccessURL,
		FailURL:       w.FailURL,
		Mock:          w.Mock(),
	}
	if out.Mock {
		amount := decimal.NewFromInt(w.Amount)
		ok := url.Values{}
		ok.Set("paymentKey", payments.NewMockKey(w.OrderID, amount))
		ok.Set("orderId", w.OrderID)
		ok.Set("amount", amount.String())
		out.MockSuccessURL = withQuery(w.SuccessURL, ok)

		fail := url.Values{}
		fail.Set("code", "PAY_PROCESS_CANCELED")
		fail.Set("message", "사용자가 결제를 취소했습니다.")
		fail.Set("orderId", w.OrderID)
		out.MockFailURL = withQuery(w.FailURL, fail)
	}
	return out
}

func withQuery(base string, q url.Values) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%s", base, sep, q.Encode())
}
