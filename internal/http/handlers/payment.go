package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/internal/modules/payments"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

var errPaymentFailed = errors.New("payment failed at the widget")

// maxWebhookBody bounds the webhook payload read into memory.
const maxWebhookBody = 1 << 20

// PaymentHandler receives the widget redirects and provider webhooks.
type PaymentHandler struct {
	R        *render.Renderer
	Flash    *flash.Codec
	Payments *payments.Service
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Success handles GET /payment/success?paymentKey=&orderId=&amount=.
func (h *PaymentHandler) Success(c *gin.Context) {
	o, err := h.Payments.ConfirmSuccess(c.Request.Context(), payments.SuccessParams{
		PaymentKey: c.Query("paymentKey"),
		OrderID:    c.Query("orderId"),
		Amount:     c.Query("amount"),
	})
	h.count("confirm", err)
	if err != nil {
		h.renderFail(c, http.StatusBadRequest, view.PaymentFailPage{
			Message:     apperr.PublicMessage(err),
			OrderNumber: c.Query("orderId"),
			RetryURL:    retryURL(c.Query("orderId")),
		})
		return
	}
	render.RedirectWithFlash(c, h.Flash, completeURL(o.OrderNumber), view.FlashSuccess, "결제가 완료되었습니다.")
}

// Fail handles GET /payment/fail?code=&message=&orderId=. The order stays
// pending so the customer can retry.
func (h *PaymentHandler) Fail(c *gin.Context) {
	number := c.Query("orderId")
	code := c.Query("code")
	msg := strings.TrimSpace(c.Query("message"))
	if msg == "" {
		msg = "결제가 완료되지 않았습니다."
	}
	if number != "" {
		_, err := h.Payments.HandleFail(c.Request.Context(), number, code, msg)
		if err != nil {
			h.Logger.WarnContext(c.Request.Context(), "payment_fail_record_failed", "order_number", number, "err", err)
		}
	}
	h.count("fail", errPaymentFailed)
	h.renderFail(c, http.StatusOK, view.PaymentFailPage{
		Code:        code,
		Message:     msg,
		OrderNumber: number,
		RetryURL:    retryURL(number),
	})
}

// Webhook handles POST /webhooks/toss. Bad payloads get 400; processing
// errors get 500 so the provider retries.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	err = h.Payments.HandleWebhook(c.Request.Context(), body)
	h.count("webhook", err)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case apperr.Is(err, apperr.Invalid):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid payload"})
	default:
		h.Logger.ErrorContext(c.Request.Context(), "webhook_apply_failed", "request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
	}
}

func (h *PaymentHandler) renderFail(c *gin.Context, status int, page view.PaymentFailPage) {
	h.R.Page(c, status, "payment_fail", "결제 실패", page)
}

func (h *PaymentHandler) count(stage string, err error) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.Payments.WithLabelValues(stage, metrics.Outcome(err)).Inc()
}

func retryURL(number string) string {
	if number == "" {
		return ""
	}
	return "/checkout/pay/" + url.PathEscape(number)
}
