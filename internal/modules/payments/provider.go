package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the provider.
const (
	StatusReady           = "READY"
	StatusInProgress      = "IN_PROGRESS"
	StatusWaitingDeposit  = "WAITING_FOR_DEPOSIT"
	StatusDone            = "DONE"
	StatusCanceled        = "CANCELED"
	StatusPartialCanceled = "PARTIAL_CANCELED"
	StatusAborted         = "ABORTED"
	StatusExpired         = "EXPIRED"
)

// Payment is the provider's view of one payment.
type Payment struct {
	PaymentKey  string          `json:"paymentKey"`
	OrderID     string          `json:"orderId"`
	OrderName   string          `json:"orderName"`
	Status      string          `json:"status"`
	Method      string          `json:"method"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ApprovedAt  string          `json:"approvedAt"`
}

func (p Payment) Done() bool { return p.Status == StatusDone }

func (p Payment) Cancelled() bool {
	return p.Status == StatusCanceled || p.Status == StatusPartialCanceled
}

// ApprovedTime parses ApprovedAt; the zero time when absent.
func (p Payment) ApprovedTime() time.Time {
	t, err := time.Parse(time.RFC3339, p.ApprovedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ConfirmRequest finalizes a payment authorized in the widget.
type ConfirmRequest struct {
	PaymentKey string
	OrderID    string
	Amount     decimal.Decimal
}

// ProviderError is a failure reported by the provider API.
type ProviderError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %d %s: %s", e.Status, e.Code, e.Message)
}

// Retryable reports whether the request may succeed when repeated.
func (e *ProviderError) Retryable() bool {
	return e.Status >= 500 || e.Status == 429 || e.Code == "PROVIDER_ERROR"
}

// Codes with special handling.
const (
	CodeAlreadyProcessed = "ALREADY_PROCESSED_PAYMENT"
	CodeNotFound         = "NOT_FOUND_PAYMENT"
)

// Provider is the hosted payment widget's server API.
type Provider interface {
	Name() string
	// ClientKey is handed to the browser widget.
	ClientKey() string
	Confirm(ctx context.Context, req ConfirmRequest) (Payment, error)
	Lookup(ctx context.Context, paymentKey string) (Payment, error)
	Cancel(ctx context.Context, paymentKey, reason string) (Payment, error)
}
