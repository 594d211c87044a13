package payments

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockKeyPrefix marks payment keys minted by the development widget.
const MockKeyPrefix = "mock_"

// Mock confirms every payment key minted by the development widget. It keeps
// confirmed payments in memory so lookups and cancellations behave like the
// real API within one process.
type Mock struct {
	mu       sync.Mutex
	payments map[string]Payment
	now      func() time.Time
}

func NewMock() *Mock {
	return &Mock{payments: make(map[string]Payment), now: time.Now}
}

func (m *Mock) Name() string      { return "mock" }
func (m *Mock) ClientKey() string { return "test_ck_mock" }

func (m *Mock) Confirm(_ context.Context, req ConfirmRequest) (Payment, error) {
	if !strings.HasPrefix(req.PaymentKey, MockKeyPrefix) {
		return Payment{}, &ProviderError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "존재하지 않는 결제 정보 입니다."}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[req.PaymentKey]; ok {
		if p.OrderID != req.OrderID || !p.TotalAmount.Equal(req.Amount) {
			return Payment{}, &ProviderError{Status: http.StatusBadRequest, Code: "INVALID_REQUEST", Message: "잘못된 요청입니다."}
		}
		return Payment{}, &ProviderError{Status: http.StatusBadRequest, Code: CodeAlreadyProcessed, Message: "이미 처리된 결제 입니다."}
	}
	p := Payment{
		PaymentKey:  req.PaymentKey,
		OrderID:     req.OrderID,
		Status:      StatusDone,
		Method:      "카드",
		TotalAmount: req.Amount,
		ApprovedAt:  m.now().Format(time.RFC3339),
	}
	m.payments[req.PaymentKey] = p
	return p, nil
}

func (m *Mock) Lookup(_ context.Context, paymentKey string) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentKey]
	if !ok {
		return Payment{}, &ProviderError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "존재하지 않는 결제 정보 입니다."}
	}
	return p, nil
}

func (m *Mock) Cancel(_ context.Context, paymentKey, _ string) (Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentKey]
	if !ok {
		return Payment{}, &ProviderError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "존재하지 않는 결제 정보 입니다."}
	}
	p.Status = StatusCanceled
	m.payments[paymentKey] = p
	return p, nil
}

// Put seeds a payment, as if it were confirmed elsewhere.
func (m *Mock) Put(p Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.PaymentKey] = p
}

// NewMockKey returns a payment key the mock accepts.
func NewMockKey(orderNumber string, amount decimal.Decimal) string {
	return MockKeyPrefix + strings.ToLower(orderNumber) + "_" + amount.String()
}
