package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newToss(t *testing.T, h http.HandlerFunc) *Toss {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewToss(TossConfig{
		BaseURL:    srv.URL,
		ClientKey:  "test_ck",
		SecretKey:  "test_sk",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryBase:  time.Millisecond,
	}, nil)
}

func TestToss_Confirm(t *testing.T) {
	var calls atomic.Int32
	keys := make(chan string, 4)
	toss := newToss(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "test_sk", user)
		assert.Empty(t, pass)
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		keys <- r.Header.Get("Idempotency-Key")

		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":"FAILED_INTERNAL_SYSTEM_PROCESSING","message":"내부 오류"}`))
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pk_1", body["paymentKey"])
		assert.Equal(t, "ORD-20260101-ABCDEF", body["orderId"])
		assert.EqualValues(t, 30000, body["amount"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"paymentKey":"pk_1","orderId":"ORD-20260101-ABCDEF","status":"DONE","method":"카드","totalAmount":30000,"approvedAt":"2026-01-01T10:00:00+09:00"}`))
	})

	p, err := toss.Confirm(context.Background(), ConfirmRequest{PaymentKey: "pk_1", OrderID: "ORD-20260101-ABCDEF", Amount: decimal.NewFromInt(30000)})
	require.NoError(t, err)
	assert.True(t, p.Done())
	assert.True(t, p.TotalAmount.Equal(decimal.NewFromInt(30000)))
	assert.False(t, p.ApprovedTime().IsZero())
	assert.Equal(t, int32(2), calls.Load())

	first, second := <-keys, <-keys
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second, "retries reuse the idempotency key")
}

func TestToss_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	toss := newToss(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"ALREADY_PROCESSED_PAYMENT","message":"이미 처리된 결제 입니다."}`))
	})

	_, err := toss.Confirm(context.Background(), ConfirmRequest{PaymentKey: "pk", OrderID: "o", Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.True(t, IsProviderCode(err, CodeAlreadyProcessed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestToss_LookupAndCancel(t *testing.T) {
	toss := newToss(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/payments/pk_9":
			assert.Empty(t, r.Header.Get("Idempotency-Key"))
			_, _ = w.Write([]byte(`{"paymentKey":"pk_9","orderId":"ORD-1","status":"DONE","totalAmount":500}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/payments/pk_9/cancel":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "고객 요청", body["cancelReason"])
			_, _ = w.Write([]byte(`{"paymentKey":"pk_9","orderId":"ORD-1","status":"CANCELED","totalAmount":500}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	p, err := toss.Lookup(ctx, "pk_9")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", p.OrderID)

	p, err = toss.Cancel(ctx, "pk_9", "고객 요청")
	require.NoError(t, err)
	assert.True(t, p.Cancelled())
}
