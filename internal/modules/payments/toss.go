package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

type TossConfig struct {
	BaseURL    string
	ClientKey  string
	SecretKey  string
	Timeout    time.Duration
	MaxRetries uint64
	RetryBase  time.Duration
}

// Toss talks to the TossPayments core API with the secret key as the basic
// auth user.
type Toss struct {
	cfg    TossConfig
	http   *resty.Client
	logger *slog.Logger
}

func NewToss(cfg TossConfig, logger *slog.Logger) *Toss {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.SecretKey, "").
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Toss{cfg: cfg, http: client, logger: logger}
}

func (t *Toss) Name() string      { return "toss" }
func (t *Toss) ClientKey() string { return t.cfg.ClientKey }

func (t *Toss) Confirm(ctx context.Context, req ConfirmRequest) (Payment, error) {
	body := map[string]any{
		"paymentKey": req.PaymentKey,
		"orderId":    req.OrderID,
		"amount":     req.Amount.IntPart(),
	}
	return t.do(ctx, http.MethodPost, "/v1/payments/confirm", body, "confirm:"+req.PaymentKey)
}

func (t *Toss) Lookup(ctx context.Context, paymentKey string) (Payment, error) {
	return t.do(ctx, http.MethodGet, "/v1/payments/"+paymentKey, nil, "")
}

func (t *Toss) Cancel(ctx context.Context, paymentKey, reason string) (Payment, error) {
	body := map[string]any{"cancelReason": reason}
	return t.do(ctx, http.MethodPost, "/v1/payments/"+paymentKey+"/cancel", body, "cancel:"+paymentKey)
}

// do sends one call, repeating it on transport failures and retryable
// provider errors. Mutating calls carry an idempotency key that stays the
// same across attempts.
func (t *Toss) do(ctx context.Context, method, path string, body any, idemSeed string) (Payment, error) {
	var idemKey string
	if idemSeed != "" {
		idemKey = uuid.NewSHA1(uuid.NameSpaceURL, []byte(idemSeed)).String()
	}
	backoff := retry.WithMaxRetries(t.cfg.MaxRetries, retry.NewExponential(t.cfg.RetryBase))

	var out Payment
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var perr ProviderError
		req := t.http.R().SetContext(ctx).SetResult(&out).SetError(&perr)
		if body != nil {
			req.SetBody(body)
		}
		if idemKey != "" {
			req.SetHeader("Idempotency-Key", idemKey)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			t.logger.WarnContext(ctx, "payment_provider_transport_error", "path", path, "attempt", attempt, "err", err)
			return retry.RetryableError(fmt.Errorf("payment provider: %w", err))
		}
		if resp.IsError() {
			perr.Status = resp.StatusCode()
			if perr.Code == "" {
				perr.Code = http.StatusText(resp.StatusCode())
			}
			if perr.Retryable() {
				t.logger.WarnContext(ctx, "payment_provider_retryable_error", "path", path, "attempt", attempt, "code", perr.Code)
				return retry.RetryableError(&perr)
			}
			return &perr
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}
	return out, nil
}

// IsProviderCode reports whether err is a provider error with the code.
func IsProviderCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}
