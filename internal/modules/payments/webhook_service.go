package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"vibeshop.com/app/internal/modules/orders"
)

// ProviderEvent is one webhook delivery. (provider, event_id) is unique so
// redeliveries are recognized.
type ProviderEvent struct {
	ID           string         `gorm:"type:char(36);primaryKey"`
	Provider     string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_provider_events_provider_event,priority:1"`
	EventID      string         `gorm:"type:varchar(191);not null;uniqueIndex:ux_provider_events_provider_event,priority:2"`
	EventType    string         `gorm:"type:varchar(64);not null"`
	PayloadJSON  datatypes.JSON `gorm:"not null"`
	ReceivedAt   time.Time      `gorm:"not null"`
	ProcessedAt  *time.Time
	ProcessError *string `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }

// WebhookEvent is the envelope of a provider status-change notification.
type WebhookEvent struct {
	EventType string  `json:"eventType"`
	CreatedAt string  `json:"createdAt"`
	Data      Payment `json:"data"`
}

// EventID identifies a delivery: the same status change of the same payment
// is processed once.
func (e WebhookEvent) EventID() string {
	return e.EventType + ":" + e.Data.PaymentKey + ":" + e.Data.Status
}

func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, ErrBadWebhook.WithCause(err)
	}
	if ev.EventType == "" || ev.Data.PaymentKey == "" {
		return WebhookEvent{}, ErrBadWebhook.WithCause(errors.New("missing eventType or paymentKey"))
	}
	return ev, nil
}

// HandleWebhook records the delivery and reconciles the order against the
// provider's own record of the payment. The webhook body only names the
// payment; its status and amount are looked up again. A delivery that was
// already processed is acknowledged without work. A failed reconciliation
// is stored on the event and returned so the provider redelivers.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) error {
	ev, err := ParseWebhook(body)
	if err != nil {
		return err
	}
	pe, fresh, err := s.claimEvent(ctx, ev, body)
	if err != nil {
		return err
	}
	if !fresh && pe.ProcessedAt != nil {
		s.logger.InfoContext(ctx, "webhook_event_deduplicated", "provider", s.provider.Name(), "event_id", pe.EventID)
		return nil
	}

	applyErr := s.reconcile(ctx, ev.Data.PaymentKey)
	now := time.Now()
	updates := map[string]any{"processed_at": &now, "process_error": nil}
	if applyErr != nil {
		msg := truncate(applyErr.Error(), 250)
		updates = map[string]any{"process_error": msg}
		s.logger.ErrorContext(ctx, "webhook_event_apply_failed", "provider", s.provider.Name(), "event_id", pe.EventID, "err", msg)
	}
	if err := s.db.WithContext(ctx).Model(&ProviderEvent{}).Where("id = ?", pe.ID).Updates(updates).Error; err != nil {
		return err
	}
	if applyErr != nil {
		return applyErr
	}
	s.logger.InfoContext(ctx, "webhook_event_processed", "provider", s.provider.Name(), "event_id", pe.EventID, "type", ev.EventType)
	return nil
}

// claimEvent inserts the delivery unless it already exists. fresh reports
// whether this call inserted it.
func (s *Service) claimEvent(ctx context.Context, ev WebhookEvent, body []byte) (ProviderEvent, bool, error) {
	pe := ProviderEvent{
		ID:          uuid.NewString(),
		Provider:    s.provider.Name(),
		EventID:     truncate(ev.EventID(), 191),
		EventType:   ev.EventType,
		PayloadJSON: datatypes.JSON(body),
		ReceivedAt:  time.Now(),
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pe)
	if res.Error != nil {
		return ProviderEvent{}, false, fmt.Errorf("persist provider event: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return pe, true, nil
	}
	var existing ProviderEvent
	if err := s.db.WithContext(ctx).
		First(&existing, "provider = ? AND event_id = ?", pe.Provider, pe.EventID).Error; err != nil {
		return ProviderEvent{}, false, fmt.Errorf("load provider event: %w", err)
	}
	return existing, false, nil
}

// reconcile brings the order in line with the provider's payment record.
func (s *Service) reconcile(ctx context.Context, paymentKey string) error {
	p, err := s.provider.Lookup(ctx, paymentKey)
	if err != nil {
		return fmt.Errorf("lookup payment %s: %w", paymentKey, err)
	}
	o, err := s.orders.Repo().FindByNumber(ctx, p.OrderID)
	if err != nil {
		return fmt.Errorf("find order %s: %w", p.OrderID, err)
	}

	switch {
	case p.Done():
		if o.Status != orders.StatusPending {
			return nil
		}
		if !p.TotalAmount.Equal(decimal.NewFromInt(o.Amount)) {
			s.logger.ErrorContext(ctx, "payment_amount_mismatch", "order_number", o.OrderNumber, "payment_key", paymentKey,
				"provider_amount", p.TotalAmount.String(), "stage", "webhook")
			return ErrAmountMismatch
		}
		_, err := s.markPaid(ctx, o, paymentKey)
		return err
	case p.Cancelled():
		if o.PaymentKey != paymentKey {
			return nil
		}
		if err := orders.CanRefund(o.Status); err != nil {
			return nil
		}
		_, err := s.orders.MarkRefunded(ctx, orders.SystemActor, o, "결제사 취소")
		return err
	case p.Status == StatusAborted || p.Status == StatusExpired:
		return s.orders.RecordFailure(ctx, o.ID, p.Status, "결제가 완료되지 않았습니다.")
	default:
		return nil
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
