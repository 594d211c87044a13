package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
)

// SystemActor marks transitions made by the payment flow rather than an admin.
const SystemActor = "system"

// PaymentCanceller cancels a captured payment at the provider.
type PaymentCanceller interface {
	CancelPayment(ctx context.Context, o Order, reason string) error
}

type Service struct {
	repo     *Repo
	canceler PaymentCanceller
	now      func() time.Time
	logger   *slog.Logger
}

func NewService(repo *Repo, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, now: time.Now, logger: logger}
}

// WithCanceller wires provider cancellation into Refund.
func (s *Service) WithCanceller(c PaymentCanceller) *Service { s.canceler = c; return s }

func (s *Service) Repo() *Repo { return s.repo }

type PlaceInput struct {
	UserID        string
	CustomerName  string
	Email         string
	Phone         string
	Address       string
	AddressDetail string
	ZipCode       string
	PaymentMethod string
	Items         []Item
}

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXX.
func NewOrderNumber(at time.Time) string {
	id := ksuid.New().String()
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), strings.ToUpper(id[len(id)-6:]))
}

// Place stores a pending order with a snapshot of its items.
func (s *Service) Place(ctx context.Context, in PlaceInput) (Order, error) {
	if len(in.Items) == 0 {
		return Order{}, apperr.InvalidErr("장바구니가 비어 있습니다.", nil)
	}
	var amount int64
	items := make([]any, 0, len(in.Items))
	for _, it := range in.Items {
		amount += it.Subtotal()
		items = append(items, map[string]any{
			"productId": it.ProductID,
			"name":      it.Name,
			"price":     it.Price,
			"quantity":  it.Quantity,
		})
	}
	id, err := s.repo.Create(ctx, docstore.Data{
		"orderNumber":   NewOrderNumber(s.now()),
		"userId":        in.UserID,
		"customerName":  strings.TrimSpace(in.CustomerName),
		"email":         strings.TrimSpace(in.Email),
		"phone":         strings.TrimSpace(in.Phone),
		"address":       strings.TrimSpace(in.Address),
		"addressDetail": strings.TrimSpace(in.AddressDetail),
		"zipCode":       strings.TrimSpace(in.ZipCode),
		"paymentMethod": in.PaymentMethod,
		"status":        string(StatusPending),
		"items":         items,
		"amount":        amount,
	})
	if err != nil {
		return Order{}, apperr.Wrap(err)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "order_placed", "order_id", o.ID, "order_number", o.OrderNumber, "amount", o.Amount)
	return o, nil
}

// Advance moves an order one step along the fulfilment path.
func (s *Service) Advance(ctx context.Context, actorID string, o Order) (string, error) {
	to, changed, err := NextStatus(o.Status)
	if err != nil {
		return "", err
	}
	if !changed {
		return "이미 배송완료된 주문입니다.", nil
	}
	if err := s.transition(ctx, o.ID, o.Status, to, actorID, ""); err != nil {
		return "", err
	}
	return fmt.Sprintf("주문 %s의 상태를 %s(으)로 변경했습니다.", o.OrderNumber, to.Label()), nil
}

func (s *Service) Cancel(ctx context.Context, actorID string, o Order, note string) (string, error) {
	if err := CanCancel(o.Status); err != nil {
		return "", err
	}
	if err := s.transition(ctx, o.ID, o.Status, StatusCancelled, actorID, note); err != nil {
		return "", err
	}
	return fmt.Sprintf("주문 %s을(를) 취소했습니다.", o.OrderNumber), nil
}

// Refund cancels the captured payment at the provider, then marks the order
// refunded.
func (s *Service) Refund(ctx context.Context, actorID string, o Order, note string) (string, error) {
	if err := CanRefund(o.Status); err != nil {
		return "", err
	}
	if s.canceler != nil && o.PaymentKey != "" {
		reason := note
		if reason == "" {
			reason = "관리자 환불"
		}
		if err := s.canceler.CancelPayment(ctx, o, reason); err != nil {
			return "", err
		}
	}
	return s.MarkRefunded(ctx, actorID, o, note)
}

// MarkRefunded records a refund the provider has already applied.
func (s *Service) MarkRefunded(ctx context.Context, actorID string, o Order, note string) (string, error) {
	if err := CanRefund(o.Status); err != nil {
		return "", err
	}
	if err := s.transition(ctx, o.ID, o.Status, StatusRefunded, actorID, note); err != nil {
		return "", err
	}
	return fmt.Sprintf("주문 %s을(를) 환불 처리했습니다.", o.OrderNumber), nil
}

// MarkPaid records a confirmed payment. Repeating the call for the same
// payment key is a no-op reporting changed=false.
func (s *Service) MarkPaid(ctx context.Context, id, paymentKey string) (o Order, changed bool, err error) {
	now := s.now()
	err = s.repo.modify(ctx, id, func(d docstore.Data) (docstore.Data, error) {
		cur := Status(asString(d["status"]))
		switch {
		case cur == StatusPending:
			d["status"] = string(StatusPaid)
			d["paymentKey"] = paymentKey
			d["paidAt"] = now.UTC().Format(time.RFC3339Nano)
			d["failureCode"] = ""
			d["failureMessage"] = ""
			changed = true
			return d, nil
		case asString(d["paymentKey"]) == paymentKey:
			return nil, errNoChange
		default:
			return nil, apperr.ConflictErr("결제를 반영할 수 없는 주문 상태입니다.").WithCause(fmt.Errorf("order %s is %s", id, cur))
		}
	})
	if errors.Is(err, errNoChange) {
		err = nil
	}
	if err != nil {
		return Order{}, false, s.mapErr(err)
	}
	if changed {
		if err := s.repo.AddEvent(ctx, Event{OrderID: id, From: StatusPending, To: StatusPaid, ActorID: SystemActor}); err != nil {
			s.logger.ErrorContext(ctx, "order_event_write_failed", "order_id", id, "err", err)
		}
	}
	o, err = s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, false, s.mapErr(err)
	}
	return o, changed, nil
}

// RecordFailure stores the provider failure on a pending order.
func (s *Service) RecordFailure(ctx context.Context, id, code, message string) error {
	err := s.repo.modify(ctx, id, func(d docstore.Data) (docstore.Data, error) {
		if Status(asString(d["status"])) != StatusPending {
			return nil, errNoChange
		}
		d["failureCode"] = code
		d["failureMessage"] = message
		return d, nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	if err != nil {
		return s.mapErr(err)
	}
	return nil
}

var errNoChange = errors.New("orders: no change")

// transition writes to only if the stored status still equals from.
func (s *Service) transition(ctx context.Context, id string, from, to Status, actorID, note string) error {
	err := s.repo.modify(ctx, id, func(d docstore.Data) (docstore.Data, error) {
		if Status(asString(d["status"])) != from {
			return nil, apperr.ConflictErr("주문 상태가 변경되었습니다. 새로고침 후 다시 시도해 주세요.")
		}
		d["status"] = string(to)
		return d, nil
	})
	if err != nil {
		return s.mapErr(err)
	}
	ev := Event{OrderID: id, From: from, To: to, ActorID: actorID, Note: strings.TrimSpace(note)}
	if err := s.repo.AddEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "order_event_write_failed", "order_id", id, "err", err)
	}
	s.logger.InfoContext(ctx, "order_status_changed", "order_id", id, "from", from, "to", to, "actor_id", actorID)
	return nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFoundPub.WithCause(err)
	}
	return apperr.Wrap(err)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
