package orders

import (
	"time"

	"vibeshop.com/app/internal/docstore"
)

const (
	Collection       = "orders"
	EventsCollection = "order_events"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusPreparing Status = "preparing"
	StatusShipping  Status = "shipping"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

var Statuses = []Status{
	StatusPending, StatusPaid, StatusPreparing, StatusShipping,
	StatusDelivered, StatusCancelled, StatusRefunded,
}

func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "결제대기"
	case StatusPaid:
		return "결제완료"
	case StatusPreparing:
		return "상품준비중"
	case StatusShipping:
		return "배송중"
	case StatusDelivered:
		return "배송완료"
	case StatusCancelled:
		return "주문취소"
	case StatusRefunded:
		return "환불완료"
	default:
		return string(s)
	}
}

// CountsTowardRevenue is false for cancelled and refunded orders.
func (s Status) CountsTowardRevenue() bool {
	return s != StatusCancelled && s != StatusRefunded
}

const (
	MethodCard     = "card"
	MethodToss     = "toss"
	MethodTransfer = "transfer"
)

func MethodLabel(m string) string {
	switch m {
	case MethodCard:
		return "신용카드"
	case MethodToss:
		return "토스페이"
	case MethodTransfer:
		return "무통장입금"
	default:
		return m
	}
}

type Item struct {
	ProductID string `doc:"productId" json:"productId"`
	Name      string `doc:"name" json:"name"`
	Price     int64  `doc:"price" json:"price"`
	Quantity  int    `doc:"quantity" json:"quantity"`
}

func (it Item) Subtotal() int64 { return it.Price * int64(it.Quantity) }

type Order struct {
	ID             string     `doc:"id"`
	OrderNumber    string     `doc:"orderNumber"`
	UserID         string     `doc:"userId"`
	CustomerName   string     `doc:"customerName"`
	Email          string     `doc:"email"`
	Phone          string     `doc:"phone"`
	Address        string     `doc:"address"`
	AddressDetail  string     `doc:"addressDetail"`
	ZipCode        string     `doc:"zipCode"`
	PaymentMethod  string     `doc:"paymentMethod"`
	Status         Status     `doc:"status"`
	Items          []Item     `doc:"items"`
	Amount         int64      `doc:"amount"`
	PaymentKey     string     `doc:"paymentKey"`
	PaidAt         *time.Time `doc:"paidAt"`
	FailureCode    string     `doc:"failureCode"`
	FailureMessage string     `doc:"failureMessage"`
	CreatedAt      time.Time  `doc:"createdAt"`
	UpdatedAt      time.Time  `doc:"updatedAt"`
}

// ItemCount is the total quantity across lines.
func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

// Name is the title shown to the payment widget: the first item plus the
// number of other lines.
func (o Order) Name() string {
	if len(o.Items) == 0 {
		return o.OrderNumber
	}
	if len(o.Items) == 1 {
		return o.Items[0].Name
	}
	return o.Items[0].Name + " 외 " + itoa(len(o.Items)-1) + "건"
}

func FromDocument(d docstore.Document) (Order, error) {
	var o Order
	if err := d.Decode(&o); err != nil {
		return Order{}, err
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.CustomerName == "" {
		o.CustomerName = "Unknown"
	}
	if o.OrderNumber == "" {
		o.OrderNumber = o.ID
	}
	if o.PaidAt != nil && o.PaidAt.IsZero() {
		o.PaidAt = nil
	}
	return o, nil
}

// Event records one status transition.
type Event struct {
	ID        string    `doc:"id"`
	OrderID   string    `doc:"orderId"`
	From      Status    `doc:"from"`
	To        Status    `doc:"to"`
	ActorID   string    `doc:"actorId"`
	Note      string    `doc:"note"`
	CreatedAt time.Time `doc:"createdAt"`
}

func EventFromDocument(d docstore.Document) (Event, error) {
	var e Event
	err := d.Decode(&e)
	return e, err
}
