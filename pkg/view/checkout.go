package view

type CartLine struct {
	ProductID string
	Name      string
	Slug      string
	ImageURL  string
	Price     string
	Qty       int
	Subtotal  string
	Stock     int
	Available bool
}

type CartPage struct {
	Lines          []CartLine
	Total          string
	Count          int
	HasUnavailable bool
}

func (p CartPage) Empty() bool { return len(p.Lines) == 0 }

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type CheckoutForm struct {
	Name          string
	Email         string
	Phone         string
	Address       string
	AddressDetail string
	ZipCode       string
	PaymentMethod string
}

type CheckoutPage struct {
	Form    CheckoutForm
	Methods []Option
	Errors  FieldErrors
	Cart    CartPage
}

// PaymentWidget carries the parameters of the hosted payment widget.
type PaymentWidget struct {
	ClientKey     string
	CustomerKey   string
	Amount        int64
	AmountText    string
	OrderID       string
	OrderName     string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SuccessURL    string
	FailURL       string
	// Mock renders buttons that imitate the widget redirects.
	Mock           bool
	MockSuccessURL string
	MockFailURL    string
}

type PaymentFailPage struct {
	Code        string
	Message     string
	OrderNumber string
	RetryURL    string
}
