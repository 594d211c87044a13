package view

type OrderLine struct {
	Name     string
	Qty      int
	Price    string
	Subtotal string
}

type OrderEvent struct {
	From  string
	To    string
	Actor string
	Note  string
	At    string
}

// OrderView is an order as the storefront and the console show it.
type OrderView struct {
	ID            string
	Number        string
	Date          string
	Status        string
	StatusLabel   string
	Method        string
	MethodLabel   string
	Amount        string
	ItemCount     int
	CustomerName  string
	Email         string
	Phone         string
	Address       string
	AddressDetail string
	ZipCode       string
	PaymentKey    string
	PaidAt        string
	Failure       string
	Lines         []OrderLine
}

// AwaitingTransfer is true for bank transfer orders that are not paid yet.
func (o OrderView) AwaitingTransfer() bool {
	return o.Method == "transfer" && o.Status == "pending"
}

type OrderCompletePage struct {
	Order OrderView
}

type AccountPage struct {
	Name         string
	Email        string
	OrderCount   int
	ReviewCount  int
	RecentOrders []OrderView
}

type AccountOrdersPage struct {
	Orders []OrderView
}

type AccountReviewsPage struct {
	Reviews []ReviewCard
}

type ProfilePage struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	Provider       string
	Errors         FieldErrors
	PasswordErrors FieldErrors
}

// CanChangePassword is false for accounts created with a federated login.
func (p ProfilePage) CanChangePassword() bool { return p.Provider != "google" }
