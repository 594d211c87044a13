package view

import "vibeshop.com/app/internal/datatable"

// FilterField is one control of an admin list filter bar.
type FilterField struct {
	Name        string
	Label       string
	Type        string
	Value       string
	Placeholder string
	Options     []Option
}

type StatusCount struct {
	Label string
	Count int
}

// ListSummary is the header of the admin order list.
type ListSummary struct {
	Count    int
	Revenue  string
	ByStatus []StatusCount
}

// AdminListPage is the shell of an admin record list. The table itself is
// rendered into it or fetched as a fragment from TablePath.
type AdminListPage struct {
	Entity    string
	Title     string
	Path      string
	TablePath string
	Query     string
	Filters   []FilterField
	NewHref   string
	Fragment  AdminTableFragment
}

// AdminTableFragment is the part of the list that reloads: summary, filter
// error and the table itself.
type AdminTableFragment struct {
	Summary   *ListSummary
	Error     string
	Table     datatable.View
	TablePath string
	CSRF      string
}

type AdminUserDetail struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Address   string
	Role      string
	Status    string
	Provider  string
	CreatedAt string
	LastLogin string
	Orders    []OrderView
}

type AdminOrderDetail struct {
	Order      OrderView
	Events     []OrderEvent
	CanAdvance bool
	CanCancel  bool
	CanRefund  bool
	NextLabel  string
}

type AdminReviewDetail struct {
	Review ReviewCard
	Status string
	UserID string
}

type AdminProductForm struct {
	ID          string
	Action      string
	Name        string
	Description string
	Price       string
	Stock       string
	Category    string
	Status      string
	Visible     bool
	Statuses    []Option
	ImageURL    string
	Errors      FieldErrors
}

func (f AdminProductForm) IsNew() bool { return f.ID == "" }

type AdminSettingsPage struct {
	SiteName       string
	SiteEmail      string
	SitePhone      string
	Card           bool
	Toss           bool
	Transfer       bool
	NotifyNewOrder bool
	NotifyLowStock bool
	NotifyNewUser  bool
	Errors         FieldErrors
}

type MonthBar struct {
	Label   string
	Amount  string
	Orders  int
	Percent int
}

type TopProduct struct {
	Name   string
	Qty    int
	Amount string
}

type RecentUser struct {
	ID    string
	Name  string
	Email string
	Date  string
}

type DashboardPage struct {
	TotalUsers   string
	UsersToday   string
	TotalOrders  string
	Revenue      string
	Monthly      []MonthBar
	TopProducts  []TopProduct
	RecentUsers  []RecentUser
	RecentOrders []OrderView
}
