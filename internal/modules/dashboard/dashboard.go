// Package dashboard aggregates the admin overview from users and orders.
package dashboard

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/users"
)

const (
	Months  = 6
	TopN    = 5
	RecentN = 5
)

type MonthSales struct {
	Month  time.Time
	Label  string
	Orders int
	Amount int64
}

type ProductSales struct {
	ProductID string
	Name      string
	Qty       int
	Amount    int64
}

type Stats struct {
	TotalUsers   int
	UsersToday   int
	TotalOrders  int
	Revenue      int64
	Monthly      []MonthSales
	TopProducts  []ProductSales
	RecentUsers  []users.User
	RecentOrders []orders.Order
}

// MaxMonthly is the largest monthly amount, for scaling the chart bars.
func (s Stats) MaxMonthly() int64 {
	var m int64
	for _, ms := range s.Monthly {
		m = max(m, ms.Amount)
	}
	return m
}

// Compute builds the overview. Cancelled and refunded orders count as
// orders but not as sales.
func Compute(us []users.User, os []orders.Order, now time.Time, loc *time.Location) Stats {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	st := Stats{TotalUsers: len(us), TotalOrders: len(os)}
	for _, u := range us {
		if !u.CreatedAt.In(loc).Before(today) {
			st.UsersToday++
		}
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(Months - 1), 0)
	st.Monthly = make([]MonthSales, Months)
	for i := range st.Monthly {
		m := first.AddDate(0, i, 0)
		st.Monthly[i] = MonthSales{Month: m, Label: fmt.Sprintf("%d월", int(m.Month()))}
	}

	top := map[string]*ProductSales{}
	for _, o := range os {
		if !o.Status.CountsTowardRevenue() {
			continue
		}
		st.Revenue += o.Amount
		if at := o.CreatedAt.In(loc); !at.Before(first) {
			i := (at.Year()-first.Year())*12 + int(at.Month()) - int(first.Month())
			if i >= 0 && i < Months {
				st.Monthly[i].Orders++
				st.Monthly[i].Amount += o.Amount
			}
		}
		for _, it := range o.Items {
			ps, ok := top[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID, Name: it.Name}
				top[it.ProductID] = ps
			}
			ps.Qty += it.Quantity
			ps.Amount += it.Subtotal()
		}
	}

	for _, ps := range top {
		st.TopProducts = append(st.TopProducts, *ps)
	}
	slices.SortFunc(st.TopProducts, func(a, b ProductSales) int {
		if c := cmp.Compare(b.Qty, a.Qty); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	st.TopProducts = st.TopProducts[:min(TopN, len(st.TopProducts))]

	st.RecentUsers = latest(us, func(u users.User) time.Time { return u.CreatedAt })
	st.RecentOrders = latest(os, func(o orders.Order) time.Time { return o.CreatedAt })
	return st
}

func latest[T any](items []T, at func(T) time.Time) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int { return at(b).Compare(at(a)) })
	return out[:min(RecentN, len(out))]
}

type Service struct {
	users  *users.Repo
	orders *orders.Repo
	loc    *time.Location
	now    func() time.Time
}

func NewService(u *users.Repo, o *orders.Repo, loc *time.Location) *Service {
	return &Service{users: u, orders: o, loc: loc, now: time.Now}
}

func (s *Service) Load(ctx context.Context) (Stats, error) {
	us, err := s.users.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	os, err := s.orders.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Compute(us, os, s.now(), s.loc), nil
}
