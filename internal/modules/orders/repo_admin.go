package orders

import (
	"time"

	"vibeshop.com/app/internal/filter"
)

// AdminListParams are the filters of the admin order list.
type AdminListParams struct {
	Q      string
	Status string
	Range  filter.Range
}

// Predicate builds the conjunction of the admin list filters.
func (p AdminListParams) Predicate() filter.Predicate[Order] {
	return filter.And(
		filter.Text(p.Q,
			func(o Order) string { return o.OrderNumber },
			func(o Order) string { return o.CustomerName },
		),
		filter.Equals(p.Status, func(o Order) string { return string(o.Status) }),
		filter.Between(p.Range, func(o Order) time.Time { return o.CreatedAt }),
	)
}

type StatusCount struct {
	Status Status
	Count  int
}

// Summary is the header of the admin order list.
type Summary struct {
	Count    int
	Revenue  int64
	ByStatus []StatusCount
}

// Summarize counts orders and sums revenue, leaving out cancelled and
// refunded orders from the revenue.
func Summarize(items []Order) Summary {
	counts := make(map[Status]int, len(Statuses))
	var sum Summary
	for _, o := range items {
		sum.Count++
		counts[o.Status]++
		if o.Status.CountsTowardRevenue() {
			sum.Revenue += o.Amount
		}
	}
	for _, st := range Statuses {
		sum.ByStatus = append(sum.ByStatus, StatusCount{Status: st, Count: counts[st]})
	}
	return sum
}
