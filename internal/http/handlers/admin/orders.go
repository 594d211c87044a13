package admin

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/datatable"
	"vibeshop.com/app/internal/filter"
	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/pkg/view"
)

func (h *Handler) orderList() *list[orders.Order] {
	repo := h.Orders.Repo()
	return &list[orders.Order]{
		h:        h,
		entity:   "orders",
		title:    "주문 관리",
		notFound: orders.ErrNotFoundPub,
		fetch:    repo.List,
		get:      repo.Get,
		table:    h.orderTable,
		filters:  h.orderFilters,
		summary: func(items []orders.Order) *view.ListSummary {
			sum := orders.Summarize(items)
			out := &view.ListSummary{Count: sum.Count, Revenue: view.KRW(sum.Revenue)}
			for _, sc := range sum.ByStatus {
				out.ByStatus = append(out.ByStatus, view.StatusCount{Label: sc.Status.Label(), Count: sc.Count})
			}
			return out
		},
		extra: map[string]func(context.Context, string, orders.Order, url.Values) (string, error){
			"refund": func(ctx context.Context, actorID string, o orders.Order, form url.Values) (string, error) {
				return h.Orders.Refund(ctx, actorID, o, strings.TrimSpace(form.Get("note")))
			},
		},
	}
}

// orderFilters parses the search, status and date range params. A malformed
// date keeps the other filters and reports the error.
func (h *Handler) orderFilters(_ context.Context, q url.Values) (filter.Predicate[orders.Order], []view.FilterField, error) {
	status, from, to := q.Get("status"), q.Get("from"), q.Get("to")
	rng, err := filter.ParseRange(from, to, h.Loc)
	p := orders.AdminListParams{Q: q.Get("q"), Status: status, Range: rng}
	return p.Predicate(), []view.FilterField{
		textField(q, "주문번호 또는 주문자"),
		selectField("status", "상태", options(orders.Statuses, orders.Status.Label, status, true)),
		{Name: "from", Label: "시작일", Type: "date", Value: from},
		{Name: "to", Label: "종료일", Type: "date", Value: to},
	}, err
}

func (h *Handler) orderTable(actorID string) *datatable.Table[orders.Order] {
	return &datatable.Table[orders.Order]{
		ID:         func(o orders.Order) string { return o.ID },
		ActionPath: "/admin/orders",
		RowHref:    func(o orders.Order) string { return "/admin/orders/" + o.ID },
		Columns: []datatable.Column[orders.Order]{
			{Key: "orderNumber", Header: "주문번호", Sortable: true, Value: func(o orders.Order) any { return o.OrderNumber }},
			{Key: "customerName", Header: "주문자", Sortable: true, Value: func(o orders.Order) any { return o.CustomerName }},
			{Key: "name", Header: "상품", Format: func(o orders.Order) datatable.Cell { return datatable.Cell{Text: o.Name()} }},
			{Key: "itemCount", Header: "수량", Sortable: true, Value: func(o orders.Order) any { return o.ItemCount() }},
			{Key: "amount", Header: "금액", Sortable: true,
				Value:  func(o orders.Order) any { return o.Amount },
				Format: func(o orders.Order) datatable.Cell { return datatable.Cell{Text: view.KRW(o.Amount)} }},
			{Key: "paymentMethod", Header: "결제 수단", Sortable: true,
				Value:  func(o orders.Order) any { return o.PaymentMethod },
				Format: func(o orders.Order) datatable.Cell { return datatable.Cell{Text: orders.MethodLabel(o.PaymentMethod)} }},
			{Key: "status", Header: "상태", Sortable: true,
				Value: func(o orders.Order) any { return string(o.Status) },
				Format: func(o orders.Order) datatable.Cell {
					return datatable.Cell{Text: o.Status.Label(), Class: "status status-" + string(o.Status)}
				}},
			{Key: "createdAt", Header: "주문일", Sortable: true,
				Value:  func(o orders.Order) any { return o.CreatedAt },
				Format: func(o orders.Order) datatable.Cell { return datatable.Cell{Text: view.DateTime(o.CreatedAt, h.Loc)} }},
		},
		Actions: []datatable.Action[orders.Order]{
			{Name: "view", Label: "상세", Href: func(o orders.Order) string { return "/admin/orders/" + o.ID }},
			{
				Name:    "advance",
				Label:   "다음 단계",
				Confirm: "주문을 다음 단계로 변경하시겠습니까?",
				Handle: func(ctx context.Context, o orders.Order, _ url.Values) (string, error) {
					return h.Orders.Advance(ctx, actorID, o)
				},
			},
			{
				Name:    "cancel",
				Label:   "취소",
				Variant: datatable.VariantDestructive,
				Confirm: "주문을 취소하시겠습니까?",
				Handle: func(ctx context.Context, o orders.Order, form url.Values) (string, error) {
					return h.Orders.Cancel(ctx, actorID, o, strings.TrimSpace(form.Get("note")))
				},
			},
		},
	}
}

func (h *Handler) OrderDetail(c *gin.Context) {
	ctx := c.Request.Context()
	o, err := h.Orders.Repo().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, orders.ErrNotFoundPub, err)
		return
	}
	events, err := h.Orders.Repo().Events(ctx, o.ID)
	if err != nil {
		h.fail(c, orders.ErrNotFoundPub, err)
		return
	}
	d := view.AdminOrderDetail{
		Order:     handlers.OrderView(o, h.Loc),
		CanCancel: orders.CanCancel(o.Status) == nil,
		CanRefund: orders.CanRefund(o.Status) == nil,
	}
	if next, changed, err := orders.NextStatus(o.Status); err == nil && changed {
		d.CanAdvance = true
		d.NextLabel = next.Label()
	}
	for _, e := range events {
		actor := e.ActorID
		if actor == "" {
			actor = orders.SystemActor
		}
		d.Events = append(d.Events, view.OrderEvent{
			From:  e.From.Label(),
			To:    e.To.Label(),
			Actor: actor,
			Note:  e.Note,
			At:    view.DateTime(e.CreatedAt, h.Loc),
		})
	}
	h.R.AdminPage(c, http.StatusOK, "order", "주문 "+o.OrderNumber, d)
}
