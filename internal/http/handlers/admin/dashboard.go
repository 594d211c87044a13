package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/handlers"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/modules/dashboard"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

func (h *Handler) ShowDashboard(c *gin.Context) {
	stats, err := h.Dashboard.Load(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.AdminPage(c, http.StatusOK, "dashboard", "대시보드", h.dashboardPage(stats))
}

func (h *Handler) dashboardPage(s dashboard.Stats) view.DashboardPage {
	p := view.DashboardPage{
		TotalUsers:  view.Number(int64(s.TotalUsers)),
		UsersToday:  view.Number(int64(s.UsersToday)),
		TotalOrders: view.Number(int64(s.TotalOrders)),
		Revenue:     view.KRW(s.Revenue),
	}
	peak := s.MaxMonthly()
	for _, m := range s.Monthly {
		bar := view.MonthBar{Label: m.Label, Amount: view.KRW(m.Amount), Orders: m.Orders}
		if peak > 0 {
			bar.Percent = int(m.Amount * 100 / peak)
		}
		p.Monthly = append(p.Monthly, bar)
	}
	for _, tp := range s.TopProducts {
		p.TopProducts = append(p.TopProducts, view.TopProduct{Name: tp.Name, Qty: tp.Qty, Amount: view.KRW(tp.Amount)})
	}
	for _, u := range s.RecentUsers {
		p.RecentUsers = append(p.RecentUsers, view.RecentUser{ID: u.ID, Name: u.Name, Email: u.Email, Date: view.Date(u.CreatedAt, h.Loc)})
	}
	for _, o := range s.RecentOrders {
		p.RecentOrders = append(p.RecentOrders, handlers.OrderView(o, h.Loc))
	}
	return p
}
