package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/settings"
	"vibeshop.com/app/pkg/view"
)

type settingsForm struct {
	SiteName       string `form:"site_name"`
	SiteEmail      string `form:"site_email"`
	SitePhone      string `form:"site_phone"`
	Card           bool   `form:"card"`
	Toss           bool   `form:"toss"`
	Transfer       bool   `form:"transfer"`
	NotifyNewOrder bool   `form:"notify_new_order"`
	NotifyLowStock bool   `form:"notify_low_stock"`
	NotifyNewUser  bool   `form:"notify_new_user"`
}

func (f settingsForm) site() settings.Site {
	return settings.Site{
		SiteName:       strings.TrimSpace(f.SiteName),
		SiteEmail:      strings.TrimSpace(f.SiteEmail),
		SitePhone:      strings.TrimSpace(f.SitePhone),
		PaymentMethods: settings.PaymentMethods{Card: f.Card, Toss: f.Toss, Transfer: f.Transfer},
		Notifications:  settings.Notifications{NewOrder: f.NotifyNewOrder, LowStock: f.NotifyLowStock, NewUser: f.NotifyNewUser},
	}
}

func settingsPage(s settings.Site) view.AdminSettingsPage {
	return view.AdminSettingsPage{
		SiteName:       s.SiteName,
		SiteEmail:      s.SiteEmail,
		SitePhone:      s.SitePhone,
		Card:           s.PaymentMethods.Card,
		Toss:           s.PaymentMethods.Toss,
		Transfer:       s.PaymentMethods.Transfer,
		NotifyNewOrder: s.Notifications.NewOrder,
		NotifyLowStock: s.Notifications.LowStock,
		NotifyNewUser:  s.Notifications.NewUser,
	}
}

func (h *Handler) ShowSettings(c *gin.Context) {
	site, err := h.Settings.Get(c.Request.Context())
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.R.AdminPage(c, http.StatusOK, "settings", "사이트 설정", settingsPage(site))
}

func (h *Handler) SaveSettings(c *gin.Context) {
	var in settingsForm
	if err := c.ShouldBind(&in); err != nil {
		page := settingsPage(in.site())
		page.Errors = validation.FromBindError(err, &in)
		h.R.AdminPage(c, http.StatusBadRequest, "settings", "사이트 설정", page)
		return
	}
	site := in.site()
	err := h.Settings.Save(c.Request.Context(), site)
	if validation.IsInvalid(err) {
		page := settingsPage(site)
		page.Errors = validation.FromAppError(err)
		h.R.AdminPage(c, http.StatusBadRequest, "settings", "사이트 설정", page)
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.Logger.InfoContext(c.Request.Context(), "settings_saved", "actor", actor(c))
	render.RedirectWithFlash(c, h.Flash, "/admin/settings", view.FlashSuccess, "설정이 저장되었습니다.")
}
