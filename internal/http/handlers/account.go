package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/auth"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

const recentOrders = 5

// AccountHandler serves /mypage for the signed-in member.
type AccountHandler struct {
	R       *render.Renderer
	Flash   *flash.Codec
	Auth    *auth.Service
	Users   *users.Repo
	Orders  *orders.Repo
	Reviews *reviews.Service
	Loc     *time.Location
	Logger  *slog.Logger
}

type profileInput struct {
	Name    string `form:"name" binding:"required,max=50"`
	Phone   string `form:"phone" binding:"max=20"`
	Address string `form:"address" binding:"max=200"`
}

type passwordInput struct {
	Current string `form:"current_password" binding:"required"`
	Next    string `form:"new_password" binding:"required,min=6"`
	Confirm string `form:"new_password_confirm" binding:"required,eqfield=Next"`
}

func (h *AccountHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	p, _ := middleware.CurrentUser(c)
	list, err := h.Orders.ListByUser(ctx, p.UserID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	revs, err := h.Reviews.Repo().ListByUser(ctx, p.UserID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "mypage", "마이페이지", view.AccountPage{
		Name:         p.Name,
		Email:        p.Email,
		OrderCount:   len(list),
		ReviewCount:  len(revs),
		RecentOrders: orderViews(list[:min(len(list), recentOrders)], h.Loc),
	})
}

func (h *AccountHandler) Orders(c *gin.Context) {
	list, err := h.Orders.ListByUser(c.Request.Context(), userID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "mypage_orders", "주문 내역", view.AccountOrdersPage{Orders: orderViews(list, h.Loc)})
}

func (h *AccountHandler) Reviews(c *gin.Context) {
	ctx := c.Request.Context()
	revs, err := h.Reviews.Repo().ListByUser(ctx, userID(c))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "mypage_reviews", "내 후기", view.AccountReviewsPage{
		Reviews: reviewCards(ctx, h.Reviews, revs, h.Loc, true),
	})
}

func (h *AccountHandler) Profile(c *gin.Context) {
	page, err := h.profile(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.R.Page(c, http.StatusOK, "mypage_profile", "회원 정보", page)
}

func (h *AccountHandler) ProfileSubmit(c *gin.Context) {
	ctx := c.Request.Context()
	var in profileInput
	if err := c.ShouldBind(&in); err != nil {
		page, perr := h.profile(c)
		if perr != nil {
			middleware.Fail(c, perr)
			return
		}
		page.Name, page.Phone, page.Address = in.Name, in.Phone, in.Address
		page.Errors = validation.FromBindError(err, &in)
		h.R.Page(c, http.StatusBadRequest, "mypage_profile", "회원 정보", page)
		return
	}
	if err := h.Users.UpdateProfile(ctx, userID(c), users.ProfileInput(in)); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.Logger.InfoContext(ctx, "profile_updated", "user_id", userID(c))
	render.RedirectWithFlash(c, h.Flash, "/mypage/profile", view.FlashSuccess, "회원 정보를 저장했습니다.")
}

func (h *AccountHandler) Password(c *gin.Context) {
	ctx := c.Request.Context()
	p, _ := middleware.CurrentUser(c)
	var in passwordInput
	errs := view.FieldErrors(nil)
	if err := c.ShouldBind(&in); err != nil {
		errs = validation.FromBindError(err, &in)
	} else if err := h.Auth.ChangePassword(ctx, p, in.Current, in.Next); validation.IsInvalid(err) {
		errs = validation.FromAppError(err)
		if errs.Has("password") {
			errs["new_password"] = errs["password"]
			delete(errs, "password")
		}
	} else if err != nil {
		middleware.Fail(c, err)
		return
	}
	if len(errs) > 0 {
		page, err := h.profile(c)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		page.PasswordErrors = errs
		h.R.Page(c, http.StatusBadRequest, "mypage_profile", "회원 정보", page)
		return
	}
	h.Logger.InfoContext(ctx, "password_changed", "user_id", p.UserID)
	render.RedirectWithFlash(c, h.Flash, "/mypage/profile", view.FlashSuccess, "비밀번호를 변경했습니다.")
}

func (h *AccountHandler) profile(c *gin.Context) (view.ProfilePage, error) {
	u, err := h.Users.Get(c.Request.Context(), userID(c))
	if err != nil {
		return view.ProfilePage{}, apperr.Wrap(err)
	}
	return view.ProfilePage{Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address, Provider: u.Provider}, nil
}
