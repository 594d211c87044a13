package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/cartcookie"
	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/modules/cart"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

// CartHandler keeps the cart in a signed cookie for guests and members
// alike.
type CartHandler struct {
	R      *render.Renderer
	Flash  *flash.Codec
	CK     *cartcookie.Codec
	Cart   *cart.Service
	Images ImageResolver
	Logger *slog.Logger
}

func (h *CartHandler) Show(c *gin.Context) {
	ctx := c.Request.Context()
	page, kept, err := h.Cart.Build(ctx, h.CK.Get(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := h.CK.Set(c, kept); err != nil {
		h.Logger.WarnContext(ctx, "cart_cookie_write_failed", "err", err)
	}
	h.R.Page(c, http.StatusOK, "cart", "장바구니", cartPage(ctx, h.Images, page))
}

func (h *CartHandler) Add(c *gin.Context) {
	productID := strings.TrimSpace(c.PostForm("product_id"))
	qty := parseQty(c.PostForm("qty"), 1)
	back := "/products"
	if u, err := url.Parse(c.Request.Referer()); err == nil && strings.HasPrefix(u.Path, "/products/") {
		back = u.Path
	}

	next, err := h.Cart.Add(c.Request.Context(), h.CK.Get(c), productID, qty)
	if err != nil {
		h.redirectErr(c, back, err)
		return
	}
	if err := h.CK.Set(c, next); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.Logger.InfoContext(c.Request.Context(), "cart_add", "product_id", productID, "qty", qty, "user_id", userID(c))
	render.RedirectWithFlash(c, h.Flash, "/cart", view.FlashSuccess, "장바구니에 담았습니다.")
}

func (h *CartHandler) Update(c *gin.Context) {
	productID := strings.TrimSpace(c.PostForm("product_id"))
	qty := min(max(parseQty(c.PostForm("qty"), 1), 0), cart.MaxQty)
	if err := h.CK.Set(c, h.CK.Get(c).Update(productID, qty)); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	render.RedirectWithFlash(c, h.Flash, "/cart", view.FlashSuccess, "수량을 변경했습니다.")
}

func (h *CartHandler) Remove(c *gin.Context) {
	productID := strings.TrimSpace(c.PostForm("product_id"))
	if err := h.CK.Set(c, h.CK.Get(c).Remove(productID)); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	render.RedirectWithFlash(c, h.Flash, "/cart", view.FlashInfo, "상품을 장바구니에서 뺐습니다.")
}

func (h *CartHandler) redirectErr(c *gin.Context, back string, err error) {
	if ae, ok := apperr.As(err); ok && ae.Kind != apperr.Internal {
		render.RedirectWithFlash(c, h.Flash, back, view.FlashError, ae.PublicMsg)
		return
	}
	middleware.Fail(c, err)
}
