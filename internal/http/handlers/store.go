package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/http/flash"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/inquiries"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

const (
	homeProducts = 8
	homeReviews  = 6
)

// StoreHandler serves the public catalog and company pages.
type StoreHandler struct {
	R         *render.Renderer
	Flash     *flash.Codec
	Catalog   products.Catalog
	Images    ImageResolver
	Reviews   *reviews.Service
	Inquiries *inquiries.Service
	Loc       *time.Location
	Logger    *slog.Logger
}

func (h *StoreHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	items, err := h.Catalog.ListActive(ctx, "")
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	recent, err := h.Reviews.Repo().ListByStatus(ctx, reviews.StatusApproved, homeReviews)
	if err != nil {
		// The home page still renders without reviews.
		h.Logger.WarnContext(ctx, "home_reviews_failed", "err", err)
	}
	h.R.Page(c, http.StatusOK, "home", "", view.HomePage{
		Products: productCards(ctx, h.Images, items[:min(len(items), homeProducts)]),
		Reviews:  reviewCards(ctx, h.Reviews, recent, h.Loc, false),
	})
}

func (h *StoreHandler) Products(c *gin.Context) {
	ctx := c.Request.Context()
	all, err := h.Catalog.ListActive(ctx, "")
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	category := c.Query("category")
	items, err := h.Catalog.ListActive(ctx, category)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "products", "상품", view.ProductsPage{
		Products:   productCards(ctx, h.Images, items),
		Categories: products.Categories(all),
		Category:   category,
	})
}

func (h *StoreHandler) ProductDetail(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.Catalog.GetBySlug(ctx, c.Param("slug"))
	if errors.Is(err, products.ErrNotFound) {
		middleware.Fail(c, products.ErrNotFoundPub.WithCause(err))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	h.R.Page(c, http.StatusOK, "product_detail", p.Name, view.ProductDetailPage{
		Product:     productCard(ctx, h.Images, p),
		Description: p.Description,
		Stock:       p.Stock,
		Purchasable: p.Purchasable(),
		MaxQty:      min(p.Stock, 99),
	})
}

func (h *StoreHandler) About(c *gin.Context) {
	h.R.Page(c, http.StatusOK, "about", "회사 소개", nil)
}

func (h *StoreHandler) Services(c *gin.Context) {
	h.R.Page(c, http.StatusOK, "services", "서비스", nil)
}

func (h *StoreHandler) Contact(c *gin.Context) {
	form := view.ContactForm{}
	if p, ok := middleware.CurrentUser(c); ok {
		form.Name, form.Email = p.Name, p.Email
	}
	h.R.Page(c, http.StatusOK, "contact", "문의하기", form)
}

type contactInput struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Phone   string `form:"phone"`
	Subject string `form:"subject"`
	Message string `form:"message"`
}

func (h *StoreHandler) ContactSubmit(c *gin.Context) {
	var in contactInput
	_ = c.ShouldBind(&in)
	form := view.ContactForm{Name: in.Name, Email: in.Email, Phone: in.Phone, Subject: in.Subject, Message: in.Message}

	_, err := h.Inquiries.Submit(c.Request.Context(), userID(c), inquiries.Draft(in))
	if validation.IsInvalid(err) {
		form.Errors = validation.FromAppError(err)
		h.R.Page(c, http.StatusBadRequest, "contact", "문의하기", form)
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.RedirectWithFlash(c, h.Flash, "/contact", view.FlashSuccess, "문의가 접수되었습니다. 빠르게 답변드리겠습니다.")
}
