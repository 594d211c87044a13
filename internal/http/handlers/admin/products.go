package admin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vibeshop.com/app/internal/datatable"
	"vibeshop.com/app/internal/filter"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/http/render"
	"vibeshop.com/app/internal/http/validation"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

// maxImageBytes bounds the product image upload request.
const maxImageBytes = 10 << 20

func (h *Handler) productList() *list[products.Product] {
	repo := h.Products.Repo()
	return &list[products.Product]{
		h:        h,
		entity:   "products",
		title:    "상품 관리",
		newHref:  "/admin/products/new",
		notFound: products.ErrNotFoundPub,
		fetch:    repo.List,
		get:      repo.Get,
		table:    h.productTable,
		filters:  h.productFilters,
	}
}

func (h *Handler) productFilters(ctx context.Context, q url.Values) (filter.Predicate[products.Product], []view.FilterField, error) {
	category, status := q.Get("category"), q.Get("status")
	pred := filter.And(
		filter.Text(q.Get("q"),
			func(p products.Product) string { return p.Name },
			func(p products.Product) string { return p.Description },
		),
		filter.Equals(category, func(p products.Product) string { return p.Category }),
		filter.Equals(status, func(p products.Product) string { return p.Status }),
	)
	// A failed read only empties the category select.
	var cats []string
	if items, err := h.Products.Repo().List(ctx); err == nil {
		cats = products.Categories(items)
	}
	return pred, []view.FilterField{
		textField(q, "상품명 또는 설명"),
		selectField("category", "카테고리", options(cats, func(s string) string { return s }, category, true)),
		selectField("status", "상태", options(products.Statuses, products.StatusLabel, status, true)),
	}, nil
}

func (h *Handler) productTable(string) *datatable.Table[products.Product] {
	svc := h.Products
	return &datatable.Table[products.Product]{
		ID:         func(p products.Product) string { return p.ID },
		ActionPath: "/admin/products",
		RowHref:    func(p products.Product) string { return "/admin/products/" + p.ID + "/edit" },
		Columns: []datatable.Column[products.Product]{
			{Key: "name", Header: "상품명", Sortable: true, Value: func(p products.Product) any { return p.Name }},
			{Key: "category", Header: "카테고리", Sortable: true, Value: func(p products.Product) any { return p.Category }},
			{Key: "price", Header: "가격", Sortable: true,
				Value:  func(p products.Product) any { return p.Price },
				Format: func(p products.Product) datatable.Cell { return datatable.Cell{Text: view.KRW(p.Price)} }},
			{Key: "stock", Header: "재고", Sortable: true,
				Value: func(p products.Product) any { return p.Stock },
				Format: func(p products.Product) datatable.Cell {
					c := datatable.Cell{Text: view.Number(int64(p.Stock))}
					if p.Stock == 0 {
						c.Class = "stock-out"
					}
					return c
				}},
			{Key: "status", Header: "상태", Sortable: true,
				Value:  func(p products.Product) any { return p.Status },
				Format: func(p products.Product) datatable.Cell { return datatable.Cell{Text: products.StatusLabel(p.Status)} }},
			{Key: "isVisible", Header: "노출", Sortable: true,
				Value:  func(p products.Product) any { return p.Visible },
				Format: func(p products.Product) datatable.Cell { return datatable.Cell{Text: products.VisibilityLabel(p.Visible)} }},
			{Key: "updatedAt", Header: "수정일", Sortable: true,
				Value:  func(p products.Product) any { return p.UpdatedAt },
				Format: func(p products.Product) datatable.Cell { return datatable.Cell{Text: view.Date(p.UpdatedAt, h.Loc)} }},
		},
		Actions: []datatable.Action[products.Product]{
			{Name: "edit", Label: "수정", Href: func(p products.Product) string { return "/admin/products/" + p.ID + "/edit" }},
			{Name: "toggle_visibility", Label: "노출 전환",
				Handle: func(ctx context.Context, p products.Product, _ url.Values) (string, error) {
					return svc.ToggleVisibility(ctx, p)
				}},
			{Name: "set_stock", Label: "재고 저장", InputName: "stock", InputType: "number",
				InputValue: func(p products.Product) string { return strconv.Itoa(p.Stock) },
				Handle: func(ctx context.Context, p products.Product, form url.Values) (string, error) {
					return svc.SetStock(ctx, p, form.Get("stock"))
				}},
			{Name: "delete", Label: "삭제", Variant: datatable.VariantDestructive, Confirm: "상품을 삭제하시겠습니까?",
				Handle: func(ctx context.Context, p products.Product, _ url.Values) (string, error) {
					return svc.Delete(ctx, p)
				}},
		},
	}
}

type productForm struct {
	Name        string `form:"name"`
	Description string `form:"description"`
	Price       string `form:"price" binding:"required,numeric"`
	Stock       string `form:"stock" binding:"required,numeric"`
	Category    string `form:"category"`
	Status      string `form:"status"`
	Visible     bool   `form:"visible"`
}

// draft converts the bound form; integer parse failures become field errors.
func (f productForm) draft() (products.Draft, view.FieldErrors) {
	d := products.Draft{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		Status:      f.Status,
		Visible:     f.Visible,
	}
	errs := view.FieldErrors{}
	price, err := strconv.ParseInt(strings.TrimSpace(f.Price), 10, 64)
	if err != nil {
		errs["price"] = "가격은 정수로 입력해 주세요."
	}
	stock, err := strconv.Atoi(strings.TrimSpace(f.Stock))
	if err != nil {
		errs["stock"] = "재고는 0 이상의 정수로 입력해 주세요."
	}
	d.Price, d.Stock = price, stock
	if len(errs) > 0 {
		return d, errs
	}
	return d, nil
}

func (h *Handler) NewProduct(c *gin.Context) {
	h.productForm(c, http.StatusOK, view.AdminProductForm{
		Action:  "/admin/products",
		Status:  products.StatusActive,
		Stock:   "0",
		Visible: true,
	})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var in productForm
	bindErr := c.ShouldBind(&in)
	form := formView(in, "", "/admin/products")
	if bindErr != nil {
		form.Errors = validation.FromBindError(bindErr, &in)
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	d, errs := in.draft()
	if errs != nil {
		form.Errors = errs
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	p, err := h.Products.Create(c.Request.Context(), d)
	if validation.IsInvalid(err) {
		form.Errors = validation.FromAppError(err)
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	h.Logger.InfoContext(c.Request.Context(), "product_created", "product_id", p.ID, "actor", actor(c))
	render.RedirectWithFlash(c, h.Flash, "/admin/products/"+p.ID+"/edit", view.FlashSuccess, p.Name+" 상품을 등록했습니다.")
}

func (h *Handler) EditProduct(c *gin.Context) {
	p, err := h.Products.Repo().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, products.ErrNotFoundPub, err)
		return
	}
	h.productForm(c, http.StatusOK, h.editView(c.Request.Context(), p))
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.Products.Repo().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, products.ErrNotFoundPub, err)
		return
	}
	action := "/admin/products/" + p.ID
	var in productForm
	bindErr := c.ShouldBind(&in)
	form := formView(in, p.ID, action)
	form.ImageURL = h.Products.ImageURL(ctx, p)
	if bindErr != nil {
		form.Errors = validation.FromBindError(bindErr, &in)
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	d, errs := in.draft()
	if errs != nil {
		form.Errors = errs
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	p, err = h.Products.Update(ctx, p.ID, d)
	if validation.IsInvalid(err) {
		form.Errors = validation.FromAppError(err)
		h.productForm(c, http.StatusBadRequest, form)
		return
	}
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	render.RedirectWithFlash(c, h.Flash, "/admin/products/"+p.ID+"/edit", view.FlashSuccess, p.Name+" 상품을 수정했습니다.")
}

func (h *Handler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.Products.Repo().Get(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, products.ErrNotFoundPub, err)
		return
	}
	back := "/admin/products/" + p.ID + "/edit"
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	fh, err := c.FormFile("image")
	if err != nil {
		render.RedirectWithFlash(c, h.Flash, back, view.FlashError, "이미지 파일을 선택해 주세요. (최대 10MB)")
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	_, err = h.Products.AttachImage(ctx, p, f, fh.Filename)
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.Invalid {
			render.RedirectWithFlash(c, h.Flash, back, view.FlashError, ae.PublicMsg)
			return
		}
		middleware.Fail(c, err)
		return
	}
	render.RedirectWithFlash(c, h.Flash, back, view.FlashSuccess, "대표 이미지를 변경했습니다.")
}

func (h *Handler) editView(ctx context.Context, p products.Product) view.AdminProductForm {
	return view.AdminProductForm{
		ID:          p.ID,
		Action:      "/admin/products/" + p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       strconv.FormatInt(p.Price, 10),
		Stock:       strconv.Itoa(p.Stock),
		Category:    p.Category,
		Status:      p.Status,
		Visible:     p.Visible,
		ImageURL:    h.Products.ImageURL(ctx, p),
	}
}

func formView(in productForm, id, action string) view.AdminProductForm {
	return view.AdminProductForm{
		ID:          id,
		Action:      action,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		Status:      in.Status,
		Visible:     in.Visible,
	}
}

func (h *Handler) productForm(c *gin.Context, status int, f view.AdminProductForm) {
	f.Statuses = options(products.Statuses, products.StatusLabel, f.Status, false)
	title := "상품 등록"
	if !f.IsNew() {
		title = "상품 수정"
	}
	h.R.AdminPage(c, status, "product_form", title, f)
}
