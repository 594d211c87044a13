package handlers

import (
	"context"
	"time"

	"vibeshop.com/app/internal/modules/cart"
	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/modules/reviews"
	"vibeshop.com/app/pkg/view"
)

// ImageResolver turns a product image key into a URL.
type ImageResolver interface {
	ImageURL(ctx context.Context, p products.Product) string
}

// FileResolver turns review attachment keys into URLs.
type FileResolver interface {
	FileURLs(ctx context.Context, r reviews.Review) []string
}

func productCard(ctx context.Context, img ImageResolver, p products.Product) view.ProductCard {
	return view.ProductCard{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Price:    view.KRW(p.Price),
		Category: p.Category,
		ImageURL: img.ImageURL(ctx, p),
		SoldOut:  !p.Purchasable(),
	}
}

func productCards(ctx context.Context, img ImageResolver, items []products.Product) []view.ProductCard {
	out := make([]view.ProductCard, 0, len(items))
	for _, p := range items {
		out = append(out, productCard(ctx, img, p))
	}
	return out
}

// ReviewCard converts a review for display. The admin console reuses it.
func ReviewCard(ctx context.Context, files FileResolver, r reviews.Review, loc *time.Location, withStatus bool) view.ReviewCard {
	rc := view.ReviewCard{
		ID:      r.ID,
		Name:    r.Name,
		Title:   r.Title,
		Course:  r.Course,
		Stars:   reviews.Stars(r.Rating),
		Content: reviews.RenderContent(r.Content),
		Date:    view.Date(r.CreatedAt, loc),
		Images:  files.FileURLs(ctx, r),
	}
	if withStatus {
		rc.Status = r.Status.Label()
	}
	return rc
}

func reviewCards(ctx context.Context, files FileResolver, items []reviews.Review, loc *time.Location, withStatus bool) []view.ReviewCard {
	out := make([]view.ReviewCard, 0, len(items))
	for _, r := range items {
		out = append(out, ReviewCard(ctx, files, r, loc, withStatus))
	}
	return out
}

// OrderView converts an order for display. The admin console reuses it.
func OrderView(o orders.Order, loc *time.Location) view.OrderView {
	lines := make([]view.OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, view.OrderLine{
			Name:     it.Name,
			Qty:      it.Quantity,
			Price:    view.KRW(it.Price),
			Subtotal: view.KRW(it.Subtotal()),
		})
	}
	ov := view.OrderView{
		ID:            o.ID,
		Number:        o.OrderNumber,
		Date:          view.DateTime(o.CreatedAt, loc),
		Status:        string(o.Status),
		StatusLabel:   o.Status.Label(),
		Method:        o.PaymentMethod,
		MethodLabel:   orders.MethodLabel(o.PaymentMethod),
		Amount:        view.KRW(o.Amount),
		ItemCount:     o.ItemCount(),
		CustomerName:  o.CustomerName,
		Email:         o.Email,
		Phone:         o.Phone,
		Address:       o.Address,
		AddressDetail: o.AddressDetail,
		ZipCode:       o.ZipCode,
		PaymentKey:    o.PaymentKey,
		PaidAt:        view.DateTimePtr(o.PaidAt, loc),
		Lines:         lines,
	}
	if o.FailureCode != "" || o.FailureMessage != "" {
		ov.Failure = o.FailureMessage + " (" + o.FailureCode + ")"
	}
	return ov
}

func orderViews(items []orders.Order, loc *time.Location) []view.OrderView {
	out := make([]view.OrderView, 0, len(items))
	for _, o := range items {
		out = append(out, OrderView(o, loc))
	}
	return out
}

func cartPage(ctx context.Context, img ImageResolver, p cart.Page) view.CartPage {
	out := view.CartPage{Total: view.KRW(p.Total), Count: p.Count, HasUnavailable: p.HasUnavailable()}
	for _, it := range p.Items {
		out.Lines = append(out.Lines, view.CartLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Slug:      it.Product.Slug,
			ImageURL:  img.ImageURL(ctx, it.Product),
			Price:     view.KRW(it.Product.Price),
			Qty:       it.Qty,
			Subtotal:  view.KRW(it.Subtotal()),
			Stock:     it.Product.Stock,
			Available: it.Available,
		})
	}
	return out
}
