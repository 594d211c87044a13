package cart

import (
	"context"
	"errors"
	"fmt"

	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/shared/apperr"
)

var (
	ErrUnavailable = apperr.ConflictErr("구매할 수 없는 상품입니다.")
	ErrInvalidQty  = apperr.InvalidErr("수량을 확인해 주세요.", map[string]string{"qty": "수량은 1 이상이어야 합니다."})
)

// ProductSource resolves cart lines to current product data.
type ProductSource interface {
	Get(ctx context.Context, id string) (products.Product, error)
}

type Service struct {
	products ProductSource
}

func NewService(src ProductSource) *Service { return &Service{products: src} }

type Item struct {
	Product   products.Product
	Qty       int
	Available bool
}

func (it Item) Subtotal() int64 { return it.Product.Price * int64(it.Qty) }

// Page is a cart priced against the current catalog.
type Page struct {
	Items []Item
	Total int64
	Count int
}

// HasUnavailable reports whether any line can no longer be bought as is.
func (p Page) HasUnavailable() bool {
	for _, it := range p.Items {
		if !it.Available {
			return true
		}
	}
	return false
}

// Build prices the cart. Lines whose product no longer exists are dropped
// from the returned cart so the caller can rewrite the cookie.
func (s *Service) Build(ctx context.Context, c Cart) (Page, Cart, error) {
	var page Page
	kept := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, err := s.products.Get(ctx, l.ProductID)
		if errors.Is(err, products.ErrNotFound) {
			continue
		}
		if err != nil {
			return Page{}, c, apperr.Wrap(err)
		}
		kept = append(kept, l)
		it := Item{Product: p, Qty: l.Qty, Available: p.Purchasable() && p.Stock >= l.Qty}
		page.Items = append(page.Items, it)
		if it.Available {
			page.Total += it.Subtotal()
			page.Count += it.Qty
		}
	}
	return page, Cart{Lines: kept}, nil
}

// Add puts qty units of a purchasable product into the cart.
func (s *Service) Add(ctx context.Context, c Cart, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		return c, ErrInvalidQty
	}
	p, err := s.products.Get(ctx, productID)
	if errors.Is(err, products.ErrNotFound) {
		return c, products.ErrNotFoundPub.WithCause(err)
	}
	if err != nil {
		return c, apperr.Wrap(err)
	}
	if !p.Purchasable() {
		return c, ErrUnavailable
	}
	if want := c.Qty(productID) + qty; want > p.Stock {
		msg := fmt.Sprintf("%s 상품의 재고가 부족합니다. (남은 수량 %d개)", p.Name, p.Stock)
		return c, apperr.ConflictErr(msg)
	}
	return c.Add(productID, qty), nil
}
