package products

import (
	"context"

	"vibeshop.com/app/internal/filter"
)

// Catalog is the read side used by the storefront.
type Catalog interface {
	ListActive(ctx context.Context, category string) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
}

type catalog struct{ repo *Repo }

func NewCatalog(repo *Repo) Catalog { return catalog{repo: repo} }

// ListActive returns visible, active products, optionally narrowed to one
// category. The "all" sentinel and empty string disable the category filter.
func (c catalog) ListActive(ctx context.Context, category string) ([]Product, error) {
	items, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(items, filter.And[Product](
		func(p Product) bool { return p.Visible && p.Status == StatusActive },
		filter.Equals(category, func(p Product) string { return p.Category }),
	)), nil
}

func (c catalog) GetBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := c.repo.FindBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	if !p.Visible || p.Status == StatusDiscontinued {
		return Product{}, ErrNotFound
	}
	return p, nil
}
