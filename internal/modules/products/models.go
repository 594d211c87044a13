package products

import (
	"time"

	"vibeshop.com/app/internal/docstore"
)

const Collection = "products"

const (
	StatusActive       = "active"
	StatusInactive     = "inactive"
	StatusDiscontinued = "discontinued"
)

var Statuses = []string{StatusActive, StatusInactive, StatusDiscontinued}

type Product struct {
	ID          string    `doc:"id"`
	Name        string    `doc:"name"`
	Slug        string    `doc:"slug"`
	Description string    `doc:"description"`
	Price       int64     `doc:"price"`
	Stock       int       `doc:"stock"`
	Category    string    `doc:"category"`
	Status      string    `doc:"status"`
	Visible     bool      `doc:"isVisible"`
	ImageKey    string    `doc:"imageKey"`
	CreatedAt   time.Time `doc:"createdAt"`
	UpdatedAt   time.Time `doc:"updatedAt"`
}

// Purchasable reports whether the storefront may sell the product.
func (p Product) Purchasable() bool {
	return p.Visible && p.Status == StatusActive && p.Stock > 0
}

func (p Product) LowStock(threshold int) bool {
	return p.Status == StatusActive && p.Stock < threshold
}

func FromDocument(d docstore.Document) (Product, error) {
	var p Product
	if err := d.Decode(&p); err != nil {
		return Product{}, err
	}
	switch p.Status {
	case StatusActive, StatusInactive, StatusDiscontinued:
	default:
		p.Status = StatusInactive
	}
	if p.Category == "" {
		p.Category = "기타"
	}
	if p.Stock < 0 {
		p.Stock = 0
	}
	return p, nil
}

func StatusLabel(s string) string {
	switch s {
	case StatusActive:
		return "판매중"
	case StatusDiscontinued:
		return "단종"
	default:
		return "품절"
	}
}

func VisibilityLabel(v bool) string {
	if v {
		return "노출"
	}
	return "숨김"
}
