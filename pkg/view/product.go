package view

import "html/template"

type ProductCard struct {
	ID       string
	Name     string
	Slug     string
	Price    string
	Category string
	ImageURL string
	SoldOut  bool
}

type ProductsPage struct {
	Products   []ProductCard
	Categories []string
	Category   string
}

type ProductDetailPage struct {
	Product     ProductCard
	Description string
	Stock       int
	Purchasable bool
	MaxQty      int
}

type ReviewCard struct {
	ID      string
	Name    string
	Title   string
	Course  string
	Stars   string
	Content template.HTML
	Date    string
	Status  string
	Images  []string
}

type HomePage struct {
	Products []ProductCard
	Reviews  []ReviewCard
}

type ReviewsPage struct {
	Reviews []ReviewCard
}

type ReviewForm struct {
	Name     string
	Title    string
	Content  string
	Course   string
	Rating   int
	Errors   FieldErrors
	MaxFiles int
	MaxMB    int64
}

// Ratings lists the selectable ratings, highest first.
func (f ReviewForm) Ratings() []int { return []int{5, 4, 3, 2, 1} }

type ContactForm struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
	Errors  FieldErrors
}
