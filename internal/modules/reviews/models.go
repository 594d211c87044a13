package reviews

import (
	"strings"
	"time"

	"vibeshop.com/app/internal/docstore"
)

const Collection = "reviews"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

func (s Status) Label() string {
	switch s {
	case StatusApproved:
		return "승인됨"
	case StatusRejected:
		return "반려됨"
	default:
		return "검토중"
	}
}

const MaxRating = 5

type Review struct {
	ID        string    `doc:"id"`
	UserID    string    `doc:"userId"`
	Name      string    `doc:"name"`
	Title     string    `doc:"title"`
	Content   string    `doc:"content"`
	Course    string    `doc:"course"`
	Rating    int       `doc:"rating"`
	Status    Status    `doc:"status"`
	Files     []string  `doc:"files"`
	CreatedAt time.Time `doc:"createdAt"`
	UpdatedAt time.Time `doc:"updatedAt"`
}

// FromDocument applies the display defaults: Unknown author, pending
// status and a rating within 0..5.
func FromDocument(d docstore.Document) (Review, error) {
	var r Review
	if err := d.Decode(&r); err != nil {
		return Review{}, err
	}
	if strings.TrimSpace(r.Name) == "" {
		r.Name = "Unknown"
	}
	switch r.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		r.Status = StatusPending
	}
	r.Rating = min(max(r.Rating, 0), MaxRating)
	return r, nil
}

// Stars renders a rating as filled and unfilled stars.
func Stars(rating int) string {
	rating = min(max(rating, 0), MaxRating)
	return strings.Repeat("★", rating) + strings.Repeat("☆", MaxRating-rating)
}
