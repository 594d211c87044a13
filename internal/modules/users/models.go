package users

import (
	"strings"
	"time"

	"vibeshop.com/app/internal/docstore"
)

const Collection = "users"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

var (
	Roles    = []string{RoleUser, RoleAdmin}
	Statuses = []string{StatusActive, StatusInactive, StatusSuspended}
)

// User is the profile document keyed by the identity user id.
type User struct {
	ID          string     `doc:"id"`
	Email       string     `doc:"email"`
	Name        string     `doc:"name"`
	Phone       string     `doc:"phone"`
	Address     string     `doc:"address"`
	Role        string     `doc:"role"`
	Status      string     `doc:"status"`
	Provider    string     `doc:"provider"`
	CreatedAt   time.Time  `doc:"createdAt"`
	LastLoginAt *time.Time `doc:"lastLoginAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// FromDocument normalizes a stored profile.
func FromDocument(d docstore.Document) (User, error) {
	var u User
	if err := d.Decode(&u); err != nil {
		return User{}, err
	}
	if u.Role != RoleAdmin {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if strings.TrimSpace(u.Name) == "" {
		u.Name = DefaultName(u.Email)
	}
	if u.LastLoginAt != nil && u.LastLoginAt.IsZero() {
		u.LastLoginAt = nil
	}
	return u, nil
}

// DefaultName derives a display name from the email local part.
func DefaultName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local = strings.TrimSpace(local); local != "" {
		return local
	}
	return "Unknown"
}

func RoleLabel(r string) string {
	if r == RoleAdmin {
		return "관리자"
	}
	return "일반회원"
}

func StatusLabel(s string) string {
	switch s {
	case StatusInactive:
		return "비활성"
	case StatusSuspended:
		return "정지"
	default:
		return "활성"
	}
}
