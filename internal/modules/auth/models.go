package auth

import "time"

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Credential links an identity to a profile document.
type Credential struct {
	UserID       string    `gorm:"primaryKey;type:varchar(64)"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_credentials_email"`
	PasswordHash *string   `gorm:"type:varchar(255)"`
	Provider     string    `gorm:"type:varchar(32);not null"`
	Subject      *string   `gorm:"type:varchar(255);index:ix_credentials_subject"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (Credential) TableName() string { return "credentials" }

// Session is a database-backed login session. The cookie carries a random
// token; only its SHA-256 hash is stored.
type Session struct {
	ID         string    `gorm:"primaryKey;type:char(36)"`
	UserID     string    `gorm:"type:varchar(64);not null;index:ix_sessions_user_id"`
	TokenHash  []byte    `gorm:"type:binary(32);not null;uniqueIndex:ux_sessions_token_hash"`
	ExpiresAt  time.Time `gorm:"not null;index:ix_sessions_expires_at"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// Principal is the signed-in user for one request.
type Principal struct {
	UserID    string
	SessionID string
	Email     string
	Name      string
	Role      string
}

func (p Principal) IsAdmin() bool { return p.Role == "admin" }

type EventKind string

const (
	EventSignedIn  EventKind = "signed_in"
	EventSignedOut EventKind = "signed_out"
	EventSignedUp  EventKind = "signed_up"
)

type Event struct {
	Kind     EventKind
	UserID   string
	Email    string
	Name     string
	Provider string
	At       time.Time
}

type Observer func(Event)
