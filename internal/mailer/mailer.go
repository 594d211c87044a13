// Package mailer delivers transactional email over SMTP, the Mailtrap HTTP
// API, or the application log.
package mailer

import (
	"context"
	"strings"
)

// DefaultCategory tags mail that does not name its own category.
const DefaultCategory = "transactional"

type Service interface {
	Send(ctx context.Context, e Email) error
}

// Email is one outgoing message. Addresses are bare (user@host); display
// names only exist for the sender.
type Email struct {
	FromName string
	From     string
	ReplyTo  string

	To  []string
	Cc  []string
	Bcc []string

	Subject  string
	TextBody string
	HTMLBody string

	// Category groups mail in provider dashboards and in the log driver,
	// e.g. "order_paid" or "low_stock".
	Category string
	Headers  map[string]string
}

func (e Email) category() string {
	if c := strings.TrimSpace(e.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// AllRecipients is the SMTP envelope: To, Cc and Bcc with blanks removed and
// duplicates (compared case-insensitively) listed once.
func (e Email) AllRecipients() []string {
	seen := make(map[string]struct{}, len(e.To)+len(e.Cc)+len(e.Bcc))
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	for _, list := range [][]string{e.To, e.Cc, e.Bcc} {
		for _, addr := range list {
			addr = strings.TrimSpace(addr)
			key := strings.ToLower(addr)
			if addr == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, addr)
		}
	}
	return out
}
