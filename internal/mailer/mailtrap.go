package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Mailtrap sends through the Mailtrap send API with a bearer token.
type Mailtrap struct {
	http *resty.Client
	url  string
}

type mailtrapPerson struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailtrapPayload struct {
	From     mailtrapPerson   `json:"from"`
	ReplyTo  *mailtrapPerson  `json:"reply_to,omitempty"`
	To       []mailtrapPerson `json:"to"`
	Cc       []mailtrapPerson `json:"cc,omitempty"`
	Bcc      []mailtrapPerson `json:"bcc,omitempty"`
	Subject  string           `json:"subject"`
	Text     string           `json:"text,omitempty"`
	HTML     string           `json:"html,omitempty"`
	Category string           `json:"category,omitempty"`
}

func NewMailtrap(url, token string, timeout time.Duration) *Mailtrap {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")
	return &Mailtrap{http: client, url: url}
}

func (m *Mailtrap) Send(ctx context.Context, e Email) error {
	if err := e.validate(); err != nil {
		return err
	}
	payload := mailtrapPayload{
		From:     mailtrapPerson{Email: e.From, Name: e.FromName},
		To:       people(e.To),
		Cc:       people(e.Cc),
		Bcc:      people(e.Bcc),
		Subject:  e.Subject,
		Text:     e.TextBody,
		HTML:     e.HTMLBody,
		Category: e.category(),
	}
	if e.ReplyTo != "" {
		payload.ReplyTo = &mailtrapPerson{Email: e.ReplyTo}
	}
	resp, err := m.http.R().SetContext(ctx).SetBody(payload).Post(m.url)
	if err != nil {
		return fmt.Errorf("mailtrap: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mailtrap: status %d", resp.StatusCode())
	}
	return nil
}

func people(addrs []string) []mailtrapPerson {
	if len(addrs) == 0 {
		return nil
	}
	out := make([]mailtrapPerson, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, mailtrapPerson{Email: a})
	}
	return out
}
