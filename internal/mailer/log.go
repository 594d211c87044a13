package mailer

import (
	"context"
	"log/slog"
)

// Log writes mail to the application log instead of delivering it.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, e Email) error {
	if err := e.validate(); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "mail_logged", "category", e.category(), "to", e.AllRecipients(), "subject", e.Subject, "text", e.TextBody)
	return nil
}
