package mailer

import (
	"fmt"
	"log/slog"

	"vibeshop.com/app/internal/config"
)

// FromConfig selects the delivery driver named by mail.driver.
func FromConfig(mail config.MailConfig, smtpCfg config.SMTPConfig, logger *slog.Logger) (Service, error) {
	switch mail.Driver {
	case "smtp":
		return NewSMTPMailer(smtpCfg), nil
	case "mailtrap":
		return NewMailtrap(mail.MailtrapURL, mail.MailtrapToken, 0), nil
	case "log", "":
		return NewLog(logger), nil
	default:
		return nil, fmt.Errorf("mailer: unknown driver %q", mail.Driver)
	}
}
