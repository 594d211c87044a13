// Package inquiries stores contact-form submissions.
package inquiries

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
)

const Collection = "inquiries"

type Inquiry struct {
	ID        string    `doc:"id"`
	Name      string    `doc:"name"`
	Email     string    `doc:"email"`
	Phone     string    `doc:"phone"`
	Subject   string    `doc:"subject"`
	Message   string    `doc:"message"`
	UserID    string    `doc:"userId"`
	CreatedAt time.Time `doc:"createdAt"`
}

type Draft struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required.Error("이름을 입력해 주세요."), validation.RuneLength(1, 50)),
		validation.Field(&d.Email, validation.Required.Error("이메일을 입력해 주세요."), is.EmailFormat.Error("이메일 형식이 올바르지 않습니다.")),
		validation.Field(&d.Phone, validation.RuneLength(0, 20)),
		validation.Field(&d.Subject, validation.Required.Error("제목을 입력해 주세요."), validation.RuneLength(1, 100)),
		validation.Field(&d.Message, validation.Required.Error("문의 내용을 입력해 주세요."), validation.RuneLength(1, 3000)),
	)
}

// Notifier is told about every stored inquiry.
type Notifier interface {
	Inquiry(ctx context.Context, in Inquiry)
}

type Service struct {
	store    docstore.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewService(store docstore.Store, n Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, notifier: n, logger: logger}
}

func (s *Service) Submit(ctx context.Context, userID string, d Draft) (Inquiry, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Subject = strings.TrimSpace(d.Subject)
	d.Message = strings.TrimSpace(d.Message)
	if err := d.Validate(); err != nil {
		return Inquiry{}, validationErr(err)
	}
	id, err := s.store.Add(ctx, Collection, docstore.Data{
		"name":    d.Name,
		"email":   d.Email,
		"phone":   d.Phone,
		"subject": d.Subject,
		"message": d.Message,
		"userId":  userID,
	})
	if err != nil {
		return Inquiry{}, apperr.Wrap(err)
	}
	doc, err := s.store.Get(ctx, Collection, id)
	if err != nil {
		return Inquiry{}, apperr.Wrap(err)
	}
	var in Inquiry
	if err := doc.Decode(&in); err != nil {
		return Inquiry{}, apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "inquiry_received", "inquiry_id", id)
	if s.notifier != nil {
		s.notifier.Inquiry(ctx, in)
	}
	return in, nil
}

func validationErr(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperr.InvalidErr("입력 내용을 확인해 주세요.", nil)
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[strings.ToLower(k)] = v.Error()
	}
	return apperr.InvalidErr("입력 내용을 확인해 주세요.", fields)
}
