package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gosimple/slug"
	"github.com/segmentio/ksuid"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/storage"
)

var (
	ErrInvalidStock = apperr.InvalidErr("재고는 0 이상의 정수로 입력해 주세요.", map[string]string{"stock": "재고는 0 이상의 정수로 입력해 주세요."})
	ErrNotFoundPub  = apperr.NotFoundErr("상품을 찾을 수 없습니다.")
)

// Draft is the editable part of a product.
type Draft struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	Category    string
	Status      string
	Visible     bool
}

func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required.Error("상품명을 입력해 주세요."), validation.RuneLength(1, 100)),
		validation.Field(&d.Price, validation.Min(int64(0)).Error("가격은 0 이상이어야 합니다.")),
		validation.Field(&d.Stock, validation.Min(0).Error("재고는 0 이상이어야 합니다.")),
		validation.Field(&d.Category, validation.Required.Error("카테고리를 입력해 주세요."), validation.RuneLength(1, 40)),
		validation.Field(&d.Status, validation.Required, validation.In(StatusActive, StatusInactive, StatusDiscontinued).Error("상태 값이 올바르지 않습니다.")),
	)
}

type Service struct {
	repo   *Repo
	files  storage.Storage
	logger *slog.Logger
}

func NewService(repo *Repo, files storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, files: files, logger: logger}
}

func (s *Service) Repo() *Repo { return s.repo }

func (s *Service) Create(ctx context.Context, d Draft) (Product, error) {
	if err := validateDraft(d); err != nil {
		return Product{}, err
	}
	sl, err := s.uniqueSlug(ctx, d.Name, "")
	if err != nil {
		return Product{}, apperr.Wrap(err)
	}
	data := draftData(d)
	data["slug"] = sl
	id, err := s.repo.create(ctx, data)
	if err != nil {
		return Product{}, apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "product_created", "product_id", id, "slug", sl)
	return s.get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, d Draft) (Product, error) {
	if err := validateDraft(d); err != nil {
		return Product{}, err
	}
	cur, err := s.get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	data := draftData(d)
	if cur.Name != d.Name || cur.Slug == "" {
		sl, err := s.uniqueSlug(ctx, d.Name, id)
		if err != nil {
			return Product{}, apperr.Wrap(err)
		}
		data["slug"] = sl
	}
	if err := s.repo.update(ctx, id, data); err != nil {
		return Product{}, s.mapErr(err)
	}
	return s.get(ctx, id)
}

// AttachImage stores an image upload and points the product at it. The
// previous image is removed on a best effort basis.
func (s *Service) AttachImage(ctx context.Context, p Product, r io.Reader, filename string) (Product, error) {
	ct, body, err := storage.SniffImage(r)
	if errors.Is(err, storage.ErrNotImage) {
		return Product{}, apperr.InvalidErr("이미지 파일만 업로드할 수 있습니다.", map[string]string{"image": "이미지 파일만 업로드할 수 있습니다."})
	}
	if err != nil {
		return Product{}, apperr.Wrap(err)
	}
	res, err := s.files.Put(ctx, body, storage.PutInput{
		Path:        fmt.Sprintf("products/%s/%d_%s", p.ID, time.Now().Unix(), storage.SafeName(filename)),
		Filename:    filename,
		ContentType: ct,
	})
	if err != nil {
		return Product{}, apperr.Wrap(err)
	}
	if err := s.repo.update(ctx, p.ID, docstore.Data{"imageKey": res.Key}); err != nil {
		return Product{}, s.mapErr(err)
	}
	if p.ImageKey != "" && p.ImageKey != res.Key {
		if err := s.files.Delete(ctx, p.ImageKey); err != nil {
			s.logger.WarnContext(ctx, "product_image_cleanup_failed", "product_id", p.ID, "key", p.ImageKey, "err", err)
		}
	}
	p.ImageKey = res.Key
	return p, nil
}

// ImageURL resolves the product image, or "" when there is none.
func (s *Service) ImageURL(ctx context.Context, p Product) string {
	if p.ImageKey == "" || s.files == nil {
		return ""
	}
	u, err := s.files.URL(ctx, p.ImageKey)
	if err != nil {
		s.logger.WarnContext(ctx, "product_image_url_failed", "product_id", p.ID, "err", err)
		return ""
	}
	return u
}

func (s *Service) ToggleVisibility(ctx context.Context, p Product) (string, error) {
	next := !p.Visible
	if err := s.repo.update(ctx, p.ID, docstore.Data{"isVisible": next}); err != nil {
		return "", s.mapErr(err)
	}
	if next {
		return p.Name + " 상품을 노출했습니다.", nil
	}
	return p.Name + " 상품을 숨겼습니다.", nil
}

// ParseStock validates a raw stock input. Nothing is written on failure.
func ParseStock(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, ErrInvalidStock
	}
	return n, nil
}

func (s *Service) SetStock(ctx context.Context, p Product, raw string) (string, error) {
	n, err := ParseStock(raw)
	if err != nil {
		return "", err
	}
	if err := s.repo.update(ctx, p.ID, docstore.Data{"stock": n}); err != nil {
		return "", s.mapErr(err)
	}
	return fmt.Sprintf("%s 재고를 %d개로 변경했습니다.", p.Name, n), nil
}

func (s *Service) Delete(ctx context.Context, p Product) (string, error) {
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		return "", apperr.Wrap(err)
	}
	if p.ImageKey != "" && s.files != nil {
		if err := s.files.Delete(ctx, p.ImageKey); err != nil {
			s.logger.WarnContext(ctx, "product_image_cleanup_failed", "product_id", p.ID, "err", err)
		}
	}
	s.logger.InfoContext(ctx, "product_deleted", "product_id", p.ID)
	return p.Name + " 상품이 삭제되었습니다.", nil
}

// DecrementStock subtracts qty, flooring at zero, and returns the product
// after the change.
func (s *Service) DecrementStock(ctx context.Context, id string, qty int) (Product, error) {
	err := s.repo.modify(ctx, id, func(d docstore.Data) (docstore.Data, error) {
		cur := 0
		switch v := d["stock"].(type) {
		case float64:
			cur = int(v)
		case int:
			cur = v
		}
		d["stock"] = max(cur-qty, 0)
		return d, nil
	})
	if err != nil {
		return Product{}, s.mapErr(err)
	}
	return s.get(ctx, id)
}

// LowStock lists active products below threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Product
	for _, p := range items {
		if p.LowStock(threshold) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) get(ctx context.Context, id string) (Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, s.mapErr(err)
	}
	return p, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name, selfID string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 0; i < 3; i++ {
		p, err := s.repo.FindBySlug(ctx, candidate)
		if errors.Is(err, ErrNotFound) || (err == nil && p.ID == selfID) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = base + "-" + strings.ToLower(ksuid.New().String()[:6])
	}
	return candidate, nil
}

func (s *Service) mapErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFoundPub.WithCause(err)
	}
	return apperr.Wrap(err)
}

func validateDraft(d Draft) error {
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return validationErr(err)
	}
	return nil
}

// validationErr turns ozzo field errors into an invalid AppError.
func validationErr(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperr.InvalidErr("입력값을 확인해 주세요.", nil)
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[strings.ToLower(k)] = v.Error()
	}
	return apperr.InvalidErr("입력값을 확인해 주세요.", fields)
}

func draftData(d Draft) docstore.Data {
	return docstore.Data{
		"name":        strings.TrimSpace(d.Name),
		"description": strings.TrimSpace(d.Description),
		"price":       d.Price,
		"stock":       d.Stock,
		"category":    strings.TrimSpace(d.Category),
		"status":      d.Status,
		"isVisible":   d.Visible,
	}
}
