package reviews

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/storage"
)

var (
	ErrAlreadyApproved = apperr.ConflictErr("이미 승인된 후기입니다.")
	ErrAlreadyRejected = apperr.ConflictErr("이미 반려된 후기입니다.")
	ErrNotFoundPub     = apperr.NotFoundErr("후기를 찾을 수 없습니다.")
	ErrNoSelection     = apperr.InvalidErr("선택된 후기가 없습니다.", nil)
)

type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
}

type Options struct {
	AutoApprove bool
	Limits      Limits
	Logger      *slog.Logger
	Now         func() time.Time
}

type Service struct {
	repo   *Repo
	files  storage.Storage
	opts   Options
	logger *slog.Logger
}

func NewService(repo *Repo, files storage.Storage, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Limits.MaxFiles <= 0 {
		opts.Limits.MaxFiles = 5
	}
	if opts.Limits.MaxFileBytes <= 0 {
		opts.Limits.MaxFileBytes = 5 << 20
	}
	return &Service{repo: repo, files: files, opts: opts, logger: opts.Logger}
}

func (s *Service) Repo() *Repo    { return s.repo }
func (s *Service) Limits() Limits { return s.opts.Limits }

func (s *Service) Approve(ctx context.Context, r Review) (string, error) {
	if r.Status == StatusApproved {
		return "", ErrAlreadyApproved
	}
	if err := s.setStatus(ctx, r.ID, StatusApproved); err != nil {
		return "", err
	}
	return "후기 상태가 승인됨(으)로 변경되었습니다.", nil
}

func (s *Service) Reject(ctx context.Context, r Review) (string, error) {
	if r.Status == StatusRejected {
		return "", ErrAlreadyRejected
	}
	if err := s.setStatus(ctx, r.ID, StatusRejected); err != nil {
		return "", err
	}
	return "후기 상태가 반려됨(으)로 변경되었습니다.", nil
}

// Delete removes the review and, best effort, its attachments.
func (s *Service) Delete(ctx context.Context, r Review) (string, error) {
	if err := s.repo.Delete(ctx, r.ID); err != nil {
		return "", apperr.Wrap(err)
	}
	s.removeFiles(ctx, r.Files)
	s.logger.InfoContext(ctx, "review_deleted", "review_id", r.ID)
	return "후기가 삭제되었습니다.", nil
}

// BulkApprove approves the selected reviews that are not approved yet.
func (s *Service) BulkApprove(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoSelection
	}
	n := 0
	for _, id := range ids {
		r, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", apperr.Wrap(err)
		}
		if r.Status == StatusApproved {
			continue
		}
		if err := s.setStatus(ctx, id, StatusApproved); err != nil {
			return "", err
		}
		n++
	}
	return fmt.Sprintf("%d개의 후기를 승인했습니다.", n), nil
}

func (s *Service) BulkDelete(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoSelection
	}
	n := 0
	for _, id := range ids {
		r, err := s.repo.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", apperr.Wrap(err)
		}
		if _, err := s.Delete(ctx, r); err != nil {
			return "", err
		}
		n++
	}
	return fmt.Sprintf("%d개의 후기를 삭제했습니다.", n), nil
}

// ApprovePending approves every pending review and returns the count.
func (s *Service) ApprovePending(ctx context.Context) (int, error) {
	pending, err := s.repo.ListByStatus(ctx, StatusPending, 0)
	if err != nil {
		return 0, err
	}
	for i, r := range pending {
		if err := s.repo.SetStatus(ctx, r.ID, StatusApproved); err != nil {
			return i, err
		}
		s.logger.InfoContext(ctx, "review_approved", "review_id", r.ID)
	}
	return len(pending), nil
}

// Draft is a review as submitted by a signed-in user.
type Draft struct {
	Name    string
	Title   string
	Content string
	Course  string
	Rating  int
}

func (d Draft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required.Error("이름을 입력해 주세요."), validation.RuneLength(1, 50)),
		validation.Field(&d.Title, validation.Required.Error("제목을 입력해 주세요."), validation.RuneLength(1, 100)),
		validation.Field(&d.Content, validation.Required.Error("내용을 입력해 주세요."), validation.RuneLength(1, 5000)),
		validation.Field(&d.Course, validation.RuneLength(0, 100)),
		validation.Field(&d.Rating, validation.Required.Error("평점을 선택해 주세요."), validation.Min(1).Error("평점은 1점 이상이어야 합니다."), validation.Max(MaxRating).Error("평점은 5점 이하여야 합니다.")),
	)
}

// Upload is one attached file.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Submit validates the draft and attachments, uploads the attachments to
// reviews/<unix-ms>_<name> and stores the review.
func (s *Service) Submit(ctx context.Context, userID string, d Draft, uploads []Upload) (Review, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.Course = strings.TrimSpace(d.Course)
	if err := d.Validate(); err != nil {
		return Review{}, validationErr(err)
	}
	if err := s.checkUploads(uploads); err != nil {
		return Review{}, err
	}

	keys := make([]string, 0, len(uploads))
	stamp := s.opts.Now().UnixMilli()
	for i, u := range uploads {
		ct, body, err := storage.SniffImage(u.Body)
		if errors.Is(err, storage.ErrNotImage) {
			s.removeFiles(ctx, keys)
			return Review{}, apperr.InvalidErr("이미지 파일만 첨부할 수 있습니다.", map[string]string{"files": "이미지 파일만 첨부할 수 있습니다."})
		}
		if err != nil {
			s.removeFiles(ctx, keys)
			return Review{}, apperr.Wrap(err)
		}
		res, err := s.files.Put(ctx, body, storage.PutInput{
			Path:        fmt.Sprintf("reviews/%d_%s", stamp+int64(i), storage.SafeName(u.Filename)),
			Filename:    u.Filename,
			ContentType: ct,
			Size:        u.Size,
		})
		if err != nil {
			s.removeFiles(ctx, keys)
			return Review{}, apperr.Wrap(err)
		}
		keys = append(keys, res.Key)
	}

	status := StatusPending
	if s.opts.AutoApprove {
		status = StatusApproved
	}
	id, err := s.repo.Add(ctx, docstore.Data{
		"userId":  userID,
		"name":    d.Name,
		"title":   d.Title,
		"content": d.Content,
		"course":  d.Course,
		"rating":  d.Rating,
		"status":  string(status),
		"files":   keys,
	})
	if err != nil {
		s.removeFiles(ctx, keys)
		return Review{}, apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "review_submitted", "review_id", id, "user_id", userID, "files", len(keys), "status", status)
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return Review{}, apperr.Wrap(err)
	}
	return r, nil
}

// FileURLs resolves attachment keys for display.
func (s *Service) FileURLs(ctx context.Context, r Review) []string {
	out := make([]string, 0, len(r.Files))
	for _, k := range r.Files {
		u, err := s.files.URL(ctx, k)
		if err != nil {
			s.logger.WarnContext(ctx, "review_file_url_failed", "review_id", r.ID, "key", k, "err", err)
			continue
		}
		out = append(out, u)
	}
	return out
}

func (s *Service) checkUploads(uploads []Upload) error {
	lim := s.opts.Limits
	if len(uploads) > lim.MaxFiles {
		msg := fmt.Sprintf("최대 %d개의 파일만 업로드할 수 있습니다.", lim.MaxFiles)
		return apperr.InvalidErr(msg, map[string]string{"files": msg})
	}
	for _, u := range uploads {
		if u.Size > lim.MaxFileBytes {
			msg := fmt.Sprintf("파일 크기는 %dMB를 초과할 수 없습니다.", lim.MaxFileBytes>>20)
			return apperr.InvalidErr(msg, map[string]string{"files": msg})
		}
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, id string, st Status) error {
	err := s.repo.SetStatus(ctx, id, st)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFoundPub.WithCause(err)
	}
	if err != nil {
		return apperr.Wrap(err)
	}
	s.logger.InfoContext(ctx, "review_status_changed", "review_id", id, "status", st)
	return nil
}

func (s *Service) removeFiles(ctx context.Context, keys []string) {
	for _, k := range keys {
		if err := s.files.Delete(ctx, k); err != nil {
			s.logger.WarnContext(ctx, "review_file_cleanup_failed", "key", k, "err", err)
		}
	}
}

func validationErr(err error) error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return apperr.InvalidErr("필수 항목을 모두 입력해 주세요.", nil)
	}
	fields := make(map[string]string, len(errs))
	for k, v := range errs {
		fields[strings.ToLower(k)] = v.Error()
	}
	return apperr.InvalidErr("필수 항목을 모두 입력해 주세요.", fields)
}
