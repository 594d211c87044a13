package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
)

const MinPasswordLen = 6

var (
	ErrBadCredentials = apperr.UnauthorizedErr("이메일 또는 비밀번호가 올바르지 않습니다.")
	ErrEmailTaken     = apperr.ConflictErr("이미 사용 중인 이메일입니다.")
	ErrSuspended      = apperr.ForbiddenErr("이용이 정지된 계정입니다. 관리자에게 문의해 주세요.")
	ErrWeakPassword   = apperr.InvalidErr("비밀번호는 6자 이상이어야 합니다.", map[string]string{"password": "비밀번호는 6자 이상이어야 합니다."})
	ErrNoPassword     = apperr.InvalidErr("소셜 로그인 계정은 비밀번호를 변경할 수 없습니다.", nil)
)

type Service struct {
	db     *gorm.DB
	users  *users.Repo
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
	google *GoogleProvider

	mu        sync.RWMutex
	observers map[int]Observer
	nextObs   int
}

type Options struct {
	SessionTTL time.Duration
	Google     *GoogleProvider
	Logger     *slog.Logger
	Now        func() time.Time
}

func NewService(db *gorm.DB, repo *users.Repo, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		db:        db,
		users:     repo,
		ttl:       opts.SessionTTL,
		now:       opts.Now,
		logger:    opts.Logger,
		google:    opts.Google,
		observers: map[int]Observer{},
	}
}

func (s *Service) SessionTTL() time.Duration { return s.ttl }

// Subscribe registers an observer for sign-in and sign-out events and
// returns a function that removes it.
func (s *Service) Subscribe(o Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *Service) emit(ev Event) {
	s.mu.RLock()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.RUnlock()
	for _, o := range obs {
		o(ev)
	}
}

// Issued is a freshly created session together with its cookie token.
type Issued struct {
	Token     string
	Session   Session
	Principal Principal
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// SignUp creates a password identity with its profile and signs it in.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Issued, error) {
	email := normalizeEmail(in.Email)
	if len(in.Password) < MinPasswordLen {
		return Issued{}, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	hashStr := string(hash)
	now := s.now()
	cred := Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: &hashStr,
		Provider:     ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.createCredential(ctx, &cred); err != nil {
		return Issued{}, err
	}
	u, err := s.users.Create(ctx, users.CreateInput{ID: cred.UserID, Email: email, Name: in.Name, Provider: ProviderPassword})
	if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	s.emit(Event{Kind: EventSignedUp, UserID: u.ID, Email: u.Email, Name: u.Name, Provider: ProviderPassword, At: now})
	return s.issue(ctx, u, ProviderPassword)
}

// SignIn checks a password and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Issued, error) {
	var cred Credential
	err := s.db.WithContext(ctx).First(&cred, "email = ?", normalizeEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Issued{}, ErrBadCredentials
	}
	if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	if cred.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*cred.PasswordHash), []byte(password)) != nil {
		return Issued{}, ErrBadCredentials
	}
	u, err := s.profile(ctx, cred)
	if err != nil {
		return Issued{}, err
	}
	return s.issue(ctx, u, ProviderPassword)
}

// SignOut deletes the session behind token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	var sess Session
	err := s.db.WithContext(ctx).First(&sess, "token_hash = ?", hashToken(token)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Wrap(err)
	}
	if err := s.db.WithContext(ctx).Delete(&Session{}, "id = ?", sess.ID).Error; err != nil {
		return apperr.Wrap(err)
	}
	s.emit(Event{Kind: EventSignedOut, UserID: sess.UserID, At: s.now()})
	return nil
}

// Resolve returns the principal for a session token. ok is false when the
// token is unknown, expired or belongs to a suspended user.
func (s *Service) Resolve(ctx context.Context, token string) (Principal, bool, error) {
	if token == "" {
		return Principal{}, false, nil
	}
	var sess Session
	err := s.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", hashToken(token), s.now()).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Principal{}, false, nil
	}
	if err != nil {
		return Principal{}, false, err
	}
	u, err := s.users.Get(ctx, sess.UserID)
	if errors.Is(err, users.ErrNotFound) {
		return Principal{}, false, nil
	}
	if err != nil {
		return Principal{}, false, err
	}
	if u.Status == users.StatusSuspended {
		return Principal{}, false, nil
	}
	return principalOf(u, sess.ID), true, nil
}

// ChangePassword verifies the current password before storing the new one.
// Other sessions of the user are closed.
func (s *Service) ChangePassword(ctx context.Context, p Principal, current, next string) error {
	if len(next) < MinPasswordLen {
		return ErrWeakPassword
	}
	var cred Credential
	if err := s.db.WithContext(ctx).First(&cred, "user_id = ?", p.UserID).Error; err != nil {
		return apperr.Wrap(err)
	}
	if cred.PasswordHash == nil {
		return ErrNoPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(*cred.PasswordHash), []byte(current)) != nil {
		return apperr.InvalidErr("현재 비밀번호가 올바르지 않습니다.", map[string]string{"current_password": "현재 비밀번호가 올바르지 않습니다."})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Credential{}).Where("user_id = ?", p.UserID).
			Updates(map[string]any{"password_hash": string(hash), "updated_at": s.now()}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND id <> ?", p.UserID, p.SessionID).Delete(&Session{}).Error
	})
}

// RemoveAccount deletes credentials and sessions of a user.
func (s *Service) RemoveAccount(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&Session{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&Credential{}).Error
	})
}

// PurgeExpiredSessions deletes sessions that expired before now.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&Session{})
	return res.RowsAffected, res.Error
}

func (s *Service) profile(ctx context.Context, cred Credential) (users.User, error) {
	u, err := s.users.Get(ctx, cred.UserID)
	if errors.Is(err, users.ErrNotFound) {
		u, err = s.users.Create(ctx, users.CreateInput{ID: cred.UserID, Email: cred.Email, Provider: cred.Provider})
	}
	if err != nil {
		return users.User{}, apperr.Wrap(err)
	}
	if u.Status == users.StatusSuspended {
		return users.User{}, ErrSuspended
	}
	return u, nil
}

func (s *Service) issue(ctx context.Context, u users.User, provider string) (Issued, error) {
	token, err := newToken()
	if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	now := s.now()
	sess := Session{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		TokenHash:  hashToken(token),
		ExpiresAt:  now.Add(s.ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSeenAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		s.logger.WarnContext(ctx, "touch_login_failed", "user_id", u.ID, "err", err)
	}
	s.emit(Event{Kind: EventSignedIn, UserID: u.ID, Provider: provider, At: now})
	return Issued{Token: token, Session: sess, Principal: principalOf(u, sess.ID)}, nil
}

func (s *Service) createCredential(ctx context.Context, cred *Credential) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Credential{}).Where("email = ?", cred.Email).Count(&n).Error; err != nil {
		return apperr.Wrap(err)
	}
	if n > 0 {
		return ErrEmailTaken
	}
	if err := s.db.WithContext(ctx).Create(cred).Error; err != nil {
		if isDup(err) {
			return ErrEmailTaken
		}
		return apperr.Wrap(err)
	}
	return nil
}

func principalOf(u users.User, sessionID string) Principal {
	return Principal{UserID: u.ID, SessionID: sessionID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashToken(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
