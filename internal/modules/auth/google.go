package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"

	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

var (
	ErrFederatedDisabled = apperr.NotFoundErr("Google 로그인이 설정되지 않았습니다.")
	ErrFederatedFailed   = apperr.UnauthorizedErr("Google 로그인에 실패했습니다. 다시 시도해 주세요.")
)

// GoogleProvider performs the authorization code flow against Google.
type GoogleProvider struct {
	Config      *oauth2.Config
	UserInfoURL string
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: googleUserInfoURL,
	}
}

type googleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

func (g *GoogleProvider) fetchUser(ctx context.Context, code string) (googleUser, error) {
	tok, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return googleUser{}, fmt.Errorf("exchange: %w", err)
	}
	var out googleUser
	resp, err := resty.NewWithClient(g.Config.Client(ctx, tok)).R().
		SetContext(ctx).
		SetResult(&out).
		Get(g.UserInfoURL)
	if err != nil {
		return googleUser{}, fmt.Errorf("userinfo: %w", err)
	}
	if resp.IsError() {
		return googleUser{}, fmt.Errorf("userinfo: status %d", resp.StatusCode())
	}
	if out.Sub == "" || out.Email == "" {
		return googleUser{}, errors.New("userinfo: missing subject or email")
	}
	return out, nil
}

func (s *Service) FederatedEnabled() bool { return s.google != nil }

// FederatedURL returns the consent page URL for state.
func (s *Service) FederatedURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrFederatedDisabled
	}
	return s.google.Config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// CompleteFederated exchanges the code, links or creates the identity and
// opens a session. Identities are matched by subject first, then by email.
func (s *Service) CompleteFederated(ctx context.Context, code string) (Issued, error) {
	if s.google == nil {
		return Issued{}, ErrFederatedDisabled
	}
	gu, err := s.google.fetchUser(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "federated_signin_failed", "provider", ProviderGoogle, "err", err)
		return Issued{}, ErrFederatedFailed.WithCause(err)
	}
	email := normalizeEmail(gu.Email)

	var cred Credential
	err = s.db.WithContext(ctx).Where("provider = ? AND subject = ?", ProviderGoogle, gu.Sub).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return s.createFederated(ctx, gu, email)
		case err != nil:
			return Issued{}, apperr.Wrap(err)
		}
		sub := gu.Sub
		if err := s.db.WithContext(ctx).Model(&Credential{}).Where("user_id = ?", cred.UserID).
			Updates(map[string]any{"subject": sub, "updated_at": s.now()}).Error; err != nil {
			return Issued{}, apperr.Wrap(err)
		}
	} else if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	u, err := s.profile(ctx, cred)
	if err != nil {
		return Issued{}, err
	}
	return s.issue(ctx, u, ProviderGoogle)
}

func (s *Service) createFederated(ctx context.Context, gu googleUser, email string) (Issued, error) {
	now := s.now()
	sub := gu.Sub
	cred := Credential{
		UserID:    uuid.NewString(),
		Email:     email,
		Provider:  ProviderGoogle,
		Subject:   &sub,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.createCredential(ctx, &cred); err != nil {
		return Issued{}, err
	}
	u, err := s.users.Create(ctx, users.CreateInput{
		ID:       cred.UserID,
		Email:    email,
		Name:     strings.TrimSpace(gu.Name),
		Provider: ProviderGoogle,
	})
	if err != nil {
		return Issued{}, apperr.Wrap(err)
	}
	s.emit(Event{Kind: EventSignedUp, UserID: u.ID, Email: u.Email, Name: u.Name, Provider: ProviderGoogle, At: now})
	return s.issue(ctx, u, ProviderGoogle)
}
