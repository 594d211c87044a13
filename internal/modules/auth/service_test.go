package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/modules/users"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/testutil"
)

type fixture struct {
	svc   *Service
	users *users.Repo
	now   time.Time
}

func newFixture(t *testing.T, google *GoogleProvider) *fixture {
	t.Helper()
	db := testutil.NewDB(t, &docstore.Row{}, &Credential{}, &Session{})
	f := &fixture{users: users.NewRepo(docstore.NewRepo(db)), now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	f.svc = NewService(db, f.users, Options{
		SessionTTL: time.Hour,
		Google:     google,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func TestService_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	var mu sync.Mutex
	var events []Event
	unsubscribe := f.svc.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	issued, err := f.svc.SignUp(ctx, SignUpInput{Email: "Kim@Example.com", Password: "secret1", Name: "김철수"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, "kim@example.com", issued.Principal.Email)
	assert.False(t, issued.Principal.IsAdmin())

	t.Run("Should create the profile document", func(t *testing.T) {
		u, err := f.users.Get(ctx, issued.Principal.UserID)
		require.NoError(t, err)
		assert.Equal(t, "김철수", u.Name)
		assert.Equal(t, ProviderPassword, u.Provider)
		require.NotNil(t, u.LastLoginAt)
	})

	t.Run("Should reject a duplicate email", func(t *testing.T) {
		_, err := f.svc.SignUp(ctx, SignUpInput{Email: "kim@example.com", Password: "another"})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("Should reject a short password", func(t *testing.T) {
		_, err := f.svc.SignUp(ctx, SignUpInput{Email: "lee@example.com", Password: "123"})
		assert.True(t, apperr.Is(err, apperr.Invalid))
	})

	t.Run("Should sign in with the right password only", func(t *testing.T) {
		_, err := f.svc.SignIn(ctx, "kim@example.com", "wrong")
		assert.ErrorIs(t, err, ErrBadCredentials)
		_, err = f.svc.SignIn(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, ErrBadCredentials)

		again, err := f.svc.SignIn(ctx, " KIM@example.com", "secret1")
		require.NoError(t, err)
		assert.NotEqual(t, issued.Token, again.Token)
	})

	t.Run("Should notify observers until unsubscribed", func(t *testing.T) {
		unsubscribe()
		_, err := f.svc.SignIn(ctx, "kim@example.com", "secret1")
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		require.Len(t, events, 3)
		assert.Equal(t, EventSignedUp, events[0].Kind)
		assert.Equal(t, "kim@example.com", events[0].Email)
		assert.Equal(t, EventSignedIn, events[1].Kind)
		assert.Equal(t, ProviderPassword, events[1].Provider)
	})
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.svc.SignUp(ctx, SignUpInput{Email: "park@example.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("Should resolve a live session", func(t *testing.T) {
		p, ok, err := f.svc.Resolve(ctx, issued.Token)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, issued.Principal.UserID, p.UserID)
		assert.Equal(t, issued.Session.ID, p.SessionID)
	})

	t.Run("Should ignore unknown tokens", func(t *testing.T) {
		_, ok, err := f.svc.Resolve(ctx, "bogus")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Should pick up role changes on the next request", func(t *testing.T) {
		require.NoError(t, f.users.SetRole(ctx, issued.Principal.UserID, users.RoleAdmin))
		p, ok, err := f.svc.Resolve(ctx, issued.Token)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, p.IsAdmin())
	})

	t.Run("Should drop suspended users", func(t *testing.T) {
		require.NoError(t, f.users.SetStatus(ctx, issued.Principal.UserID, users.StatusSuspended))
		_, ok, err := f.svc.Resolve(ctx, issued.Token)
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = f.svc.SignIn(ctx, "park@example.com", "secret1")
		assert.ErrorIs(t, err, ErrSuspended)
	})
}

func TestService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.svc.SignUp(ctx, SignUpInput{Email: "choi@example.com", Password: "secret1"})
	require.NoError(t, err)

	t.Run("Should expire after the ttl and purge", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Hour)
		_, ok, err := f.svc.Resolve(ctx, issued.Token)
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := f.svc.PurgeExpiredSessions(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("Should sign out idempotently", func(t *testing.T) {
		again, err := f.svc.SignIn(ctx, "choi@example.com", "secret1")
		require.NoError(t, err)
		require.NoError(t, f.svc.SignOut(ctx, again.Token))
		_, ok, err := f.svc.Resolve(ctx, again.Token)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, f.svc.SignOut(ctx, again.Token))
	})
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	first, err := f.svc.SignUp(ctx, SignUpInput{Email: "jung@example.com", Password: "secret1"})
	require.NoError(t, err)
	second, err := f.svc.SignIn(ctx, "jung@example.com", "secret1")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, first.Principal, "nope", "secret2")
	assert.True(t, apperr.Is(err, apperr.Invalid))

	require.NoError(t, f.svc.ChangePassword(ctx, first.Principal, "secret1", "secret2"))

	_, ok, err := f.svc.Resolve(ctx, first.Token)
	require.NoError(t, err)
	assert.True(t, ok, "current session stays")
	_, ok, err = f.svc.Resolve(ctx, second.Token)
	require.NoError(t, err)
	assert.False(t, ok, "other sessions are closed")

	_, err = f.svc.SignIn(ctx, "jung@example.com", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.SignIn(ctx, "jung@example.com", "secret2")
	assert.NoError(t, err)
}

func fakeGoogle(t *testing.T, sub, email string) *GoogleProvider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"sub": sub, "email": email, "name": "구글 사용자", "email_verified": true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := NewGoogleProvider("cid", "csecret", "http://localhost/auth/google/callback")
	g.Config.Endpoint = oauth2.Endpoint{
		AuthURL:   srv.URL + "/auth",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	g.UserInfoURL = srv.URL + "/userinfo"
	return g
}

func TestService_Federated(t *testing.T) {
	ctx := context.Background()

	t.Run("Should be disabled without a provider", func(t *testing.T) {
		f := newFixture(t, nil)
		assert.False(t, f.svc.FederatedEnabled())
		_, err := f.svc.FederatedURL("state")
		assert.ErrorIs(t, err, ErrFederatedDisabled)
	})

	t.Run("Should create then reuse a google identity", func(t *testing.T) {
		f := newFixture(t, fakeGoogle(t, "g-123", "new@example.com"))
		u, err := f.svc.FederatedURL("st-1")
		require.NoError(t, err)
		assert.Contains(t, u, "state=st-1")

		first, err := f.svc.CompleteFederated(ctx, "code-1")
		require.NoError(t, err)
		assert.Equal(t, "구글 사용자", first.Principal.Name)

		second, err := f.svc.CompleteFederated(ctx, "code-2")
		require.NoError(t, err)
		assert.Equal(t, first.Principal.UserID, second.Principal.UserID)

		prof, err := f.users.Get(ctx, first.Principal.UserID)
		require.NoError(t, err)
		assert.Equal(t, ProviderGoogle, prof.Provider)
	})

	t.Run("Should link to an existing password account by email", func(t *testing.T) {
		f := newFixture(t, fakeGoogle(t, "g-456", "link@example.com"))
		pw, err := f.svc.SignUp(ctx, SignUpInput{Email: "link@example.com", Password: "secret1"})
		require.NoError(t, err)

		fed, err := f.svc.CompleteFederated(ctx, "code")
		require.NoError(t, err)
		assert.Equal(t, pw.Principal.UserID, fed.Principal.UserID)

		_, err = f.svc.SignIn(ctx, "link@example.com", "secret1")
		assert.NoError(t, err)
	})
}

func TestService_RemoveAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	issued, err := f.svc.SignUp(ctx, SignUpInput{Email: "gone@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveAccount(ctx, issued.Principal.UserID))
	_, err = f.svc.SignIn(ctx, "gone@example.com", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = f.svc.SignUp(ctx, SignUpInput{Email: "gone@example.com", Password: "secret1"})
	assert.NoError(t, err, "email is free again")
}
