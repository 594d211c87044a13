package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/testutil"
)

type fakeRemover struct{ removed []string }

func (f *fakeRemover) RemoveAccount(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func newService(t *testing.T) (*Service, *fakeRemover) {
	t.Helper()
	repo := NewRepo(docstore.NewRepo(testutil.NewDB(t, &docstore.Row{})))
	rm := &fakeRemover{}
	return NewService(repo, rm, nil), rm
}

func TestRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	u, err := svc.Repo().Create(ctx, CreateInput{ID: "u1", Email: " Kim@Example.com ", Provider: "password"})
	require.NoError(t, err)
	assert.Equal(t, "kim@example.com", u.Email)
	assert.Equal(t, "kim", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, StatusActive, u.Status)
	assert.Nil(t, u.LastLoginAt)

	found, err := svc.Repo().FindByEmail(ctx, "KIM@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)

	_, err = svc.Repo().FindByEmail(ctx, "none@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Repo().TouchLogin(ctx, "u1", at))
	got, err := svc.Repo().Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))
}

func TestService_ToggleRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	admin, err := svc.Repo().Create(ctx, CreateInput{ID: "a1", Email: "admin@example.com", Name: "관리자"})
	require.NoError(t, err)
	_, err = svc.GrantAdmin(ctx, "admin@example.com")
	require.NoError(t, err)
	admin, err = svc.Repo().Get(ctx, admin.ID)
	require.NoError(t, err)
	other, err := svc.Repo().Create(ctx, CreateInput{ID: "u2", Email: "lee@example.com", Name: "이영희"})
	require.NoError(t, err)

	t.Run("Should promote and demote another user", func(t *testing.T) {
		msg, err := svc.ToggleRole(ctx, admin.ID, other)
		require.NoError(t, err)
		assert.Contains(t, msg, "관리자 권한")
		other, err = svc.Repo().Get(ctx, other.ID)
		require.NoError(t, err)
		assert.True(t, other.IsAdmin())

		_, err = svc.ToggleRole(ctx, admin.ID, other)
		require.NoError(t, err)
		other, err = svc.Repo().Get(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, other.IsAdmin())
	})

	t.Run("Should refuse to demote oneself", func(t *testing.T) {
		_, err := svc.ToggleRole(ctx, admin.ID, admin)
		require.ErrorIs(t, err, ErrSelfDemote)
		assert.True(t, apperr.Is(err, apperr.Conflict))
		still, err := svc.Repo().Get(ctx, admin.ID)
		require.NoError(t, err)
		assert.True(t, still.IsAdmin())
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, rm := newService(t)
	u, err := svc.Repo().Create(ctx, CreateInput{ID: "u3", Email: "park@example.com"})
	require.NoError(t, err)

	t.Run("Should refuse to delete oneself", func(t *testing.T) {
		_, err := svc.Delete(ctx, u.ID, u)
		assert.ErrorIs(t, err, ErrSelfDelete)
		assert.Empty(t, rm.removed)
	})

	t.Run("Should delete profile and identity data", func(t *testing.T) {
		_, err := svc.Delete(ctx, "someone-else", u)
		require.NoError(t, err)
		assert.Equal(t, []string{"u3"}, rm.removed)
		_, err = svc.Repo().Get(ctx, u.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFromDocument_Defaults(t *testing.T) {
	u, err := FromDocument(docstore.Document{ID: "x", Data: docstore.Data{"role": "superuser"}})
	require.NoError(t, err)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "Unknown", u.Name)
	assert.Equal(t, StatusActive, u.Status)
}
