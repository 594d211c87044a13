package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{InvalidErr("x", nil), http.StatusBadRequest},
		{UnauthorizedErr("x"), http.StatusUnauthorized},
		{ForbiddenErr("x"), http.StatusForbidden},
		{NotFoundErr("x"), http.StatusNotFound},
		{ConflictErr("x"), http.StatusConflict},
		{errors.New("raw"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ConflictErr("x")), http.StatusConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrap(t *testing.T) {
	t.Run("Should hide internal errors behind the generic message", func(t *testing.T) {
		cause := errors.New("db down")
		ae := Wrap(cause)
		require.NotNil(t, ae)
		assert.Equal(t, Internal, ae.Kind)
		assert.ErrorIs(t, ae, cause)
		assert.Equal(t, defaultPublicMsg, PublicMessage(ae))
	})
	t.Run("Should keep an existing kind", func(t *testing.T) {
		ae := Wrap(fmt.Errorf("ctx: %w", NotFoundErr("없음")))
		assert.Equal(t, NotFound, ae.Kind)
		assert.Equal(t, "없음", PublicMessage(ae))
	})
	t.Run("Should return nil for nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil))
	})
	t.Run("Should attach a cause without changing the original", func(t *testing.T) {
		base := ConflictErr("이미 처리되었습니다.")
		withCause := base.WithCause(errors.New("dup"))
		assert.Nil(t, base.Err)
		assert.True(t, Is(withCause, Conflict))
	})
}
