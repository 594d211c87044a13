package inquiries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/testutil"
)

type captured struct{ got []Inquiry }

func (c *captured) Inquiry(_ context.Context, in Inquiry) { c.got = append(c.got, in) }

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	n := &captured{}
	svc := NewService(docstore.NewRepo(testutil.NewDB(t, &docstore.Row{})), n, nil)

	_, err := svc.Submit(ctx, "", Draft{Name: "홍길동", Email: "bad", Subject: " ", Message: "안녕하세요"})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "subject")
	assert.Empty(t, n.got)

	in, err := svc.Submit(ctx, "u1", Draft{Name: " 홍길동 ", Email: "hong@example.com", Subject: "배송 문의", Message: "언제 오나요?"})
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)
	assert.Equal(t, "홍길동", in.Name)
	assert.False(t, in.CreatedAt.IsZero())
	require.Len(t, n.got, 1)
	assert.Equal(t, in.ID, n.got[0].ID)
}
