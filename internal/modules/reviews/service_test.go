package reviews

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/storage"
	"vibeshop.com/app/internal/testutil"
)

const png = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00"

func newService(t *testing.T, opts Options) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	repo := NewRepo(docstore.NewRepo(testutil.NewDB(t, &docstore.Row{})))
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	}
	return NewService(repo, storage.NewLocal(dir, "/uploads"), opts), dir
}

func seed(t *testing.T, svc *Service, status Status) Review {
	t.Helper()
	ctx := context.Background()
	id, err := svc.Repo().Add(ctx, docstore.Data{"name": "김철수", "title": "좋아요", "content": "굿", "rating": 5, "status": string(status)})
	require.NoError(t, err)
	r, err := svc.Repo().Get(ctx, id)
	require.NoError(t, err)
	return r
}

func TestService_ApproveReject(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})

	t.Run("Should short circuit approving an approved review", func(t *testing.T) {
		r := seed(t, svc, StatusApproved)
		_, err := svc.Approve(ctx, r)
		require.ErrorIs(t, err, ErrAlreadyApproved)
		assert.Equal(t, "이미 승인된 후기입니다.", apperr.PublicMessage(err))
		got, err := svc.Repo().Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.UpdatedAt, got.UpdatedAt, "no write issued")
	})

	t.Run("Should short circuit rejecting a rejected review", func(t *testing.T) {
		r := seed(t, svc, StatusRejected)
		_, err := svc.Reject(ctx, r)
		require.ErrorIs(t, err, ErrAlreadyRejected)
		assert.Equal(t, "이미 반려된 후기입니다.", apperr.PublicMessage(err))
	})

	t.Run("Should move a pending review", func(t *testing.T) {
		r := seed(t, svc, StatusPending)
		_, err := svc.Approve(ctx, r)
		require.NoError(t, err)
		got, err := svc.Repo().Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, got.Status)

		_, err = svc.Reject(ctx, got)
		require.NoError(t, err)
		got, err = svc.Repo().Get(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, got.Status)
	})
}

func TestService_Bulk(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})
	a := seed(t, svc, StatusPending)
	b := seed(t, svc, StatusApproved)
	c := seed(t, svc, StatusRejected)

	_, err := svc.BulkApprove(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSelection)

	msg, err := svc.BulkApprove(ctx, []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Equal(t, "1개의 후기를 승인했습니다.", msg)

	msg, err = svc.BulkDelete(ctx, []string{b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, "2개의 후기를 삭제했습니다.", msg)

	all, err := svc.Repo().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, a.ID, all[0].ID)
	assert.Equal(t, StatusApproved, all[0].Status)
}

func TestService_ApprovePending(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, Options{})
	seed(t, svc, StatusPending)
	seed(t, svc, StatusPending)
	seed(t, svc, StatusRejected)

	n, err := svc.ApprovePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.ApprovePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rejected, err := svc.Repo().ListByStatus(ctx, StatusRejected, 0)
	require.NoError(t, err)
	assert.Len(t, rejected, 1)
}

func draft() Draft {
	return Draft{Name: "이영희", Title: "최고의 강의", Content: "**추천**합니다", Course: "Go 기초", Rating: 4}
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("Should upload images and store a pending review", func(t *testing.T) {
		svc, _ := newService(t, Options{})
		r, err := svc.Submit(ctx, "u1", draft(), []Upload{
			{Filename: "a.png", Size: int64(len(png)), Body: strings.NewReader(png)},
			{Filename: "b.png", Size: int64(len(png)), Body: strings.NewReader(png)},
		})
		require.NoError(t, err)
		assert.Equal(t, StatusPending, r.Status)
		assert.Equal(t, []string{"reviews/1700000000000_a.png", "reviews/1700000000001_b.png"}, r.Files)
		assert.Equal(t, []string{"/uploads/reviews/1700000000000_a.png", "/uploads/reviews/1700000000001_b.png"}, svc.FileURLs(ctx, r))
	})

	t.Run("Should approve immediately when configured", func(t *testing.T) {
		svc, _ := newService(t, Options{AutoApprove: true})
		r, err := svc.Submit(ctx, "u1", draft(), nil)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, r.Status)
	})

	t.Run("Should validate before any upload", func(t *testing.T) {
		svc, _ := newService(t, Options{Limits: Limits{MaxFiles: 1, MaxFileBytes: 10}})
		d := draft()
		d.Title = " "
		d.Rating = 0
		_, err := svc.Submit(ctx, "u1", d, nil)
		ae, ok := apperr.As(err)
		require.True(t, ok)
		assert.Contains(t, ae.Fields, "title")
		assert.Contains(t, ae.Fields, "rating")

		_, err = svc.Submit(ctx, "u1", draft(), []Upload{{Filename: "a.png"}, {Filename: "b.png"}})
		assert.True(t, apperr.Is(err, apperr.Invalid))

		_, err = svc.Submit(ctx, "u1", draft(), []Upload{{Filename: "a.png", Size: 11, Body: strings.NewReader(png)}})
		assert.True(t, apperr.Is(err, apperr.Invalid))

		all, err := svc.Repo().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("Should reject non image attachments", func(t *testing.T) {
		svc, _ := newService(t, Options{})
		_, err := svc.Submit(ctx, "u1", draft(), []Upload{{Filename: "x.png", Size: 4, Body: strings.NewReader("text")}})
		assert.True(t, apperr.Is(err, apperr.Invalid))
	})
}

func TestFromDocumentAndRendering(t *testing.T) {
	r, err := FromDocument(docstore.Document{ID: "r1", Data: docstore.Data{"rating": 9}})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", r.Name)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, 5, r.Rating)

	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "☆☆☆☆☆", Stars(-1))

	html := string(RenderContent("**좋아요** <script>alert(1)</script>"))
	assert.Contains(t, html, "<strong>좋아요</strong>")
	assert.NotContains(t, html, "<script>")
}
