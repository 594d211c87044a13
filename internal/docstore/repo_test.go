package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/testutil"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	return NewRepo(testutil.NewDB(t, &Row{}))
}

func TestRepo_AddGet(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	id, err := r.Add(ctx, "products", Data{"name": "텀블러", "price": 15000, "visible": true})
	require.NoError(t, err)
	require.Len(t, id, 27)

	t.Run("Should read back the stored body", func(t *testing.T) {
		d, err := r.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.Equal(t, "텀블러", d.Data["name"])
		assert.EqualValues(t, 15000, d.Data["price"])
		assert.False(t, d.CreatedAt.IsZero())
		assert.Equal(t, d.CreatedAt, d.UpdatedAt)
	})

	t.Run("Should scope ids to their collection", func(t *testing.T) {
		_, err := r.Get(ctx, "orders", id)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepo_Update(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	id, err := r.Add(ctx, "products", Data{"name": "머그", "stock": 7, "visible": true, "tags": []any{"a"}})
	require.NoError(t, err)

	t.Run("Should merge fields and keep untouched ones", func(t *testing.T) {
		require.NoError(t, r.Update(ctx, "products", id, Data{"stock": 0, "visible": false}))
		d, err := r.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.Equal(t, "머그", d.Data["name"])
		assert.EqualValues(t, 0, d.Data["stock"])
		assert.Equal(t, false, d.Data["visible"])
		assert.True(t, d.UpdatedAt.After(d.CreatedAt))
	})

	t.Run("Should replace slices", func(t *testing.T) {
		require.NoError(t, r.Update(ctx, "products", id, Data{"tags": []string{"b", "c"}}))
		d, err := r.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.Equal(t, []any{"b", "c"}, d.Data["tags"])
	})

	t.Run("Should report missing documents", func(t *testing.T) {
		assert.ErrorIs(t, r.Update(ctx, "products", "missing", Data{"x": 1}), ErrNotFound)
	})
}

func TestRepo_SetDelete(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	require.NoError(t, r.Set(ctx, "settings", "site", Data{"siteName": "A", "enableCreditCard": true}))
	first, err := r.Get(ctx, "settings", "site")
	require.NoError(t, err)

	require.NoError(t, r.Set(ctx, "settings", "site", Data{"siteName": "B"}))
	second, err := r.Get(ctx, "settings", "site")
	require.NoError(t, err)

	assert.Equal(t, "B", second.Data["siteName"])
	assert.NotContains(t, second.Data, "enableCreditCard")
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	require.NoError(t, r.Delete(ctx, "settings", "site"))
	_, err = r.Get(ctx, "settings", "site")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, r.Delete(ctx, "settings", "site"))
}

func TestRepo_Query(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	for _, d := range []Data{
		{"title": "b", "status": "approved", "rating": 3},
		{"title": "a", "status": "pending", "rating": 5},
		{"title": "c", "status": "approved", "rating": 4},
	} {
		_, err := r.Add(ctx, "reviews", d)
		require.NoError(t, err)
	}
	_, err := r.Add(ctx, "other", Data{"title": "z", "status": "approved"})
	require.NoError(t, err)

	titles := func(ds []Document) []any {
		out := make([]any, len(ds))
		for i, d := range ds {
			out[i] = d.Data["title"]
		}
		return out
	}

	t.Run("Should order by creation time by default", func(t *testing.T) {
		ds, err := r.Query(ctx, "reviews", Query{})
		require.NoError(t, err)
		assert.Equal(t, []any{"b", "a", "c"}, titles(ds))
	})

	t.Run("Should order newest first", func(t *testing.T) {
		ds, err := r.Query(ctx, "reviews", Query{OrderBy: "createdAt", Desc: true})
		require.NoError(t, err)
		assert.Equal(t, []any{"c", "a", "b"}, titles(ds))
	})

	t.Run("Should filter on a body field", func(t *testing.T) {
		ds, err := r.Query(ctx, "reviews", Query{Where: []Cond{Where("status", "approved")}})
		require.NoError(t, err)
		assert.Equal(t, []any{"b", "c"}, titles(ds))
	})

	t.Run("Should order on a body field with a limit", func(t *testing.T) {
		ds, err := r.Query(ctx, "reviews", Query{OrderBy: "rating", Desc: true, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "c"}, titles(ds))
	})

	t.Run("Should reject unsafe field names", func(t *testing.T) {
		_, err := r.Query(ctx, "reviews", Query{OrderBy: "rating) --"})
		assert.ErrorIs(t, err, ErrInvalidField)
		_, err = r.Query(ctx, "reviews", Query{Where: []Cond{Where("a.b", 1)}})
		assert.ErrorIs(t, err, ErrInvalidField)
	})
}

func TestClock(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return fixed })
	a, b := c.Now(), c.Now()
	assert.True(t, b.After(a))
	assert.Equal(t, time.Millisecond, b.Sub(a))
}

type product struct {
	ID        string     `doc:"id"`
	Name      string     `doc:"name"`
	Price     int64      `doc:"price"`
	Visible   bool       `doc:"visible"`
	CreatedAt time.Time  `doc:"createdAt"`
	LastSold  *time.Time `doc:"lastSoldAt"`
}

func TestDocument_Decode(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	d := Document{
		ID:        "p1",
		CreatedAt: created,
		Data:      Data{"name": "컵", "price": float64(9900), "visible": true, "lastSoldAt": "2024-02-04T00:00:00Z"},
	}
	var p product
	require.NoError(t, d.Decode(&p))
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, int64(9900), p.Price)
	assert.True(t, p.Visible)
	assert.Equal(t, created, p.CreatedAt)
	require.NotNil(t, p.LastSold)
	assert.Equal(t, 4, p.LastSold.Day())
}

func TestRepo_Modify(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	id, err := r.Add(ctx, "products", Data{"stock": 3})
	require.NoError(t, err)

	t.Run("Should write the returned body", func(t *testing.T) {
		err := r.Modify(ctx, "products", id, func(d Data) (Data, error) {
			d["stock"] = d["stock"].(float64) - 1
			return d, nil
		})
		require.NoError(t, err)
		d, err := r.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.EqualValues(t, 2, d.Data["stock"])
	})

	t.Run("Should leave the body alone when fn fails", func(t *testing.T) {
		boom := errors.New("boom")
		err := r.Modify(ctx, "products", id, func(d Data) (Data, error) {
			d["stock"] = 100
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
		d, err := r.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.EqualValues(t, 2, d.Data["stock"])
	})
}
