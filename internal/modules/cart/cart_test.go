package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/docstore"
	"vibeshop.com/app/internal/modules/products"
	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/internal/storage"
	"vibeshop.com/app/internal/testutil"
)

func TestCart(t *testing.T) {
	c := New(Line{"a", 1}, Line{"b", 2}, Line{"a", 3}, Line{"c", 0})
	assert.Equal(t, []Line{{"a", 4}, {"b", 2}}, c.Lines)
	assert.Equal(t, 6, c.Count())

	c2 := c.Update("b", 500).Remove("a")
	assert.Equal(t, []Line{{"b", MaxQty}}, c2.Lines)
	assert.Equal(t, 4, c.Qty("a"), "operations return a new cart")

	assert.True(t, c2.Update("b", 0).Empty())
	assert.Equal(t, c, c.Add("", 1))
}

func TestService(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewRepo(testutil.NewDB(t, &docstore.Row{}))
	prod := products.NewService(products.NewRepo(store), storage.NewLocal(t.TempDir(), "/u"), nil)
	svc := NewService(prod.Repo())

	mug, err := prod.Create(ctx, products.Draft{Name: "머그컵", Price: 12000, Stock: 3, Category: "굿즈", Status: products.StatusActive, Visible: true})
	require.NoError(t, err)
	hidden, err := prod.Create(ctx, products.Draft{Name: "숨김", Price: 1000, Stock: 3, Category: "굿즈", Status: products.StatusActive})
	require.NoError(t, err)

	t.Run("Should add purchasable products within stock", func(t *testing.T) {
		c, err := svc.Add(ctx, Cart{}, mug.ID, 2)
		require.NoError(t, err)
		_, err = svc.Add(ctx, c, mug.ID, 2)
		assert.True(t, apperr.Is(err, apperr.Conflict))
		_, err = svc.Add(ctx, c, hidden.ID, 1)
		assert.ErrorIs(t, err, ErrUnavailable)
		_, err = svc.Add(ctx, c, mug.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQty)
		_, err = svc.Add(ctx, c, "missing", 1)
		assert.True(t, apperr.Is(err, apperr.NotFound))
	})

	t.Run("Should price the cart and prune deleted products", func(t *testing.T) {
		c := New(Line{mug.ID, 2}, Line{hidden.ID, 1}, Line{"gone", 1})
		page, kept, err := svc.Build(ctx, c)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, int64(24000), page.Total)
		assert.Equal(t, 2, page.Count)
		assert.True(t, page.HasUnavailable())
		assert.Equal(t, []Line{{mug.ID, 2}, {hidden.ID, 1}}, kept.Lines)
	})
}
