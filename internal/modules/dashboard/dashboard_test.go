package dashboard

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/modules/orders"
	"vibeshop.com/app/internal/modules/users"
)

func TestCompute(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, loc)

	us := []users.User{
		{ID: "u1", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "u2", CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "u3", CreatedAt: time.Date(2026, 10, 15, 0, 30, 0, 0, loc)},
	}
	mug := orders.Item{ProductID: "p1", Name: "머그컵", Price: 10000, Quantity: 2}
	tee := orders.Item{ProductID: "p2", Name: "티셔츠", Price: 30000, Quantity: 1}
	os := []orders.Order{
		{ID: "o1", Status: orders.StatusPaid, Amount: 20000, Items: []orders.Item{mug}, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "o2", Status: orders.StatusDelivered, Amount: 30000, Items: []orders.Item{tee}, CreatedAt: now.AddDate(0, -2, 0)},
		{ID: "o3", Status: orders.StatusCancelled, Amount: 99000, Items: []orders.Item{tee}, CreatedAt: now},
		{ID: "o4", Status: orders.StatusPaid, Amount: 50000, CreatedAt: now.AddDate(-1, 0, 0)},
	}

	st := Compute(us, os, now, loc)

	t.Run("Should count users and orders", func(t *testing.T) {
		assert.Equal(t, 3, st.TotalUsers)
		assert.Equal(t, 2, st.UsersToday)
		assert.Equal(t, 4, st.TotalOrders)
		assert.Equal(t, int64(100000), st.Revenue)
	})

	t.Run("Should bucket the last six months", func(t *testing.T) {
		labels := make([]string, 0, len(st.Monthly))
		amounts := make([]int64, 0, len(st.Monthly))
		for _, m := range st.Monthly {
			labels = append(labels, m.Label)
			amounts = append(amounts, m.Amount)
		}
		assert.Empty(t, cmp.Diff([]string{"5월", "6월", "7월", "8월", "9월", "10월"}, labels))
		assert.Empty(t, cmp.Diff([]int64{0, 0, 0, 30000, 0, 20000}, amounts))
		assert.Equal(t, int64(30000), st.MaxMonthly())
	})

	t.Run("Should rank products by quantity sold", func(t *testing.T) {
		require.Len(t, st.TopProducts, 2)
		assert.Equal(t, "머그컵", st.TopProducts[0].Name)
		assert.Equal(t, 2, st.TopProducts[0].Qty)
		assert.Equal(t, 1, st.TopProducts[1].Qty)
	})

	t.Run("Should list the newest records first", func(t *testing.T) {
		assert.Equal(t, "o3", st.RecentOrders[0].ID)
		assert.Equal(t, "u1", st.RecentUsers[0].ID)
	})

	t.Run("Should handle an empty shop", func(t *testing.T) {
		empty := Compute(nil, nil, now, loc)
		assert.Len(t, empty.Monthly, Months)
		assert.Empty(t, empty.TopProducts)
		assert.Zero(t, empty.MaxMonthly())
	})
}
