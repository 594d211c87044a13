package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type order struct {
	Number   string
	Customer string
	Status   string
	At       time.Time
}

var kst = time.FixedZone("KST", 9*60*60)

func sample() []order {
	return []order{
		{Number: "ORD-1", Customer: "김민수", Status: "paid", At: time.Date(2024, 5, 1, 9, 0, 0, 0, kst)},
		{Number: "ORD-2", Customer: "Alice", Status: "pending", At: time.Date(2024, 5, 2, 23, 59, 0, 0, kst)},
		{Number: "ORD-3", Customer: "이영희", Status: "paid", At: time.Date(2024, 5, 3, 0, 0, 0, 0, kst)},
		{Number: "ORD-4", Customer: "ALICE COOPER", Status: "cancelled", At: time.Date(2024, 5, 4, 12, 0, 0, 0, kst)},
	}
}

func numbers(os []order) []string {
	out := make([]string, len(os))
	for i, o := range os {
		out[i] = o.Number
	}
	return out
}

var (
	byNumber   = func(o order) string { return o.Number }
	byCustomer = func(o order) string { return o.Customer }
	byStatus   = func(o order) string { return o.Status }
	byAt       = func(o order) time.Time { return o.At }
)

func TestText(t *testing.T) {
	t.Run("Should match any designated field ignoring case", func(t *testing.T) {
		got := Apply(sample(), Text("alice", byNumber, byCustomer))
		assert.Equal(t, []string{"ORD-2", "ORD-4"}, numbers(got))
	})
	t.Run("Should match everything for an empty query", func(t *testing.T) {
		assert.Len(t, Apply(sample(), Text("  ", byNumber)), 4)
	})
	t.Run("Should match order numbers", func(t *testing.T) {
		assert.Equal(t, []string{"ORD-3"}, numbers(Apply(sample(), Text("ord-3", byNumber, byCustomer))))
	})
}

func TestEquals(t *testing.T) {
	t.Run("Should keep only paid orders in original order", func(t *testing.T) {
		assert.Equal(t, []string{"ORD-1", "ORD-3"}, numbers(Apply(sample(), Equals("paid", byStatus))))
	})
	t.Run("Should be disabled by the all sentinel", func(t *testing.T) {
		assert.Len(t, Apply(sample(), Equals(All, byStatus)), 4)
		assert.Len(t, Apply(sample(), Equals("", byStatus)), 4)
	})
}

func TestRange(t *testing.T) {
	t.Run("Should include both bounds for the whole day", func(t *testing.T) {
		r, err := ParseRange("2024-05-02", "2024-05-03", kst)
		require.NoError(t, err)
		assert.Equal(t, []string{"ORD-2", "ORD-3"}, numbers(Apply(sample(), Between(r, byAt))))
	})
	t.Run("Should treat empty bounds as open", func(t *testing.T) {
		r, err := ParseRange("", "2024-05-02", kst)
		require.NoError(t, err)
		assert.Equal(t, []string{"ORD-1", "ORD-2"}, numbers(Apply(sample(), Between(r, byAt))))

		r, err = ParseRange("", "", kst)
		require.NoError(t, err)
		assert.Nil(t, Between(r, byAt))
	})
	t.Run("Should report malformed bounds", func(t *testing.T) {
		_, err := ParseRange("2024/05/01", "tomorrow", kst)
		require.ErrorIs(t, err, ErrMalformedDate)
		assert.Contains(t, err.Error(), "from=")
		assert.Contains(t, err.Error(), "to=")
	})
	t.Run("Should keep the valid bound when the other is malformed", func(t *testing.T) {
		r, err := ParseRange("2024-03-01", "bogus", kst)
		require.ErrorIs(t, err, ErrMalformedDate)
		require.NotNil(t, r.From)
		assert.Nil(t, r.To)
		assert.False(t, r.Contains(time.Date(2024, 1, 1, 12, 0, 0, 0, kst)))
		assert.True(t, r.Contains(time.Date(2024, 6, 1, 12, 0, 0, 0, kst)))

		r, err = ParseRange("nope", "2024-03-01", kst)
		require.ErrorIs(t, err, ErrMalformedDate)
		assert.Nil(t, r.From)
		require.NotNil(t, r.To)
		assert.False(t, r.Contains(time.Date(2024, 3, 2, 12, 0, 0, 0, kst)))
	})
	t.Run("Should compare in the range location", func(t *testing.T) {
		r, err := ParseRange("2024-05-03", "2024-05-03", kst)
		require.NoError(t, err)
		// 2024-05-02T15:30Z is 2024-05-03 00:30 in KST
		assert.True(t, r.Contains(time.Date(2024, 5, 2, 15, 30, 0, 0, time.UTC)))
	})
}

func TestAnd(t *testing.T) {
	records := sample()
	r, err := ParseRange("2024-05-01", "2024-05-03", kst)
	require.NoError(t, err)

	preds := []Predicate[order]{
		Text("ord", byNumber),
		Equals("paid", byStatus),
		Between(r, byAt),
	}
	combined := Apply(records, And(preds...))

	t.Run("Should equal the intersection of each predicate", func(t *testing.T) {
		want := records
		for _, p := range preds {
			want = Apply(want, p)
		}
		if diff := cmp.Diff(numbers(want), numbers(combined)); diff != "" {
			t.Fatalf("conjunction mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Should return a subset of each single predicate", func(t *testing.T) {
		for _, p := range preds {
			single := numbers(Apply(records, p))
			for _, n := range numbers(combined) {
				assert.Contains(t, single, n)
			}
		}
	})

	t.Run("Should match everything when no predicate is active", func(t *testing.T) {
		assert.Len(t, Apply(records, And[order](nil, Text[order](""))), len(records))
	})

	t.Run("Should not modify the input", func(t *testing.T) {
		before := sample()
		_ = Apply(records, And(preds...))
		if diff := cmp.Diff(before, records); diff != "" {
			t.Fatalf("input mutated (-want +got):\n%s", diff)
		}
	})
}
