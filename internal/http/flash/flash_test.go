package flash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/pkg/view"
)

func TestCodec(t *testing.T) {
	c := NewCodec([]byte("0123456789abcdef"), "flash", false)

	t.Run("Should round trip a message", func(t *testing.T) {
		v, err := c.Encode(view.Flash{Kind: view.FlashSuccess, Message: "승인되었습니다."})
		require.NoError(t, err)
		f, err := c.Decode(v)
		require.NoError(t, err)
		assert.Equal(t, view.FlashSuccess, f.Kind)
		assert.Equal(t, "승인되었습니다.", f.Message)
	})

	t.Run("Should reject a tampered value", func(t *testing.T) {
		v, err := c.Encode(view.Flash{Kind: view.FlashInfo, Message: "hi"})
		require.NoError(t, err)
		_, err = c.Decode("x" + v)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("Should reject values signed with another secret", func(t *testing.T) {
		other := NewCodec([]byte("fedcba9876543210"), "flash", false)
		v, err := other.Encode(view.Flash{Kind: view.FlashInfo, Message: "hi"})
		require.NoError(t, err)
		_, err = c.Decode(v)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("Should refuse an empty message", func(t *testing.T) {
		_, err := c.Encode(view.Flash{Kind: view.FlashInfo})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}
