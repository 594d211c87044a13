package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibeshop.com/app/internal/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("Should write structured json by default", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})
		l.Info("order_paid", slog.String("order_id", "o1"))

		var m map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
		assert.Equal(t, "order_paid", m["msg"])
		assert.Equal(t, "o1", m["order_id"])
	})

	t.Run("Should drop records below the level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"})
		l.Info("quiet")
		assert.Zero(t, buf.Len())
	})

	t.Run("Should render text through the console handler", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "text"})
		l.Debug("hello", "k", "v")
		assert.Contains(t, buf.String(), "hello")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("unknown"))
}
