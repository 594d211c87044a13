package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.AdminActions.WithLabelValues("reviews", "approve", Outcome(nil)).Inc()
	m.AdminActions.WithLabelValues("reviews", "approve", Outcome(errors.New("x"))).Inc()
	m.AdminActions.WithLabelValues("reviews", "approve", "ok").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdminActions.WithLabelValues("reviews", "approve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdminActions.WithLabelValues("reviews", "approve", "error")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vibeshop_admin_actions_total{action="approve",entity="reviews",outcome="ok"} 2`)
	assert.Contains(t, string(body), "go_goroutines")
}
