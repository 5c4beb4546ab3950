package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreLabelled(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncCheckin("checked_in", "bot")
	m.IncCheckin("checked_in", "bot")
	m.IncCheckin("already_checked_in", "web")
	m.IncExport("csv")
	m.IncTokenIssued()
	m.AddTokensSwept(3)
	m.AddTokensSwept(0)
	m.ObserveStore("visits", "read", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkins.WithLabelValues("checked_in", "bot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Checkins.WithLabelValues("already_checked_in", "web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensIssued))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TokensSwept))

	count, err := testutil.GatherAndCount(reg, "entrybot_store_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncCheckin("checked_in", "bot")
		m.IncTokenIssued()
		m.AddTokensSwept(1)
		m.IncExport("pdf")
		m.ObserveStore("stores", "write", time.Now())
	})
}
