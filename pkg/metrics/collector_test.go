package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalysis(t *testing.T) {
	c := NewCollector("test")

	c.ObserveAnalysis("success", 2*time.Second, 3)
	c.ObserveAnalysis("provider_failure", time.Second, 0)

	require.Equal(t, 1.0, testutil.ToFloat64(c.Analyses.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Analyses.WithLabelValues("provider_failure")))
	require.Equal(t, 3.0, testutil.ToFloat64(c.SuggestionsDropped))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	require.NotPanics(t, func() {
		c.ObserveAnalysis("success", time.Second, 1)
		c.ObserveRequest("GET", "/", "200")
	})
}

func TestTokenUsageIsZero(t *testing.T) {
	require.True(t, TokenUsage{}.IsZero())
	require.False(t, TokenUsage{ToolUseTokens: 1}.IsZero())
}

func TestNewTokenUsageDerivesTotal(t *testing.T) {
	require.Equal(t, 47, NewTokenUsage(12, 30, 5, 47).TotalTokens)
	require.Equal(t, 42, NewTokenUsage(12, 30, 0, 0).TotalTokens)
	require.True(t, NewTokenUsage(0, 0, 0, 0).IsZero())
}
