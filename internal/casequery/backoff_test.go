package casequery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := BackoffPolicy{MaxAttempts: 3}.Normalize()

	require.False(t, p.ShouldRetry(OutcomeSuccess, 0))
	require.True(t, p.ShouldRetry(OutcomeBlocked, 0))
	require.True(t, p.ShouldRetry(OutcomeTransportError, 1))
	require.False(t, p.ShouldRetry(OutcomeBlocked, 2))
	require.False(t, p.ShouldRetry(OutcomeParseError, 5))
}

func TestBackoffGrowsAndStaysBounded(t *testing.T) {
	t.Parallel()

	p := BackoffPolicy{
		MaxAttempts:    5,
		BaseDelay:      100 * time.Millisecond,
		MaxDelay:       time.Second,
		JitterFraction: 0.25,
	}

	for attempt := 0; attempt < 10; attempt++ {
		d := p.Backoff(attempt)
		require.Greater(t, d, time.Duration(0))
		// Never exceed MaxDelay plus its jitter span.
		require.LessOrEqual(t, d, time.Second+250*time.Millisecond)
	}

	// Without jitter the sequence is exactly exponential then capped.
	flat := BackoffPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	require.Equal(t, 100*time.Millisecond, flat.Backoff(0))
	require.Equal(t, 200*time.Millisecond, flat.Backoff(1))
	require.Equal(t, time.Second, flat.Backoff(8))
}

func TestNormalizeFillsDefaults(t *testing.T) {
	t.Parallel()

	p := BackoffPolicy{JitterFraction: -1}.Normalize()
	require.Equal(t, DefaultBackoffPolicy(), p)
}
