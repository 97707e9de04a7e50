package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitUnlimitedDoesNotBlock(t *testing.T) {
	t.Parallel()

	p := New(Config{})
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitEnforcesRate(t *testing.T) {
	t.Parallel()

	p := New(Config{RPS: 20, Burst: 1})
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	// Two refills at 50ms apiece after the initial token.
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestWaitRespectsContext(t *testing.T) {
	t.Parallel()

	p := New(Config{RPS: 0.001, Burst: 1})
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, p.Wait(ctx))
}
