package casequery

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// BackoffPolicy computes jittered exponential delays between retry
// attempts and bounds the attempt budget for one QueryRecord.
type BackoffPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultBackoffPolicy returns the fixed configuration used when nothing is
// set explicitly.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:    3,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		JitterFraction: 0.25,
	}
}

// Normalize fills zero fields with defaults so a partially configured
// policy still behaves sanely.
func (p BackoffPolicy) Normalize() BackoffPolicy {
	def := DefaultBackoffPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.JitterFraction < 0 || p.JitterFraction > 1 {
		p.JitterFraction = def.JitterFraction
	}
	return p
}

// ShouldRetry reports whether another attempt may be issued after the one
// at attemptIndex produced a non-success outcome. All non-success outcomes,
// CaptchaPage included, are treated uniformly and bounded by MaxAttempts.
func (p BackoffPolicy) ShouldRetry(outcome AttemptOutcome, attemptIndex int) bool {
	if outcome == OutcomeSuccess {
		return false
	}
	return attemptIndex < p.MaxAttempts-1
}

// Backoff returns the wait before the attempt following attemptIndex.
func (p BackoffPolicy) Backoff(attemptIndex int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attemptIndex))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}
	jitterSpan := time.Duration(delay * p.JitterFraction)
	base := time.Duration(delay) - jitterSpan
	return base + randomJitter(2*jitterSpan)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
