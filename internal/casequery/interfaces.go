package casequery

import (
	"context"
	"time"
)

// Session drives one browser-automation session against the court site. A
// session belongs to exactly one QueryRecord and is not safe for concurrent
// use; Close must be called on every exit path.
type Session interface {
	// Open navigates to the search endpoint, submits the form for the
	// identifier, and returns a snapshot of whatever page came back. An
	// error means navigation itself failed (DNS, connection refused,
	// driver crash), not that the site blocked us.
	Open(ctx context.Context, id CaseIdentifier) (PageSnapshot, error)
	// Proxy reports the proxy the session was created with, if any.
	Proxy() string
	Close()
}

// SessionFactory creates a fresh Session per attempt or per record.
type SessionFactory interface {
	NewSession(ctx context.Context) (Session, error)
}

// Prober performs a cheap plain-HTTP fetch of the search landing page so a
// CAPTCHA wall can be detected before a browser is spent on it.
type Prober interface {
	Probe(ctx context.Context) (PageSnapshot, error)
}

// Detector classifies a page snapshot. Implementations must be pure: the
// same snapshot always yields the same class, and no navigation is issued.
type Detector interface {
	Classify(snap PageSnapshot) PageClass
}

// ResultProvider extracts (or synthesizes) a CaseResult. The real provider
// parses a results-page snapshot; the mock provider derives the result from
// the identifier alone and needs no fetch.
type ResultProvider interface {
	Extract(id CaseIdentifier, snap PageSnapshot) (CaseResult, error)
	// RequiresFetch reports whether the provider needs a live snapshot.
	RequiresFetch() bool
	Source() string
}

// Ledger persists completed query records. Writes are append-only and safe
// under concurrent writers; ClearHistory is serialized against Record.
type Ledger interface {
	Record(ctx context.Context, rec QueryRecord) (string, error)
	ListHistory(ctx context.Context, limit int) ([]QuerySummary, error)
	GetRecord(ctx context.Context, id string) (QueryRecord, error)
	ClearHistory(ctx context.Context) (int64, error)
}

// Pacer spaces navigations against the court host so concurrent pipelines
// do not hammer (and further flag) the target.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher computes digests for raw capture integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}
