// Package memory provides a ledger implementation for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Ledger keeps query records in memory. Writes are append-only; a mutex
// serializes ClearHistory against concurrent Record calls.
type Ledger struct {
	mu      sync.RWMutex
	records []casequery.QueryRecord
	byID    map[string]int
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{byID: make(map[string]int)}
}

// Record appends the completed record and returns its ID.
func (l *Ledger) Record(_ context.Context, rec casequery.QueryRecord) (string, error) {
	if rec.ID == "" {
		return "", fmt.Errorf("record id must be set")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byID[rec.ID]; exists {
		return "", fmt.Errorf("record %s already exists", rec.ID)
	}
	l.byID[rec.ID] = len(l.records)
	l.records = append(l.records, cloneRecord(rec))
	return rec.ID, nil
}

// ListHistory returns summaries, most recent first. A non-positive limit
// returns everything.
func (l *Ledger) ListHistory(_ context.Context, limit int) ([]casequery.QuerySummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]casequery.QuerySummary, 0, len(l.records))
	for i := len(l.records) - 1; i >= 0; i-- {
		out = append(out, l.records[i].Summary())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetRecord returns the full record for the given ID.
func (l *Ledger) GetRecord(_ context.Context, id string) (casequery.QueryRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byID[id]
	if !ok {
		return casequery.QueryRecord{}, fmt.Errorf("record %s not found", id)
	}
	return cloneRecord(l.records[idx]), nil
}

// ClearHistory removes every record and returns how many were removed.
func (l *Ledger) ClearHistory(_ context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := int64(len(l.records))
	l.records = nil
	l.byID = make(map[string]int)
	return removed, nil
}

// cloneRecord deep-copies the slices so callers cannot mutate stored state.
func cloneRecord(rec casequery.QueryRecord) casequery.QueryRecord {
	out := rec
	out.Attempts = make([]casequery.FetchAttempt, len(rec.Attempts))
	for i, a := range rec.Attempts {
		a.RawBody = append([]byte(nil), a.RawBody...)
		out.Attempts[i] = a
	}
	if rec.ParsedData != nil {
		data := *rec.ParsedData
		data.Orders = append([]casequery.Order(nil), rec.ParsedData.Orders...)
		out.ParsedData = &data
	}
	return out
}
