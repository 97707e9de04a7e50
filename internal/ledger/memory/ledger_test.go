package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

func sampleRecord(id string) casequery.QueryRecord {
	return casequery.QueryRecord{
		ID:          id,
		Identifier:  casequery.CaseIdentifier{CaseType: "WP(C)", CaseNumber: "1", FilingYear: "2023"},
		Attempts:    []casequery.FetchAttempt{{Index: 0, Outcome: casequery.OutcomeSuccess, RawBody: []byte("<html/>")}},
		FinalStatus: casequery.QueryStatusCompleted,
		ParsedData:  &casequery.CaseResult{CaseNumber: "WP(C) 1/2023"},
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRecordAndListOrder(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Record(ctx, sampleRecord(fmt.Sprintf("rec-%d", i)))
		require.NoError(t, err)
	}

	history, err := l.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "rec-2", history[0].ID)
	require.Equal(t, "rec-0", history[2].ID)

	limited, err := l.ListHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestListHistoryIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()
	_, err := l.Record(ctx, sampleRecord("rec-1"))
	require.NoError(t, err)

	first, err := l.ListHistory(ctx, 0)
	require.NoError(t, err)
	second, err := l.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRecordRejectsDuplicatesAndEmptyID(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()
	_, err := l.Record(ctx, sampleRecord("rec-1"))
	require.NoError(t, err)
	_, err = l.Record(ctx, sampleRecord("rec-1"))
	require.Error(t, err)
	_, err = l.Record(ctx, casequery.QueryRecord{})
	require.Error(t, err)
}

func TestGetRecordReturnsCopy(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()
	_, err := l.Record(ctx, sampleRecord("rec-1"))
	require.NoError(t, err)

	got, err := l.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	got.Attempts[0].RawBody[0] = 'X'
	got.ParsedData.CaseNumber = "mutated"

	again, err := l.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	require.Equal(t, byte('<'), again.Attempts[0].RawBody[0])
	require.Equal(t, "WP(C) 1/2023", again.ParsedData.CaseNumber)

	_, err = l.GetRecord(ctx, "missing")
	require.Error(t, err)
}

func TestClearHistory(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := l.Record(ctx, sampleRecord(fmt.Sprintf("rec-%d", i)))
		require.NoError(t, err)
	}

	removed, err := l.ClearHistory(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, removed)

	history, err := l.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, history)

	// A record written after the clear becomes the sole entry.
	_, err = l.Record(ctx, sampleRecord("rec-after"))
	require.NoError(t, err)
	history, err = l.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "rec-after", history[0].ID)
}

func TestConcurrentWriters(t *testing.T) {
	t.Parallel()

	l := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := l.Record(ctx, sampleRecord(fmt.Sprintf("rec-%d", n)))
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := l.ListHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 20)
}
