package casequery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryRecordHelpers(t *testing.T) {
	t.Parallel()

	rec := QueryRecord{}
	require.Equal(t, AttemptOutcome(""), rec.LastOutcome())
	require.Nil(t, rec.RawResponse())

	rec.Attempts = []FetchAttempt{
		{Index: 0, Outcome: OutcomeTransportError},
		{Index: 1, Outcome: OutcomeBlocked, RawBody: []byte("<html>captcha</html>")},
	}
	require.Equal(t, OutcomeBlocked, rec.LastOutcome())
	require.Equal(t, []byte("<html>captcha</html>"), rec.RawResponse())
}

func TestQueryRecordSummary(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	rec := QueryRecord{
		ID:          "rec-1",
		Identifier:  CaseIdentifier{CaseType: "WP(C)", CaseNumber: "12345", FilingYear: "2023"},
		FinalStatus: QueryStatusBlocked,
		RetryCount:  2,
		IsBlocked:   true,
		CreatedAt:   now,
	}
	sum := rec.Summary()
	require.Equal(t, "rec-1", sum.ID)
	require.Equal(t, QueryStatusBlocked, sum.FinalStatus)
	require.True(t, sum.IsBlocked)
	require.Equal(t, 2, sum.RetryCount)
	require.Equal(t, now, sum.CreatedAt)
}
