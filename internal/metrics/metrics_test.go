package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserversAreSafeBeforeInit(t *testing.T) {
	// Must not panic when Init has not run. Not parallel: ordering against
	// the Init test matters.
	ObserveQuery("completed")
	ObserveAttempt("blocked", time.Second)
	ObserveLedgerWrite(true)
}

func TestInitAndScrape(t *testing.T) {
	Init()
	Init() // idempotent

	ObserveQuery("completed")
	ObserveQuery("blocked")
	ObserveAttempt("blocked", 2*time.Second)
	ObserveAttempt("success", time.Second)
	ObserveLedgerWrite(false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	require.Contains(t, body, "courtfetch_queries_total")
	require.Contains(t, body, "courtfetch_attempts_total")
	require.Contains(t, body, "courtfetch_captcha_blocks_total")
}
