// Package casequery defines core types shared across subsystems.
package casequery

import (
	"net/http"
	"time"
)

// QueryStatus represents the final lifecycle state of a query record.
type QueryStatus string

// Query status values persisted in the ledger.
const (
	QueryStatusCompleted QueryStatus = "completed"
	QueryStatusBlocked   QueryStatus = "blocked"
	QueryStatusFailed    QueryStatus = "failed"
)

// AttemptOutcome classifies a single fetch attempt against the court site.
type AttemptOutcome string

// Attempt outcome values.
const (
	OutcomeSuccess        AttemptOutcome = "success"
	OutcomeBlocked        AttemptOutcome = "blocked"
	OutcomeTimeout        AttemptOutcome = "timeout"
	OutcomeParseError     AttemptOutcome = "parse_error"
	OutcomeTransportError AttemptOutcome = "transport_error"
)

// PageClass is the detector's verdict on a fetched page.
type PageClass string

// Page classes. UnknownPage is conservatively treated as a failure.
const (
	ResultsPage PageClass = "results"
	CaptchaPage PageClass = "captcha"
	ErrorPage   PageClass = "error"
	UnknownPage PageClass = "unknown"
)

// CaseIdentifier names a case by its registration triple.
type CaseIdentifier struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear string `json:"filing_year"`
}

// PageSnapshot is an immutable capture of a fetched page: the rendered
// content plus HTTP-level metadata. Detectors and parsers operate on
// snapshots only and never navigate.
type PageSnapshot struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	ViaProbe   bool
}

// FetchAttempt records one physical try against the target site. An attempt
// is created immediately before navigation and sealed immediately after the
// page is classified; sealed attempts are never mutated.
type FetchAttempt struct {
	Index      int            `json:"index"`
	Outcome    AttemptOutcome `json:"outcome"`
	RawBody    []byte         `json:"-"`
	BodyHash   string         `json:"body_hash,omitempty"`
	ProxyUsed  string         `json:"proxy_used,omitempty"`
	ErrorText  string         `json:"error_text,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// QueryRecord is the durable unit of work, one per user search. Attempts are
// append-only in chronological order.
type QueryRecord struct {
	ID          string         `json:"id"`
	Identifier  CaseIdentifier `json:"identifier"`
	Attempts    []FetchAttempt `json:"attempts"`
	FinalStatus QueryStatus    `json:"final_status"`
	RetryCount  int            `json:"retry_count"`
	IsBlocked   bool           `json:"is_blocked"`
	ParsedData  *CaseResult    `json:"parsed_data,omitempty"`
	ErrorText   string         `json:"error_text,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// LastOutcome returns the outcome of the most recent attempt, or the zero
// value when no attempt was made.
func (r QueryRecord) LastOutcome() AttemptOutcome {
	if len(r.Attempts) == 0 {
		return ""
	}
	return r.Attempts[len(r.Attempts)-1].Outcome
}

// RawResponse returns the captured body of the most recent attempt that
// produced one.
func (r QueryRecord) RawResponse() []byte {
	for i := len(r.Attempts) - 1; i >= 0; i-- {
		if len(r.Attempts[i].RawBody) > 0 {
			return r.Attempts[i].RawBody
		}
	}
	return nil
}

// Parties holds the two sides of a case.
type Parties struct {
	Petitioner string `json:"petitioner"`
	Respondent string `json:"respondent"`
}

// Order is one entry in a case's order sheet.
type Order struct {
	Date        string `json:"date"`
	OrderType   string `json:"order_type"`
	Description string `json:"description"`
	DocumentRef string `json:"document_ref,omitempty"`
}

// CaseResult is the structured output extracted from a results page (or
// synthesized by the mock provider). It has no identity of its own; it is a
// value embedded in the owning QueryRecord.
type CaseResult struct {
	CaseNumber      string  `json:"case_number"`
	Parties         Parties `json:"parties"`
	FilingDate      string  `json:"filing_date"`
	NextHearingDate string  `json:"next_hearing_date"`
	CaseStatus      string  `json:"case_status"`
	Orders          []Order `json:"orders"`
}

// QuerySummary is the trimmed view returned by history listings.
type QuerySummary struct {
	ID          string         `json:"id"`
	Identifier  CaseIdentifier `json:"identifier"`
	FinalStatus QueryStatus    `json:"final_status"`
	RetryCount  int            `json:"retry_count"`
	IsBlocked   bool           `json:"is_blocked"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Summary projects the record into its history-listing view.
func (r QueryRecord) Summary() QuerySummary {
	return QuerySummary{
		ID:          r.ID,
		Identifier:  r.Identifier,
		FinalStatus: r.FinalStatus,
		RetryCount:  r.RetryCount,
		IsBlocked:   r.IsBlocked,
		CreatedAt:   r.CreatedAt,
	}
}
