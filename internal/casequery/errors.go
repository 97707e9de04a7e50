package casequery

import "fmt"

// LedgerError marks a persistence failure. It is fatal for the request:
// an unrecorded search would violate the audit invariant, so the caller is
// told the search could not be recorded instead of getting a record back.
type LedgerError struct {
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger write failed: %v", e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
