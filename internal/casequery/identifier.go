package casequery

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ValidationError marks a CaseIdentifier that was rejected before any
// pipeline work. It is the caller's fault and is surfaced immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// caseTypes maps the supported case type codes to their display names.
// The set mirrors the Delhi High Court filing categories.
var caseTypes = map[string]string{
	"WP(C)":      "Writ Petition (Civil)",
	"CRL.A.":     "Criminal Appeal",
	"FAO":        "First Appeal from Order",
	"CM":         "Civil Misc",
	"CRL.M.C.":   "Criminal Misc Case",
	"CRL.REV.P.": "Criminal Revision Petition",
	"MAT.APP.":   "Mat Appeal",
	"RFA":        "Regular First Appeal",
	"CRL.M.A.":   "Criminal Misc Application",
	"W.P.(CRL.)": "Writ Petition (Criminal)",
}

var (
	caseNumberRe = regexp.MustCompile(`^\d{1,6}$`)
	filingYearRe = regexp.MustCompile(`^\d{4}$`)
)

// CaseTypes returns the supported case type codes and display names.
func CaseTypes() map[string]string {
	out := make(map[string]string, len(caseTypes))
	for code, name := range caseTypes {
		out[code] = name
	}
	return out
}

// CaseTypeCodes returns the supported codes in stable order.
func CaseTypeCodes() []string {
	codes := make([]string, 0, len(caseTypes))
	for code := range caseTypes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// NewCaseIdentifier validates the triple and returns a normalized
// identifier. Invalid identifiers never reach the automation session.
func NewCaseIdentifier(caseType, caseNumber, filingYear string) (CaseIdentifier, error) {
	id := CaseIdentifier{
		CaseType:   strings.TrimSpace(caseType),
		CaseNumber: strings.TrimSpace(caseNumber),
		FilingYear: strings.TrimSpace(filingYear),
	}
	return id, id.Validate()
}

// Validate enforces the identifier invariants: all three fields non-empty
// and individually format-checked.
func (id CaseIdentifier) Validate() error {
	if id.CaseType == "" {
		return &ValidationError{Field: "case_type", Reason: "must not be empty"}
	}
	if _, ok := caseTypes[id.CaseType]; !ok {
		return &ValidationError{Field: "case_type", Reason: fmt.Sprintf("unsupported code %q", id.CaseType)}
	}
	if id.CaseNumber == "" {
		return &ValidationError{Field: "case_number", Reason: "must not be empty"}
	}
	if !caseNumberRe.MatchString(id.CaseNumber) {
		return &ValidationError{Field: "case_number", Reason: "must be a numeric string"}
	}
	if id.FilingYear == "" {
		return &ValidationError{Field: "filing_year", Reason: "must not be empty"}
	}
	if !filingYearRe.MatchString(id.FilingYear) {
		return &ValidationError{Field: "filing_year", Reason: "must be a 4-digit year"}
	}
	return nil
}

// String renders the court's conventional citation form, e.g.
// "WP(C) 12345/2023".
func (id CaseIdentifier) String() string {
	return fmt.Sprintf("%s %s/%s", id.CaseType, id.CaseNumber, id.FilingYear)
}
