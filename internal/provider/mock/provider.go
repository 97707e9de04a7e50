// Package mock synthesizes deterministic case results for demos and tests.
package mock

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Provider implements casequery.ResultProvider without any automation
// session involvement. The same identifier always yields a byte-identical
// CaseResult, so demo runs and tests are reproducible.
type Provider struct{}

// New creates a Provider.
func New() *Provider {
	return &Provider{}
}

// RequiresFetch reports that mock extraction needs no live snapshot.
func (p *Provider) RequiresFetch() bool { return false }

// Source identifies the provider in records and logs.
func (p *Provider) Source() string { return "mock_data" }

var statuses = []string{
	"Listed for hearing",
	"Pending",
	"Disposed",
	"Reserved for orders",
}

// Extract derives the result from the identifier alone; the snapshot is
// ignored.
func (p *Provider) Extract(id casequery.CaseIdentifier, _ casequery.PageSnapshot) (casequery.CaseResult, error) {
	seed := seedFor(id)
	return casequery.CaseResult{
		CaseNumber: id.String(),
		Parties: casequery.Parties{
			Petitioner: fmt.Sprintf("Sample Petitioner %s", id.CaseNumber),
			Respondent: "State of Delhi & Others",
		},
		FilingDate:      fmt.Sprintf("%02d/%02d/%s", 1+seed%28, 1+(seed/28)%12, id.FilingYear),
		NextHearingDate: fmt.Sprintf("%02d/%02d/2025", 1+(seed/7)%28, 1+(seed/3)%12),
		CaseStatus:      statuses[seed%uint64(len(statuses))],
		Orders: []casequery.Order{
			{
				Date:        fmt.Sprintf("%02d/11/2024", 1+(seed/11)%28),
				OrderType:   "Order",
				Description: fmt.Sprintf("Case %s adjourned to next date for final hearing", id),
				DocumentRef: fmt.Sprintf("/orders/%s_%s_%s_order.pdf", id.CaseType, id.CaseNumber, id.FilingYear),
			},
			{
				Date:        fmt.Sprintf("%02d/10/2024", 1+(seed/13)%28),
				OrderType:   "Notice",
				Description: "Notice issued to all respondents to file reply",
				DocumentRef: fmt.Sprintf("/orders/%s_%s_%s_notice.pdf", id.CaseType, id.CaseNumber, id.FilingYear),
			},
		},
	}, nil
}

func seedFor(id casequery.CaseIdentifier) uint64 {
	sum := sha256.Sum256([]byte(id.String()))
	return binary.BigEndian.Uint64(sum[:8])
}
