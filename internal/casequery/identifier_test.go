package casequery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCaseIdentifierValid(t *testing.T) {
	t.Parallel()

	id, err := NewCaseIdentifier(" WP(C) ", "12345", "2023")
	require.NoError(t, err)
	require.Equal(t, "WP(C)", id.CaseType)
	require.Equal(t, "WP(C) 12345/2023", id.String())
}

func TestNewCaseIdentifierRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		caseType   string
		caseNumber string
		filingYear string
		field      string
	}{
		{"empty type", "", "123", "2023", "case_type"},
		{"unknown type", "XYZ", "123", "2023", "case_type"},
		{"empty number", "WP(C)", "", "2023", "case_number"},
		{"alpha number", "WP(C)", "12a45", "2023", "case_number"},
		{"too long number", "WP(C)", "12345678", "2023", "case_number"},
		{"empty year", "WP(C)", "123", "", "filing_year"},
		{"short year", "WP(C)", "123", "202", "filing_year"},
		{"alpha year", "WP(C)", "123", "20x3", "filing_year"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewCaseIdentifier(tc.caseType, tc.caseNumber, tc.filingYear)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestCaseTypesCatalogue(t *testing.T) {
	t.Parallel()

	types := CaseTypes()
	require.Len(t, types, 10)
	require.Equal(t, "Writ Petition (Civil)", types["WP(C)"])

	// Mutating the returned map must not leak into the catalogue.
	types["FAKE"] = "Fake"
	require.NotContains(t, CaseTypes(), "FAKE")

	codes := CaseTypeCodes()
	require.Len(t, codes, 10)
	require.Contains(t, codes, "CRL.A.")
}
