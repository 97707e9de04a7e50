package html

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

const resultsPage = `<html><body>
<table id="case-details">
<tr><td>Petitioner</td><td>Rakesh Kumar</td></tr>
<tr><td>Respondent</td><td>State of Delhi</td></tr>
<tr><td>Filing Date</td><td>15/03/2023</td></tr>
<tr><td>Next Hearing Date</td><td>25/12/2024</td></tr>
<tr><td>Status</td><td>Listed for hearing</td></tr>
</table>
<table class="orders">
<tr><th>Date</th><th>Type</th><th>Description</th></tr>
<tr><td>20/11/2024</td><td>Order</td><td>Adjourned to next date <a href="/orders/wp_12345_2023.pdf">PDF</a></td></tr>
<tr><td>15/10/2024</td><td>Notice</td><td>Notice issued</td></tr>
</table>
</body></html>`

var wpID = casequery.CaseIdentifier{CaseType: "WP(C)", CaseNumber: "12345", FilingYear: "2023"}

func TestExtractFullResultsPage(t *testing.T) {
	t.Parallel()

	p := New("https://delhihighcourt.nic.in/")
	result, err := p.Extract(wpID, casequery.PageSnapshot{Body: []byte(resultsPage)})
	require.NoError(t, err)

	require.Equal(t, "WP(C) 12345/2023", result.CaseNumber)
	require.Equal(t, "Rakesh Kumar", result.Parties.Petitioner)
	require.Equal(t, "State of Delhi", result.Parties.Respondent)
	require.Equal(t, "15/03/2023", result.FilingDate)
	require.Equal(t, "25/12/2024", result.NextHearingDate)
	require.Equal(t, "Listed for hearing", result.CaseStatus)

	require.Len(t, result.Orders, 2)
	require.Equal(t, "20/11/2024", result.Orders[0].Date)
	require.Equal(t, "Order", result.Orders[0].OrderType)
	require.Equal(t, "https://delhihighcourt.nic.in/orders/wp_12345_2023.pdf", result.Orders[0].DocumentRef)
	require.Empty(t, result.Orders[1].DocumentRef)
}

func TestExtractFailsOnMissingRequiredFields(t *testing.T) {
	t.Parallel()

	p := New("https://delhihighcourt.nic.in")
	cases := []struct {
		name string
		body string
	}{
		{"no details section", `<html><body><p>hello</p></body></html>`},
		{"missing respondent", `<html><body><table id="case-details">
			<tr><td>Petitioner</td><td>A</td></tr>
			<tr><td>Status</td><td>Pending</td></tr>
			</table></body></html>`},
		{"missing status", `<html><body><table id="case-details">
			<tr><td>Petitioner</td><td>A</td></tr>
			<tr><td>Respondent</td><td>B</td></tr>
			</table></body></html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.Extract(wpID, casequery.PageSnapshot{Body: []byte(tc.body)})
			require.Error(t, err)
			require.Contains(t, err.Error(), "layout mismatch")
		})
	}
}

func TestProviderContract(t *testing.T) {
	t.Parallel()

	p := New("")
	require.True(t, p.RequiresFetch())
	require.Equal(t, "court_site", p.Source())
}
