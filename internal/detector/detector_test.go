package detector

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

const resultsHTML = `<html><body>
<table id="case-details">
<tr><td>Petitioner</td><td>Rakesh Kumar</td></tr>
<tr><td>Respondent</td><td>State of Delhi</td></tr>
<tr><td>Status</td><td>Listed for hearing</td></tr>
</table>
<table class="orders">
<tr><th>Date</th><th>Type</th><th>Description</th></tr>
<tr><td>20/11/2024</td><td>Order</td><td>Adjourned <a href="/orders/x.pdf">pdf</a></td></tr>
</table>
</body></html>`

func snap(body string, status int) casequery.PageSnapshot {
	return casequery.PageSnapshot{StatusCode: status, Body: []byte(body)}
}

func TestClassifyResultsPage(t *testing.T) {
	t.Parallel()

	c := New()
	require.Equal(t, casequery.ResultsPage, c.Classify(snap(resultsHTML, http.StatusOK)))
}

func TestClassifyCaptchaMarkers(t *testing.T) {
	t.Parallel()

	c := New()
	cases := []struct {
		name string
		body string
	}{
		{"captcha image", `<html><body><img src="/images/captcha.png"></body></html>`},
		{"captcha input", `<html><body><input name="captcha_code" type="text"></body></html>`},
		{"captcha id", `<html><body><div id="captcha"></div></body></html>`},
		{"bare canvas", `<html><body><canvas width="200" height="50"></canvas></body></html>`},
		{"keyword", `<html><body><p>Please complete human verification to continue.</p></body></html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, casequery.CaptchaPage, c.Classify(snap(tc.body, http.StatusOK)))
		})
	}
}

func TestCaptchaWinsOverOtherContent(t *testing.T) {
	t.Parallel()

	// A captcha-labeled input forces CaptchaPage even when the rest of the
	// page looks like a results table.
	body := resultsHTML[:len(resultsHTML)-len("</body></html>")] +
		`<input name="captcha" type="text"></body></html>`
	c := New()
	require.Equal(t, casequery.CaptchaPage, c.Classify(snap(body, http.StatusOK)))
}

func TestClassifyErrorPage(t *testing.T) {
	t.Parallel()

	c := New()
	require.Equal(t, casequery.ErrorPage,
		c.Classify(snap(`<html><body><p>No Record Found for the given criteria</p></body></html>`, http.StatusOK)))
	require.Equal(t, casequery.ErrorPage,
		c.Classify(snap(`<html><body><div class="alert-danger">Something broke</div></body></html>`, http.StatusOK)))
	require.Equal(t, casequery.ErrorPage,
		c.Classify(snap(`<html><body><h1>maintenance</h1></body></html>`, http.StatusBadGateway)))
}

func TestClassifyAntiBotStatusCodes(t *testing.T) {
	t.Parallel()

	c := New()
	require.Equal(t, casequery.CaptchaPage, c.Classify(snap("", http.StatusForbidden)))
	require.Equal(t, casequery.CaptchaPage, c.Classify(snap("", http.StatusTooManyRequests)))
}

func TestClassifyUnknownFallback(t *testing.T) {
	t.Parallel()

	c := New()
	require.Equal(t, casequery.UnknownPage,
		c.Classify(snap(`<html><body><p>welcome</p></body></html>`, http.StatusOK)))
	require.Equal(t, casequery.UnknownPage, c.Classify(snap("", http.StatusOK)))
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	c := New()
	s := snap(resultsHTML, http.StatusOK)
	first := c.Classify(s)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, c.Classify(s))
	}
}

func TestErrorText(t *testing.T) {
	t.Parallel()

	c := New()
	require.Equal(t, "Wrong details entered",
		c.ErrorText(snap(`<html><body><div id="errorMsg">Wrong details entered</div></body></html>`, 200)))
	require.Equal(t, "no record found",
		c.ErrorText(snap(`<html><body>No Record Found</body></html>`, 200)))
	require.Empty(t, c.ErrorText(snap(`<html><body>fine</body></html>`, 200)))
}
