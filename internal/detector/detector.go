// Package detector classifies fetched court pages as results, CAPTCHA
// walls, site errors, or unknown content.
package detector

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Classifier implements rule-based page classification over snapshots. It
// is pure: the same snapshot always yields the same class, and no
// navigation is ever issued.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Structural markers that indicate a CAPTCHA wall. A bare canvas counts
// because the court site renders its challenge on one.
var captchaSelectors = []string{
	"img[src*='captcha']",
	"img[alt*='captcha']",
	"#captcha",
	".captcha",
	"input[name*='captcha']",
	"input[id*='captcha']",
}

var captchaPhrases = []string{
	"captcha",
	"verify you are human",
	"human verification",
	"are you a robot",
	"unusual traffic",
}

var errorPhrases = []string{
	"no record found",
	"no records found",
	"invalid case number",
	"case not found",
	"service unavailable",
	"internal server error",
}

var errorSelectors = []string{
	".error-message",
	".alert-danger",
	"#errorMsg",
	"div.error",
}

// Classify inspects the snapshot and returns its page class. UnknownPage is
// the conservative fallback: a page we cannot positively recognize is never
// treated as a success.
func (c *Classifier) Classify(snap casequery.PageSnapshot) casequery.PageClass {
	switch snap.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return casequery.CaptchaPage
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(snap.Body))
	if err != nil {
		return casequery.UnknownPage
	}

	if hasCaptchaMarkers(doc) {
		return casequery.CaptchaPage
	}
	if snap.StatusCode >= 500 {
		return casequery.ErrorPage
	}
	if hasErrorMarkers(doc) {
		return casequery.ErrorPage
	}
	if hasResultsStructure(doc) {
		return casequery.ResultsPage
	}
	return casequery.UnknownPage
}

func hasCaptchaMarkers(doc *goquery.Document) bool {
	for _, sel := range captchaSelectors {
		if doc.Find(sel).Length() > 0 {
			return true
		}
	}
	// A canvas with no results table is an interactive challenge, not data.
	if doc.Find("canvas").Length() > 0 && !hasResultsStructure(doc) {
		return true
	}
	text := strings.ToLower(doc.Text())
	for _, phrase := range captchaPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func hasErrorMarkers(doc *goquery.Document) bool {
	for _, sel := range errorSelectors {
		if strings.TrimSpace(doc.Find(sel).First().Text()) != "" {
			return true
		}
	}
	text := strings.ToLower(doc.Text())
	for _, phrase := range errorPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// hasResultsStructure requires the case-details layout the parser knows how
// to read: a details container plus both party labels.
func hasResultsStructure(doc *goquery.Document) bool {
	if doc.Find("table#case-details, div.case-details, table.orders, table#orders").Length() == 0 {
		return false
	}
	text := strings.ToLower(doc.Text())
	return strings.Contains(text, "petitioner") && strings.Contains(text, "respondent")
}

// ErrorText pulls the site's own error message out of an ErrorPage
// snapshot so it can be kept in the query record.
func (c *Classifier) ErrorText(snap casequery.PageSnapshot) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(snap.Body))
	if err != nil {
		return ""
	}
	for _, sel := range errorSelectors {
		if msg := strings.TrimSpace(doc.Find(sel).First().Text()); msg != "" {
			return msg
		}
	}
	text := strings.ToLower(doc.Text())
	for _, phrase := range errorPhrases {
		if strings.Contains(text, phrase) {
			return phrase
		}
	}
	return ""
}
