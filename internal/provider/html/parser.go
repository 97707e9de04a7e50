// Package html extracts structured case data from court results pages.
package html

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Parser implements casequery.ResultProvider against the known results-page
// layout. Missing required fields fail the parse outright: a partial
// CaseResult is never returned, because persisting one as Completed would
// be worse than failing.
type Parser struct {
	baseURL string
}

// New creates a Parser. baseURL resolves relative order-document links.
func New(baseURL string) *Parser {
	return &Parser{baseURL: strings.TrimRight(baseURL, "/")}
}

// RequiresFetch reports that real extraction needs a live snapshot.
func (p *Parser) RequiresFetch() bool { return true }

// Source identifies the provider in records and logs.
func (p *Parser) Source() string { return "court_site" }

var dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

// Extract parses the snapshot into a CaseResult.
func (p *Parser) Extract(id casequery.CaseIdentifier, snap casequery.PageSnapshot) (casequery.CaseResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(snap.Body))
	if err != nil {
		return casequery.CaseResult{}, fmt.Errorf("parse results page: %w", err)
	}

	result := casequery.CaseResult{CaseNumber: id.String()}

	details := doc.Find("table#case-details, div.case-details").First()
	if details.Length() == 0 {
		return casequery.CaseResult{}, fmt.Errorf("results layout mismatch: case details section not found")
	}

	details.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		value := strings.TrimSpace(cells.Eq(1).Text())
		switch {
		case strings.Contains(label, "petitioner"):
			result.Parties.Petitioner = value
		case strings.Contains(label, "respondent"):
			result.Parties.Respondent = value
		case strings.Contains(label, "filing") || strings.Contains(label, "filed"):
			result.FilingDate = firstDate(value)
		case strings.Contains(label, "next") || strings.Contains(label, "hearing"):
			result.NextHearingDate = firstDate(value)
		case strings.Contains(label, "status"):
			result.CaseStatus = value
		}
	})

	result.Orders = p.extractOrders(doc)

	if err := requireFields(result); err != nil {
		return casequery.CaseResult{}, err
	}
	return result, nil
}

func (p *Parser) extractOrders(doc *goquery.Document) []casequery.Order {
	var orders []casequery.Order
	table := doc.Find("table.orders, table#orders").First()
	if table.Length() == 0 {
		return nil
	}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header row
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		order := casequery.Order{
			Date:        strings.TrimSpace(cells.Eq(0).Text()),
			OrderType:   strings.TrimSpace(cells.Eq(1).Text()),
			Description: strings.TrimSpace(cells.Eq(2).Text()),
			DocumentRef: p.documentRef(cells.Eq(2)),
		}
		if order.Date != "" || order.Description != "" {
			orders = append(orders, order)
		}
	})
	return orders
}

func (p *Parser) documentRef(cell *goquery.Selection) string {
	href, ok := cell.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	lower := strings.ToLower(href)
	if !strings.Contains(lower, "pdf") && !strings.Contains(lower, "download") && !strings.Contains(lower, "order") {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return p.baseURL + "/" + strings.TrimLeft(href, "/")
}

func requireFields(r casequery.CaseResult) error {
	var missing []string
	if r.Parties.Petitioner == "" {
		missing = append(missing, "petitioner")
	}
	if r.Parties.Respondent == "" {
		missing = append(missing, "respondent")
	}
	if r.CaseStatus == "" {
		missing = append(missing, "case_status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("results layout mismatch: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func firstDate(s string) string {
	return dateRe.FindString(s)
}
