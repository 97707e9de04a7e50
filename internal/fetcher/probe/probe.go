// Package probe checks the court landing page over plain HTTP before a
// browser is spent on it.
package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Config controls probe behavior.
type Config struct {
	LandingURL string
	UserAgent  string
	Timeout    time.Duration
}

// Fetcher implements casequery.Prober using a Colly collector. A CAPTCHA
// wall usually shows up on the landing page itself, so a cheap GET lets the
// pipeline seal a blocked attempt without launching Chrome.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.LandingURL == "" {
		return nil, fmt.Errorf("landing url must be set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())

	return &Fetcher{cfg: cfg, baseCollector: c}, nil
}

// Probe executes a single HTTP GET of the landing page.
func (f *Fetcher) Probe(ctx context.Context) (casequery.PageSnapshot, error) {
	var (
		result   casequery.PageSnapshot
		fetchErr error
	)
	start := time.Now()

	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		result = casequery.PageSnapshot{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
			ViaProbe:   true,
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		// Anti-bot walls answer 403/429 with a body worth classifying;
		// keep those as snapshots instead of failing the probe.
		if r != nil && (r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusTooManyRequests) {
			result = casequery.PageSnapshot{
				URL:        f.cfg.LandingURL,
				StatusCode: r.StatusCode,
				Headers:    r.Headers.Clone(),
				Body:       append([]byte(nil), r.Body...),
				Duration:   time.Since(start),
				ViaProbe:   true,
			}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(f.cfg.LandingURL)
	}()

	select {
	case <-ctx.Done():
		return casequery.PageSnapshot{}, fmt.Errorf("probe canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return casequery.PageSnapshot{}, fmt.Errorf("probe response failed: %w", fetchErr)
		}
		if err != nil && result.StatusCode == 0 {
			return casequery.PageSnapshot{}, fmt.Errorf("probe visit failed: %w", err)
		}
		return result, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
