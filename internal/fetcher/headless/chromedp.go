// Package headless drives court searches through a real browser via chromedp.
package headless

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
)

// Config controls browser session behavior. The anti-detection set (rotated
// user agent, suppressed automation flags, randomized window size) is fixed
// at session creation, never per call.
type Config struct {
	SearchURL         string
	NavigationTimeout time.Duration
	UserAgents        []string
	Proxy             string
	Headless          bool
	MinThinkTime      time.Duration
	MaxThinkTime      time.Duration
}

// defaultUserAgents is the rotation pool used when none is configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Factory creates one browser session per query record.
type Factory struct {
	cfg Config
}

// NewFactory validates the configuration and returns a Factory.
func NewFactory(cfg Config) (*Factory, error) {
	if cfg.SearchURL == "" {
		return nil, fmt.Errorf("search url must be set")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.MinThinkTime <= 0 {
		cfg.MinThinkTime = 2 * time.Second
	}
	if cfg.MaxThinkTime < cfg.MinThinkTime {
		cfg.MaxThinkTime = cfg.MinThinkTime + 3*time.Second
	}
	return &Factory{cfg: cfg}, nil
}

// NewSession spawns a dedicated browser allocator. Sessions are never
// shared across query records; Close tears the OS-level processes down.
func (f *Factory) NewSession(ctx context.Context) (casequery.Session, error) {
	cfg := f.cfg
	ua := cfg.UserAgents[rand.IntN(len(cfg.UserAgents))]
	width := 1100 + rand.IntN(500)
	height := 700 + rand.IntN(300)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(width, height),
		chromedp.UserAgent(ua),
	)
	if cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	return &Session{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		userAgent:   ua,
	}, nil
}

// Session owns the lifecycle of one browser instance.
type Session struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	userAgent   string
	closeOnce   sync.Once
}

// Proxy reports the proxy configured for this session, if any.
func (s *Session) Proxy() string {
	return s.cfg.Proxy
}

// Close cancels the allocator context, killing the browser process. Safe to
// call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(s.allocCancel)
}

// Open navigates to the search endpoint, fills and submits the form, and
// snapshots whatever page the site answered with. Navigation-level failures
// (DNS, refused connection, driver crash, timeout) surface as errors;
// everything else is a page for the detector to judge.
func (s *Session) Open(ctx context.Context, id casequery.CaseIdentifier) (casequery.PageSnapshot, error) {
	taskCtx, taskCancel := chromedp.NewContext(s.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, s.cfg.NavigationTimeout)
	defer cancel()

	// Abort the navigation when the caller's context ends so a client
	// disconnect proceeds straight to teardown.
	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	start := time.Now()
	html, finalURL, err := s.runSearch(taskCtx, id)
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("navigation canceled: %w", ctx.Err())
		}
		return casequery.PageSnapshot{}, err
	}

	status, headers, responseURL := meta.snapshotWithFallbacks(s.cfg.SearchURL, finalURL)
	if headers == nil {
		headers = http.Header{}
	}

	return casequery.PageSnapshot{
		URL:        responseURL,
		StatusCode: status,
		Headers:    headers,
		Body:       []byte(html),
		Duration:   time.Since(start),
	}, nil
}

func (s *Session) runSearch(ctx context.Context, id casequery.CaseIdentifier) (string, string, error) {
	var (
		html     string
		finalURL string
	)
	actions := []chromedp.Action{
		s.networkSetupAction(),
		s.maskWebdriverAction(),
		chromedp.Navigate(s.cfg.SearchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.thinkTime()),
		chromedp.WaitVisible(`select[name="case_type"]`, chromedp.ByQuery),
		chromedp.SetValue(`select[name="case_type"]`, id.CaseType, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="case_no"]`, id.CaseNumber, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="year"]`, id.FilingYear, chromedp.ByQuery),
		chromedp.Click(`input[type="submit"], button[type="submit"]`, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.thinkTime()),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", "", fmt.Errorf("chromedp run: %w", err)
	}
	return html, finalURL, nil
}

func (s *Session) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(s.userAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		return nil
	})
}

// maskWebdriverAction hides navigator.webdriver before any site script runs.
func (s *Session) maskWebdriverAction() chromedp.Action {
	const script = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
			return fmt.Errorf("install webdriver mask: %w", err)
		}
		return nil
	})
}

// thinkTime returns a randomized pause so submissions do not land at
// machine-regular intervals.
func (s *Session) thinkTime() time.Duration {
	span := s.cfg.MaxThinkTime - s.cfg.MinThinkTime
	if span <= 0 {
		return s.cfg.MinThinkTime
	}
	return s.cfg.MinThinkTime + time.Duration(rand.Int64N(int64(span)))
}

type responseMeta struct {
	mu      sync.RWMutex
	status  int
	headers http.Header
	url     string
}

func newResponseMeta() *responseMeta {
	return &responseMeta{headers: http.Header{}}
}

func (m *responseMeta) captureEvent(ev any) {
	if resp, ok := ev.(*network.EventResponseReceived); ok {
		m.capture(resp)
	}
}

func (m *responseMeta) capture(event *network.EventResponseReceived) {
	if event.Type != network.ResourceTypeDocument || event.Response == nil {
		return
	}
	headers := http.Header{}
	for key, value := range event.Response.Headers {
		switch v := value.(type) {
		case string:
			headers.Add(key, v)
		case []string:
			for _, entry := range v {
				headers.Add(key, entry)
			}
		case []interface{}:
			for _, entry := range v {
				headers.Add(key, fmt.Sprint(entry))
			}
		default:
			headers.Add(key, fmt.Sprint(v))
		}
	}
	m.mu.Lock()
	m.status = int(event.Response.Status)
	m.headers = headers
	m.url = event.Response.URL
	m.mu.Unlock()
}

func (m *responseMeta) snapshotWithFallbacks(requestURL, finalURL string) (int, http.Header, string) {
	m.mu.RLock()
	status, headers, url := m.status, cloneHeader(m.headers), m.url
	m.mu.RUnlock()

	switch {
	case url != "":
	case finalURL != "":
		url = finalURL
	default:
		url = requestURL
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, headers, url
}

func cloneHeader(src http.Header) http.Header {
	if src == nil {
		return nil
	}
	dst := make(http.Header, len(src))
	for k, values := range src {
		for _, v := range values {
			dst.Add(k, v)
		}
	}
	return dst
}
