// Package pipeline orchestrates one case-status query end to end: session
// setup, fetch attempts, page classification, retry with backoff, result
// extraction, and the ledger write that makes the query auditable.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
	systemclock "github.com/JakeFAU/court-case-fetcher/internal/clock/system"
	sha256hash "github.com/JakeFAU/court-case-fetcher/internal/hash/sha256"
	uuidgen "github.com/JakeFAU/court-case-fetcher/internal/id/uuid"
	"github.com/JakeFAU/court-case-fetcher/internal/metrics"
)

// Config tunes the pipeline.
type Config struct {
	// Backoff bounds the attempt budget and spaces retries. Zero fields
	// fall back to defaults.
	Backoff casequery.BackoffPolicy
	// HistoryLimit caps ListHistory results. Zero means the ledger default.
	HistoryLimit int
}

// Deps are the collaborators a Pipeline drives. Detector, Provider, Ledger
// and Logger are required; Sessions is required when the provider needs a
// live fetch. Prober and Pacer are optional. Clock, IDs and Hasher default
// to the real implementations when nil.
type Deps struct {
	Sessions casequery.SessionFactory
	Prober   casequery.Prober
	Detector casequery.Detector
	Provider casequery.ResultProvider
	Ledger   casequery.Ledger
	Pacer    casequery.Pacer
	Clock    casequery.Clock
	IDs      casequery.IDGenerator
	Hasher   casequery.Hasher
	Logger   *zap.Logger
}

// Pipeline runs queries. Safe for concurrent use; each SubmitQuery call
// owns its record and session exclusively.
type Pipeline struct {
	sessions     casequery.SessionFactory
	prober       casequery.Prober
	detector     casequery.Detector
	provider     casequery.ResultProvider
	ledger       casequery.Ledger
	pacer        casequery.Pacer
	clock        casequery.Clock
	ids          casequery.IDGenerator
	hasher       casequery.Hasher
	policy       casequery.BackoffPolicy
	historyLimit int
	logger       *zap.Logger
}

// errorTexter is implemented by detectors that can pull a human-readable
// error message out of a site error page.
type errorTexter interface {
	ErrorText(snap casequery.PageSnapshot) string
}

// New validates the dependency set and returns a ready Pipeline.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Detector == nil {
		return nil, errors.New("pipeline: detector is required")
	}
	if deps.Provider == nil {
		return nil, errors.New("pipeline: result provider is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("pipeline: ledger is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("pipeline: logger is required")
	}
	if deps.Provider.RequiresFetch() && deps.Sessions == nil {
		return nil, errors.New("pipeline: session factory is required when the provider fetches live pages")
	}
	if deps.Clock == nil {
		deps.Clock = systemclock.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuidgen.New()
	}
	if deps.Hasher == nil {
		deps.Hasher = sha256hash.New()
	}
	return &Pipeline{
		sessions:     deps.Sessions,
		prober:       deps.Prober,
		detector:     deps.Detector,
		provider:     deps.Provider,
		ledger:       deps.Ledger,
		pacer:        deps.Pacer,
		clock:        deps.Clock,
		ids:          deps.IDs,
		hasher:       deps.Hasher,
		policy:       cfg.Backoff.Normalize(),
		historyLimit: cfg.HistoryLimit,
		logger:       deps.Logger.Named("pipeline"),
	}, nil
}

// SubmitQuery runs a full query for the identifier and returns the persisted
// record. Exactly one record is written per call, whatever the outcome; the
// only errors returned are validation failures (nothing to record) and
// ledger failures (the record could not be made durable).
func (p *Pipeline) SubmitQuery(ctx context.Context, id casequery.CaseIdentifier) (casequery.QueryRecord, error) {
	if err := id.Validate(); err != nil {
		return casequery.QueryRecord{}, err
	}

	recordID, err := p.ids.NewID()
	if err != nil {
		return casequery.QueryRecord{}, &casequery.LedgerError{Err: fmt.Errorf("generate record id: %w", err)}
	}

	rec := casequery.QueryRecord{
		ID:         recordID,
		Identifier: id,
		CreatedAt:  p.clock.Now(),
	}
	log := p.logger.With(zap.String("query_id", rec.ID), zap.String("case", id.String()))

	var result *casequery.CaseResult
	if p.provider.RequiresFetch() {
		result = p.runAttempts(ctx, &rec, id, log)
	} else {
		result = p.runMock(&rec, id, log)
	}
	p.finalize(&rec, result)

	// The record is written even when the caller's context is already
	// gone: an attempted search with no ledger row is invisible to audit.
	if _, err := p.ledger.Record(context.WithoutCancel(ctx), rec); err != nil {
		metrics.ObserveLedgerWrite(false)
		log.Error("ledger write failed", zap.Error(err))
		return casequery.QueryRecord{}, &casequery.LedgerError{Err: err}
	}
	metrics.ObserveLedgerWrite(true)
	metrics.ObserveQuery(string(rec.FinalStatus))

	log.Info("query finished",
		zap.String("status", string(rec.FinalStatus)),
		zap.Int("attempts", len(rec.Attempts)),
		zap.Bool("blocked", rec.IsBlocked),
	)
	return rec, nil
}

// runMock seals a single synthetic success attempt. No session, no network.
func (p *Pipeline) runMock(rec *casequery.QueryRecord, id casequery.CaseIdentifier, log *zap.Logger) *casequery.CaseResult {
	attempt := casequery.FetchAttempt{Index: 0, StartedAt: p.clock.Now()}
	attempt.RawBody = []byte("<html><body>Synthetic response: result provider bypassed the live site</body></html>")
	attempt.BodyHash, _ = p.hasher.Hash(attempt.RawBody)

	res, err := p.provider.Extract(id, casequery.PageSnapshot{})
	attempt.FinishedAt = p.clock.Now()
	if err != nil {
		attempt.Outcome = casequery.OutcomeParseError
		attempt.ErrorText = err.Error()
		p.seal(rec, attempt)
		return nil
	}
	attempt.Outcome = casequery.OutcomeSuccess
	p.seal(rec, attempt)
	log.Debug("served from provider without fetch", zap.String("source", p.provider.Source()))
	return &res
}

// runAttempts drives the retry loop against the live site. It returns the
// extracted result when an attempt succeeds, nil otherwise. One session is
// created per record and torn down on every exit path.
func (p *Pipeline) runAttempts(ctx context.Context, rec *casequery.QueryRecord, id casequery.CaseIdentifier, log *zap.Logger) *casequery.CaseResult {
	sess, err := p.sessions.NewSession(ctx)
	if err != nil {
		attempt := casequery.FetchAttempt{
			Index:     0,
			Outcome:   casequery.OutcomeTransportError,
			ErrorText: fmt.Sprintf("session setup: %v", err),
			StartedAt: p.clock.Now(),
		}
		attempt.FinishedAt = attempt.StartedAt
		p.seal(rec, attempt)
		log.Warn("session setup failed", zap.Error(err))
		return nil
	}
	defer sess.Close()

	for i := 0; ; i++ {
		attempt, result := p.runAttempt(ctx, sess, id, i, log)
		p.seal(rec, attempt)
		if attempt.Outcome == casequery.OutcomeSuccess {
			return result
		}
		if !p.policy.ShouldRetry(attempt.Outcome, i) {
			return nil
		}
		wait := p.policy.Backoff(i)
		log.Debug("retrying after backoff",
			zap.Int("attempt", i),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Duration("wait", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Warn("query canceled during backoff", zap.Int("attempts", len(rec.Attempts)))
			return nil
		case <-timer.C:
		}
	}
}

// runAttempt performs one navigation and classification. The attempt is
// returned sealed; the result is non-nil only on a success outcome.
func (p *Pipeline) runAttempt(ctx context.Context, sess casequery.Session, id casequery.CaseIdentifier, index int, log *zap.Logger) (casequery.FetchAttempt, *casequery.CaseResult) {
	attempt := casequery.FetchAttempt{
		Index:     index,
		ProxyUsed: sess.Proxy(),
		StartedAt: p.clock.Now(),
	}

	// A cheap plain-HTTP probe catches a site-wide CAPTCHA wall before a
	// browser navigation is spent on it. Probe failures are ignored; the
	// browser attempt is the authority.
	if p.prober != nil {
		if snap, err := p.prober.Probe(ctx); err == nil {
			if p.detector.Classify(snap) == casequery.CaptchaPage {
				p.capture(&attempt, snap)
				attempt.Outcome = casequery.OutcomeBlocked
				attempt.ErrorText = "captcha wall detected on landing page"
				attempt.FinishedAt = p.clock.Now()
				log.Info("probe short-circuited attempt", zap.Int("attempt", index))
				return attempt, nil
			}
		}
	}

	if p.pacer != nil {
		if err := p.pacer.Wait(ctx); err != nil {
			attempt.Outcome = casequery.OutcomeTransportError
			attempt.ErrorText = fmt.Sprintf("pacing wait: %v", err)
			attempt.FinishedAt = p.clock.Now()
			return attempt, nil
		}
	}

	snap, err := sess.Open(ctx, id)
	attempt.FinishedAt = p.clock.Now()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			attempt.Outcome = casequery.OutcomeTimeout
		} else {
			attempt.Outcome = casequery.OutcomeTransportError
		}
		attempt.ErrorText = err.Error()
		log.Warn("navigation failed",
			zap.Int("attempt", index),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Error(err),
		)
		return attempt, nil
	}
	p.capture(&attempt, snap)

	switch p.detector.Classify(snap) {
	case casequery.ResultsPage:
		res, perr := p.provider.Extract(id, snap)
		if perr != nil {
			attempt.Outcome = casequery.OutcomeParseError
			attempt.ErrorText = perr.Error()
			log.Warn("results page did not parse", zap.Int("attempt", index), zap.Error(perr))
			return attempt, nil
		}
		attempt.Outcome = casequery.OutcomeSuccess
		return attempt, &res
	case casequery.CaptchaPage:
		attempt.Outcome = casequery.OutcomeBlocked
		attempt.ErrorText = "captcha challenge returned"
		log.Info("attempt blocked by captcha", zap.Int("attempt", index), zap.Int("status_code", snap.StatusCode))
		return attempt, nil
	case casequery.ErrorPage:
		attempt.Outcome = casequery.OutcomeParseError
		attempt.ErrorText = p.siteErrorText(snap)
		return attempt, nil
	default:
		attempt.Outcome = casequery.OutcomeParseError
		attempt.ErrorText = "unrecognized page layout"
		return attempt, nil
	}
}

// capture stores the raw body and its digest on the attempt.
func (p *Pipeline) capture(attempt *casequery.FetchAttempt, snap casequery.PageSnapshot) {
	attempt.RawBody = snap.Body
	if len(snap.Body) > 0 {
		attempt.BodyHash, _ = p.hasher.Hash(snap.Body)
	}
}

func (p *Pipeline) siteErrorText(snap casequery.PageSnapshot) string {
	if et, ok := p.detector.(errorTexter); ok {
		if msg := et.ErrorText(snap); msg != "" {
			return msg
		}
	}
	return "site reported an error page"
}

// seal appends the attempt and emits its metrics. Attempts are never
// modified once sealed.
func (p *Pipeline) seal(rec *casequery.QueryRecord, attempt casequery.FetchAttempt) {
	rec.Attempts = append(rec.Attempts, attempt)
	metrics.ObserveAttempt(string(attempt.Outcome), attempt.FinishedAt.Sub(attempt.StartedAt))
}

// finalize derives the record's terminal fields from its sealed attempts.
func (p *Pipeline) finalize(rec *casequery.QueryRecord, result *casequery.CaseResult) {
	rec.RetryCount = len(rec.Attempts) - 1
	if rec.RetryCount < 0 {
		rec.RetryCount = 0
	}

	last := rec.LastOutcome()
	switch {
	case last == casequery.OutcomeSuccess && result != nil:
		rec.FinalStatus = casequery.QueryStatusCompleted
		rec.ParsedData = result
	case last == casequery.OutcomeBlocked:
		rec.FinalStatus = casequery.QueryStatusBlocked
		rec.IsBlocked = true
	default:
		rec.FinalStatus = casequery.QueryStatusFailed
	}

	if rec.FinalStatus != casequery.QueryStatusCompleted && len(rec.Attempts) > 0 {
		rec.ErrorText = rec.Attempts[len(rec.Attempts)-1].ErrorText
	}
}

// History lists past queries, most recent first.
func (p *Pipeline) History(ctx context.Context) ([]casequery.QuerySummary, error) {
	return p.ledger.ListHistory(ctx, p.historyLimit)
}

// Record returns one stored record with its raw capture attached.
func (p *Pipeline) Record(ctx context.Context, id string) (casequery.QueryRecord, error) {
	return p.ledger.GetRecord(ctx, id)
}

// ClearHistory wipes the query ledger and reports how many records went.
func (p *Pipeline) ClearHistory(ctx context.Context) (int64, error) {
	return p.ledger.ClearHistory(ctx)
}
