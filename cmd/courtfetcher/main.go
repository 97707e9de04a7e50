// Package main wires together the court case fetcher service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/court-case-fetcher/internal/api"
	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
	"github.com/JakeFAU/court-case-fetcher/internal/config"
	"github.com/JakeFAU/court-case-fetcher/internal/detector"
	headlessfetcher "github.com/JakeFAU/court-case-fetcher/internal/fetcher/headless"
	probefetcher "github.com/JakeFAU/court-case-fetcher/internal/fetcher/probe"
	memoryledger "github.com/JakeFAU/court-case-fetcher/internal/ledger/memory"
	postgresledger "github.com/JakeFAU/court-case-fetcher/internal/ledger/postgres"
	"github.com/JakeFAU/court-case-fetcher/internal/logging"
	"github.com/JakeFAU/court-case-fetcher/internal/metrics"
	"github.com/JakeFAU/court-case-fetcher/internal/pacing"
	"github.com/JakeFAU/court-case-fetcher/internal/pipeline"
	htmlprovider "github.com/JakeFAU/court-case-fetcher/internal/provider/html"
	mockprovider "github.com/JakeFAU/court-case-fetcher/internal/provider/mock"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := pipeline.Deps{
		Detector: detector.New(),
		Logger:   logger,
	}

	if cfg.Provider.Mode == "real" {
		deps.Provider = htmlprovider.New(cfg.Court.BaseURL)

		factory, ferr := headlessfetcher.NewFactory(headlessfetcher.Config{
			SearchURL:         cfg.Court.SearchURL,
			NavigationTimeout: cfg.Headless.NavTimeout(),
			UserAgents:        cfg.Headless.UserAgents,
			Proxy:             cfg.Headless.Proxy,
			Headless:          cfg.Headless.Enabled,
			MinThinkTime:      cfg.Headless.MinThinkTime(),
			MaxThinkTime:      cfg.Headless.MaxThinkTime(),
		})
		if ferr != nil {
			logger.Fatal("headless factory init failed", zap.Error(ferr))
		}
		deps.Sessions = factory

		if cfg.Headless.ProbeEnabled {
			prober, perr := probefetcher.New(probefetcher.Config{
				LandingURL: cfg.Court.SearchURL,
				UserAgent:  cfg.Headless.ProbeUserAgent,
				Timeout:    cfg.Headless.ProbeTimeout(),
			})
			if perr != nil {
				logger.Fatal("probe fetcher init failed", zap.Error(perr))
			}
			deps.Prober = prober
		}
	} else {
		deps.Provider = mockprovider.New()
	}

	deps.Pacer = pacing.New(pacing.Config{RPS: cfg.Pacing.RPS, Burst: cfg.Pacing.Burst})

	if cfg.DB.DSN != "" {
		ledger, lerr := postgresledger.New(ctx, postgresledger.Config{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxOpenConns,
			MinConns: cfg.DB.MinOpenConns,
		})
		if lerr != nil {
			logger.Fatal("ledger init failed", zap.Error(lerr))
		}
		defer ledger.Close()
		if serr := ledger.EnsureSchema(ctx); serr != nil {
			logger.Fatal("ledger schema init failed", zap.Error(serr))
		}
		deps.Ledger = ledger
	} else {
		logger.Warn("no db.dsn configured, query history will not survive restarts")
		deps.Ledger = memoryledger.New()
	}

	pipe, err := pipeline.New(pipeline.Config{
		Backoff: casequery.BackoffPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			BaseDelay:      cfg.Retry.BaseDelay(),
			MaxDelay:       cfg.Retry.MaxDelay(),
			JitterFraction: cfg.Retry.JitterFraction,
		},
	}, deps)
	if err != nil {
		logger.Fatal("pipeline init failed", zap.Error(err))
	}

	apiServer := api.NewServer(pipe, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started",
			zap.Int("port", cfg.Server.Port),
			zap.String("provider", cfg.Provider.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
