package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/httpx"
	"github.com/AngelCh415/revops-risk/internal/ingest"
	"github.com/AngelCh415/revops-risk/internal/report"
	"github.com/AngelCh415/revops-risk/internal/telemetry"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	rcfg := config.DefaultReportConfig()
	if cfg.ReportProfile != "" {
		var err error
		if rcfg, err = config.LoadReportConfig(cfg.ReportProfile); err != nil {
			logger.Error("report profile error", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := telemetry.New(reg)

	setup, err := ingest.Configure(cfg)
	if err != nil {
		logger.Error("source setup error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer setup.Close()

	collector := ingest.NewCollector(setup.Sources, ingest.BreakerSettings{
		Failures: cfg.BreakerFailures,
		Timeout:  cfg.BreakerTimeout,
	}, logger, m)
	engine := report.NewEngine(collector, rcfg, logger, m)

	r := httpx.NewRouter(logger, engine, httpx.Options{
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m.Handler(),
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return setup.Ready(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("sources", len(setup.Sources)), slog.String("quarter_start", rcfg.QuarterStart.String()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
