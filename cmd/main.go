package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/campwatch/internal/adapters/export"
	"github.com/okian/campwatch/internal/adapters/http/api"
	"github.com/okian/campwatch/internal/adapters/source"
	app "github.com/okian/campwatch/internal/app"
	"github.com/okian/campwatch/internal/config"
	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
	"github.com/okian/campwatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Get().Warn(context.Background(), "log sync failed", logger.Error(err))
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	src, err := buildSource(cfg)
	if err != nil {
		os.Stderr.WriteString("failed to build data source: " + err.Error() + "\n")
		return
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithSource(src),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.JobQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithReportStoreSize(cfg.ReportStoreSize),
		app.WithSimilarityThreshold(cfg.SimilarityThreshold),
	)

	if cfg.Serve {
		serve(ctx, cfg, svc)
		return
	}

	if err := runOnce(ctx, cfg, svc); err != nil {
		os.Stderr.WriteString("analysis failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// buildSource picks the record source: a local JSONL sample when configured,
// otherwise the Twitter recent search API.
func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.SamplePath != "" {
		return source.NewJSONLSource(cfg.SamplePath), nil
	}

	token := cfg.BearerToken
	if token == "" {
		token = os.Getenv("TWITTER_BEARER_TOKEN")
	}
	return source.NewTwitterSource(token)
}

// runOnce fetches, analyzes, and writes CSV artifacts to cfg.OutDir.
func runOnce(ctx context.Context, cfg *config.Config, svc *app.Service) error {
	if cfg.Query == "" {
		return errors.New("query is required for a one-shot analysis")
	}

	log := logger.Get()
	q := model.Query{
		Text:       cfg.Query,
		Lang:       cfg.Lang,
		Minutes:    cfg.Minutes,
		MaxResults: cfg.MaxResults,
		Threshold:  cfg.SimilarityThreshold,
	}

	report, err := svc.RunOnce(ctx, q)
	if err != nil {
		return err
	}

	exporter := export.NewCSVExporter()
	if err := exporter.Export(ctx, report, cfg.OutDir); err != nil {
		return err
	}

	log.Info(ctx, "analysis artifacts written",
		logger.String("outDir", cfg.OutDir),
		logger.Int("totalTweets", report.Summary.TotalTweets),
		logger.Int("uniqueUsers", report.Summary.UniqueUsers),
		logger.Int("anomalousMinutes", report.Summary.AnomalousMinutes),
		logger.Int("largestClusterSize", report.Summary.LargestClusterSize),
		logger.Int("networkNodes", report.Summary.NetworkNodes),
		logger.Int("networkEdges", report.Summary.NetworkEdges),
		logger.Float64("networkDensity", report.Summary.NetworkDensity),
	)
	return nil
}

// serve runs the long-lived HTTP API until a shutdown signal arrives.
func serve(ctx context.Context, cfg *config.Config, svc *app.Service) {
	log := logger.Get()

	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, api.WithMaxListLimit(cfg.MaxListLimit))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically refreshes process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater periodically refreshes service-level gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes queue, store, and worker gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
