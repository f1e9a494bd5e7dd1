// Command rival reads a cleaned-battles JSON file, computes rating reports
// for the configured categories, and writes the results as a JSON blob.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/rival/internal/app"
	"github.com/okian/rival/internal/config"
	"github.com/okian/rival/internal/domain/model"
	"github.com/okian/rival/pkg/logger"
	"github.com/okian/rival/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	outputPermission  = 0600
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("rival: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	battleFile := flag.String("battles", "", "path to the cleaned-battles JSON file")
	outputFile := flag.String("output", "", "path for the results JSON (default elo_results_YYYYMMDD.json)")
	flag.Parse()

	if *battleFile == "" {
		return fmt.Errorf("missing required -battles flag")
	}

	if err := logger.Init(); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Expose /metrics while the run is in flight, when configured.
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(ctx, log, cfg.MetricsAddr)
		defer func() { _ = srv.Close() }()
	}

	battles, err := readBattles(*battleFile)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded battles",
		logger.String("file", *battleFile),
		logger.Int("count", len(battles)),
	)

	svc := app.New(*cfg, app.WithLogger(log))
	reports, err := svc.Run(ctx, battles)
	if err != nil {
		return fmt.Errorf("running reports: %w", err)
	}

	out := *outputFile
	if out == "" {
		out = fmt.Sprintf("elo_results_%s.json", lastUpdateDate(reports))
	}
	if err := writeReports(out, reports); err != nil {
		return err
	}
	log.Info(ctx, "wrote results", logger.String("file", out))
	return nil
}

func startMetricsServer(ctx context.Context, log logger.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}

func readBattles(path string) ([]model.Battle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading battles: %w", err)
	}
	var battles []model.Battle
	if err := json.Unmarshal(data, &battles); err != nil {
		return nil, fmt.Errorf("parsing battles: %w", err)
	}
	return battles, nil
}

func writeReports(path string, reports map[string]*app.Report) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, outputPermission); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}

// lastUpdateDate picks the newest battle timestamp across the reports for
// the default output filename.
func lastUpdateDate(reports map[string]*app.Report) string {
	var last time.Time
	for _, r := range reports {
		if r.LastUpdated.After(last) {
			last = r.LastUpdated
		}
	}
	if last.IsZero() {
		last = time.Now().UTC()
	}
	return last.Format("20060102")
}
