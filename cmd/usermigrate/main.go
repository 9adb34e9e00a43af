// Command usermigrate moves user records from a Firebase Realtime Database
// export into a Postgres users table: extract, clean, deduplicate, resolve
// conflicts against the target, load. It runs once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"usermigrate/internal/config"
	"usermigrate/internal/logging"
	"usermigrate/internal/metrics"
	"usermigrate/internal/metrics/datadog"
	"usermigrate/internal/metrics/prompush"
	"usermigrate/internal/pipeline"
	"usermigrate/internal/source/firebase"
	"usermigrate/internal/storage"
	"usermigrate/internal/storage/postgres"
)

func main() {
	var (
		envFile  string
		validate bool
	)
	flag.StringVar(&envFile, "env", ".env", "env file to load before reading the environment")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.Parse()

	// A missing env file is fine; the environment may be set by the runner.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fatalf("load %s: %v", envFile, err)
	}

	cfg := config.FromEnv()

	issues := cfg.Validate()
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid")
	}
	if validate {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	logger, err := logging.Init(logging.ConfigFromEnv())
	if err != nil {
		fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	setupMetrics(cfg, logger)
	defer func() {
		if err := metrics.Flush(); err != nil {
			logger.Warn("metrics flush failed", zap.Error(err))
		}
	}()

	ctx := context.Background()

	src, err := firebase.NewClient(firebase.Config{
		BaseURL: cfg.FirebaseURL,
		Timeout: cfg.SourceTimeout,
		Limit:   cfg.DevLimit(),
	})
	if err != nil {
		logger.Fatal("source init failed", zap.Error(err))
	}

	repo, closeRepo, err := postgres.NewRepository(ctx, postgres.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("target connection failed", zap.Error(err))
	}
	defer closeRepo()

	p := &pipeline.Pipeline{
		Source: src,
		Target: repo,
		Table:  cfg.TargetTable,
		Log:    logger,
	}

	sum, err := p.Run(ctx, pipeline.Options{
		Job:              cfg.Job,
		UsersPath:        cfg.UsersPath,
		RemoveDuplicates: cfg.RemoveDuplicates,
		DedupKeyField:    cfg.DedupKeyField,
		DedupOrderField:  cfg.DedupOrderField,
		KeepPolicy:       cfg.KeepPolicy,
		LoadMode:         storage.Mode(cfg.LoadMode),
		ChunkSize:        cfg.ChunkSize,
		ExportDir:        cfg.ExportDir,
	})
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	printSummary(sum)
}

// setupMetrics installs the configured metrics backend; the nop backend
// remains in place when metrics are disabled or init fails.
func setupMetrics(cfg config.Config, logger *zap.Logger) {
	switch cfg.MetricsBackend {
	case config.MetricsPushgateway:
		b, err := prompush.NewBackend(cfg.Job, cfg.PushgatewayURL)
		if err != nil {
			logger.Warn("metrics backend init failed, metrics disabled", zap.Error(err))
			return
		}
		logger.Info("metrics enabled",
			zap.String("backend", cfg.MetricsBackend),
			zap.String("gateway", cfg.PushgatewayURL),
			zap.String("job", cfg.Job))
		metrics.SetBackend(b)
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.Job + ".",
			GlobalTags: []string{"service:" + cfg.Job},
		})
		if err != nil {
			logger.Warn("metrics backend init failed, metrics disabled", zap.Error(err))
			return
		}
		logger.Info("metrics enabled",
			zap.String("backend", cfg.MetricsBackend),
			zap.String("agent", cfg.DatadogAddr),
			zap.String("job", cfg.Job))
		metrics.SetBackend(b)
	default:
		// metrics disabled; nop backend remains
	}
}

func printSummary(sum *pipeline.Summary) {
	var b strings.Builder
	fmt.Fprintf(&b, "\nMigration finished in %s\n", sum.Duration().Truncate(time.Millisecond))
	fmt.Fprintf(&b, "  extracted:           %d\n", sum.Extracted)
	if r := sum.Transform; r != nil {
		fmt.Fprintf(&b, "  transformed:         %d (%.1f%% success)\n", r.Successful, r.SuccessRate())
		fmt.Fprintf(&b, "  transform failures:  %d\n", r.Failed)
		fmt.Fprintf(&b, "  duplicates removed:  %d (%s)\n", r.Dedup.RemovedCount, r.Dedup.Method)
	}
	if r := sum.Resolve; r != nil {
		fmt.Fprintf(&b, "  skipped (id+email):  %d\n", r.SkippedDuplicates)
		fmt.Fprintf(&b, "  skipped (email):     %d\n", r.SkippedEmails)
		fmt.Fprintf(&b, "  ids rewritten:       %d\n", len(r.Rewrites))
	}
	if r := sum.Load; r != nil {
		fmt.Fprintf(&b, "  inserted:            %d/%d (%.1f%% success)\n",
			r.Inserted, r.TotalProcessed, r.SuccessRate())
		for _, le := range r.Errors {
			fmt.Fprintf(&b, "    error: %s\n", le.Err)
		}
	}
	if sum.TargetRows > 0 {
		fmt.Fprintf(&b, "  target rows now:     %d\n", sum.TargetRows)
	}
	fmt.Print(b.String())
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
