// Command healthcheck verifies provider credentials, reachability and the
// failover path end to end. It exits 1 when any check fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/upb/llm-content-gateway/app"
	"github.com/upb/llm-content-gateway/config"
	"github.com/upb/llm-content-gateway/internal/observability"
	"github.com/upb/llm-content-gateway/repositories/postgres"
	"github.com/upb/llm-content-gateway/services/healthcheck"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// unreachableDB reports the connection error on every health check
type unreachableDB struct{ err error }

func (u unreachableDB) HealthCheck(context.Context) error { return u.err }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("healthcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOut := fs.Bool("json", false, "print results as a JSON array")
	timeout := fs.Duration("timeout", 60*time.Second, "upper bound for the whole run")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	level := cfg.Observability.LogLevel
	if level == "info" {
		level = "warn"
	}
	logger, err := observability.NewLogger(level, "console")
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	// An unreachable database is a failed check, not a startup error
	coreCfg := *cfg
	coreCfg.Database = nil
	coreCfg.Observability.MetricsEnabled = false

	deps, err := app.NewDependencies(ctx, &coreCfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize providers: %v\n", err)
		return 1
	}
	defer func() { _ = deps.Close(context.Background()) }()

	var database healthcheck.DatabaseChecker
	if cfg.Database != nil {
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Debug("database connection failed", zap.Error(err))
			database = unreachableDB{err: err}
		} else {
			defer func() { _ = db.Close() }()
			database = db
		}
	}

	runner := healthcheck.NewRunner(healthcheck.Options{
		Providers: cfg.Providers,
		Generator: deps.Manager,
		Limiter:   deps.Limiter,
		Database:  database,
	}, logger)
	results := runner.Run(ctx)

	if *jsonOut {
		err = healthcheck.WriteJSON(stdout, results)
	} else {
		err = healthcheck.WriteText(stdout, results)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to write report: %v\n", err)
		return 1
	}

	return healthcheck.Summarize(results).ExitCode()
}
