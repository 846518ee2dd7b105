// Command tripetl stitches flight legs from agency booking exports into
// passenger journeys and loads them into the configured store.
//
//	tripetl -config tripetl.yaml -dataset tbo -dir ./raw
//	tripetl -config tripetl.yaml -validate
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tripetl/internal/config"
	"tripetl/internal/logging"
	"tripetl/internal/metrics"
	"tripetl/internal/metrics/datadog"
	"tripetl/internal/metrics/prompush"
	"tripetl/internal/pipeline"

	// All backends are compiled in; storage.kind picks one.
	_ "tripetl/internal/storage/all"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tripetl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		cfgPath     = fs.String("config", "", "YAML config path (optional; defaults and TRIPETL_* env apply)")
		dataset     = fs.String("dataset", "", "dataset rules to apply (overrides input.dataset)")
		dir         = fs.String("dir", "", "input directory (overrides input.dir)")
		threshold   = fs.Duration("threshold", 0, "stopover threshold for the selected dataset, e.g. 12h (overrides input.threshold)")
		validate    = fs.Bool("validate", false, "validate the configuration and exit")
		listSets    = fs.Bool("list-datasets", false, "print the known datasets and exit")
		verbose     = fs.Bool("v", false, "debug logging")
		metricsKind = fs.String("metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides metrics.backend)")
		gatewayURL  = fs.String("pushgateway-url", "", "Pushgateway base URL (overrides metrics.pushgateway_url)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if *dataset != "" {
		cfg.Input.Dataset = *dataset
	}
	if *dir != "" {
		cfg.Input.Dir = *dir
	}
	if *threshold != 0 {
		cfg.Input.Threshold = *threshold
	}
	if *metricsKind != "" {
		cfg.Metrics.Backend = *metricsKind
	}
	if *gatewayURL != "" {
		cfg.Metrics.PushgatewayURL = *gatewayURL
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})

	if *listSets {
		for _, name := range cfg.DatasetNames() {
			ds := cfg.Datasets[name]
			fmt.Fprintf(stdout, "%-10s segments=%d threshold=%s group_by=%s\n",
				name, ds.Segments, ds.Threshold, strings.Join(ds.GroupBy, ","))
		}
		return 0
	}

	issues := config.ValidateConfig(*cfg)
	for _, is := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", is.Severity, is.Path, is.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if *validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	if flush := setupMetrics(cfg); flush != nil {
		defer flush()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	sum, err := pipeline.Run(ctx, *cfg)
	if err != nil {
		logging.Error().Err(err).Int("failed_files", sum.FailedFiles).Msg("run finished with errors")
		return 1
	}
	logging.Debug().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).Msg("completed")
	return 0
}

// setupMetrics installs the configured backend and returns its flush, or nil
// when metrics are disabled. A backend that fails to start leaves the nop
// backend in place.
func setupMetrics(cfg *config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		ns := cfg.Metrics.Namespace
		if ns != "" && !strings.HasSuffix(ns, ".") {
			ns += "."
		}
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  ns,
			GlobalTags: []string{"job:" + cfg.Job, "dataset:" + cfg.Input.Dataset},
		})
	default:
		logging.Warn().Str("backend", cfg.Metrics.Backend).Msg("metrics: unknown backend, disabled")
		return nil
	}
	if err != nil {
		logging.Warn().Err(err).Str("backend", cfg.Metrics.Backend).Msg("metrics: init failed, disabled")
		return nil
	}
	metrics.SetBackend(b)
	logging.Info().Str("backend", cfg.Metrics.Backend).Str("job", cfg.Job).Msg("metrics: enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			logging.Warn().Err(err).Msg("metrics: flush failed")
		}
	}
}
