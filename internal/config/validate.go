// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that the CLI can
// print or treat as fatal.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "datasets.tbo.threshold"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

var (
	knownStorageKinds = map[string]struct{}{"duckdb": {}, "sqlite": {}, "postgres": {}, "mssql": {}, "mysql": {}}
	knownMetrics      = map[string]struct{}{"": {}, "none": {}, "pushgateway": {}, "datadog": {}}
	knownGroupBy      = map[string]struct{}{GroupBooking: {}, GroupPax: {}, GroupTicket: {}, GroupRow: {}}
	knownDedupKeys    = map[string]struct{}{"flight": {}, "departure": {}, "departure_date": {}}
)

// ValidateConfig performs static validation of cfg. It does not mutate it.
func ValidateConfig(cfg Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityError, "job", "job must not be empty; it labels metrics and log lines")
	}

	// Input.
	if strings.TrimSpace(cfg.Input.Dir) == "" {
		add(SeverityError, "input.dir", "input directory must not be empty")
	}
	if strings.TrimSpace(cfg.Input.Dataset) == "" {
		add(SeverityError, "input.dataset", "dataset must be set (known: %s)", strings.Join(cfg.DatasetNames(), ", "))
	} else if _, err := cfg.Dataset(cfg.Input.Dataset); err != nil {
		add(SeverityError, "input.dataset", "%v", err)
	}
	if len(cfg.Input.Extensions) == 0 {
		add(SeverityError, "input.extensions", "at least one extension is required")
	}
	if cfg.Input.Threshold < 0 {
		add(SeverityError, "input.threshold", "threshold override must not be negative")
	}
	if len([]rune(cfg.Input.Comma)) > 1 {
		add(SeverityWarning, "input.comma", "only the first rune of %q is used", cfg.Input.Comma)
	}

	// Storage.
	if _, ok := knownStorageKinds[cfg.Storage.Kind]; !ok {
		add(SeverityError, "storage.kind", "unknown storage kind %q", cfg.Storage.Kind)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" && cfg.Storage.Kind != "duckdb" {
		add(SeverityError, "storage.dsn", "dsn is required for %s", cfg.Storage.Kind)
	}
	if strings.TrimSpace(cfg.Storage.Table) == "" {
		add(SeverityError, "storage.table", "table must not be empty")
	}
	if cfg.Storage.Threads < 0 {
		add(SeverityError, "storage.threads", "threads must be >= 0")
	}
	if cfg.Storage.Kind != "duckdb" && (cfg.Storage.Threads > 0 || cfg.Storage.MemoryLimit != "" || cfg.Storage.TempDir != "") {
		add(SeverityWarning, "storage", "threads/memory_limit/temp_dir only apply to duckdb")
	}

	// Runtime.
	if cfg.Runtime.BatchSize <= 0 {
		add(SeverityError, "runtime.batch_size", "batch_size must be > 0")
	}
	if cfg.Runtime.ChannelBuffer < 0 {
		add(SeverityError, "runtime.channel_buffer", "channel_buffer must be >= 0")
	}

	// Metrics.
	if _, ok := knownMetrics[cfg.Metrics.Backend]; !ok {
		add(SeverityError, "metrics.backend", "unknown metrics backend %q (want none|pushgateway|datadog)", cfg.Metrics.Backend)
	}
	if cfg.Metrics.Backend == "pushgateway" && cfg.Metrics.PushgatewayURL == "" {
		add(SeverityError, "metrics.pushgateway_url", "pushgateway backend requires a URL")
	}

	for _, name := range cfg.DatasetNames() {
		issues = append(issues, validateDataset("datasets."+name, cfg.Datasets[name])...)
	}
	return issues
}

func validateDataset(path string, d Dataset) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, sub, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path + "." + sub, Message: fmt.Sprintf(format, args...)})
	}

	if d.Segments <= 0 {
		add(SeverityError, "segments", "segments must be > 0")
	}
	if d.Threshold <= 0 {
		add(SeverityError, "threshold", "threshold must be a positive duration")
	}
	switch strings.ToLower(d.StitchMode) {
	case "", "gap", "span":
	default:
		add(SeverityError, "stitch_mode", "unknown stitch mode %q (want gap|span)", d.StitchMode)
	}
	for _, g := range d.GroupBy {
		if _, ok := knownGroupBy[g]; !ok {
			add(SeverityError, "group_by", "unknown group_by part %q", g)
		}
	}
	for _, k := range d.DedupKeys {
		if _, ok := knownDedupKeys[k]; !ok {
			add(SeverityError, "dedup_keys", "unknown dedup key %q", k)
		}
	}
	switch d.DedupPolicy {
	case "", "keep-first", "keep-last":
	default:
		add(SeverityError, "dedup_policy", "unknown dedup policy %q", d.DedupPolicy)
	}
	if d.YearMin > 0 && d.YearMax > 0 && d.YearMin > d.YearMax {
		add(SeverityError, "year_min", "year_min %d > year_max %d", d.YearMin, d.YearMax)
	}
	if _, err := d.Location(); err != nil {
		add(SeverityError, "timezone", "%v", err)
	}

	c := d.Columns
	for sub, v := range map[string]string{
		"columns.flight_number":  c.FlightNumber,
		"columns.departure_date": c.DepartureDate,
	} {
		if !strings.Contains(v, "%d") {
			add(SeverityError, sub, "per-segment column %q must contain %%d", v)
		}
	}
	for sub, v := range map[string]string{
		"columns.arrival_date": c.ArrivalDate,
		"columns.airport":      c.Airport,
		"columns.origin":       c.Origin,
		"columns.destination":  c.Destination,
	} {
		if v != "" && !strings.Contains(v, "%d") {
			add(SeverityError, sub, "per-segment column %q must contain %%d", v)
		}
	}
	if c.Airport == "" && (c.Origin == "" || c.Destination == "") {
		add(SeverityWarning, "columns.airport", "no airport columns mapped; origin/destination will be empty")
	}
	if c.PaxName == "" && c.BookingRef == "" && c.TicketNo == "" {
		add(SeverityWarning, "columns", "no passenger columns mapped; every row becomes its own passenger")
	}
	return issues
}
