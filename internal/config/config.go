// Package config defines the configuration model for the trip-stitching ETL.
//
// Values are layered with koanf: built-in defaults (including one preset per
// known dataset) → optional YAML file → environment. Environment keys use the
// TRIPETL_ prefix with the first underscore separating the section:
//
//	TRIPETL_RUNTIME_BATCH_SIZE=10000   -> runtime.batch_size
//	TRIPETL_STORAGE_DSN=legs.duckdb    -> storage.dsn
//	TRIPETL_INPUT_THRESHOLD=12h        -> input.threshold
//	LOG_LEVEL=debug                    -> logging.level
//
// Example YAML (trimmed):
//
//	input:   { dir: ./raw, dataset: tbo }
//	storage: { kind: duckdb, dsn: trips.duckdb, threads: 4, memory_limit: 4GB }
//	datasets:
//	  tbo: { threshold: 24h }
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Config is the top-level configuration.
type Config struct {
	// Job labels metrics and log lines for this run.
	Job      string             `koanf:"job"`
	Input    InputConfig        `koanf:"input"`
	Storage  StorageConfig      `koanf:"storage"`
	Runtime  RuntimeConfig      `koanf:"runtime"`
	Logging  LoggingConfig      `koanf:"logging"`
	Metrics  MetricsConfig      `koanf:"metrics"`
	Datasets map[string]Dataset `koanf:"datasets"`
}

// InputConfig selects the files to ingest and the dataset rules to apply.
type InputConfig struct {
	Dir        string   `koanf:"dir"`
	Dataset    string   `koanf:"dataset"`
	Extensions []string `koanf:"extensions"`
	// Comma is the CSV delimiter; first rune used.
	Comma string `koanf:"comma"`
	// Threshold, when positive, replaces the selected dataset's stopover
	// threshold (TRIPETL_INPUT_THRESHOLD=12h).
	Threshold time.Duration `koanf:"threshold"`
}

// StorageConfig configures the destination.
type StorageConfig struct {
	// Kind selects the backend: duckdb, sqlite, postgres, mssql, mysql.
	Kind            string `koanf:"kind"`
	DSN             string `koanf:"dsn"`
	Table           string `koanf:"table"`
	AutoCreateTable bool   `koanf:"auto_create_table"`

	// DuckDB engine knobs; 0/empty leaves the engine default.
	Threads     int    `koanf:"threads"`
	MemoryLimit string `koanf:"memory_limit"`
	TempDir     string `koanf:"temp_dir"`
}

// RuntimeConfig controls batching and buffering.
type RuntimeConfig struct {
	BatchSize     int `koanf:"batch_size"`
	ChannelBuffer int `koanf:"channel_buffer"`
	// MaxErrorSamples caps the per-file error samples kept for the summary.
	MaxErrorSamples int `koanf:"max_error_samples"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig selects a metrics backend: none, pushgateway, datadog.
type MetricsConfig struct {
	Backend        string `koanf:"backend"`
	PushgatewayURL string `koanf:"pushgateway_url"`
	DatadogAddr    string `koanf:"datadog_addr"`
	Namespace      string `koanf:"namespace"`
}

// Dataset holds the per-source rules: wide column layout, date parsing,
// grouping, dedup and stitching.
type Dataset struct {
	// Segments is the number of repeated column groups in a wide row.
	Segments int       `koanf:"segments"`
	Columns  ColumnMap `koanf:"columns"`

	// Threshold is the largest stopover that still continues a journey.
	Threshold time.Duration `koanf:"threshold"`
	// StitchMode is "gap" (from previous leg) or "span" (from journey start).
	StitchMode      string `koanf:"stitch_mode"`
	SplitRoundTrips bool   `koanf:"split_round_trips"`

	// GroupBy lists the passenger key parts: booking, pax, ticket, row.
	GroupBy []string `koanf:"group_by"`
	// DedupKeys lists per-segment dedup parts: flight, departure, departure_date.
	DedupKeys   []string `koanf:"dedup_keys"`
	DedupPolicy string   `koanf:"dedup_policy"`

	DateLayouts []string `koanf:"date_layouts"`
	YearMin     int      `koanf:"year_min"`
	YearMax     int      `koanf:"year_max"`
	// Timezone is an IANA name applied to dates without an offset.
	Timezone string `koanf:"timezone"`
}

// ColumnMap names source headers. Per-segment names contain %d, replaced by
// the 1-based group number. Airport lists the route chain: group i flies from
// Airport(i) to Airport(i+1) unless Origin/Destination are mapped.
type ColumnMap struct {
	PaxName    string `koanf:"pax_name"`
	BookingRef string `koanf:"booking_ref"`
	TicketNo   string `koanf:"ticket_no"`
	Airline    string `koanf:"airline"`

	FlightNumber  string `koanf:"flight_number"`
	DepartureDate string `koanf:"departure_date"`
	ArrivalDate   string `koanf:"arrival_date"`
	Airport       string `koanf:"airport"`
	Origin        string `koanf:"origin"`
	Destination   string `koanf:"destination"`
}

// Group-by parts.
const (
	GroupBooking = "booking"
	GroupPax     = "pax"
	GroupTicket  = "ticket"
	GroupRow     = "row"
)

// DatasetNames returns the configured dataset names, sorted.
func (c Config) DatasetNames() []string {
	out := make([]string, 0, len(c.Datasets))
	for k := range c.Datasets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Dataset resolves a dataset by case-insensitive name.
func (c Config) Dataset(name string) (Dataset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if ds, ok := c.Datasets[key]; ok {
		return ds, nil
	}
	return Dataset{}, fmt.Errorf("unknown dataset %q (known: %s)", name, strings.Join(c.DatasetNames(), ", "))
}

// Selected resolves Input.Dataset with the Input.Threshold override applied.
func (c Config) Selected() (Dataset, error) {
	ds, err := c.Dataset(c.Input.Dataset)
	if err != nil {
		return Dataset{}, err
	}
	if c.Input.Threshold > 0 {
		ds.Threshold = c.Input.Threshold
	}
	return ds, nil
}

// Location resolves Timezone, defaulting to UTC.
func (d Dataset) Location() (*time.Location, error) {
	if strings.TrimSpace(d.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(d.Timezone)
}
