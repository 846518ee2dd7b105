package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func paths(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Path)
	}
	return out
}

func TestValidateConfig_DefaultsWithDataset(t *testing.T) {
	cfg := Defaults()
	cfg.Input.Dataset = "ta"
	assert.Empty(t, ValidateConfig(*cfg), "presets must validate cleanly")
}

func TestValidateConfig_Errors(t *testing.T) {
	cfg := Defaults()
	cfg.Job = ""
	cfg.Input.Dataset = "acme"
	cfg.Storage.Kind = "oracle"
	cfg.Runtime.BatchSize = 0
	cfg.Metrics.Backend = "pushgateway"
	cfg.Input.Threshold = -time.Hour

	issues := ValidateConfig(*cfg)
	assert.True(t, HasErrors(issues))
	assert.Subset(t, paths(issues), []string{
		"job", "input.dataset", "input.threshold", "storage.kind", "storage.dsn", "runtime.batch_size", "metrics.pushgateway_url",
	})
}

func TestValidateConfig_DatasetRules(t *testing.T) {
	cfg := Defaults()
	cfg.Input.Dataset = "tbo"
	ds := cfg.Datasets["tbo"]
	ds.Threshold = 0
	ds.StitchMode = "window"
	ds.GroupBy = []string{"email"}
	ds.DedupKeys = []string{"pnr"}
	ds.YearMin, ds.YearMax = 2030, 2020
	ds.Columns.FlightNumber = "Flight"
	ds.Timezone = "Mars/Olympus"
	cfg.Datasets["tbo"] = ds

	issues := ValidateConfig(*cfg)
	assert.Subset(t, paths(issues), []string{
		"datasets.tbo.threshold",
		"datasets.tbo.stitch_mode",
		"datasets.tbo.group_by",
		"datasets.tbo.dedup_keys",
		"datasets.tbo.year_min",
		"datasets.tbo.columns.flight_number",
		"datasets.tbo.timezone",
	})
}

func TestValidateConfig_WarningsOnly(t *testing.T) {
	cfg := Defaults()
	cfg.Input.Dataset = "tbo"
	cfg.Storage.Kind = "postgres"
	cfg.Storage.DSN = "postgres://localhost/trips"
	cfg.Storage.Threads = 4

	issues := ValidateConfig(*cfg)
	assert.False(t, HasErrors(issues))
	assert.Contains(t, paths(issues), "storage")
}

func TestIssue_Error(t *testing.T) {
	is := Issue{Severity: SeverityError, Path: "storage.kind", Message: "bad"}
	assert.Equal(t, "error at storage.kind: bad", is.Error())
}
