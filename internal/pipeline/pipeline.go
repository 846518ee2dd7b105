// Package pipeline runs the trip-stitching ETL over an input directory.
// Every file is read, normalized and unpivoted; the legs of all readable
// files are deduplicated and stitched into journeys together, so a booking
// split across exports forms one journey. Each file's rows are then replaced
// in the store in batches. A file that fails is reported and the run moves
// on to the next one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"tripetl/internal/config"
	"tripetl/internal/datasource/file"
	"tripetl/internal/logging"
	"tripetl/internal/metrics"
	"tripetl/internal/storage"
	"tripetl/internal/transformer"
	"tripetl/internal/transformer/builtin"
	"tripetl/internal/trip"
)

// Summary is the outcome of a run.
type Summary struct {
	Files       int
	FailedFiles int
	Totals      Stats
	Elapsed     time.Duration
}

var newRepositoryFn = storage.New

// plan is the resolved per-run configuration.
type plan struct {
	job       string
	dataset   string
	ds        config.Dataset
	stitcher  trip.Stitcher
	dedup     builtin.DeDup
	comma     rune
	batchSize int
	buffer    int
	samples   int
}

func newPlan(cfg config.Config) (*plan, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Input.Dataset))
	ds, err := cfg.Selected()
	if err != nil {
		return nil, err
	}
	mode, err := trip.ParseMode(ds.StitchMode)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	if ds.Threshold <= 0 {
		return nil, fmt.Errorf("dataset %s: threshold must be > 0", name)
	}
	if err := builtin.ValidateDedupKeys(ds.DedupKeys); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}

	comma := ','
	if cfg.Input.Comma != "" {
		comma, _ = utf8.DecodeRuneInString(cfg.Input.Comma)
	}
	p := &plan{
		job:       cfg.Job,
		dataset:   name,
		ds:        ds,
		stitcher:  trip.Stitcher{Threshold: ds.Threshold, Mode: mode, SplitRoundTrips: ds.SplitRoundTrips},
		dedup:     builtin.DeDup{Keys: ds.DedupKeys, Policy: ds.DedupPolicy},
		comma:     comma,
		batchSize: cfg.Runtime.BatchSize,
		buffer:    cfg.Runtime.ChannelBuffer,
		samples:   cfg.Runtime.MaxErrorSamples,
	}
	if p.batchSize <= 0 {
		p.batchSize = 5000
	}
	if p.buffer <= 0 {
		p.buffer = 1024
	}
	return p, nil
}

// Run processes every input file under cfg.Input.Dir. The returned error
// joins the per-file failures; a canceled context stops the run before
// anything further is written.
func Run(ctx context.Context, cfg config.Config) (Summary, error) {
	start := time.Now()
	var sum Summary

	p, err := newPlan(cfg)
	if err != nil {
		return sum, err
	}
	seg, err := transformer.NewSegmenter(p.dataset, p.ds, "")
	if err != nil {
		return sum, err
	}

	inputs, err := file.ListInputs(cfg.Input.Dir, cfg.Input.Extensions)
	if err != nil {
		return sum, err
	}
	if len(inputs) == 0 {
		logging.Warn().Str("dir", cfg.Input.Dir).Strs("extensions", cfg.Input.Extensions).
			Msg("pipeline: no input files")
		return sum, nil
	}

	scfg := storage.Config{
		Kind:        cfg.Storage.Kind,
		DSN:         cfg.Storage.DSN,
		Table:       cfg.Storage.Table,
		Columns:     trip.Columns(),
		KeyColumns:  trip.PurgeColumns,
		Schema:      trip.Schema,
		Threads:     cfg.Storage.Threads,
		MemoryLimit: cfg.Storage.MemoryLimit,
		TempDir:     cfg.Storage.TempDir,
	}
	logging.Info().Str("kind", scfg.Kind).Str("table", scfg.Table).Int("files", len(inputs)).
		Str("dataset", p.dataset).Dur("threshold", p.ds.Threshold).Int("batch", p.batchSize).
		Msg("pipeline: starting")

	repo, err := newRepositoryFn(ctx, scfg)
	if err != nil {
		return sum, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if cfg.Storage.AutoCreateTable {
		if err := storage.EnsureTable(ctx, scfg, repo); err != nil {
			return sum, fmt.Errorf("ensure table: %w", err)
		}
		logging.Debug().Str("table", scfg.Table).Msg("pipeline: table ensured")
	}

	var errs []error
	fail := func(fr *fileRun, err error) {
		sum.FailedFiles++
		logging.Error().Err(err).Str("file", fr.name).Msg("file: failed")
		errs = append(errs, fmt.Errorf("%s: %w", fr.name, err))
	}
	canceled := func() (Summary, error) {
		sum.Elapsed = time.Since(start)
		logging.Warn().Int("files", sum.Files).Msg("pipeline: canceled")
		return sum, errors.Join(append(errs, ctx.Err())...)
	}

	// 1) Read every file. A file that cannot be read keeps its stored rows.
	var (
		ready []*fileRun
		legs  []trip.Segment
	)
	for _, src := range inputs {
		if ctx.Err() != nil {
			return canceled()
		}
		fr := newFileRun(p, src)
		sum.Files++
		got, err := readFile(ctx, p, seg, fr)
		if err != nil {
			sum.Totals.Add(fr.finish(p))
			fail(fr, fmt.Errorf("read: %w", err))
			continue
		}
		ready = append(ready, fr)
		legs = append(legs, got...)
	}
	if ctx.Err() != nil {
		return canceled()
	}

	// 2) Dedup + stitch across all files.
	var journeys []trip.Journey
	_ = p.step("stitch", func() error {
		kept, dups := p.dedup.Apply(legs)
		sum.Totals.Duplicates = int64(dups)
		journeys = p.stitcher.Stitch(kept)
		sum.Totals.Journeys = int64(len(journeys))
		return nil
	})
	metrics.RecordRow(p.job, "duplicates", sum.Totals.Duplicates)
	metrics.RecordRow(p.job, "journeys", sum.Totals.Journeys)
	logging.Debug().Int64("duplicates", sum.Totals.Duplicates).Int64("journeys", sum.Totals.Journeys).
		Msg("pipeline: stitched")
	byFile := rowsByFile(journeys)

	// 3) Purge + load, file by file.
	for _, fr := range ready {
		if ctx.Err() != nil {
			return canceled()
		}
		err := loadFile(ctx, p, repo, fr, byFile[fr.name])
		sum.Totals.Add(fr.finish(p))
		if err != nil {
			fail(fr, err)
		}
	}

	sum.Elapsed = time.Since(start)
	logging.Info().
		Int("files", sum.Files).
		Int("failed", sum.FailedFiles).
		Str("segments", humanize.Comma(sum.Totals.Segments)).
		Str("duplicates", humanize.Comma(sum.Totals.Duplicates)).
		Str("journeys", humanize.Comma(sum.Totals.Journeys)).
		Str("inserted", humanize.Comma(sum.Totals.Inserted)).
		Dur("elapsed", sum.Elapsed.Truncate(time.Millisecond)).
		Msg("pipeline: done")
	return sum, errors.Join(errs...)
}

// step runs fn and records its duration under name.
func (p *plan) step(name string, fn func() error) error {
	t := time.Now()
	err := fn()
	metrics.RecordStep(p.job, name, err, time.Since(t))
	return err
}
