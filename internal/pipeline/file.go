package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"tripetl/internal/datasource"
	"tripetl/internal/logging"
	"tripetl/internal/metrics"
	csvparser "tripetl/internal/parser/csv"
	xlsxparser "tripetl/internal/parser/xlsx"
	"tripetl/internal/storage"
	"tripetl/internal/transformer"
	"tripetl/internal/trip"
)

// readFn streams one opened input into pooled rows.
type readFn func(ctx context.Context, src io.ReadCloser, columns, required []string, out chan<- *transformer.Row, onErr func(int, error)) error

var (
	streamCSVFn  = csvparser.StreamRows
	streamXLSXFn = xlsxparser.StreamRows
)

func (p *plan) reader(name string) (readFn, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		opt := csvparser.Options{Comma: p.comma, LazyQuotes: true}
		return func(ctx context.Context, src io.ReadCloser, cols, req []string, out chan<- *transformer.Row, onErr func(int, error)) error {
			return streamCSVFn(ctx, src, cols, req, opt, out, onErr)
		}, nil
	case ".xlsx", ".xlsm":
		return streamXLSXFn, nil
	default:
		return nil, fmt.Errorf("unsupported input type %q", filepath.Ext(name))
	}
}

// fileRun carries the counters of one input through the run.
type fileRun struct {
	src      datasource.Source
	name     string
	c        counters
	parseAgg *errAgg
	dropAgg  *errAgg
}

func newFileRun(p *plan, src datasource.Source) *fileRun {
	return &fileRun{
		src:      src,
		name:     src.Name(),
		parseAgg: newErrAgg(p.samples),
		dropAgg:  newErrAgg(p.samples),
	}
}

// readFile streams the file through the segmenter and returns its valid legs.
// Nothing is written to the store.
func readFile(ctx context.Context, p *plan, seg *transformer.Segmenter, fr *fileRun) ([]trip.Segment, error) {
	logging.Info().Str("file", fr.name).Msg("file: start")

	read, err := p.reader(fr.name)
	if err != nil {
		return nil, err
	}
	seg.SourceFile = fr.name

	var legs []trip.Segment
	err = p.step("read", func() error {
		rc, err := fr.src.Open(ctx)
		if err != nil {
			return err
		}
		rows := make(chan *transformer.Row, p.buffer)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(rows)
			return read(gctx, rc, seg.Layout.Columns, seg.Layout.Required(), rows, func(line int, err error) {
				fr.c.parseErrors.Add(1)
				fr.parseAgg.add(fmt.Sprintf("line=%d: %v", line, err))
			})
		})
		g.Go(func() error {
			onDrop := func(d transformer.Drop) {
				fr.c.drop(d.Reason)
				where := fmt.Sprintf("line=%d group=%d", d.Line, d.Index)
				if d.Sheet != "" {
					where = "sheet=" + d.Sheet + " " + where
				}
				fr.dropAgg.add(where + ": " + d.Err.Error())
			}
			for r := range rows {
				fr.c.rows.Add(1)
				legs = append(legs, seg.Segments(r, onDrop)...)
				r.Free()
			}
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}
	fr.c.segments.Store(int64(len(legs)))
	return legs, nil
}

// loadFile replaces the rows a previous run loaded for the file with rows.
// Batches committed before a failure stay in place.
func loadFile(ctx context.Context, p *plan, repo storage.Repository, fr *fileRun, rows [][]any) error {
	err := p.step("purge", func() error {
		n, err := repo.DeleteWhere(ctx, trip.PurgeColumns, []any{p.dataset, fr.name})
		fr.c.purged.Store(n)
		return err
	})
	if err != nil {
		return fmt.Errorf("purge: %w", err)
	}

	err = p.step("load", func() error {
		out := make(chan []any, p.buffer)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			defer close(out)
			for _, row := range rows {
				select {
				case out <- row:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
		g.Go(func() error {
			copyFn := func(ctx context.Context, cols []string, rows [][]any) (int64, error) {
				n, err := repo.CopyFrom(ctx, cols, rows)
				if err == nil {
					fr.c.batches.Add(1)
				}
				return n, err
			}
			n, err := storage.LoadBatches(gctx, trip.Columns(), out, p.batchSize, copyFn)
			fr.c.inserted.Store(n)
			return err
		})
		return g.Wait()
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// finish logs the file's aggregates and summary and records its metrics.
func (fr *fileRun) finish(p *plan) Stats {
	st := fr.c.snapshot()
	fr.parseAgg.log("parse errors")
	fr.dropAgg.log("dropped legs")
	logFileSummary(fr.name, st)
	metrics.RecordRow(p.job, "rows", st.Rows)
	metrics.RecordRow(p.job, "parse_errors", st.ParseErrors)
	metrics.RecordRow(p.job, "segments", st.Segments)
	metrics.RecordRow(p.job, "inserted", st.Inserted)
	metrics.RecordBatches(p.job, st.Batches)
	for reason, n := range st.Drops {
		metrics.RecordDrop(p.job, reason, n)
	}
	return st
}

// rowsByFile splits journey rows by the file each leg was read from, keeping
// journey order within a file.
func rowsByFile(journeys []trip.Journey) map[string][][]any {
	out := make(map[string][][]any)
	for _, j := range journeys {
		for i, row := range j.Rows() {
			f := j.Segments[i].SourceFile
			out[f] = append(out[f], row)
		}
	}
	return out
}
