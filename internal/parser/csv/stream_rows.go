// Package csv streams wide CSV exports into pooled transformer rows.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tripetl/internal/logging"
	"tripetl/internal/transformer"
)

// Options tune the reader.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// LazyQuotes tolerates stray quotes inside unquoted fields.
	LazyQuotes bool
}

// logEveryN controls the reader heartbeat.
const logEveryN = 50_000

// StreamRows reads the header, maps it onto columns (case- and
// whitespace-insensitive, BOM stripped) and emits one pooled Row per record
// with V[i] holding the trimmed cell text or nil. Row.Line is the physical
// line the record starts on.
//
// A header that cannot be read or lacks any of required is fatal for the
// file. Malformed records are reported via onErr(line, err) and skipped.
// Other columns absent from the header stay nil and are logged once.
func StreamRows(
	ctx context.Context,
	src io.ReadCloser,
	columns []string,
	required []string,
	opt Options,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) error {
	defer src.Close()

	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // tolerant: short and long rows are common in exports

	line := 0
	read := func() ([]string, error) {
		rec, err := cr.Read()
		var pe *csv.ParseError
		switch {
		case err == nil:
			line, _ = cr.FieldPos(0)
		case errors.As(err, &pe):
			line = pe.StartLine
		}
		return rec, err
	}

	hdr, err := read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("read header: empty file")
		}
		return fmt.Errorf("read header: %w", err)
	}
	if err := transformer.CheckRequired(required, hdr); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	colIx := transformer.HeaderIndex(columns, hdr)
	if missing := transformer.Missing(columns, colIx); len(missing) > 0 {
		logging.Debug().Strs("columns", missing).Msg("reader: columns not in header")
	}

	emitted := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}
		if blank(rec) {
			continue
		}

		row := transformer.GetRow(len(columns))
		row.Line = line
		for t, si := range colIx {
			if si < 0 || si >= len(rec) {
				continue
			}
			if v := strings.TrimSpace(rec[si]); v != "" {
				row.V[t] = v
			}
		}

		select {
		case out <- row:
			emitted++
			if emitted%logEveryN == 0 {
				logging.Info().Int("line", line).Int("emitted", emitted).Msg("reader: progress")
			}
		case <-ctx.Done():
			row.Free()
			return ctx.Err()
		}
	}
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
