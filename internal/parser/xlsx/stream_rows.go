// Package xlsx streams every sheet of an .xlsx workbook into pooled
// transformer rows, the same way the csv package does for flat files.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"tripetl/internal/logging"
	"tripetl/internal/transformer"
)

// StreamRows reads each sheet in workbook order. The first non-blank row of a
// sheet is its header; sheets whose header lacks any of required are skipped,
// and a workbook with no such sheet fails with a
// *transformer.MissingColumnsError. Cell values are read raw, so date cells
// arrive as serial day numbers rather than locale-formatted text.
func StreamRows(
	ctx context.Context,
	src io.ReadCloser,
	columns []string,
	required []string,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) error {
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	matched := 0
	for _, sheet := range f.GetSheetList() {
		ok, err := streamSheet(ctx, f, sheet, columns, required, out, onErr)
		if err != nil {
			return err
		}
		if ok {
			matched++
		}
	}
	if matched == 0 {
		return fmt.Errorf("workbook has no usable sheet: %w", &transformer.MissingColumnsError{Columns: required})
	}
	return nil
}

func streamSheet(
	ctx context.Context,
	f *excelize.File,
	sheet string,
	columns []string,
	required []string,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) (bool, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return false, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var (
		colIx   []int
		line    int
		emitted int
	)
	for rows.Next() {
		line++
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}

		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("sheet %q: %w", sheet, err))
			}
			continue
		}
		if blank(cells) {
			continue
		}

		if colIx == nil {
			if err := transformer.CheckRequired(required, cells); err != nil {
				logging.Info().Str("sheet", sheet).Err(err).Msg("reader: sheet skipped")
				return false, nil
			}
			colIx = transformer.HeaderIndex(columns, cells)
			if missing := transformer.Missing(columns, colIx); len(missing) > 0 {
				logging.Debug().Str("sheet", sheet).Strs("columns", missing).Msg("reader: columns not in header")
			}
			continue
		}

		row := transformer.GetRow(len(columns))
		row.Line = line
		row.Sheet = sheet
		for t, si := range colIx {
			if si < 0 || si >= len(cells) {
				continue
			}
			if v := strings.TrimSpace(cells[si]); v != "" {
				row.V[t] = v
			}
		}

		select {
		case out <- row:
			emitted++
		case <-ctx.Done():
			row.Free()
			return false, ctx.Err()
		}
	}
	if err := rows.Error(); err != nil {
		return false, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if colIx == nil {
		logging.Info().Str("sheet", sheet).Msg("reader: empty sheet skipped")
		return false, nil
	}
	logging.Debug().Str("sheet", sheet).Int("emitted", emitted).Msg("reader: sheet done")
	return true, nil
}

func blank(cells []string) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
