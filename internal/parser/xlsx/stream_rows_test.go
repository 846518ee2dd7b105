package xlsx

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tripetl/internal/transformer"
)

// workbook builds an in-memory .xlsx with one sheet per entry.
func workbook(t *testing.T, sheets map[string][][]any, order []string) io.ReadCloser {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return io.NopCloser(bytes.NewReader(buf.Bytes()))
}

func collect(ch chan *transformer.Row) []*transformer.Row {
	close(ch)
	var out []*transformer.Row
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestStreamRows_AllSheets(t *testing.T) {
	src := workbook(t, map[string][][]any{
		"Jan":   {{"PaxName", "FltNo1"}, {"DOE/JOHN", "AI101"}, {nil, nil}, {"ROE/JANE", "6E202"}},
		"Notes": {{"comment"}, {"ignore me"}},
		"Feb":   {{}, {"FltNo1", "PaxName"}, {"UK303", "POE/ANN"}},
	}, []string{"Jan", "Notes", "Feb"})

	out := make(chan *transformer.Row, 16)
	require.NoError(t, StreamRows(context.Background(), src, []string{"PaxName", "FltNo1"}, []string{"FltNo1"}, out, nil))
	rows := collect(out)

	require.Len(t, rows, 3)
	assert.Equal(t, "Jan", rows[0].Sheet)
	assert.Equal(t, "DOE/JOHN", rows[0].Str(0))
	assert.Equal(t, "AI101", rows[0].Str(1))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)

	assert.Equal(t, "Feb", rows[2].Sheet)
	assert.Equal(t, "POE/ANN", rows[2].Str(0))
	assert.Equal(t, "UK303", rows[2].Str(1))
}

func TestStreamRows_NotAWorkbook(t *testing.T) {
	out := make(chan *transformer.Row, 1)
	err := StreamRows(context.Background(), io.NopCloser(bytes.NewReader([]byte("a,b\n"))), []string{"a"}, nil, out, nil)
	assert.Error(t, err)
}

func TestStreamRows_SkipsSheetWithoutRequiredColumns(t *testing.T) {
	src := workbook(t, map[string][][]any{
		"Old": {{"PaxName", "Flight1"}, {"DOE/JOHN", "AI101"}},
		"New": {{"PaxName", "FltNo1"}, {"ROE/JANE", "6E202"}},
	}, []string{"Old", "New"})

	out := make(chan *transformer.Row, 4)
	require.NoError(t, StreamRows(context.Background(), src, []string{"PaxName", "FltNo1"}, []string{"FltNo1"}, out, nil))
	rows := collect(out)
	require.Len(t, rows, 1)
	assert.Equal(t, "New", rows[0].Sheet)
}

func TestStreamRows_NoUsableSheet(t *testing.T) {
	src := workbook(t, map[string][][]any{
		"Jan": {{"PaxName", "Flight1"}, {"DOE/JOHN", "AI101"}},
	}, []string{"Jan"})

	out := make(chan *transformer.Row, 4)
	err := StreamRows(context.Background(), src, []string{"PaxName", "FltNo1"}, []string{"FltNo1"}, out, nil)
	var mc *transformer.MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, []string{"FltNo1"}, mc.Columns)
	assert.Empty(t, collect(out))
}
