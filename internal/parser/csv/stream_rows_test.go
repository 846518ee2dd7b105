package csv

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"tripetl/internal/transformer"
)

// fakeRC implements io.ReadCloser over a byte slice and records Close.
type fakeRC struct {
	*bytes.Reader
	closed bool
}

func newFakeRC(s string) *fakeRC { return &fakeRC{Reader: bytes.NewReader([]byte(s))} }
func (f *fakeRC) Close() error   { f.closed = true; return nil }

func drain(ch chan *transformer.Row) []*transformer.Row {
	close(ch)
	var out []*transformer.Row
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestStreamRows_MapsHeaderAndTrims(t *testing.T) {
	t.Parallel()

	doc := "\uFEFFPax Name,S1FltNo,Extra,Airport 1\r\n" +
		" DOE/JOHN , AI 101 ,x,DEL\r\n" +
		",,,\r\n" +
		"ROE/JANE,,y,\r\n"
	src := newFakeRC(doc)
	out := make(chan *transformer.Row, 10)

	cols := []string{"pax name", "S1FltNo", "Airport 1", "Missing"}
	if err := StreamRows(context.Background(), src, cols, []string{"s1fltno"}, Options{}, out, nil); err != nil {
		t.Fatalf("StreamRows: %v", err)
	}
	rows := drain(out)
	if !src.closed {
		t.Fatal("source not closed")
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (blank line skipped)", len(rows))
	}
	r := rows[0]
	if r.Str(0) != "DOE/JOHN" || r.Str(1) != "AI 101" || r.Str(2) != "DEL" || r.V[3] != nil {
		t.Fatalf("row 1 = %#v", r.V)
	}
	if r.Line != 2 {
		t.Fatalf("line = %d, want 2", r.Line)
	}
	if rows[1].V[1] != nil || rows[1].Line != 4 {
		t.Fatalf("row 2 = %#v line %d", rows[1].V, rows[1].Line)
	}
}

func TestStreamRows_Semicolon(t *testing.T) {
	t.Parallel()

	out := make(chan *transformer.Row, 4)
	err := StreamRows(context.Background(), newFakeRC("A;B\n1;2\n"), []string{"B"}, nil, Options{Comma: ';'}, out, nil)
	if err != nil {
		t.Fatalf("StreamRows: %v", err)
	}
	rows := drain(out)
	if len(rows) != 1 || rows[0].Str(0) != "2" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestStreamRows_BadRecordSoftDrop(t *testing.T) {
	t.Parallel()

	doc := "A,B\n1,2\n\"bad,3\n"
	var lines []int
	out := make(chan *transformer.Row, 4)
	err := StreamRows(context.Background(), newFakeRC(doc), []string{"A"}, nil, Options{}, out,
		func(line int, err error) { lines = append(lines, line) })
	if err != nil {
		t.Fatalf("StreamRows: %v", err)
	}
	rows := drain(out)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if len(lines) != 1 || lines[0] != 3 {
		t.Fatalf("onErr lines = %v, want [3]", lines)
	}
}

func TestStreamRows_EmptyFile(t *testing.T) {
	t.Parallel()

	out := make(chan *transformer.Row, 1)
	err := StreamRows(context.Background(), newFakeRC(""), []string{"A"}, nil, Options{}, out, nil)
	if err == nil || !strings.Contains(err.Error(), "header") {
		t.Fatalf("want header error, got %v", err)
	}
}

func TestStreamRows_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan *transformer.Row) // unbuffered, never drained
	err := StreamRows(ctx, newFakeRC("A\n1\n2\n"), []string{"A"}, nil, Options{}, out, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestStreamRows_LineFollowsQuotedNewlines(t *testing.T) {
	t.Parallel()

	doc := "A,B\n\"multi\nline\",1\nz,2\n"
	out := make(chan *transformer.Row, 4)
	if err := StreamRows(context.Background(), newFakeRC(doc), []string{"A", "B"}, nil, Options{}, out, nil); err != nil {
		t.Fatalf("StreamRows: %v", err)
	}
	rows := drain(out)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Line != 2 || rows[1].Line != 4 {
		t.Fatalf("lines = %d, %d; want 2, 4", rows[0].Line, rows[1].Line)
	}
}

func TestStreamRows_MissingRequiredColumns(t *testing.T) {
	t.Parallel()

	src := newFakeRC("PNR,Pax,Flight1,Date1\nAB1,DOE,AI101,2024-03-01\n")
	out := make(chan *transformer.Row, 4)
	err := StreamRows(context.Background(), src, []string{"PNR", "Flt1", "Dep1"}, []string{"Flt1", "Dep1"}, Options{}, out, nil)

	var mc *transformer.MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("want MissingColumnsError, got %v", err)
	}
	if strings.Join(mc.Columns, ",") != "Flt1,Dep1" {
		t.Fatalf("missing = %v", mc.Columns)
	}
	if rows := drain(out); len(rows) != 0 {
		t.Fatalf("rows = %d, want none", len(rows))
	}
	if !src.closed {
		t.Fatal("source not closed")
	}
}
