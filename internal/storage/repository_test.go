package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
)

// fakeRepo records what the registry and the DDL bootstrap hand it.
type fakeRepo struct {
	cfg     Config
	execs   []string
	execErr error
	closed  bool
}

func (f *fakeRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}

func (f *fakeRepo) DeleteWhere(context.Context, []string, []any) (int64, error) { return 0, nil }

func (f *fakeRepo) Exec(_ context.Context, sql string) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Close() { f.closed = true }

func fakeType(logical string) string {
	switch logical {
	case TypeInt:
		return "BIGINT"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// registerFake wires kind the way a backend's init does: a factory that
// keeps the Config it was opened with, plus a DDL bootstrapper.
func registerFake(kind string, repo *fakeRepo, openErr error) {
	Register(kind, func(_ context.Context, cfg Config) (Repository, error) {
		if openErr != nil {
			return nil, openErr
		}
		repo.cfg = cfg
		return repo, nil
	})
	RegisterDDL(kind, SimpleDDL(DoubleQuote, fakeType))
}

var legSchema = []Column{
	{Name: "dataset", Type: TypeText},
	{Name: "journey_no", Type: TypeInt},
	{Name: "departure_at", Type: TypeTimestamp},
	{Name: "arrival_at", Type: TypeTimestamp, Nullable: true},
}

func TestRegister_NewThenEnsureTable(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	registerFake("fake-legs", repo, nil)
	cfg := Config{
		Kind:       "fake-legs",
		Table:      "analytics.journey_legs",
		Columns:    []string{"dataset", "journey_no", "departure_at", "arrival_at"},
		KeyColumns: []string{"dataset", "source_file"},
		Schema:     legSchema,
	}

	got, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got != Repository(repo) {
		t.Fatalf("New returned %T, want the registered repo", got)
	}
	if repo.cfg.Table != cfg.Table || strings.Join(repo.cfg.KeyColumns, ",") != "dataset,source_file" {
		t.Fatalf("factory saw cfg %+v", repo.cfg)
	}

	if err := EnsureTable(context.Background(), cfg, got); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"analytics\".\"journey_legs\" (\n" +
		"  \"dataset\" TEXT NOT NULL,\n" +
		"  \"journey_no\" BIGINT NOT NULL,\n" +
		"  \"departure_at\" TIMESTAMP NOT NULL,\n" +
		"  \"arrival_at\" TIMESTAMP\n)"
	if len(repo.execs) != 1 || repo.execs[0] != want {
		t.Fatalf("DDL = %q, want %q", repo.execs, want)
	}
}

func TestEnsureTable_Failures(t *testing.T) {
	t.Parallel()

	denied := errors.New("permission denied")
	readonly := &fakeRepo{execErr: denied}
	registerFake("fake-readonly", readonly, nil)

	err := EnsureTable(context.Background(), Config{Kind: "fake-readonly", Table: "legs", Schema: legSchema}, readonly)
	if !errors.Is(err, denied) || !strings.Contains(err.Error(), "apply DDL") {
		t.Fatalf("exec failure: got %v", err)
	}

	noTable := &fakeRepo{}
	registerFake("fake-notable", noTable, nil)
	err = EnsureTable(context.Background(), Config{Kind: "fake-notable", Schema: legSchema}, noTable)
	if err == nil || !strings.Contains(err.Error(), "table must not be empty") {
		t.Fatalf("empty table: got %v", err)
	}
	if len(noTable.execs) != 0 {
		t.Fatalf("nothing should be executed, got %v", noTable.execs)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	down := errors.New("dial tcp 127.0.0.1:5432: connection refused")
	registerFake("fake-down", &fakeRepo{}, down)

	cases := []struct {
		kind string
		want string
		is   error
	}{
		{kind: "oracle", want: "unsupported storage.kind=oracle"},
		{kind: "fake-down", is: down},
	}
	for _, tc := range cases {
		repo, err := New(context.Background(), Config{Kind: tc.kind})
		if repo != nil || err == nil {
			t.Fatalf("%s: want error, got repo=%v", tc.kind, repo)
		}
		if tc.want != "" && err.Error() != tc.want {
			t.Fatalf("%s: error = %q, want %q", tc.kind, err, tc.want)
		}
		if tc.is != nil && !errors.Is(err, tc.is) {
			t.Fatalf("%s: error = %v, want %v", tc.kind, err, tc.is)
		}
	}
}

func TestListKinds_SortedSnapshot(t *testing.T) {
	t.Parallel()

	registerFake("zz-fake", &fakeRepo{}, nil)
	registerFake("aa-fake", &fakeRepo{}, nil)

	kinds := ListKinds()
	if !sort.StringsAreSorted(kinds) {
		t.Fatalf("ListKinds not sorted: %v", kinds)
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		seen[k] = true
	}
	if !seen["aa-fake"] || !seen["zz-fake"] {
		t.Fatalf("registered kinds missing from %v", kinds)
	}

	kinds[0] = "mutated"
	if ListKinds()[0] == "mutated" {
		t.Fatal("ListKinds must return a copy")
	}
}
