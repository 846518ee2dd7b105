package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tripetl/internal/storage"
)

func TestSplitFQN(t *testing.T) {
	t.Parallel()

	cases := map[string]pgx.Identifier{
		"legs":             {"legs"},
		"public.legs":      {"public", "legs"},
		"public..legs":     {"public", "legs"},
		"analytics.j.legs": {"analytics", "j", "legs"},
	}
	for in, want := range cases {
		if got := splitFQN(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("splitFQN(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDDL_UsesPostgresTypes(t *testing.T) {
	t.Parallel()

	stmt, err := storage.BuildCreateTable("public.legs", []storage.Column{
		{Name: "journey_no", Type: storage.TypeInt},
		{Name: "departure_at", Type: storage.TypeTimestamp},
		{Name: "origin", Type: storage.TypeText, Nullable: true},
	}, pgIdent, MapType)
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	for _, want := range []string{`"public"."legs"`, `"journey_no" bigint NOT NULL`, `"departure_at" timestamptz NOT NULL`, `"origin" text`} {
		if !strings.Contains(stmt, want) {
			t.Fatalf("statement %q missing %q", stmt, want)
		}
	}
}

func TestDescribe_IncludesDetail(t *testing.T) {
	t.Parallel()

	base := &pgconn.PgError{Code: "23502", Detail: "Failing row contains (null)."}
	err := describe("copy", base)
	if !errors.Is(err, base) {
		t.Fatalf("describe must wrap the original error")
	}
	if !strings.Contains(err.Error(), "Failing row") || !strings.Contains(err.Error(), "23502") {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		got = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind: "postgres", DSN: "postgres://x", Table: "public.legs", Columns: []string{"a"},
	})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if got.DSN != "postgres://x" || got.Table != "public.legs" {
		t.Fatalf("hook cfg = %+v", got)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close not delegated")
	}
}
