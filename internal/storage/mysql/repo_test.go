package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"

	"tripetl/internal/storage"
)

func TestNormalizeDSN(t *testing.T) {
	got, err := NormalizeDSN("etl:secret@tcp(db:3306)/travel?charset=utf8mb4")
	if err != nil {
		t.Fatalf("NormalizeDSN: %v", err)
	}
	c, err := mysql.ParseDSN(got)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", got, err)
	}
	if !c.ParseTime || c.Loc.String() != "UTC" || c.DBName != "travel" || c.Addr != "db:3306" {
		t.Fatalf("normalized config = %+v", c)
	}
	if _, err := NormalizeDSN("no-slash"); err == nil {
		t.Fatal("expected error for malformed DSN")
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestDDLAndDelete(t *testing.T) {
	schema := []storage.Column{
		{Name: "journey_no", Type: storage.TypeInt},
		{Name: "departure_at", Type: storage.TypeTimestamp},
		{Name: "origin", Type: storage.TypeText, Nullable: true},
	}
	ddl, err := storage.BuildCreateTable("travel.journey_legs", schema, Backtick, MapType)
	if err != nil {
		t.Fatalf("BuildCreateTable: %v", err)
	}
	for _, want := range []string{"`travel`.`journey_legs`", "`journey_no` BIGINT NOT NULL", "`departure_at` DATETIME(6) NOT NULL", "`origin` VARCHAR(400)"} {
		if !strings.Contains(ddl, want) {
			t.Fatalf("DDL missing %q:\n%s", want, ddl)
		}
	}

	del, err := storage.BuildDelete("journey_legs", []string{"dataset", "source_file"}, Backtick, storage.QuestionMark)
	if err != nil {
		t.Fatalf("BuildDelete: %v", err)
	}
	if want := "DELETE FROM `journey_legs` WHERE `dataset` = ? AND `source_file` = ?"; del != want {
		t.Fatalf("delete = %q, want %q", del, want)
	}
}

func TestDescribe(t *testing.T) {
	err := describe(&mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"})
	if !strings.Contains(err.Error(), "error 1146") {
		t.Fatalf("describe = %v", err)
	}
	plain := errors.New("x")
	if describe(plain) != plain {
		t.Fatal("non-server errors must pass through")
	}
}

func TestRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		if cfg.Table != "legs" {
			t.Fatalf("cfg.Table = %q", cfg.Table)
		}
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u@/db", Table: "legs"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not reach closeFn")
	}
}
