package file

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestListInputs_FiltersAndSorts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, n := range []string{"b.csv", "A.XLSX", "notes.txt", ".hidden.csv", "~$lock.xlsx", "c.Csv"} {
		touch(t, dir, n)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	got, err := ListInputs(dir, []string{".csv", "xlsx"})
	if err != nil {
		t.Fatalf("ListInputs error: %v", err)
	}
	var names []string
	for _, l := range got {
		names = append(names, l.Name())
	}
	want := []string{"A.XLSX", "b.csv", "c.Csv"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("ListInputs = %#v, want %#v", names, want)
	}
	if got[1].Path() != filepath.Join(dir, "b.csv") {
		t.Fatalf("Path = %q", got[1].Path())
	}
}

func TestListInputs_MissingDir(t *testing.T) {
	t.Parallel()

	if _, err := ListInputs(filepath.Join(t.TempDir(), "nope"), []string{".csv"}); err == nil {
		t.Fatal("expected error for missing dir, got nil")
	}
}

func TestListInputs_NoExtensions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "a.csv")
	got, err := ListInputs(dir, nil)
	if err != nil {
		t.Fatalf("ListInputs error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no inputs, got %d", len(got))
	}
}
