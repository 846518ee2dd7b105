package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListInputs returns the regular files directly under dir whose extension
// matches one of exts (case-insensitive, leading dot optional), sorted by
// name. Hidden files and spreadsheet lock files ("~$report.xlsx") are skipped.
func ListInputs(dir string, exts []string) ([]*Local, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, de := range entries {
		name := de.Name()
		if !de.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if want[strings.ToLower(filepath.Ext(name))] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*Local, len(names))
	for i, n := range names {
		out[i] = NewLocal(filepath.Join(dir, n))
	}
	return out, nil
}
