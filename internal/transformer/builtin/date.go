package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDateLayouts are tried in order when a dataset does not list its own.
// Day-first layouts precede month-first ones.
var DefaultDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"02.01.2006 15:04",
	"02.01.2006",
	"01/02/2006",
}

// excelEpoch is day zero of the 1900 date system as spreadsheets count it
// (including the phantom 1900-02-29).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

// DateRule parses segment dates for one dataset.
type DateRule struct {
	Layouts []string
	// YearMin/YearMax bound the accepted calendar year; zero disables a bound.
	YearMin int
	YearMax int
	// Location for layouts without a zone. Nil means UTC.
	Location *time.Location
}

// Parse trims raw and returns the first successful layout match, falling
// back to a spreadsheet serial day number ("45123.5").
func (r DateRule) Parse(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	t, ok := r.parse(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	if y := t.Year(); (r.YearMin > 0 && y < r.YearMin) || (r.YearMax > 0 && y > r.YearMax) {
		return time.Time{}, fmt.Errorf("%w: %d not in [%d,%d]", ErrDateOutOfRange, y, r.YearMin, r.YearMax)
	}
	return t, nil
}

func (r DateRule) parse(s string) (time.Time, bool) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	layouts := r.Layouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t, true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 && f <= maxExcelSerial {
		return ExcelSerial(f, loc), true
	}
	return time.Time{}, false
}

// ExcelSerial converts a spreadsheet serial day number to a wall-clock time
// in loc (nil means UTC), rounding the fractional day to the nearest second.
// Serials carry no zone, so they are read the same way as zone-less text.
func ExcelSerial(f float64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	days := math.Floor(f)
	secs := math.Round((f - days) * 86400)
	w := excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), 0, loc)
}
