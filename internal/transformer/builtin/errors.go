// Package builtin contains the segment-level cleaning steps: flight number,
// date and passenger-name normalization, and de-duplication.
package builtin

import "errors"

// Drop reasons. A Normalize* error means the segment (or for ErrCorruptFlight
// the whole wide row) is skipped and counted; it never aborts a batch.
var (
	ErrEmptyFlight       = errors.New("empty flight number")
	ErrCorruptFlight     = errors.New("corrupt flight number")
	ErrPlaceholderFlight = errors.New("placeholder flight number")
	ErrInvalidFlight     = errors.New("invalid flight number")
	ErrMissingDate       = errors.New("missing date")
	ErrBadDate           = errors.New("unparsable date")
	ErrDateOutOfRange    = errors.New("date out of range")
)

// Reason maps a drop error to the counter label used in run summaries.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyFlight):
		return "empty_flight_number"
	case errors.Is(err, ErrCorruptFlight):
		return "corrupt_flight_number"
	case errors.Is(err, ErrPlaceholderFlight):
		return "placeholder_flight_number"
	case errors.Is(err, ErrInvalidFlight):
		return "invalid_flight_number"
	case errors.Is(err, ErrMissingDate):
		return "missing_date"
	case errors.Is(err, ErrBadDate):
		return "bad_date"
	case errors.Is(err, ErrDateOutOfRange):
		return "date_out_of_range"
	default:
		return "other"
	}
}
