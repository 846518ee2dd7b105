package builtin

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"tripetl/internal/trip"
)

// Per-segment key parts; the passenger key is always part of the key.
const (
	KeyFlight        = "flight"
	KeyDeparture     = "departure"
	KeyDepartureDate = "departure_date"
)

// DefaultDedupKeys dedups on (passenger, flight, departure instant).
var DefaultDedupKeys = []string{KeyFlight, KeyDeparture}

// DeDup collapses segments that share a passenger key and the configured
// per-segment parts. Policy is "keep-first" (default) or "keep-last".
// Survivors keep their input order, so Apply is idempotent.
type DeDup struct {
	Keys   []string
	Policy string
}

// ValidateDedupKeys rejects unknown key parts.
func ValidateDedupKeys(keys []string) error {
	for _, k := range keys {
		switch k {
		case KeyFlight, KeyDeparture, KeyDepartureDate:
		default:
			return fmt.Errorf("unknown dedup key %q (want %s|%s|%s)", k, KeyFlight, KeyDeparture, KeyDepartureDate)
		}
	}
	return nil
}

// Apply returns the surviving segments and the number dropped.
func (d DeDup) Apply(in []trip.Segment) ([]trip.Segment, int) {
	if len(in) == 0 {
		return in, 0
	}
	keys := d.Keys
	if len(keys) == 0 {
		keys = DefaultDedupKeys
	}
	keepLast := strings.EqualFold(strings.TrimSpace(d.Policy), "keep-last")

	winner := make(map[xxh3.Uint128]int, len(in))
	var b strings.Builder
	for i, s := range in {
		b.Reset()
		b.WriteString(s.PassengerKey)
		for _, k := range keys {
			b.WriteByte('\x1f')
			switch k {
			case KeyFlight:
				b.WriteString(s.FlightNumber)
			case KeyDeparture:
				b.WriteString(strconv.FormatInt(s.DepartureAt.UnixNano(), 10))
			case KeyDepartureDate:
				b.WriteString(s.DepartureAt.Format("2006-01-02"))
			}
		}
		h := xxh3.HashString128(b.String())
		if _, seen := winner[h]; seen && !keepLast {
			continue
		}
		winner[h] = i
	}

	if len(winner) == len(in) {
		return in, 0
	}
	idx := make([]int, 0, len(winner))
	for _, i := range winner {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]trip.Segment, len(idx))
	for j, i := range idx {
		out[j] = in[i]
	}
	return out, len(in) - len(out)
}
