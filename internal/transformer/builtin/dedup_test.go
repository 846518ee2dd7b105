package builtin

import (
	"testing"
	"time"

	"tripetl/internal/trip"
)

var dep = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func seg(key, flight string, at time.Time, ord int64) trip.Segment {
	return trip.Segment{PassengerKey: key, FlightNumber: flight, DepartureAt: at, Ordinal: ord}
}

func ordinals(ss []trip.Segment) []int64 {
	out := make([]int64, len(ss))
	for i, s := range ss {
		out[i] = s.Ordinal
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDeDup_KeepFirst(t *testing.T) {
	t.Parallel()

	in := []trip.Segment{
		seg("k1", "AI1", dep, 1),
		seg("k1", "AI1", dep, 2),
		seg("k2", "AI1", dep, 3),
		seg("k1", "AI1", dep.Add(time.Hour), 4),
		seg("k1", "AI2", dep, 5),
	}
	out, dropped := DeDup{}.Apply(in)
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if got, want := ordinals(out), []int64{1, 3, 4, 5}; !equalInts(got, want) {
		t.Fatalf("survivors = %v, want %v", got, want)
	}
}

func TestDeDup_KeepLast(t *testing.T) {
	t.Parallel()

	in := []trip.Segment{seg("k", "AI1", dep, 1), seg("k", "AI2", dep.Add(time.Hour), 2), seg("k", "AI1", dep, 3)}
	out, _ := DeDup{Policy: "keep-last"}.Apply(in)
	if got, want := ordinals(out), []int64{2, 3}; !equalInts(got, want) {
		t.Fatalf("survivors = %v, want %v", got, want)
	}
}

func TestDeDup_KeyVariants(t *testing.T) {
	t.Parallel()

	in := []trip.Segment{
		seg("k", "AI1", dep, 1),
		seg("k", "AI1", dep.Add(3*time.Hour), 2), // same day
		seg("k", "AI9", dep, 3),                   // same instant, other flight
	}
	out, _ := DeDup{Keys: []string{KeyFlight, KeyDepartureDate}}.Apply(in)
	if got, want := ordinals(out), []int64{1, 3}; !equalInts(got, want) {
		t.Fatalf("flight+date survivors = %v, want %v", got, want)
	}
	out, _ = DeDup{Keys: []string{KeyDeparture}}.Apply(in)
	if got, want := ordinals(out), []int64{1, 2}; !equalInts(got, want) {
		t.Fatalf("departure survivors = %v, want %v", got, want)
	}
}

func TestDeDup_Idempotent(t *testing.T) {
	t.Parallel()

	var in []trip.Segment
	for i := 0; i < 200; i++ {
		in = append(in, seg([]string{"a", "b"}[i%2], []string{"X1", "X2", "X3"}[i%3], dep.Add(time.Duration(i%7)*time.Hour), int64(i)))
	}
	for _, keys := range [][]string{nil, {KeyDeparture}, {KeyFlight, KeyDepartureDate}} {
		d := DeDup{Keys: keys}
		once, _ := d.Apply(in)
		twice, dropped := d.Apply(once)
		if dropped != 0 || !equalInts(ordinals(once), ordinals(twice)) {
			t.Fatalf("keys %v: Dedup not idempotent (%d vs %d)", keys, len(once), len(twice))
		}
	}
}

func TestValidateDedupKeys(t *testing.T) {
	t.Parallel()

	if err := ValidateDedupKeys([]string{KeyFlight, KeyDepartureDate}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := ValidateDedupKeys([]string{"pnr"}); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
