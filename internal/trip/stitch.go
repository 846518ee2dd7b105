package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Mode selects where the stopover gap is measured from.
type Mode string

const (
	// ModeGap measures from the end of the previous leg.
	ModeGap Mode = "gap"
	// ModeSpan measures from the first departure of the current journey, so a
	// journey never spans more than the threshold.
	ModeSpan Mode = "span"
)

// ParseMode accepts "gap" (default when empty) or "span".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeGap:
		return ModeGap, nil
	case ModeSpan:
		return ModeSpan, nil
	default:
		return "", fmt.Errorf("unknown stitch mode %q (want gap|span)", s)
	}
}

// Stitcher groups legs into journeys.
type Stitcher struct {
	// Threshold is the largest stopover that still continues a journey.
	Threshold time.Duration
	Mode      Mode
	// SplitRoundTrips turns a two-leg A→B, B→A journey into an OUTBOUND and
	// an INBOUND one-leg journey.
	SplitRoundTrips bool
}

// Stitch partitions segs by PassengerKey and splits every key's legs into
// journeys. Keys are emitted in order of first appearance; each key's
// journeys are numbered from 1 in time order. The input slice is not
// modified.
func (st Stitcher) Stitch(segs []Segment) []Journey {
	if len(segs) == 0 {
		return nil
	}

	order := make([]string, 0)
	byKey := make(map[string][]Segment)
	for _, s := range segs {
		if _, ok := byKey[s.PassengerKey]; !ok {
			order = append(order, s.PassengerKey)
		}
		byKey[s.PassengerKey] = append(byKey[s.PassengerKey], s)
	}

	out := make([]Journey, 0, len(order))
	for _, key := range order {
		out = append(out, st.StitchKey(key, byKey[key])...)
	}
	return out
}

// StitchKey stitches the legs of a single passenger key.
func (st Stitcher) StitchKey(key string, segs []Segment) []Journey {
	if len(segs) == 0 {
		return nil
	}
	sorted := make([]Segment, len(segs))
	copy(sorted, segs)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	var (
		groups [][]Segment
		cur    []Segment
	)
	for _, s := range sorted {
		if len(cur) > 0 && st.breaks(cur, s) {
			groups = append(groups, cur)
			cur = nil
		}
		cur = append(cur, s)
	}
	groups = append(groups, cur)

	dataset := sorted[0].Dataset
	journeys := make([]Journey, 0, len(groups))
	for _, g := range groups {
		if st.SplitRoundTrips && isRoundTrip(g) {
			journeys = append(journeys,
				Journey{Dataset: dataset, PassengerKey: key, Bucket: BucketOutbound, Segments: g[:1]},
				Journey{Dataset: dataset, PassengerKey: key, Bucket: BucketInbound, Segments: g[1:]},
			)
			continue
		}
		journeys = append(journeys, Journey{Dataset: dataset, PassengerKey: key, Segments: g})
	}
	for i := range journeys {
		journeys[i].No = i + 1
		journeys[i].ID = JourneyID(dataset, key, i+1)
	}
	return journeys
}

// breaks reports whether next starts a new journey after cur.
func (st Stitcher) breaks(cur []Segment, next Segment) bool {
	var from time.Time
	if st.Mode == ModeSpan {
		from = cur[0].DepartureAt
	} else {
		from = cur[len(cur)-1].End()
	}
	return next.DepartureAt.Sub(from) > st.Threshold
}

func isRoundTrip(g []Segment) bool {
	if len(g) != 2 {
		return false
	}
	a, b := g[0], g[1]
	if a.Origin == "" || a.Destination == "" || a.Origin == a.Destination {
		return false
	}
	return a.Origin == b.Destination && a.Destination == b.Origin
}
