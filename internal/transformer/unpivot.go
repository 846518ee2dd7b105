package transformer

import "strings"

// RawSegment is one non-empty column group of a wide row, still unparsed.
type RawSegment struct {
	Index       int
	Flight      string
	Departure   string
	Arrival     string
	Origin      string
	Destination string
}

// Unpivot emits one RawSegment per group whose flight cell is non-empty after
// trimming, preserving the group index. K non-empty groups yield exactly K
// segments.
func Unpivot(r *Row, l Layout) []RawSegment {
	out := make([]RawSegment, 0, len(l.Groups))
	for _, g := range l.Groups {
		flight := strings.TrimSpace(r.Str(g.Flight))
		if flight == "" {
			continue
		}
		out = append(out, RawSegment{
			Index:       g.Index,
			Flight:      flight,
			Departure:   strings.TrimSpace(r.Str(g.Departure)),
			Arrival:     strings.TrimSpace(r.Str(g.Arrival)),
			Origin:      strings.TrimSpace(r.Str(g.Origin)),
			Destination: strings.TrimSpace(r.Str(g.Destination)),
		})
	}
	return out
}
