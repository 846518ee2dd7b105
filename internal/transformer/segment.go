package transformer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tripetl/internal/config"
	"tripetl/internal/transformer/builtin"
	"tripetl/internal/trip"
)

// Drop describes a skipped leg (Index > 0) or a whole skipped row (Index 0).
type Drop struct {
	Line   int
	Sheet  string
	Index  int
	Reason string
	Err    error
}

// Segmenter unpivots and normalizes wide rows into legs for one dataset.
// SourceFile may be switched between files; ordinals keep increasing so legs
// from a whole run order stably. It is not safe for concurrent use.
type Segmenter struct {
	Dataset    string
	SourceFile string
	Layout     Layout
	Dates      builtin.DateRule
	GroupBy    []string

	ordinal int64
}

// NewSegmenter compiles the dataset rules.
func NewSegmenter(name string, ds config.Dataset, sourceFile string) (*Segmenter, error) {
	l, err := NewLayout(ds)
	if err != nil {
		return nil, err
	}
	loc, err := ds.Location()
	if err != nil {
		return nil, fmt.Errorf("dataset %s: timezone: %w", name, err)
	}
	groupBy := ds.GroupBy
	if len(groupBy) == 0 {
		groupBy = []string{config.GroupBooking, config.GroupPax}
	}
	return &Segmenter{
		Dataset:    name,
		SourceFile: sourceFile,
		Layout:     l,
		Dates:      builtin.DateRule{Layouts: ds.DateLayouts, YearMin: ds.YearMin, YearMax: ds.YearMax, Location: loc},
		GroupBy:    groupBy,
	}, nil
}

// Segments returns the valid legs of r. Invalid legs are reported through
// onDrop (may be nil) and skipped; a corrupt flight cell drops the whole row.
func (s *Segmenter) Segments(r *Row, onDrop func(Drop)) []trip.Segment {
	drop := func(d Drop) {
		if onDrop != nil {
			d.Line, d.Sheet = r.Line, r.Sheet
			onDrop(d)
		}
	}

	raws := Unpivot(r, s.Layout)
	for _, rs := range raws {
		if builtin.IsCorruptFlight(rs.Flight) {
			err := fmt.Errorf("group %d: %w: %q", rs.Index, builtin.ErrCorruptFlight, rs.Flight)
			drop(Drop{Reason: builtin.Reason(err), Err: err})
			return nil
		}
	}
	if len(raws) == 0 {
		return nil
	}

	booking := builtin.NormalizeCode(r.Str(s.Layout.BookingRef))
	pax := builtin.NormalizePaxName(r.Str(s.Layout.PaxName))
	ticket := builtin.NormalizeCode(r.Str(s.Layout.TicketNo))
	key := s.passengerKey(r, booking, pax, ticket)
	airline := strings.TrimSpace(r.Str(s.Layout.Airline))

	out := make([]trip.Segment, 0, len(raws))
	for _, rs := range raws {
		flight, err := builtin.NormalizeFlightNumber(rs.Flight)
		if err != nil {
			drop(Drop{Index: rs.Index, Reason: builtin.Reason(err), Err: err})
			continue
		}
		dep, err := s.Dates.Parse(rs.Departure)
		if err != nil {
			drop(Drop{Index: rs.Index, Reason: builtin.Reason(err), Err: err})
			continue
		}
		// An unparsable arrival is treated as unknown, not as a drop.
		var arr time.Time
		if rs.Arrival != "" {
			if a, err := s.Dates.Parse(rs.Arrival); err == nil {
				arr = a
			}
		}
		s.ordinal++
		out = append(out, trip.Segment{
			Dataset:      s.Dataset,
			PassengerKey: key,
			BookingRef:   booking,
			PaxName:      pax,
			TicketNo:     ticket,
			Airline:      airline,
			FlightNumber: flight,
			Origin:       builtin.NormalizeCode(rs.Origin),
			Destination:  builtin.NormalizeCode(rs.Destination),
			DepartureAt:  dep,
			ArrivalAt:    arr,
			SourceFile:   s.SourceFile,
			SourceSheet:  r.Sheet,
			Line:         r.Line,
			Index:        rs.Index,
			Ordinal:      s.ordinal,
		})
	}
	return out
}

func (s *Segmenter) passengerKey(r *Row, booking, pax, ticket string) string {
	parts := make([]string, 0, len(s.GroupBy))
	empty := true
	for _, g := range s.GroupBy {
		var v string
		switch g {
		case config.GroupBooking:
			v = booking
		case config.GroupPax:
			v = pax
		case config.GroupTicket:
			v = ticket
		case config.GroupRow:
			v = s.rowKey(r)
		}
		if v != "" {
			empty = false
		}
		parts = append(parts, v)
	}
	if empty {
		return s.rowKey(r)
	}
	return strings.Join(parts, "|")
}

func (s *Segmenter) rowKey(r *Row) string {
	k := s.SourceFile
	if r.Sheet != "" {
		k += "#" + r.Sheet
	}
	return k + ":" + strconv.Itoa(r.Line)
}
