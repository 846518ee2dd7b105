package transformer

import (
	"fmt"
	"strings"

	"tripetl/internal/config"
)

// Group holds the column positions (in Layout.Columns) of one segment group.
// -1 marks an unmapped column.
type Group struct {
	Index       int // 1-based
	Flight      int
	Departure   int
	Arrival     int
	Origin      int
	Destination int
}

// Layout is the compiled wide-row plan for a dataset: the header names a
// reader must extract and where each field lands.
type Layout struct {
	Columns []string

	PaxName    int
	BookingRef int
	TicketNo   int
	Airline    int

	Groups []Group
}

// NewLayout compiles the dataset column map. With an Airport pattern, group
// i flies from Airport(i) to Airport(i+1); explicit Origin/Destination
// patterns take precedence.
func NewLayout(ds config.Dataset) (Layout, error) {
	if ds.Segments <= 0 {
		return Layout{}, fmt.Errorf("layout: segments must be > 0")
	}
	c := ds.Columns
	if c.FlightNumber == "" || c.DepartureDate == "" {
		return Layout{}, fmt.Errorf("layout: flight_number and departure_date columns are required")
	}

	l := Layout{}
	index := map[string]int{}
	col := func(name string) int {
		if name == "" {
			return -1
		}
		key := HeaderKey(name)
		if i, ok := index[key]; ok {
			return i
		}
		index[key] = len(l.Columns)
		l.Columns = append(l.Columns, name)
		return index[key]
	}
	per := func(pattern string, i int) int {
		if pattern == "" {
			return -1
		}
		return col(fmt.Sprintf(pattern, i))
	}

	l.PaxName = col(c.PaxName)
	l.BookingRef = col(c.BookingRef)
	l.TicketNo = col(c.TicketNo)
	l.Airline = col(c.Airline)

	for i := 1; i <= ds.Segments; i++ {
		g := Group{
			Index:       i,
			Flight:      per(c.FlightNumber, i),
			Departure:   per(c.DepartureDate, i),
			Arrival:     per(c.ArrivalDate, i),
			Origin:      per(c.Origin, i),
			Destination: per(c.Destination, i),
		}
		if c.Airport != "" {
			if g.Origin < 0 {
				g.Origin = per(c.Airport, i)
			}
			if g.Destination < 0 {
				g.Destination = per(c.Airport, i+1)
			}
		}
		l.Groups = append(l.Groups, g)
	}
	return l, nil
}

// Required lists the header columns without which no leg can be read: the
// first group's flight number and departure date.
func (l Layout) Required() []string {
	g := l.Groups[0]
	return []string{l.Columns[g.Flight], l.Columns[g.Departure]}
}

// MissingColumnsError reports required columns absent from a header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "header lacks required columns: " + strings.Join(e.Columns, ", ")
}

// CheckRequired returns a *MissingColumnsError naming every required column
// that header does not carry.
func CheckRequired(required, header []string) error {
	if missing := Missing(required, HeaderIndex(required, header)); len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}

// HeaderKey canonicalizes a header for matching: BOM stripped, trimmed,
// inner whitespace collapsed, lower-cased.
func HeaderKey(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// HeaderIndex maps each layout column to its position in header, -1 when
// absent. The first occurrence of a duplicated header wins.
func HeaderIndex(columns, header []string) []int {
	src := make(map[string]int, len(header))
	for i, h := range header {
		k := HeaderKey(h)
		if _, dup := src[k]; !dup {
			src[k] = i
		}
	}
	out := make([]int, len(columns))
	for i, c := range columns {
		si, ok := src[HeaderKey(c)]
		if !ok {
			si = -1
		}
		out[i] = si
	}
	return out
}

// Missing lists the layout columns not found by HeaderIndex.
func Missing(columns []string, idx []int) []string {
	var out []string
	for i, si := range idx {
		if si < 0 {
			out = append(out, columns[i])
		}
	}
	return out
}
