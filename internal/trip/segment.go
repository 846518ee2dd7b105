// Package trip holds the flight-leg model and reconstructs passenger journeys
// from unordered legs.
package trip

import (
	"time"
)

// Segment is one normalized flight leg.
//
// ArrivalAt is the zero time when the source carries no arrival; gap
// calculations then fall back to DepartureAt.
type Segment struct {
	Dataset      string
	PassengerKey string

	BookingRef string
	PaxName    string
	TicketNo   string
	Airline    string

	FlightNumber string
	Origin       string
	Destination  string
	DepartureAt  time.Time
	ArrivalAt    time.Time

	SourceFile  string
	SourceSheet string
	Line        int   // 1-based source line (header is line 1)
	Index       int   // 1-based column group within the wide row
	Ordinal     int64 // global arrival order, used for tie-breaks
}

// End returns the instant the leg is considered finished: the arrival when it
// is known and not before departure, otherwise the departure.
func (s Segment) End() time.Time {
	if s.ArrivalAt.IsZero() || s.ArrivalAt.Before(s.DepartureAt) {
		return s.DepartureAt
	}
	return s.ArrivalAt
}

// less orders by departure, then arrival ordinal.
func less(a, b Segment) bool {
	if !a.DepartureAt.Equal(b.DepartureAt) {
		return a.DepartureAt.Before(b.DepartureAt)
	}
	return a.Ordinal < b.Ordinal
}
