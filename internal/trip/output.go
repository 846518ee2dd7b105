package trip

import (
	"time"

	"tripetl/internal/storage"
)

// Schema is the destination layout for journey legs, one row per leg.
var Schema = []storage.Column{
	{Name: "dataset", Type: storage.TypeText},
	{Name: "passenger_key", Type: storage.TypeText},
	{Name: "journey_id", Type: storage.TypeText},
	{Name: "journey_no", Type: storage.TypeInt},
	{Name: "journey_bucket", Type: storage.TypeText, Nullable: true},
	{Name: "seq_no", Type: storage.TypeInt},
	{Name: "flight_number", Type: storage.TypeText},
	{Name: "origin", Type: storage.TypeText, Nullable: true},
	{Name: "destination", Type: storage.TypeText, Nullable: true},
	{Name: "departure_at", Type: storage.TypeTimestamp},
	{Name: "arrival_at", Type: storage.TypeTimestamp, Nullable: true},
	{Name: "booking_ref", Type: storage.TypeText, Nullable: true},
	{Name: "pax_name", Type: storage.TypeText, Nullable: true},
	{Name: "ticket_no", Type: storage.TypeText, Nullable: true},
	{Name: "airline", Type: storage.TypeText, Nullable: true},
	{Name: "source_file", Type: storage.TypeText},
}

// PurgeColumns identify the rows a single input file contributed.
var PurgeColumns = []string{"dataset", "source_file"}

// Columns returns the destination column names in Schema order.
func Columns() []string {
	out := make([]string, len(Schema))
	for i, c := range Schema {
		out[i] = c.Name
	}
	return out
}

// Rows flattens the journey into positional rows aligned to Columns.
// Empty optional strings and an unknown arrival become NULL.
func (j Journey) Rows() [][]any {
	out := make([][]any, 0, len(j.Segments))
	for i, s := range j.Segments {
		out = append(out, []any{
			j.Dataset,
			j.PassengerKey,
			j.ID,
			int64(j.No),
			nullString(j.Bucket),
			int64(i + 1),
			s.FlightNumber,
			nullString(s.Origin),
			nullString(s.Destination),
			s.DepartureAt,
			nullTime(s.ArrivalAt),
			nullString(s.BookingRef),
			nullString(s.PaxName),
			nullString(s.TicketNo),
			nullString(s.Airline),
			s.SourceFile,
		})
	}
	return out
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
