package config

import "time"

// Defaults returns the built-in configuration, including the dataset presets.
func Defaults() *Config {
	return &Config{
		Job: "tripetl",
		Input: InputConfig{
			Dir:        "data",
			Extensions: []string{".csv", ".xlsx"},
			Comma:      ",",
		},
		Storage: StorageConfig{
			Kind:            "duckdb",
			DSN:             "tripetl.duckdb",
			Table:           "journey_legs",
			AutoCreateTable: true,
		},
		Runtime: RuntimeConfig{
			BatchSize:       5000,
			ChannelBuffer:   1024,
			MaxErrorSamples: 10,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Backend: "none", Namespace: "tripetl"},
		Datasets: Presets(),
	}
}

// Presets are the known agency layouts.
func Presets() map[string]Dataset {
	return map[string]Dataset{
		"tbo": {
			Segments: 7,
			Columns: ColumnMap{
				PaxName:       "PaxName",
				BookingRef:    "BookingRef",
				TicketNo:      "TicketNo",
				Airline:       "Airline",
				FlightNumber:  "FlightNumber%d",
				DepartureDate: "DepartureDate%d",
				Airport:       "Airport%d",
			},
			Threshold: 36 * time.Hour,
			GroupBy:   []string{GroupBooking, GroupPax},
			DedupKeys: []string{"departure"},
			YearMin:   1990,
			YearMax:   2100,
		},
		"ta": {
			Segments: 6,
			Columns: ColumnMap{
				PaxName:       "Pax Name",
				BookingRef:    "PNR CRS",
				TicketNo:      "Ticket Number",
				Airline:       "Airlines",
				FlightNumber:  "S%dFltNo",
				DepartureDate: "S%dDate",
				Airport:       "Airport %d",
			},
			Threshold: 36 * time.Hour,
			GroupBy:   []string{GroupBooking, GroupPax},
			DedupKeys: []string{"departure"},
			YearMin:   1990,
			YearMax:   2027,
		},
		"tripjack": {
			Segments: 5,
			Columns: ColumnMap{
				PaxName:       "PaxName",
				BookingRef:    "BookingRef_PNR",
				TicketNo:      "ETicketNo",
				Airline:       "Airline",
				FlightNumber:  "FlightNumber%d",
				DepartureDate: "DepartureDateLocal%d",
				Airport:       "Airport%d",
			},
			Threshold:       36 * time.Hour,
			SplitRoundTrips: true,
			GroupBy:         []string{GroupRow},
			DedupKeys:       []string{"flight", "departure"},
			YearMin:         2010,
			YearMax:         2030,
		},
		"bluestar": {
			Segments: 4,
			Columns: ColumnMap{
				PaxName:       "PaxName",
				BookingRef:    "PNRNo",
				TicketNo:      "TicketNo",
				Airline:       "AirlineName",
				FlightNumber:  "FltNo%d",
				DepartureDate: "FltDate%d",
				Airport:       "Airport%d",
			},
			Threshold:  24 * time.Hour,
			StitchMode: "span",
			GroupBy:    []string{GroupRow},
			DedupKeys:  []string{"flight", "departure_date"},
			YearMin:    2010,
			YearMax:    2030,
		},
		"standard": {
			Segments: 6,
			Columns: ColumnMap{
				PaxName:       "PaxName",
				BookingRef:    "PNR",
				TicketNo:      "TicketNumber",
				Airline:       "IATA",
				FlightNumber:  "FlightNo%d",
				DepartureDate: "FlightDate%d",
				Airport:       "Airport%d",
			},
			Threshold: 24 * time.Hour,
			GroupBy:   []string{GroupBooking, GroupPax},
		},
	}
}
