package trip

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Bucket tags legs produced by round-trip splitting.
const (
	BucketNone     = ""
	BucketOutbound = "OUTBOUND"
	BucketInbound  = "INBOUND"
)

// journeyNS namespaces deterministic journey IDs.
var journeyNS = uuid.NewSHA1(uuid.NameSpaceOID, []byte("tripetl.journey"))

// Journey is an ordered run of legs for one passenger key.
type Journey struct {
	ID           string
	Dataset      string
	PassengerKey string
	No           int // 1-based per passenger key
	Bucket       string
	Segments     []Segment
}

// JourneyID derives a stable UUIDv5 from dataset, passenger key and journey
// number, so reruns over the same input produce the same IDs.
func JourneyID(dataset, key string, no int) string {
	name := dataset + "|" + key + "|" + strconv.Itoa(no)
	return uuid.NewSHA1(journeyNS, []byte(name)).String()
}

// Start is the departure of the first leg.
func (j Journey) Start() time.Time {
	if len(j.Segments) == 0 {
		return time.Time{}
	}
	return j.Segments[0].DepartureAt
}

// End is the end of the last leg.
func (j Journey) End() time.Time {
	if len(j.Segments) == 0 {
		return time.Time{}
	}
	return j.Segments[len(j.Segments)-1].End()
}

// Route renders the airport chain, e.g. "DEL-BOM-DXB". Unknown airports are
// rendered as "?".
func (j Journey) Route() string {
	if len(j.Segments) == 0 {
		return ""
	}
	code := func(s string) string {
		if s == "" {
			return "?"
		}
		return s
	}
	b := make([]byte, 0, 4*(len(j.Segments)+1))
	b = append(b, code(j.Segments[0].Origin)...)
	for _, s := range j.Segments {
		b = append(b, '-')
		b = append(b, code(s.Destination)...)
	}
	return string(b)
}
