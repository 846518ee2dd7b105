package pipeline

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"tripetl/internal/logging"
)

// Stats are the per-file (or per-run, when summed) counts. Duplicates and
// Journeys are only known for the whole run.
//
// Invariants, per run:
//
//	segments == deduplicated legs + duplicates
//	inserted == legs of all journeys, unless loading failed
type Stats struct {
	Rows        int64 // data rows read
	ParseErrors int64 // records the reader could not parse
	Segments    int64 // legs that survived normalization
	Dropped     int64 // legs (or whole rows) rejected by normalization
	Duplicates  int64 // run only
	Journeys    int64 // run only
	Purged      int64 // rows removed from a previous run of the same file
	Inserted    int64
	Batches     int64

	// Drops breaks Dropped down by reason.
	Drops map[string]int64
}

// Add folds o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.ParseErrors += o.ParseErrors
	s.Segments += o.Segments
	s.Dropped += o.Dropped
	s.Duplicates += o.Duplicates
	s.Journeys += o.Journeys
	s.Purged += o.Purged
	s.Inserted += o.Inserted
	s.Batches += o.Batches
	for k, v := range o.Drops {
		if s.Drops == nil {
			s.Drops = make(map[string]int64)
		}
		s.Drops[k] += v
	}
}

// counters are updated from the reader, segmenter and loader goroutines.
type counters struct {
	rows        atomic.Int64
	parseErrors atomic.Int64
	segments    atomic.Int64
	dropped     atomic.Int64
	purged      atomic.Int64
	inserted    atomic.Int64
	batches     atomic.Int64

	mu    sync.Mutex
	drops map[string]int64
}

func (c *counters) drop(reason string) {
	c.dropped.Add(1)
	c.mu.Lock()
	if c.drops == nil {
		c.drops = make(map[string]int64)
	}
	c.drops[reason]++
	c.mu.Unlock()
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	drops := make(map[string]int64, len(c.drops))
	for k, v := range c.drops {
		drops[k] = v
	}
	c.mu.Unlock()
	return Stats{
		Rows:        c.rows.Load(),
		ParseErrors: c.parseErrors.Load(),
		Segments:    c.segments.Load(),
		Dropped:     c.dropped.Load(),
		Purged:      c.purged.Load(),
		Inserted:    c.inserted.Load(),
		Batches:     c.batches.Load(),
		Drops:       drops,
	}
}

// errAgg keeps the first limit messages and a total count.
type errAgg struct {
	mu    sync.Mutex
	limit int
	count int
	first []string
}

func newErrAgg(limit int) *errAgg {
	if limit < 0 {
		limit = 0
	}
	return &errAgg{limit: limit}
}

func (a *errAgg) add(msg string) {
	a.mu.Lock()
	if a.count < a.limit {
		a.first = append(a.first, msg)
	}
	a.count++
	a.mu.Unlock()
}

func (a *errAgg) log(what string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.count == 0 {
		return
	}
	logging.Warn().Int("count", a.count).Int("shown", len(a.first)).Msgf("%s (first samples follow)", what)
	for i, s := range a.first {
		logging.Warn().Int("sample", i+1).Msg(s)
	}
}

func logFileSummary(file string, s Stats) {
	ev := logging.Info().
		Str("file", file).
		Str("rows", humanize.Comma(s.Rows)).
		Str("parse_errors", humanize.Comma(s.ParseErrors)).
		Str("segments", humanize.Comma(s.Segments)).
		Str("dropped", humanize.Comma(s.Dropped)).
		Str("purged", humanize.Comma(s.Purged)).
		Str("inserted", humanize.Comma(s.Inserted)).
		Int64("batches", s.Batches)
	ev.Msg("file: done")

	if len(s.Drops) > 0 {
		reasons := make([]string, 0, len(s.Drops))
		for k := range s.Drops {
			reasons = append(reasons, k)
		}
		sort.Strings(reasons)
		d := logging.Info().Str("file", file)
		for _, r := range reasons {
			d = d.Int64(r, s.Drops[r])
		}
		d.Msg("file: drops by reason")
	}
}
