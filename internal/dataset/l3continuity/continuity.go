package l3continuity

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
)

// Policy bounds the canonical day and the largest tolerated gap.
type Policy struct {
	// DayStart and DayEnd are minutes since midnight.
	DayStart int
	DayEnd   int
	// Tolerance is the longest gap, in minutes, that keeps a day.
	Tolerance int
}

// DefaultPolicy is 04:00-16:00 with a 2-minute tolerance.
func DefaultPolicy() Policy {
	return Policy{DayStart: 4 * 60, DayEnd: 16 * 60, Tolerance: 2}
}

// Gap is a stretch between two observed minutes, or between an observed
// minute and a day bound.
type Gap struct {
	From dataset.Minute
	To   dataset.Minute
}

// Minutes returns the length of the gap.
func (g Gap) Minutes() int { return g.To.Sub(g.From) }

func (g Gap) String() string {
	return fmt.Sprintf("%s..%s (%dm)", g.From, g.To, g.Minutes())
}

// DayRecords is the sorted stream of one location on one day.
type DayRecords struct {
	Location dataset.Location
	Day      dataset.Day
	Records  []dataset.MergedRecord
}

// GroupByDay splits a location's records by calendar day. Days come out
// ascending; records keep their order and are sorted by minute.
func GroupByDay(loc dataset.Location, recs []dataset.MergedRecord) []DayRecords {
	sorted := slices.Clone(recs)
	slices.SortStableFunc(sorted, func(a, b dataset.MergedRecord) int {
		return cmp.Compare(a.Minute, b.Minute)
	})

	var out []DayRecords
	for _, r := range sorted {
		d := r.Minute.Day()
		if n := len(out); n == 0 || out[n-1].Day != d {
			out = append(out, DayRecords{Location: loc, Day: d})
		}
		out[len(out)-1].Records = append(out[len(out)-1].Records, r)
	}
	return out
}

// FindGaps walks one day's sorted records from DayStart. Whenever a record
// lies more than one minute after its predecessor the pair is a gap; if
// the walk ends before DayEnd the remainder is a trailing gap.
func (p Policy) FindGaps(day dataset.Day, recs []dataset.MergedRecord) []Gap {
	var gaps []Gap
	last := day.Start().Add(p.DayStart)
	for _, r := range recs {
		if r.Minute > last.Add(1) {
			gaps = append(gaps, Gap{From: last, To: r.Minute})
		}
		last = r.Minute
	}
	if end := day.Start().Add(p.DayEnd); last < end {
		gaps = append(gaps, Gap{From: last, To: end})
	}
	return gaps
}

// Offending returns the gaps longer than the tolerance.
func (p Policy) Offending(gaps []Gap) []Gap {
	var out []Gap
	for _, g := range gaps {
		if g.Minutes() > p.Tolerance {
			out = append(out, g)
		}
	}
	return out
}

// Rejection names a dropped day and the gaps that dropped it.
type Rejection struct {
	Location dataset.Location
	Day      dataset.Day
	Gaps     []Gap
}

// LocationStats counts day outcomes for one location.
type LocationStats struct {
	Kept     int `json:"kept"`
	Rejected int `json:"rejected"`
}

// Result is the outcome of Filter. Kept days are ordered by location, then
// ascending day.
type Result struct {
	Kept        []DayRecords
	Rejected    []Rejection
	PerLocation map[dataset.Location]LocationStats
}

// Filter groups every location's records by day and keeps the days whose
// gaps all fit the tolerance. Gaps that are tolerated are left as they
// are; nothing is backfilled.
func Filter(records map[dataset.Location][]dataset.MergedRecord, p Policy, logger *zap.Logger) Result {
	log := logging.OrNop(logger)
	res := Result{PerLocation: make(map[dataset.Location]LocationStats)}

	for _, loc := range dataset.Locations() {
		recs, ok := records[loc]
		if !ok {
			continue
		}
		st := res.PerLocation[loc]
		for _, day := range GroupByDay(loc, recs) {
			bad := p.Offending(p.FindGaps(day.Day, day.Records))
			if len(bad) > 0 {
				st.Rejected++
				res.Rejected = append(res.Rejected, Rejection{Location: loc, Day: day.Day, Gaps: bad})
				log.Info("rejecting day",
					zap.Stringer("location", loc),
					zap.Stringer("day", day.Day),
					zap.Int("gaps", len(bad)),
					zap.Stringer("first_gap", bad[0]))
				continue
			}
			st.Kept++
			res.Kept = append(res.Kept, day)
		}
		res.PerLocation[loc] = st
	}
	return res
}
