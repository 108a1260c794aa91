package l4windows

import (
	"cmp"
	"slices"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l3continuity"
)

// DefaultSize is the window length in records.
const DefaultSize = 180

// Count returns how many windows a day of n records yields: n - size, or
// zero when the day is not longer than one window.
func Count(n, size int) int {
	return max(n-size, 0)
}

// Slide returns the windows over recs with stride 1. Window i covers
// recs[i : i+size]. The windows alias recs.
func Slide(recs []dataset.MergedRecord, size int) [][]dataset.MergedRecord {
	n := Count(len(recs), size)
	out := make([][]dataset.MergedRecord, n)
	for i := range n {
		out[i] = recs[i : i+size : i+size]
	}
	return out
}

// IDAllocator hands out window ids starting at 1.
type IDAllocator struct {
	last int
}

// Next returns a fresh id.
func (a *IDAllocator) Next() int {
	a.last++
	return a.last
}

// Last returns the most recently issued id, or 0.
func (a *IDAllocator) Last() int { return a.last }

// FlattenRecord projects one record of a window on day into a FeatureRow.
// Unset sensor fields flatten to 0.
func FlattenRecord(id int, day dataset.Day, r dataset.MergedRecord) dataset.FeatureRow {
	row := dataset.FeatureRow{
		WindowID:    id,
		DayOfMonth:  day.DayOfMonth(),
		MinuteOfDay: r.Minute.MinuteOfDay(),
		Weather:     r.Weather.Values,
		People:      r.Occupancy,
	}
	row.Months[day.Month()-1] = true
	for f := range dataset.NumSensorFields {
		row.Sensors[f] = r.Sensors.Value(dataset.SensorField(f))
	}
	return row
}

// Flatten projects a whole window.
func Flatten(id int, day dataset.Day, window []dataset.MergedRecord) []dataset.FeatureRow {
	rows := make([]dataset.FeatureRow, len(window))
	for i, r := range window {
		rows[i] = FlattenRecord(id, day, r)
	}
	return rows
}

// Stats counts the output of Build.
type Stats struct {
	Days    int `json:"days"`
	Windows int `json:"windows"`
	Rows    int `json:"rows"`
}

// Build windows every retained day into a DayGroup. Days are visited by
// location, then ascending day, so window ids are reproducible for the
// same input. A day too short for a window still yields an empty group.
func Build(days []l3continuity.DayRecords, size int) ([]dataset.DayGroup, Stats) {
	ordered := slices.Clone(days)
	slices.SortStableFunc(ordered, func(a, b l3continuity.DayRecords) int {
		if c := cmp.Compare(a.Location, b.Location); c != 0 {
			return c
		}
		return cmp.Compare(a.Day, b.Day)
	})

	var (
		ids   IDAllocator
		stats Stats
	)
	groups := make([]dataset.DayGroup, 0, len(ordered))
	for _, d := range ordered {
		g := dataset.DayGroup{Location: d.Location, Day: d.Day}
		windows := Slide(d.Records, size)
		if len(windows) > 0 {
			g.Rows = make([]dataset.FeatureRow, 0, len(windows)*size)
		}
		for _, w := range windows {
			g.Rows = append(g.Rows, Flatten(ids.Next(), d.Day, w)...)
		}
		stats.Days++
		stats.Windows += len(windows)
		stats.Rows += len(g.Rows)
		groups = append(groups, g)
	}
	return groups, stats
}
