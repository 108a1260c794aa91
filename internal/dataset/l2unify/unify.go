package l2unify

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
)

// Joins selects the optional sources merged into each record.
type Joins struct {
	// Weather requires a weather sample for every record; records without
	// one are dropped. When false, records carry a zero WeatherSample.
	Weather bool
	// Interpolate fills weather gaps before the join.
	Interpolate bool
}

// WeatherSeries builds the series consumed by Unify, or nil when the
// weather join is off.
func (j Joins) WeatherSeries(samples []dataset.WeatherSample) *WeatherSeries {
	if !j.Weather {
		return nil
	}
	return NewWeatherSeries(samples, j.Interpolate)
}

// Options configures Unify.
type Options struct {
	// Operating hours, [StartHour, EndHour).
	StartHour int
	EndHour   int
	Joins     Joins
	// Excluded locations are removed after the merge.
	Excluded dataset.LocationSet
	Logger   *zap.Logger
}

// DefaultOptions returns the 04:00-16:00 window with every join enabled
// and the default exclusions.
func DefaultOptions() Options {
	return Options{
		StartHour: 4,
		EndHour:   16,
		Joins:     Joins{Weather: true, Interpolate: true},
		Excluded:  dataset.NewLocationSet(dataset.DefaultExcludedLocations...),
	}
}

// Stats counts how minutes and records were handled.
type Stats struct {
	MinutesVisited     int `json:"minutes_visited"`
	OutsideHours       int `json:"outside_hours"`
	InvalidLocation    int `json:"invalid_location"`
	DroppedNoWeather   int `json:"dropped_no_weather"`
	OccupancyDefaulted int `json:"occupancy_defaulted"`
	Merged             int `json:"merged"`
	Excluded           int `json:"excluded"`
}

// Result is the unified stream, sorted by minute within each location.
type Result struct {
	Records map[dataset.Location][]dataset.MergedRecord
	Stats   Stats
}

// Total returns the number of records across locations.
func (r Result) Total() int {
	n := 0
	for _, recs := range r.Records {
		n += len(recs)
	}
	return n
}

// Unify joins snapshots with occupancy and weather. Minutes are visited in
// ascending order and snapshots within a minute by location, so each
// location's records come out sorted and unique per minute. A missing
// occupancy fact means nobody was in the room.
func Unify(snaps *MinuteIndex[dataset.SensorSnapshot], occ *MinuteIndex[dataset.OccupancySlot], weather *WeatherSeries, opts Options) Result {
	log := logging.OrNop(opts.Logger)
	res := Result{Records: make(map[dataset.Location][]dataset.MergedRecord)}
	st := &res.Stats

	for _, m := range snaps.Minutes() {
		st.MinutesVisited++
		if h := m.Hour(); h < opts.StartHour || h >= opts.EndHour {
			st.OutsideHours++
			continue
		}

		var ws dataset.WeatherSample
		if opts.Joins.Weather {
			s, ok := weather.At(m)
			if !ok {
				st.DroppedNoWeather += len(snaps.Get(m))
				continue
			}
			ws = s
		} else {
			ws.Minute = m
		}

		minuteSnaps := snaps.Get(m)
		slices.SortFunc(minuteSnaps, func(a, b dataset.SensorSnapshot) int {
			return cmp.Compare(a.Location, b.Location)
		})
		for _, s := range minuteSnaps {
			if !s.Location.Valid() {
				st.InvalidLocation++
				log.Warn("skipping snapshot with unknown location",
					zap.Stringer("minute", m), zap.Stringer("location", s.Location))
				continue
			}
			count, ok := OccupancyAt(occ, m, s.Location)
			if !ok {
				st.OccupancyDefaulted++
			}
			res.Records[s.Location] = append(res.Records[s.Location], dataset.MergedRecord{
				Minute:    m,
				Location:  s.Location,
				Sensors:   s,
				Occupancy: count,
				Weather:   ws,
			})
			st.Merged++
		}
	}

	for loc := range opts.Excluded {
		if recs, ok := res.Records[loc]; ok {
			st.Excluded += len(recs)
			delete(res.Records, loc)
		}
	}

	log.Info("unified sources",
		zap.Int("minutes", st.MinutesVisited),
		zap.Int("merged", st.Merged),
		zap.Int("dropped_no_weather", st.DroppedNoWeather),
		zap.Int("excluded", st.Excluded),
		zap.Int("locations", len(res.Records)))
	return res
}
