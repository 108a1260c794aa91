package l2unify

import (
	"cmp"
	"slices"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
)

// WeatherSeries is the outdoor weather keyed by minute.
type WeatherSeries struct {
	byMinute     map[dataset.Minute]dataset.WeatherSample
	minutes      []dataset.Minute
	interpolated int
}

// NewWeatherSeries builds a series from samples in any order. When two
// samples share a minute the later one in input order wins. With
// interpolate set, each minute strictly between two consecutive real
// samples is filled exactly once by linear interpolation.
func NewWeatherSeries(samples []dataset.WeatherSample, interpolate bool) *WeatherSeries {
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b dataset.WeatherSample) int {
		return cmp.Compare(a.Minute, b.Minute)
	})
	// Keep the last of each run of equal minutes.
	dedup := sorted[:0]
	for i, s := range sorted {
		if i+1 < len(sorted) && sorted[i+1].Minute == s.Minute {
			continue
		}
		s.Interpolated = false
		dedup = append(dedup, s)
	}

	ws := &WeatherSeries{byMinute: make(map[dataset.Minute]dataset.WeatherSample, len(dedup))}
	for i, s := range dedup {
		if interpolate && i > 0 {
			prev := dedup[i-1]
			delta := s.Minute.Sub(prev.Minute)
			for k := 1; k < delta; k++ {
				ws.byMinute[prev.Minute.Add(k)] = Interpolate(prev, s, k)
				ws.interpolated++
			}
		}
		ws.byMinute[s.Minute] = s
	}

	ws.minutes = make([]dataset.Minute, 0, len(ws.byMinute))
	for m := range ws.byMinute {
		ws.minutes = append(ws.minutes, m)
	}
	slices.Sort(ws.minutes)
	return ws
}

// Interpolate returns the sample k minutes after a on the straight line
// towards b: a + (k/Δ)(b − a) per component, where Δ is the distance in
// minutes from a to b.
func Interpolate(a, b dataset.WeatherSample, k int) dataset.WeatherSample {
	delta := b.Minute.Sub(a.Minute)
	out := dataset.WeatherSample{Minute: a.Minute.Add(k), Interpolated: true}
	if delta == 0 {
		out.Values = a.Values
		return out
	}
	frac := float64(k) / float64(delta)
	for f := range out.Values {
		out.Values[f] = a.Values[f] + frac*(b.Values[f]-a.Values[f])
	}
	return out
}

// At returns the sample at m.
func (ws *WeatherSeries) At(m dataset.Minute) (dataset.WeatherSample, bool) {
	if ws == nil {
		return dataset.WeatherSample{}, false
	}
	s, ok := ws.byMinute[m]
	return s, ok
}

// Len returns the number of minutes covered, interpolated ones included.
func (ws *WeatherSeries) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.minutes)
}

// Interpolated returns how many minutes were synthesised.
func (ws *WeatherSeries) Interpolated() int {
	if ws == nil {
		return 0
	}
	return ws.interpolated
}

// Samples returns every sample in ascending minute order.
func (ws *WeatherSeries) Samples() []dataset.WeatherSample {
	if ws == nil {
		return nil
	}
	out := make([]dataset.WeatherSample, len(ws.minutes))
	for i, m := range ws.minutes {
		out[i] = ws.byMinute[m]
	}
	return out
}

// Apply rewrites every sample in place with fn.
func (ws *WeatherSeries) Apply(fn func(*dataset.WeatherSample)) {
	if ws == nil {
		return
	}
	for _, m := range ws.minutes {
		s := ws.byMinute[m]
		fn(&s)
		ws.byMinute[m] = s
	}
}
