package scaler

import (
	"github.com/banshee-data/occupancy.dataset/internal/dataset"
)

// SensorScalers holds one scaler per sensor field. A nil entry leaves the
// field untouched.
type SensorScalers [dataset.NumSensorFields]Scaler

// FitSensors fits a scaler per sensor field over the values that are
// present in snaps. Relative humidity is already bounded to 0-100 and is
// never scaled.
func FitSensors(m Method, snaps []dataset.SensorSnapshot) SensorScalers {
	var cols [dataset.NumSensorFields][]float64
	for _, s := range snaps {
		for f := range dataset.NumSensorFields {
			if v, ok := s.Get(dataset.SensorField(f)); ok {
				cols[f] = append(cols[f], v)
			}
		}
	}

	var out SensorScalers
	for f := range dataset.NumSensorFields {
		if dataset.SensorField(f) == dataset.FieldRelHumidity {
			continue
		}
		out[f] = Fit(m, cols[f])
	}
	return out
}

// Apply scales every present field of snap in place.
func (s SensorScalers) Apply(snap *dataset.SensorSnapshot) {
	for f, sc := range s {
		if sc == nil || !snap.Present[f] {
			continue
		}
		snap.Values[f] = sc.Transform(snap.Values[f])
	}
}

// WeatherScalers holds one scaler per weather component.
type WeatherScalers [dataset.NumWeatherFields]Scaler

// FitWeather fits a scaler per weather component over samples.
func FitWeather(m Method, samples []dataset.WeatherSample) WeatherScalers {
	var out WeatherScalers
	col := make([]float64, len(samples))
	for f := range dataset.NumWeatherFields {
		for i, s := range samples {
			col[i] = s.Values[f]
		}
		out[f] = Fit(m, col)
	}
	return out
}

// Apply scales every component of w in place.
func (s WeatherScalers) Apply(w *dataset.WeatherSample) {
	for f, sc := range s {
		if sc == nil {
			continue
		}
		w.Values[f] = sc.Transform(w.Values[f])
	}
}
