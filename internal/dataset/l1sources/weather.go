package l1sources

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
)

const (
	weatherTimeCol   = 2
	weatherFirstCol  = 3
	weatherLeadRows  = 2
	weatherTimestamp = "2006-01-02 15:04"
)

// ParseWeatherRow decodes one observation row of the weather export.
func ParseWeatherRow(fields []string) (dataset.WeatherSample, error) {
	ts, err := column(fields, weatherTimeCol, "timestamp")
	if err != nil {
		return dataset.WeatherSample{}, err
	}
	t, err := time.Parse(weatherTimestamp, ts)
	if err != nil {
		return dataset.WeatherSample{}, fmt.Errorf("parse timestamp: %w", err)
	}

	s := dataset.WeatherSample{Minute: dataset.MinuteOf(t)}
	for f := range dataset.NumWeatherFields {
		name := dataset.WeatherField(f).String()
		raw, err := column(fields, weatherFirstCol+f, name)
		if err != nil {
			return dataset.WeatherSample{}, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return dataset.WeatherSample{}, fmt.Errorf("parse %s: %w", name, err)
		}
		s.Values[f] = v
	}
	return s, nil
}

// DecodeWeather reads a weather export. The export starts with two rows
// that carry no observations.
func (d Decoder) DecodeWeather(r io.Reader) ([]dataset.WeatherSample, Stats, error) {
	recs, bad, err := d.readRecords(r, SourceWeather, weatherLeadRows)
	if err != nil {
		return nil, Stats{}, err
	}
	out, stats := decodeAll(d, SourceWeather, recs, bad, func(f []string) ([]dataset.WeatherSample, error) {
		s, err := ParseWeatherRow(f)
		if err != nil {
			return nil, err
		}
		return []dataset.WeatherSample{s}, nil
	})
	logging.OrNop(d.Logger).Info("decoded weather samples",
		zap.Int("rows", stats.Rows), zap.Int("skipped", stats.Skipped), zap.Int("samples", len(out)))
	return out, stats, nil
}
