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

// Sensor export columns.
const (
	sensorTimeCol  = 3
	sensorFieldCol = 4
	sensorIDCol    = 6
	sensorValueCol = 7
)

var sensorLocations = map[string]dataset.Location{
	"aj-00": dataset.U4C,
	"aj-01": dataset.Jedilnica,
	"aj-02": dataset.U4B,
	"aj-03": dataset.Hodnik,
	"aj-04": dataset.Soba18,
	"aj-05": dataset.U11,
	"aj-06": dataset.U3A,
	"aj-07": dataset.Zbornica,
}

var sensorFields = map[string]dataset.SensorField{
	"dew_point":    dataset.FieldDewPoint,
	"luminance":    dataset.FieldLuminance,
	"voc_index":    dataset.FieldVOCIndex,
	"co2":          dataset.FieldCO2,
	"abs_humidity": dataset.FieldAbsHumidity,
	"RH":           dataset.FieldRelHumidity,
	"temperature":  dataset.FieldTemperature,
	"voc_eq_co2":   dataset.FieldVOCEqCO2,
}

// SensorLocation maps a sensor id such as "aj-04" to its room.
func SensorLocation(id string) (dataset.Location, bool) {
	loc, ok := sensorLocations[id]
	return loc, ok
}

// ParseSensorRow decodes one row of the sensor export. The timestamp is
// read as wall-clock time and truncated to the minute.
func ParseSensorRow(fields []string) (dataset.SensorReading, error) {
	ts, err := column(fields, sensorTimeCol, "time")
	if err != nil {
		return dataset.SensorReading{}, err
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return dataset.SensorReading{}, fmt.Errorf("parse time: %w", err)
	}

	name, err := column(fields, sensorFieldCol, "field")
	if err != nil {
		return dataset.SensorReading{}, err
	}
	field, ok := sensorFields[name]
	if !ok {
		return dataset.SensorReading{}, fmt.Errorf("unknown sensor field %q", name)
	}

	id, err := column(fields, sensorIDCol, "sensor id")
	if err != nil {
		return dataset.SensorReading{}, err
	}
	loc, ok := sensorLocations[id]
	if !ok {
		return dataset.SensorReading{}, fmt.Errorf("unknown sensor id %q", id)
	}

	raw, err := column(fields, sensorValueCol, "value")
	if err != nil {
		return dataset.SensorReading{}, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return dataset.SensorReading{}, fmt.Errorf("parse value: %w", err)
	}

	return dataset.SensorReading{
		Minute:   dataset.MinuteOf(t),
		Location: loc,
		Field:    field,
		Value:    v,
	}, nil
}

// DecodeSensors reads a sensor export with one header row.
func (d Decoder) DecodeSensors(r io.Reader) ([]dataset.SensorReading, Stats, error) {
	recs, bad, err := d.readRecords(r, SourceSensors, 1)
	if err != nil {
		return nil, Stats{}, err
	}
	out, stats := decodeAll(d, SourceSensors, recs, bad, func(f []string) ([]dataset.SensorReading, error) {
		r, err := ParseSensorRow(f)
		if err != nil {
			return nil, err
		}
		return []dataset.SensorReading{r}, nil
	})
	logging.OrNop(d.Logger).Info("decoded sensor readings",
		zap.Int("rows", stats.Rows), zap.Int("skipped", stats.Skipped), zap.Int("readings", len(out)))
	return out, stats, nil
}
