package dataset

import "fmt"

// SensorField is one physical quantity reported by an indoor sensor.
type SensorField uint8

const (
	FieldDewPoint SensorField = iota
	FieldLuminance
	FieldVOCIndex
	FieldCO2
	FieldAbsHumidity
	FieldRelHumidity
	FieldTemperature
	FieldVOCEqCO2

	NumSensorFields = int(FieldVOCEqCO2) + 1
)

// sensorColumns doubles as the exported column names.
var sensorColumns = [NumSensorFields]string{
	"dew_point",
	"luminance",
	"voc_index",
	"co2",
	"abs_humidity",
	"rh",
	"temperature",
	"voc_eq_co2",
}

func (f SensorField) String() string {
	if int(f) < NumSensorFields {
		return sensorColumns[f]
	}
	return fmt.Sprintf("sensor_field(%d)", uint8(f))
}

// WeatherField is one component of an outdoor weather observation.
type WeatherField uint8

const (
	WeatherTemperature WeatherField = iota
	WeatherAvgTemperature
	WeatherMinTemperature
	WeatherMaxTemperature
	WeatherRelHumidity
	WeatherAvgRelHumidity
	WeatherMinRelHumidity
	WeatherMaxRelHumidity
	WeatherPrecipitation
	WeatherWindSpeed

	NumWeatherFields = int(WeatherWindSpeed) + 1
)

var weatherColumns = [NumWeatherFields]string{
	"outside_temperature",
	"avg_temperature",
	"min_temperature",
	"max_temperature",
	"rel_humidity",
	"avg_rel_humidity",
	"min_rel_humidity",
	"max_rel_humidity",
	"precipitation",
	"wind_speed",
}

func (f WeatherField) String() string {
	if int(f) < NumWeatherFields {
		return weatherColumns[f]
	}
	return fmt.Sprintf("weather_field(%d)", uint8(f))
}

// SensorReading is a single decoded sensor value.
type SensorReading struct {
	Minute   Minute
	Location Location
	Field    SensorField
	Value    float64
}

// SensorSnapshot accumulates every reading taken at one location in one
// minute. Fields that were never reported stay unset.
type SensorSnapshot struct {
	Location Location
	Values   [NumSensorFields]float64
	Present  [NumSensorFields]bool
}

// Set records v for field f, replacing any earlier value.
func (s *SensorSnapshot) Set(f SensorField, v float64) {
	s.Values[f] = v
	s.Present[f] = true
}

// Get returns the value for f and whether it was ever set.
func (s SensorSnapshot) Get(f SensorField) (float64, bool) {
	return s.Values[f], s.Present[f]
}

// Value returns the value for f, or 0 when unset.
func (s SensorSnapshot) Value(f SensorField) float64 {
	if !s.Present[f] {
		return 0
	}
	return s.Values[f]
}

// OccupancySlot is the person count of one room for one minute.
type OccupancySlot struct {
	Minute   Minute
	Location Location
	Count    int
}

// WeatherSample is a full outdoor weather vector at one minute.
// Interpolated is set on samples synthesised between two real reports.
type WeatherSample struct {
	Minute       Minute
	Values       [NumWeatherFields]float64
	Interpolated bool
}

// Get returns the value of one weather component.
func (w WeatherSample) Get(f WeatherField) float64 {
	return w.Values[f]
}

// MergedRecord is one minute of unified sensor, occupancy and weather data
// for a single location.
type MergedRecord struct {
	Minute    Minute
	Location  Location
	Sensors   SensorSnapshot
	Occupancy int
	Weather   WeatherSample
}
