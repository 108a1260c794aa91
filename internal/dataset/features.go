package dataset

// FeatureRow is the flattened projection of one MergedRecord inside a
// window. Rows of the same window share WindowID.
type FeatureRow struct {
	WindowID    int
	Months      [12]bool
	DayOfMonth  int
	MinuteOfDay int
	Sensors     [NumSensorFields]float64
	Weather     [NumWeatherFields]float64
	People      int
}

// DayGroup is every feature row produced from one retained (location, day).
// Groups are the unit of fold assignment so windows of the same day never
// straddle a train/test split.
type DayGroup struct {
	Location Location
	Day      Day
	Rows     []FeatureRow
}

// Key identifies the group, e.g. "u4c/2023-03-14".
func (g DayGroup) Key() string {
	return g.Location.String() + "/" + g.Day.String()
}

var monthColumns = [12]string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// FeatureColumns returns the fixed column order of exported rows. The
// occupancy target is always last.
func FeatureColumns() []string {
	cols := make([]string, 0, 1+12+2+NumSensorFields+NumWeatherFields+1)
	cols = append(cols, "window_id")
	cols = append(cols, monthColumns[:]...)
	cols = append(cols, "day", "time")
	cols = append(cols, sensorColumns[:]...)
	cols = append(cols, weatherColumns[:]...)
	cols = append(cols, "people")
	return cols
}
