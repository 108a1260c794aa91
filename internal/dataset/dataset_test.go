package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteOf_DropsSecondsAndZone(t *testing.T) {
	t.Parallel()

	cet := time.FixedZone("CET", 3600)
	a := MinuteOf(time.Date(2023, 3, 14, 7, 31, 59, 0, cet))
	b := MinuteOf(time.Date(2023, 3, 14, 7, 31, 0, 0, time.UTC))

	assert.Equal(t, b, a, "wall-clock minute should match regardless of zone")
	assert.Equal(t, "2023-03-14T07:31", a.String())
}

func TestMinute_DayFields(t *testing.T) {
	t.Parallel()

	m := MinuteOf(time.Date(2023, 2, 28, 15, 59, 0, 0, time.UTC))
	assert.Equal(t, 15*60+59, m.MinuteOfDay())
	assert.Equal(t, 15, m.Hour())
	assert.Equal(t, time.February, m.Day().Month())
	assert.Equal(t, 28, m.Day().DayOfMonth())
	assert.Equal(t, m, m.Day().At(15, 59))

	next := m.Add(1)
	assert.Equal(t, "2023-02-28T16:00", next.String())
	assert.Equal(t, 1, next.Sub(m))
}

func TestMinute_BeforeEpoch(t *testing.T) {
	t.Parallel()

	m := MinuteOf(time.Date(1969, 12, 31, 23, 30, 0, 0, time.UTC))
	assert.Equal(t, 23*60+30, m.MinuteOfDay())
	assert.Equal(t, "1969-12-31", m.Day().String())
}

func TestDayOf_RoundTrip(t *testing.T) {
	t.Parallel()

	d := DayOf(2023, time.June, 1)
	assert.Equal(t, "2023-06-01", d.String())
	assert.Equal(t, d, d.Start().Day())
	assert.Equal(t, 0, d.Start().MinuteOfDay())
}

func TestLocation_ParseAndString(t *testing.T) {
	t.Parallel()

	for _, l := range Locations() {
		got, err := ParseLocation(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}

	got, err := ParseLocation("  Soba18 ")
	require.NoError(t, err)
	assert.Equal(t, Soba18, got)

	_, err = ParseLocation("kitchen")
	assert.Error(t, err)

	assert.False(t, LocationUnknown.Valid())
	assert.Len(t, Locations(), 8)
}

func TestLocationSet(t *testing.T) {
	t.Parallel()

	s := NewLocationSet(DefaultExcludedLocations...)
	assert.True(t, s.Contains(Hodnik))
	assert.False(t, s.Contains(U11))

	var empty LocationSet
	assert.False(t, empty.Contains(U11))
}

func TestSensorSnapshot_UnsetFieldsDefaultToZero(t *testing.T) {
	t.Parallel()

	var s SensorSnapshot
	s.Set(FieldCO2, 812)

	v, ok := s.Get(FieldCO2)
	assert.True(t, ok)
	assert.Equal(t, 812.0, v)

	_, ok = s.Get(FieldLuminance)
	assert.False(t, ok)
	assert.Equal(t, 0.0, s.Value(FieldLuminance))
}

func TestFeatureColumns_Layout(t *testing.T) {
	t.Parallel()

	cols := FeatureColumns()
	require.Len(t, cols, 1+12+2+NumSensorFields+NumWeatherFields+1)
	assert.Equal(t, "window_id", cols[0])
	assert.Equal(t, "jan", cols[1])
	assert.Equal(t, "dec", cols[12])
	assert.Equal(t, "day", cols[13])
	assert.Equal(t, "time", cols[14])
	assert.Equal(t, "dew_point", cols[15])
	assert.Equal(t, "outside_temperature", cols[15+NumSensorFields])
	assert.Equal(t, "people", cols[len(cols)-1])
}

func TestDayGroup_Key(t *testing.T) {
	t.Parallel()

	g := DayGroup{Location: U4B, Day: DayOf(2023, time.April, 3)}
	assert.Equal(t, "u4b/2023-04-03", g.Key())
}
