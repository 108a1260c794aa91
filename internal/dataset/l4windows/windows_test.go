package l4windows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l3continuity"
)

var day = dataset.DayOf(2023, time.April, 3)

func run(loc dataset.Location, d dataset.Day, n int) []dataset.MergedRecord {
	out := make([]dataset.MergedRecord, n)
	for i := range out {
		out[i] = dataset.MergedRecord{Minute: d.At(4, i), Location: loc, Occupancy: i}
	}
	return out
}

func TestCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, Count(185, 180))
	assert.Equal(t, 0, Count(180, 180))
	assert.Equal(t, 0, Count(10, 180))
	assert.Equal(t, 540, Count(720, 180))
}

func TestSlide(t *testing.T) {
	t.Parallel()

	recs := run(dataset.U4C, day, 185)
	ws := Slide(recs, 180)
	require.Len(t, ws, 5)
	for i, w := range ws {
		require.Len(t, w, 180)
		assert.Equal(t, recs[i].Minute, w[0].Minute)
		assert.Equal(t, recs[i+179].Minute, w[179].Minute)
	}
	assert.Empty(t, Slide(recs[:180], 180))
}

func TestFlattenRecord(t *testing.T) {
	t.Parallel()

	r := dataset.MergedRecord{Minute: day.At(9, 15), Location: dataset.U11, Occupancy: 23}
	r.Sensors.Set(dataset.FieldCO2, 900)
	r.Weather.Values[dataset.WeatherPrecipitation] = 0.4

	row := FlattenRecord(7, day, r)
	assert.Equal(t, 7, row.WindowID)
	assert.Equal(t, 3, row.DayOfMonth)
	assert.Equal(t, 9*60+15, row.MinuteOfDay)
	assert.Equal(t, 23, row.People)
	assert.Equal(t, 900.0, row.Sensors[dataset.FieldCO2])
	assert.Equal(t, 0.0, row.Sensors[dataset.FieldLuminance])
	assert.Equal(t, 0.4, row.Weather[dataset.WeatherPrecipitation])

	for m, set := range row.Months {
		assert.Equal(t, m == int(time.April)-1, set, "month %d", m+1)
	}
}

func TestBuild_IDsAndOrder(t *testing.T) {
	t.Parallel()

	next := day + 1
	days := []l3continuity.DayRecords{
		{Location: dataset.U11, Day: day, Records: run(dataset.U11, day, 182)},
		{Location: dataset.U4C, Day: next, Records: run(dataset.U4C, next, 181)},
		{Location: dataset.U4C, Day: day, Records: run(dataset.U4C, day, 183)},
		{Location: dataset.U3A, Day: day, Records: run(dataset.U3A, day, 100)},
	}

	groups, stats := Build(days, 180)
	require.Len(t, groups, 4)

	assert.Equal(t, "u4c/2023-04-03", groups[0].Key())
	assert.Equal(t, "u4c/2023-04-04", groups[1].Key())
	assert.Equal(t, "u11/2023-04-03", groups[2].Key())
	assert.Equal(t, "u3a/2023-04-03", groups[3].Key())

	assert.Equal(t, Stats{Days: 4, Windows: 3 + 1 + 2, Rows: 6 * 180}, stats)
	assert.Empty(t, groups[3].Rows, "short day keeps an empty group")

	// ids run 1..6 in visiting order, 180 rows each
	var ids []int
	for _, g := range groups {
		for i, r := range g.Rows {
			if i%180 == 0 {
				ids = append(ids, r.WindowID)
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids)

	// stride 1: second window of the first group starts one minute later
	assert.Equal(t, groups[0].Rows[0].MinuteOfDay+1, groups[0].Rows[180].MinuteOfDay)
}
