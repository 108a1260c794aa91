package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.dataset/internal/config"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l5folds"
	"github.com/banshee-data/occupancy.dataset/internal/fsutil"
	"github.com/banshee-data/occupancy.dataset/internal/timeutil"
)

func ptr[T any](v T) *T { return &v }

var testDays = []string{"2023-03-14", "2023-03-15"}

// testConfig narrows the day to 08:00-10:00 with ten-minute windows so a
// full run stays small.
func testConfig() *config.DatasetConfig {
	return &config.DatasetConfig{
		Folds:        ptr(3),
		Seed:         ptr(int64(42)),
		StartHour:    ptr(8),
		EndHour:      ptr(10),
		DayStartHour: ptr(8),
		DayEndHour:   ptr(10),
		WindowSize:   ptr(10),
		OutputDir:    ptr("out"),
	}
}

type skipFn func(sensor, day string, hour, minute int) bool

// sensorCSV writes a co2 and temperature reading for every minute from
// 08:00 to 09:59 on each test day for each sensor, minus skipped minutes.
func sensorCSV(sensors []string, skip skipFn) string {
	var b strings.Builder
	b.WriteString(",result,table,_time,_field,_measurement,sensor,_value\n")
	for _, day := range testDays {
		for _, id := range sensors {
			for h := 8; h < 10; h++ {
				for m := 0; m < 60; m++ {
					if skip != nil && skip(id, day, h, m) {
						continue
					}
					ts := fmt.Sprintf("%sT%02d:%02d:17Z", day, h, m)
					fmt.Fprintf(&b, ",_result,0,%s,co2,aj,%s,%d\n", ts, id, 400+m)
					fmt.Fprintf(&b, ",_result,0,%s,temperature,aj,%s,%.1f\n", ts, id, 20+float64(m)/10)
				}
			}
		}
	}
	return b.String()
}

func weatherCSV() string {
	var b strings.Builder
	b.WriteString("ARSO station export\n")
	b.WriteString("station,id,time,t,avg_t,min_t,max_t,rh,avg_rh,min_rh,max_rh,precip,wind\n")
	for i, day := range testDays {
		for _, hm := range []string{"08:00", "10:00"} {
			fmt.Fprintf(&b, "LJ,1,%s %s,%d,5,4,6,70,71,60,80,0,%d.5\n", day, hm, 5+i, i)
		}
	}
	return b.String()
}

func occupancyCSV() string {
	var b strings.Builder
	b.WriteString("id,date,day,block,x,room,a,b,c,d,count\n")
	for _, day := range testDays {
		fmt.Fprintf(&b, "1,%s,Tue,1,x,U11,a,b,c,d,24\n", day)
		fmt.Fprintf(&b, "2,%s,Tue,2,x,U4C,a,b,c,d,18\n", day)
	}
	return b.String()
}

func setup(t *testing.T, skip skipFn, withWeather bool) (*fsutil.MemoryFileSystem, Inputs) {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("in/sensors.csv", []byte(sensorCSV([]string{"aj-00", "aj-02", "aj-05"}, skip)))
	mfs.WriteFile("in/occupancy.csv", []byte(occupancyCSV()))
	in := Inputs{Sensors: []string{"in/sensors.csv"}, Occupancy: []string{"in/occupancy.csv"}}
	if withWeather {
		mfs.WriteFile("in/weather.csv", []byte(weatherCSV()))
		in.Weather = []string{"in/weather.csv"}
	}
	return mfs, in
}

func newRunner(fsys fsutil.FileSystem) *Runner {
	return &Runner{
		Config:   testConfig(),
		FS:       fsys,
		Clock:    timeutil.NewSteppingClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), time.Second),
		NewRunID: func() string { return "run-1" },
	}
}

func TestRun_CleanSeries(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, true)
	rep, err := newRunner(mfs).Run(in)
	require.NoError(t, err)
	require.NoError(t, rep.Err)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, StatusOK, rep.Status)
	assert.Equal(t, 2*3*120*2, rep.Decode["sensors"].Decoded)
	assert.Equal(t, 6, rep.DaysKept)
	assert.Zero(t, rep.DaysRejected)
	assert.Equal(t, 6, rep.Groups)
	assert.Equal(t, 6*110, rep.Windows.Windows)
	assert.Equal(t, 6*1100, rep.Windows.Rows)
	assert.Positive(t, rep.WeatherInterpolated)
	assert.Equal(t, "robust", rep.ScaleMethod)
	assert.Less(t, rep.Unify.OccupancyDefaulted, rep.Unify.Merged)

	require.Len(t, rep.FoldResults, 3)
	total := 0
	for _, fr := range rep.FoldResults {
		test, train, err := l5folds.ReadFold(mfs, "out", fr.Fold)
		require.NoError(t, err)
		assert.Len(t, test, fr.TestRows)
		assert.Len(t, train, fr.TrainRows)
		assert.Equal(t, 6*1100, len(test)+len(train))
		total += len(test)
	}
	assert.Equal(t, 6*1100, total, "every row is tested exactly once")

	for _, stage := range []string{StageParse, StageRestructure, StageExport} {
		d, ok := rep.Stage(stage)
		require.True(t, ok, stage)
		assert.Equal(t, time.Second, d)
	}
	assert.Equal(t, 3*time.Second, rep.Total)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	mfsA, in := setup(t, nil, true)
	mfsB, _ := setup(t, nil, true)
	_, err := newRunner(mfsA).Run(in)
	require.NoError(t, err)
	_, err = newRunner(mfsB).Run(in)
	require.NoError(t, err)

	files := mfsA.Files("out")
	require.Len(t, files, 6)
	for _, f := range files {
		a, err := mfsA.ReadFile(f)
		require.NoError(t, err)
		b, err := mfsB.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), "%s differs between runs", f)
	}
}

func TestRun_GapRejectsDay(t *testing.T) {
	t.Parallel()

	skip := func(sensor, day string, h, m int) bool {
		return sensor == "aj-02" && day == "2023-03-14" && h == 9 && m < 5
	}
	mfs, in := setup(t, skip, true)
	rep, err := newRunner(mfs).Run(in)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.DaysKept)
	assert.Equal(t, 1, rep.DaysRejected)
	require.Len(t, rep.Rejected, 1)
	assert.Equal(t, "u4b", rep.Rejected[0].Location)
	assert.Equal(t, "2023-03-14", rep.Rejected[0].Day)
	assert.Equal(t, 1, rep.PerLocation["u4b"].Rejected)
	assert.Equal(t, 5, rep.Groups)
}

func TestRun_SmallGapTolerated(t *testing.T) {
	t.Parallel()

	skip := func(sensor, day string, h, m int) bool {
		return sensor == "aj-05" && h == 8 && m == 30
	}
	mfs, in := setup(t, skip, true)
	rep, err := newRunner(mfs).Run(in)
	require.NoError(t, err)
	assert.Equal(t, 6, rep.DaysKept)
	assert.Equal(t, 4*110+2*109, rep.Windows.Windows)
}

func TestRun_NoWeatherNoRecords(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, false)
	rep, err := newRunner(mfs).Run(in)
	require.NoError(t, err)

	assert.Equal(t, StatusOK, rep.Status)
	assert.Zero(t, rep.Unify.Merged)
	assert.Positive(t, rep.Unify.DroppedNoWeather)
	assert.Zero(t, rep.Groups)
	assert.Len(t, mfs.Files("out"), 6, "empty folds still get headers")
}

func TestRun_WeatherJoinDisabled(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, false)
	r := newRunner(mfs)
	r.Config.JoinWeather = ptr(false)
	r.Config.Scale = ptr(false)
	rep, err := r.Run(in)
	require.NoError(t, err)
	assert.Equal(t, 6, rep.Groups)
	assert.Empty(t, rep.ScaleMethod)
}

func TestRun_PartialExport(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, true)
	full := errors.New("disk full")
	ffs := fsutil.FaultyFileSystem{
		FileSystem: mfs,
		Fail: func(op, path string) error {
			if op == "write" && strings.Contains(path, "fold_2") && strings.HasSuffix(path, l5folds.TestFile) {
				return full
			}
			return nil
		},
	}
	rep, err := newRunner(ffs).Run(in)
	require.NoError(t, err)

	assert.True(t, rep.Partial())
	assert.ErrorIs(t, rep.Err, full)
	assert.Contains(t, rep.Summary(), "partial")

	_, _, err = l5folds.ReadFold(mfs, "out", 1)
	assert.NoError(t, err)
	_, _, err = l5folds.ReadFold(mfs, "out", 3)
	assert.NoError(t, err)
}

func TestRun_FatalErrors(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, true)

	missing := in
	missing.Weather = []string{"in/absent.csv"}
	_, err := newRunner(mfs).Run(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open input")

	_, err = newRunner(mfs).Run(Inputs{})
	assert.Error(t, err)

	bad := newRunner(mfs)
	bad.Config.Folds = ptr(1)
	_, err = bad.Run(in)
	assert.Error(t, err)
	assert.False(t, mfs.Exists("out"), "nothing written on a fatal error")
}

func TestReport_WriteJSON(t *testing.T) {
	t.Parallel()

	mfs, in := setup(t, nil, true)
	rep, err := newRunner(mfs).Run(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, rep.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "ok", decoded["status"])
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, decoded, "per_location")
}
