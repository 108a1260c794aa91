package dataset

import (
	"time"
)

// MinutesPerDay is the number of civil minutes in a calendar day.
const MinutesPerDay = 24 * 60

// Minute is a civil date-time at minute resolution, counted from
// 1970-01-01T00:00. It carries no time zone: two sources that report the
// same wall-clock minute join on the same Minute.
type Minute int64

// MinuteOf returns the Minute holding the wall-clock reading of t.
// Seconds and the location of t are discarded.
func MinuteOf(t time.Time) Minute {
	y, mo, d := t.Date()
	h, mi, _ := t.Clock()
	u := time.Date(y, mo, d, h, mi, 0, 0, time.UTC)
	return Minute(floorDiv(u.Unix(), 60))
}

// Time returns m as a UTC time.Time.
func (m Minute) Time() time.Time {
	return time.Unix(int64(m)*60, 0).UTC()
}

// Add returns m shifted by n minutes.
func (m Minute) Add(n int) Minute {
	return m + Minute(n)
}

// Sub returns the number of minutes from o to m.
func (m Minute) Sub(o Minute) int {
	return int(m - o)
}

// Day returns the calendar day containing m.
func (m Minute) Day() Day {
	return Day(floorDiv(int64(m), MinutesPerDay))
}

// MinuteOfDay returns minutes since midnight, in [0, 1440).
func (m Minute) MinuteOfDay() int {
	return int(int64(m) - int64(m.Day())*MinutesPerDay)
}

// Hour returns the hour of day, in [0, 24).
func (m Minute) Hour() int {
	return m.MinuteOfDay() / 60
}

func (m Minute) String() string {
	return m.Time().Format("2006-01-02T15:04")
}

// Day is a civil calendar day counted from 1970-01-01.
type Day int64

// DayOf returns the Day for the given calendar date.
func DayOf(year int, month time.Month, day int) Day {
	return MinuteOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC)).Day()
}

// Start returns the first minute of d.
func (d Day) Start() Minute {
	return Minute(int64(d) * MinutesPerDay)
}

// At returns the minute at hour:minute on d.
func (d Day) At(hour, minute int) Minute {
	return d.Start().Add(hour*60 + minute)
}

// Time returns midnight of d in UTC.
func (d Day) Time() time.Time {
	return d.Start().Time()
}

// Month returns the calendar month of d.
func (d Day) Month() time.Month {
	return d.Time().Month()
}

// DayOfMonth returns the day of the month, starting at 1.
func (d Day) DayOfMonth() int {
	return d.Time().Day()
}

func (d Day) String() string {
	return d.Time().Format("2006-01-02")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
