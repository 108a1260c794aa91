package timeutil

import (
	"time"
)

// Stage is one named, timed step.
type Stage struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Stopwatch records consecutive named stages against a Clock.
type Stopwatch struct {
	clock   Clock
	started time.Time
	mark    time.Time
	stages  []Stage
}

// NewStopwatch starts a stopwatch. A nil clock uses RealClock.
func NewStopwatch(c Clock) *Stopwatch {
	if c == nil {
		c = RealClock{}
	}
	now := c.Now()
	return &Stopwatch{clock: c, started: now, mark: now}
}

// Lap closes the current stage under name and starts the next one.
func (s *Stopwatch) Lap(name string) time.Duration {
	now := s.clock.Now()
	d := now.Sub(s.mark)
	s.stages = append(s.stages, Stage{Name: name, Duration: d})
	s.mark = now
	return d
}

// Started returns when the stopwatch was created.
func (s *Stopwatch) Started() time.Time { return s.started }

// Total returns the time from start to the last lap.
func (s *Stopwatch) Total() time.Duration { return s.mark.Sub(s.started) }

// Stages returns the recorded laps in order.
func (s *Stopwatch) Stages() []Stage {
	return append([]Stage(nil), s.stages...)
}
