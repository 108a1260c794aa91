package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/occupancy.dataset/internal/dataset/l1sources"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l2unify"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l3continuity"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l4windows"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l5folds"
	"github.com/banshee-data/occupancy.dataset/internal/timeutil"
)

// Run outcomes.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
)

// RejectedDay is a day dropped by the continuity filter.
type RejectedDay struct {
	Location string   `json:"location"`
	Day      string   `json:"day"`
	Gaps     []string `json:"gaps"`
}

// Report summarises one run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Status    string    `json:"status"`
	Inputs    Inputs    `json:"inputs"`
	Folds     int       `json:"folds"`
	Seed      int64     `json:"seed"`
	OutputDir string    `json:"output_dir"`

	Decode              map[string]l1sources.Stats `json:"decode"`
	WeatherSamples      int                        `json:"weather_samples"`
	WeatherInterpolated int                        `json:"weather_interpolated"`
	ScaleMethod         string                     `json:"scale_method,omitempty"`
	Unify               l2unify.Stats              `json:"unify"`

	DaysKept     int                                   `json:"days_kept"`
	DaysRejected int                                   `json:"days_rejected"`
	PerLocation  map[string]l3continuity.LocationStats `json:"per_location"`
	Rejected     []RejectedDay                         `json:"rejected"`

	Windows     l4windows.Stats      `json:"windows"`
	Groups      int                  `json:"groups"`
	FoldResults []l5folds.FoldResult `json:"fold_results"`

	Stages []timeutil.Stage `json:"stages"`
	Total  time.Duration    `json:"total"`

	// Err joins the fold failures of a partial run.
	Err error `json:"-"`
}

func (r *Report) setContinuity(res l3continuity.Result) {
	r.DaysKept = len(res.Kept)
	r.DaysRejected = len(res.Rejected)
	r.PerLocation = make(map[string]l3continuity.LocationStats, len(res.PerLocation))
	for loc, st := range res.PerLocation {
		r.PerLocation[loc.String()] = st
	}
	r.Rejected = make([]RejectedDay, 0, len(res.Rejected))
	for _, rej := range res.Rejected {
		rd := RejectedDay{Location: rej.Location.String(), Day: rej.Day.String()}
		for _, g := range rej.Gaps {
			rd.Gaps = append(rd.Gaps, g.String())
		}
		r.Rejected = append(r.Rejected, rd)
	}
}

// Partial reports whether any fold failed to export.
func (r *Report) Partial() bool { return r.Status == StatusPartial }

// Stage returns the duration recorded for name.
func (r *Report) Stage(name string) (time.Duration, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s.Duration, true
		}
	}
	return 0, false
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// Summary is a one-line human readable outcome.
func (r *Report) Summary() string {
	s := fmt.Sprintf("run %s: %s, %d days kept, %d rejected, %d groups, %d windows, %d folds in %s",
		r.RunID, r.Status, r.DaysKept, r.DaysRejected, r.Groups, r.Windows.Windows, r.Folds, r.Total)
	if r.Err != nil {
		s += fmt.Sprintf(" (%v)", r.Err)
	}
	return s
}
