package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/config"
	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l2unify"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l3continuity"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l4windows"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/l5folds"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/scaler"
	"github.com/banshee-data/occupancy.dataset/internal/fsutil"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
	"github.com/banshee-data/occupancy.dataset/internal/timeutil"
)

// Stage names recorded on the run stopwatch.
const (
	StageParse       = "parse"
	StageRestructure = "restructure"
	StageExport      = "export"
)

// Runner executes one dataset build. Zero-valued fields fall back to the
// OS filesystem, the wall clock, a no-op logger and the built-in config.
type Runner struct {
	Config *config.DatasetConfig
	FS     fsutil.FileSystem
	Clock  timeutil.Clock
	Logger *zap.Logger
	// CheckPath is handed to the exporter to vet fold directories.
	CheckPath func(path, root string) error
	// NewRunID overrides run id generation in tests.
	NewRunID func() string
}

func (r *Runner) cfg() *config.DatasetConfig {
	if r.Config == nil {
		return &config.DatasetConfig{}
	}
	return r.Config
}

func (r *Runner) fs() fsutil.FileSystem {
	if r.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return r.FS
}

func (r *Runner) runID() string {
	if r.NewRunID != nil {
		return r.NewRunID()
	}
	return uuid.NewString()
}

// Run builds the dataset from the named inputs. The returned error is
// non-nil only when nothing could be exported; fold failures are reported
// on the Report instead.
func (r *Runner) Run(in Inputs) (*Report, error) {
	cfg := r.cfg()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logging.OrNop(r.Logger)
	sw := timeutil.NewStopwatch(r.Clock)

	rep := &Report{
		RunID:     r.runID(),
		StartedAt: sw.Started(),
		Inputs:    in,
		Folds:     cfg.GetFolds(),
		Seed:      cfg.GetSeed(),
		OutputDir: cfg.GetOutputDir(),
	}
	log = log.With(zap.String("run_id", rep.RunID))

	loaded, err := r.LoadInputs(in)
	if err != nil {
		return nil, err
	}
	rep.Decode = loaded.Stats
	sw.Lap(StageParse)
	log.Info("inputs decoded",
		zap.Int("readings", len(loaded.Readings)),
		zap.Int("occupancy_slots", len(loaded.Slots)),
		zap.Int("weather_samples", len(loaded.Weather)))

	groups, err := r.restructure(loaded, rep, log)
	if err != nil {
		return nil, err
	}
	sw.Lap(StageRestructure)

	assign, err := l5folds.Partition(len(groups), cfg.GetFolds(), cfg.GetSeed())
	if err != nil {
		return nil, err
	}
	if err := r.fs().MkdirAll(cfg.GetOutputDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	exp := &l5folds.Exporter{
		FS:        r.fs(),
		Dir:       cfg.GetOutputDir(),
		CheckPath: r.CheckPath,
		Logger:    log,
	}
	res := exp.Export(groups, assign)
	sw.Lap(StageExport)

	rep.FoldResults = res.Folds
	rep.Stages = sw.Stages()
	rep.Total = sw.Total()
	rep.Status = StatusOK
	if res.Partial() {
		rep.Status = StatusPartial
		rep.Err = res.Err()
		log.Warn("export incomplete", zap.Ints("failed_folds", res.Failed()), zap.Error(rep.Err))
	} else {
		log.Info("dataset written",
			zap.String("dir", cfg.GetOutputDir()),
			zap.Int("groups", rep.Groups),
			zap.Int("rows", rep.Windows.Rows),
			zap.Duration("total", rep.Total))
	}
	return rep, nil
}

// restructure runs scaling, unification, continuity filtering and
// windowing, filling in the matching report sections.
func (r *Runner) restructure(in *Loaded, rep *Report, log *zap.Logger) ([]dataset.DayGroup, error) {
	cfg := r.cfg()
	excluded, err := cfg.ExcludedLocationSet()
	if err != nil {
		return nil, err
	}

	snaps := l2unify.IndexSnapshots(in.Readings, l2unify.DefaultShards)
	occ := l2unify.IndexOccupancy(in.Slots, l2unify.DefaultShards)
	joins := l2unify.Joins{Weather: cfg.GetJoinWeather(), Interpolate: cfg.GetInterpolateWeather()}
	weather := joins.WeatherSeries(in.Weather)
	rep.WeatherSamples = weather.Len()
	rep.WeatherInterpolated = weather.Interpolated()

	if cfg.GetScale() {
		method, err := scaler.ParseMethod(cfg.GetScaleMethod())
		if err != nil {
			return nil, err
		}
		scaleSnapshots(snaps, method)
		weather.Apply(scaler.FitWeather(method, weather.Samples()).Apply)
		rep.ScaleMethod = method.String()
	}

	unified := l2unify.Unify(snaps, occ, weather, l2unify.Options{
		StartHour: cfg.GetStartHour(),
		EndHour:   cfg.GetEndHour(),
		Joins:     joins,
		Excluded:  excluded,
		Logger:    log,
	})
	rep.Unify = unified.Stats
	log.Info("sources unified", zap.Int("records", unified.Total()), zap.Any("stats", unified.Stats))

	policy := l3continuity.Policy{
		DayStart:  cfg.GetDayStartHour() * 60,
		DayEnd:    cfg.GetDayEndHour() * 60,
		Tolerance: cfg.GetGapToleranceMinutes(),
	}
	filtered := l3continuity.Filter(unified.Records, policy, log)
	rep.setContinuity(filtered)

	groups, wstats := l4windows.Build(filtered.Kept, cfg.GetWindowSize())
	rep.Windows = wstats
	rep.Groups = len(groups)
	if len(groups) == 0 {
		log.Warn("no day survived filtering; folds will be empty")
	}
	return groups, nil
}

// scaleSnapshots fits the per-field scalers on every indexed snapshot and
// rewrites the index in place.
func scaleSnapshots(ix *l2unify.MinuteIndex[dataset.SensorSnapshot], m scaler.Method) {
	var all []dataset.SensorSnapshot
	ix.Each(func(_ dataset.Minute, snaps []dataset.SensorSnapshot) {
		all = append(all, snaps...)
	})
	fitted := scaler.FitSensors(m, all)
	ix.Each(func(_ dataset.Minute, snaps []dataset.SensorSnapshot) {
		for i := range snaps {
			fitted.Apply(&snaps[i])
		}
	})
}

// DefaultRunner returns a Runner on the OS filesystem and wall clock.
func DefaultRunner(cfg *config.DatasetConfig, logger *zap.Logger) *Runner {
	return &Runner{Config: cfg, FS: fsutil.OSFileSystem{}, Clock: timeutil.RealClock{}, Logger: logger}
}
