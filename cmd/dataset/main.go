// Command dataset turns sensor, timetable and weather exports into
// K-fold train/test CSV files.
//
// Exit status is 0 when every fold was written, 2 when some folds failed
// and 1 when the run could not start or produce anything.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/config"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/pipeline"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/report"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/storage/sqlite"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
	"github.com/banshee-data/occupancy.dataset/internal/security"
	"github.com/banshee-data/occupancy.dataset/internal/version"
)

const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

// stringList is a repeatable flag; each value may also be comma separated.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*s = append(*s, p)
		}
	}
	return nil
}

type options struct {
	configPath  string
	inputs      pipeline.Inputs
	outDir      string
	folds       int
	seed        int64
	seedSet     bool
	dbPath      string
	reportDir   string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	var sensors, occ, weather stringList
	fs := flag.NewFlagSet("dataset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "dataset config (.json, .yaml); defaults to "+config.DefaultDatasetConfigPath+" when present")
	fs.Var(&sensors, "sensors", "sensor export CSV (repeatable)")
	fs.Var(&occ, "occupancy", "timetable export CSV (repeatable)")
	fs.Var(&weather, "weather", "weather station CSV (repeatable)")
	fs.StringVar(&o.outDir, "out", "", "output directory (overrides output_dir)")
	fs.IntVar(&o.folds, "folds", 0, "number of folds (overrides folds)")
	fs.Int64Var(&o.seed, "seed", 0, "shuffle seed (overrides seed)")
	fs.StringVar(&o.dbPath, "db", "", "record the run in this SQLite database")
	fs.StringVar(&o.reportDir, "report", "", "write report.json, retention.png and folds.html here")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (default $"+logging.LevelEnv+" or info)")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			o.seedSet = true
		}
	})
	o.inputs = pipeline.Inputs{Sensors: sensors, Occupancy: occ, Weather: weather}
	return &o, nil
}

// loadConfig reads the named config, or the default file when it exists,
// and applies flag overrides.
func loadConfig(o *options) (*config.DatasetConfig, error) {
	cfg := &config.DatasetConfig{}
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultDatasetConfigPath); err == nil {
			path = config.DefaultDatasetConfigPath
		}
	}
	if path != "" {
		loaded, err := config.LoadDatasetConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.outDir != "" {
		cfg.OutputDir = &o.outDir
	}
	if o.folds != 0 {
		cfg.Folds = &o.folds
	}
	if o.seedSet {
		cfg.Seed = &o.seed
	}
	return cfg, cfg.Validate()
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitFatal
	}
	if o.showVersion {
		fmt.Fprintln(stdout, "dataset", version.String())
		return exitOK
	}

	logger, err := logging.New(o.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return exitFatal
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := loadConfig(o)
	if err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return exitFatal
	}
	outDir := cfg.GetOutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Error("create output directory", zap.String("dir", outDir), zap.Error(err))
		return exitFatal
	}

	runner := pipeline.DefaultRunner(cfg, logger)
	runner.CheckPath = security.ValidatePathWithinDirectory
	rep, err := runner.Run(o.inputs)
	if err != nil {
		logger.Error("dataset build failed", zap.Error(err))
		return exitFatal
	}

	if o.reportDir != "" {
		if err := writeReports(o.reportDir, rep); err != nil {
			logger.Error("write reports", zap.String("dir", o.reportDir), zap.Error(err))
		}
	}
	if o.dbPath != "" {
		if err := recordRun(o.dbPath, rep, logger); err != nil {
			logger.Error("record run", zap.String("db", o.dbPath), zap.Error(err))
		}
	}

	fmt.Fprintln(stdout, rep.Summary())
	if rep.Partial() {
		return exitPartial
	}
	return exitOK
}

type reportFile struct {
	name  string
	write func(io.Writer) error
}

func writeReports(dir string, rep *pipeline.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	writers := []reportFile{
		{"report.json", rep.WriteJSON},
		{"folds.html", func(w io.Writer) error { return report.WriteFoldsHTML(w, rep) }},
	}
	// No location produced a day when every input was filtered out.
	if len(report.RetentionRows(rep)) > 0 {
		writers = append(writers, reportFile{"retention.png", func(w io.Writer) error { return report.WriteRetentionPNG(w, rep) }})
	}

	var errs []error
	for _, wr := range writers {
		path, err := security.JoinWithin(dir, wr.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, writeFile(path, wr.write))
	}
	return errors.Join(errs...)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

func recordRun(path string, rep *pipeline.Report, logger *zap.Logger) error {
	db, err := sqlite.Open(path, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return sqlite.NewRunStore(db).Insert(rep)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
