package l5folds

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/fsutil"
	"github.com/banshee-data/occupancy.dataset/internal/logging"
	"github.com/banshee-data/occupancy.dataset/internal/security"
)

// File names written into every fold directory.
const (
	TestFile  = "test.csv"
	TrainFile = "train.csv"
)

// FoldError is the failure of one fold's export. Fold is 1-based.
type FoldError struct {
	Fold int
	Op   string
	Err  error
}

func (e *FoldError) Error() string {
	return fmt.Sprintf("fold %d: %s: %v", e.Fold, e.Op, e.Err)
}

func (e *FoldError) Unwrap() error { return e.Err }

// FoldResult describes one exported fold. Fold is 1-based.
type FoldResult struct {
	Fold        int    `json:"fold"`
	Dir         string `json:"dir"`
	TestGroups  int    `json:"test_groups"`
	TrainGroups int    `json:"train_groups"`
	TestRows    int    `json:"test_rows"`
	TrainRows   int    `json:"train_rows"`
	Err         error  `json:"-"`
}

// ExportResult holds every fold's outcome, ordered by fold.
type ExportResult struct {
	Folds []FoldResult
}

// Failed returns the 1-based numbers of folds that failed.
func (r ExportResult) Failed() []int {
	var out []int
	for _, f := range r.Folds {
		if f.Err != nil {
			out = append(out, f.Fold)
		}
	}
	return out
}

// Partial reports whether any fold failed.
func (r ExportResult) Partial() bool { return len(r.Failed()) > 0 }

// Err joins the fold errors, or returns nil when every fold succeeded.
func (r ExportResult) Err() error {
	var errs []error
	for _, f := range r.Folds {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Exporter writes each fold to <Dir>/fold_<n>/{test,train}.csv.
type Exporter struct {
	FS  fsutil.FileSystem
	Dir string
	// CheckPath, when set, vets every fold directory against Dir before
	// anything is written, e.g. security.ValidatePathWithinDirectory.
	CheckPath func(path, root string) error
	Logger    *zap.Logger
}

// Export writes every fold concurrently, one goroutine per fold. Folds
// share only the read-only groups and assignment; a failing fold never
// stops its siblings.
func (e *Exporter) Export(groups []dataset.DayGroup, a *Assignment) ExportResult {
	res := ExportResult{Folds: make([]FoldResult, a.K)}

	var wg sync.WaitGroup
	for f := 0; f < a.K; f++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res.Folds[f] = e.exportFold(groups, a, f)
		}()
	}
	wg.Wait()
	return res
}

func (e *Exporter) exportFold(groups []dataset.DayGroup, a *Assignment, f int) FoldResult {
	log := logging.OrNop(e.Logger).With(zap.Int("fold", f+1))
	test, train := a.Test(f), a.Train(f)
	fr := FoldResult{Fold: f + 1, TestGroups: len(test), TrainGroups: len(train)}

	fail := func(op string, err error) FoldResult {
		fr.Err = &FoldError{Fold: f + 1, Op: op, Err: err}
		log.Error("fold export failed", zap.String("op", op), zap.Error(err))
		return fr
	}

	dir, err := security.JoinWithin(e.Dir, fmt.Sprintf("fold_%d", f+1))
	if err != nil {
		return fail("resolve", err)
	}
	fr.Dir = dir
	if e.CheckPath != nil {
		if err := e.CheckPath(dir, e.Dir); err != nil {
			return fail("validate", err)
		}
	}
	if err := e.FS.MkdirAll(dir, 0o755); err != nil {
		return fail("mkdir", err)
	}

	if fr.TestRows, err = e.writeRows(filepath.Join(dir, TestFile), groups, test); err != nil {
		return fail("write "+TestFile, err)
	}
	if fr.TrainRows, err = e.writeRows(filepath.Join(dir, TrainFile), groups, train); err != nil {
		return fail("write "+TrainFile, err)
	}

	log.Info("fold exported",
		zap.String("dir", dir),
		zap.Int("test_rows", fr.TestRows),
		zap.Int("train_rows", fr.TrainRows))
	return fr
}

func (e *Exporter) writeRows(path string, groups []dataset.DayGroup, idx []int) (n int, err error) {
	w, err := e.FS.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	rw, err := NewRowWriter(w)
	if err != nil {
		return 0, err
	}
	for _, g := range idx {
		for _, row := range groups[g].Rows {
			if err := rw.Write(row); err != nil {
				return rw.Rows(), err
			}
		}
	}
	if err := rw.Flush(); err != nil {
		return rw.Rows(), err
	}
	return rw.Rows(), nil
}

// ReadFold reads back the test and train rows of a 1-based fold.
func ReadFold(fsys fsutil.FileSystem, dir string, fold int) (test, train []dataset.FeatureRow, err error) {
	foldDir, err := security.JoinWithin(dir, fmt.Sprintf("fold_%d", fold))
	if err != nil {
		return nil, nil, err
	}
	read := func(name string) ([]dataset.FeatureRow, error) {
		f, err := fsys.Open(filepath.Join(foldDir, name))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := ReadRows(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return rows, nil
	}
	if test, err = read(TestFile); err != nil {
		return nil, nil, err
	}
	if train, err = read(TrainFile); err != nil {
		return nil, nil, err
	}
	return test, train, nil
}

