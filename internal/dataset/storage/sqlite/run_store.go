package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/occupancy.dataset/internal/dataset/pipeline"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is the stored summary of one dataset run.
type Run struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Status       string        `json:"status"`
	Folds        int           `json:"folds"`
	Seed         int64         `json:"seed"`
	OutputDir    string        `json:"output_dir"`
	ScaleMethod  string        `json:"scale_method,omitempty"`
	DaysKept     int           `json:"days_kept"`
	DaysRejected int           `json:"days_rejected"`
	Groups       int           `json:"groups"`
	Windows      int           `json:"windows"`
	Rows         int           `json:"rows"`
	Total        time.Duration `json:"total"`
	Error        string        `json:"error,omitempty"`
	ReportJSON   string        `json:"-"`
}

// Fold is one stored fold outcome.
type Fold struct {
	RunID       string `json:"run_id"`
	Fold        int    `json:"fold"`
	Dir         string `json:"dir"`
	TestGroups  int    `json:"test_groups"`
	TrainGroups int    `json:"train_groups"`
	TestRows    int    `json:"test_rows"`
	TrainRows   int    `json:"train_rows"`
	Error       string `json:"error,omitempty"`
}

// RejectedDay is one stored continuity rejection.
type RejectedDay struct {
	Location string   `json:"location"`
	Day      string   `json:"day"`
	Gaps     []string `json:"gaps"`
}

// RunStore persists dataset runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore on a migrated database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

func errString(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}

// Insert stores a report with its folds and rejected days in one
// transaction.
func (s *RunStore) Insert(rep *pipeline.Report) error {
	var buf bytes.Buffer
	if err := rep.WriteJSON(&buf); err != nil {
		return err
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		var scale sql.NullString
		if rep.ScaleMethod != "" {
			scale = sql.NullString{String: rep.ScaleMethod, Valid: true}
		}
		_, err = tx.Exec(`
			INSERT INTO dataset_runs (
				run_id, started_at, status, folds, seed, output_dir, scale_method,
				days_kept, days_rejected, day_groups, windows, feature_rows,
				total_ns, error, report_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID, rep.StartedAt.UnixNano(), rep.Status, rep.Folds, rep.Seed, rep.OutputDir, scale,
			rep.DaysKept, rep.DaysRejected, rep.Groups, rep.Windows.Windows, rep.Windows.Rows,
			int64(rep.Total), errString(rep.Err), buf.String(),
		)
		if err != nil {
			return fmt.Errorf("insert run %s: %w", rep.RunID, err)
		}

		for _, f := range rep.FoldResults {
			_, err := tx.Exec(`
				INSERT INTO dataset_run_folds (
					run_id, fold, dir, test_groups, train_groups, test_rows, train_rows, error
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rep.RunID, f.Fold, f.Dir, f.TestGroups, f.TrainGroups, f.TestRows, f.TrainRows, errString(f.Err),
			)
			if err != nil {
				return fmt.Errorf("insert fold %d: %w", f.Fold, err)
			}
		}

		for _, r := range rep.Rejected {
			_, err := tx.Exec(`
				INSERT INTO dataset_rejected_days (run_id, location, day, gaps)
				VALUES (?, ?, ?, ?)`,
				rep.RunID, r.Location, r.Day, strings.Join(r.Gaps, ";"),
			)
			if err != nil {
				return fmt.Errorf("insert rejected day %s %s: %w", r.Location, r.Day, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `run_id, started_at, status, folds, seed, output_dir, scale_method,
	days_kept, days_rejected, day_groups, windows, feature_rows, total_ns, error, report_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r              Run
		started, total int64
		scale, errStr  sql.NullString
	)
	err := sc.Scan(&r.RunID, &started, &r.Status, &r.Folds, &r.Seed, &r.OutputDir, &scale,
		&r.DaysKept, &r.DaysRejected, &r.Groups, &r.Windows, &r.Rows, &total, &errStr, &r.ReportJSON)
	if err != nil {
		return nil, err
	}
	r.StartedAt = time.Unix(0, started).UTC()
	r.Total = time.Duration(total)
	r.ScaleMethod = scale.String
	r.Error = errStr.String
	return &r, nil
}

// Get returns the run with the given id, or ErrNotFound.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM dataset_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	return r, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *RunStore) List(limit int) ([]*Run, error) {
	q := `SELECT ` + runColumns + ` FROM dataset_runs ORDER BY started_at DESC, run_id`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListFolds returns a run's folds in fold order.
func (s *RunStore) ListFolds(runID string) ([]Fold, error) {
	rows, err := s.db.Query(`
		SELECT run_id, fold, dir, test_groups, train_groups, test_rows, train_rows, error
		FROM dataset_run_folds
		WHERE run_id = ?
		ORDER BY fold`, runID)
	if err != nil {
		return nil, fmt.Errorf("query folds: %w", err)
	}
	defer rows.Close()

	var out []Fold
	for rows.Next() {
		var (
			f      Fold
			errStr sql.NullString
		)
		if err := rows.Scan(&f.RunID, &f.Fold, &f.Dir, &f.TestGroups, &f.TrainGroups, &f.TestRows, &f.TrainRows, &errStr); err != nil {
			return nil, fmt.Errorf("scan fold: %w", err)
		}
		f.Error = errStr.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListRejected returns a run's rejected days ordered by location and day.
func (s *RunStore) ListRejected(runID string) ([]RejectedDay, error) {
	rows, err := s.db.Query(`
		SELECT location, day, gaps
		FROM dataset_rejected_days
		WHERE run_id = ?
		ORDER BY location, day`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rejected days: %w", err)
	}
	defer rows.Close()

	var out []RejectedDay
	for rows.Next() {
		var (
			r    RejectedDay
			gaps string
		)
		if err := rows.Scan(&r.Location, &r.Day, &gaps); err != nil {
			return nil, fmt.Errorf("scan rejected day: %w", err)
		}
		if gaps != "" {
			r.Gaps = strings.Split(gaps, ";")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes a run and, by cascade, its folds and rejected days.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM dataset_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil
	})
}
