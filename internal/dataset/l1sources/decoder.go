package l1sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/occupancy.dataset/internal/logging"
)

// Source names used in errors, logs and stats.
const (
	SourceSensors   = "sensors"
	SourceOccupancy = "occupancy"
	SourceWeather   = "weather"
)

// DecodeError reports a single row that could not be decoded. Row is the
// 1-based record number within its file, header rows included.
type DecodeError struct {
	Source string
	Row    int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Source, e.Row, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Stats counts what happened to the rows of one file.
type Stats struct {
	Rows    int `json:"rows"` // data rows seen, header rows excluded
	Decoded int `json:"decoded"`
	Skipped int `json:"skipped"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rows += o.Rows
	s.Decoded += o.Decoded
	s.Skipped += o.Skipped
}

// Decoder turns CSV exports into typed records. Rows decode independently
// on a bounded worker group; a bad row is logged and skipped without
// affecting its neighbours. Output order follows file order.
type Decoder struct {
	// Workers bounds concurrent row decoding. Zero means GOMAXPROCS.
	Workers int
	Logger  *zap.Logger
}

type record struct {
	row    int
	fields []string
}

func (d Decoder) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// readRecords reads every record after the first skip rows. Malformed CSV
// records count as decode errors; any other read error is fatal.
func (d Decoder) readRecords(r io.Reader, source string, skip int) ([]record, []*DecodeError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		out  []record
		bad  []*DecodeError
		line int
	)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				if line > skip {
					bad = append(bad, &DecodeError{Source: source, Row: line, Err: err})
				}
				continue
			}
			return nil, nil, fmt.Errorf("read %s csv: %w", source, err)
		}
		if line <= skip {
			continue
		}
		out = append(out, record{row: line, fields: fields})
	}
	return out, bad, nil
}

// decodeAll runs parse over every record on the worker group and flattens
// the results in record order.
func decodeAll[T any](d Decoder, source string, recs []record, bad []*DecodeError, parse func([]string) ([]T, error)) ([]T, Stats) {
	log := logging.OrNop(d.Logger)

	results := make([][]T, len(recs))
	errs := make([]error, len(recs))

	var g errgroup.Group
	g.SetLimit(d.workers())
	for i := range recs {
		g.Go(func() error {
			vals, err := parse(recs[i].fields)
			if err != nil {
				errs[i] = &DecodeError{Source: source, Row: recs[i].row, Err: err}
				return nil
			}
			results[i] = vals
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	stats := Stats{Rows: len(recs) + len(bad), Skipped: len(bad)}
	for _, e := range bad {
		log.Debug("skipping malformed row", zap.String("source", source), zap.Int("row", e.Row), zap.Error(e.Err))
	}

	var out []T
	for i, vals := range results {
		if errs[i] != nil {
			stats.Skipped++
			log.Debug("skipping row", zap.String("source", source), zap.Int("row", recs[i].row), zap.Error(errs[i]))
			continue
		}
		stats.Decoded++
		out = append(out, vals...)
	}
	return out, stats
}

func column(fields []string, i int, name string) (string, error) {
	if i >= len(fields) {
		return "", fmt.Errorf("missing %s column %d", name, i)
	}
	v := strings.TrimSpace(fields[i])
	if v == "" {
		return "", fmt.Errorf("empty %s column %d", name, i)
	}
	return v, nil
}
