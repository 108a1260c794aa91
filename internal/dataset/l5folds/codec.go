package l5folds

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
)

// RowWriter writes FeatureRows as CSV in dataset.FeatureColumns order.
type RowWriter struct {
	w    *csv.Writer
	rec  []string
	rows int
}

// NewRowWriter creates a RowWriter and writes the header.
func NewRowWriter(w io.Writer) (*RowWriter, error) {
	rw := &RowWriter{w: csv.NewWriter(w)}
	cols := dataset.FeatureColumns()
	if err := rw.w.Write(cols); err != nil {
		return nil, err
	}
	rw.rec = make([]string, len(cols))
	return rw, nil
}

// Write appends one row.
func (rw *RowWriter) Write(r dataset.FeatureRow) error {
	rec := rw.rec[:0]
	rec = append(rec, strconv.Itoa(r.WindowID))
	for _, m := range r.Months {
		if m {
			rec = append(rec, "1")
		} else {
			rec = append(rec, "0")
		}
	}
	rec = append(rec, strconv.Itoa(r.DayOfMonth), strconv.Itoa(r.MinuteOfDay))
	for _, v := range r.Sensors {
		rec = append(rec, formatFloat(v))
	}
	for _, v := range r.Weather {
		rec = append(rec, formatFloat(v))
	}
	rec = append(rec, strconv.Itoa(r.People))
	rw.rows++
	return rw.w.Write(rec)
}

// Rows returns how many rows were written.
func (rw *RowWriter) Rows() int { return rw.rows }

// Flush writes buffered data and reports any write error.
func (rw *RowWriter) Flush() error {
	rw.w.Flush()
	return rw.w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadRows parses a file written by RowWriter.
func ReadRows(r io.Reader) ([]dataset.FeatureRow, error) {
	cr := csv.NewReader(r)
	cols := dataset.FeatureColumns()
	cr.FieldsPerRecord = len(cols)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, cols) {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var out []dataset.FeatureRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, row)
	}
}

func parseRow(rec []string) (dataset.FeatureRow, error) {
	var (
		r   dataset.FeatureRow
		err error
		i   int
	)
	next := func() string { s := rec[i]; i++; return s }

	if r.WindowID, err = strconv.Atoi(next()); err != nil {
		return r, err
	}
	for m := range r.Months {
		r.Months[m] = next() == "1"
	}
	if r.DayOfMonth, err = strconv.Atoi(next()); err != nil {
		return r, err
	}
	if r.MinuteOfDay, err = strconv.Atoi(next()); err != nil {
		return r, err
	}
	for f := range r.Sensors {
		if r.Sensors[f], err = strconv.ParseFloat(next(), 64); err != nil {
			return r, err
		}
	}
	for f := range r.Weather {
		if r.Weather[f], err = strconv.ParseFloat(next(), 64); err != nil {
			return r, err
		}
	}
	if r.People, err = strconv.Atoi(next()); err != nil {
		return r, err
	}
	return r, nil
}
