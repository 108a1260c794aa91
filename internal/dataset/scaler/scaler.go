// Package scaler normalises sensor and weather columns before they are
// merged. Scalers are fitted once over the whole input and then applied
// value by value.
package scaler

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Scaler maps a raw value into its normalised form.
type Scaler interface {
	Transform(v float64) float64
}

// Method selects the scaling strategy.
type Method int

const (
	// Robust centres on the median and divides by the interquartile range.
	Robust Method = iota
	// Standard centres on the mean and divides by the population standard
	// deviation.
	Standard
)

func (m Method) String() string {
	switch m {
	case Robust:
		return "robust"
	case Standard:
		return "standard"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// ParseMethod resolves "robust" or "standard".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "robust":
		return Robust, nil
	case "standard":
		return Standard, nil
	}
	return Robust, fmt.Errorf("unknown scaling method %q", s)
}

// Fit builds a scaler of the given method over data.
func Fit(m Method, data []float64) Scaler {
	if m == Standard {
		return NewStandardScaler(data)
	}
	return NewRobustScaler(data)
}

// RobustScaler transforms v to (v - Median) / IQR.
type RobustScaler struct {
	Median float64
	IQR    float64
}

// NewRobustScaler fits median and quartiles over data. For an even count
// the median averages the two middle values; when the count is a multiple
// of four each quartile averages its two neighbours. A zero spread, or no
// data at all, leaves values unscaled apart from centring.
func NewRobustScaler(data []float64) RobustScaler {
	n := len(data)
	if n == 0 {
		return RobustScaler{IQR: 1}
	}
	sorted := slices.Clone(data)
	slices.Sort(sorted)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	q1, q3 := sorted[n/4], sorted[3*n/4]
	if n%4 == 0 {
		q1 = (sorted[n/4-1] + sorted[n/4]) / 2
		q3 = (sorted[3*n/4-1] + sorted[3*n/4]) / 2
	}

	iqr := q3 - q1
	if iqr == 0 || math.IsNaN(iqr) {
		iqr = 1
	}
	return RobustScaler{Median: median, IQR: iqr}
}

// Transform implements Scaler.
func (s RobustScaler) Transform(v float64) float64 {
	return (v - s.Median) / s.IQR
}

// StandardScaler transforms v to (v - Mean) / StdDev.
type StandardScaler struct {
	Mean   float64
	StdDev float64
}

// NewStandardScaler fits the population mean and standard deviation.
func NewStandardScaler(data []float64) StandardScaler {
	if len(data) == 0 {
		return StandardScaler{StdDev: 1}
	}
	mean, std := stat.PopMeanStdDev(data, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return StandardScaler{Mean: mean, StdDev: std}
}

// Transform implements Scaler.
func (s StandardScaler) Transform(v float64) float64 {
	return (v - s.Mean) / s.StdDev
}
