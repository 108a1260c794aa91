// Package l2unify owns Layer 2 (Unification) of the occupancy dataset model.
//
// Responsibilities: grouping decoded records by minute, interpolating the
// sparse weather series, and joining sensors, occupancy and weather into
// one chronologically sorted stream of MergedRecords per location.
// Key types: MinuteIndex, WeatherSeries, Joins, Options, Result.
//
// Dependency rule: L2 may depend on L1 types, but never on L3+.
package l2unify
