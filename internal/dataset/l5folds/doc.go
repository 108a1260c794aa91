// Package l5folds owns Layer 5 (Folds) of the occupancy dataset model.
//
// Responsibilities: a seeded, reproducible shuffle of day groups, the
// split into K disjoint test slices, and the concurrent per-fold export of
// test.csv and train.csv, plus reading exported rows back.
// Key types: Assignment, Exporter, FoldError, ExportResult.
//
// Dependency rule: L5 may depend on L1-L4. It is the last layer; nothing
// in the model imports it.
package l5folds
