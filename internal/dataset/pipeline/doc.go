// Package pipeline wires the dataset layers into one run: load and decode
// the exports, scale, unify, filter, window, partition and export.
//
// A run either fails before anything is written (invalid configuration or
// an unreadable input file) or produces a Report. A report whose export
// lost one or more folds has StatusPartial and carries the joined fold
// errors.
package pipeline
