// Package dataset holds the record types shared by every layer of the
// occupancy dataset builder.
//
// The builder is split into layers, each in its own package:
//
//	L1 l1sources     decode raw CSV into typed readings, slots and samples
//	L2 l2unify       minute index, weather interpolation, per-location merge
//	L3 l3continuity  day grouping and gap-based day rejection
//	L4 l4windows     sliding windows flattened into feature rows
//	L5 l5folds       seeded fold partition and concurrent export
//
// Dependency rule: a layer may depend on this package and on lower layers,
// never on a higher one. The pipeline package wires the layers together.
package dataset
