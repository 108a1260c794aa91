// Package l3continuity owns Layer 3 (Continuity) of the occupancy dataset
// model.
//
// Responsibilities: splitting each location's unified stream into calendar
// days, walking every day for missing minutes, and rejecting days whose
// gaps exceed the tolerance.
// Key types: Policy, Gap, DayRecords, Rejection, Result.
//
// Dependency rule: L3 may depend on L1-L2 types, but never on L4+.
package l3continuity
