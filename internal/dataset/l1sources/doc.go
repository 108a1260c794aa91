// Package l1sources owns Layer 1 (Sources) of the occupancy dataset model.
//
// Responsibilities: decoding the sensor, occupancy and weather CSV exports
// into typed records, and expanding lesson blocks into per-minute
// occupancy facts.
// Key types: Decoder, DecodeError, Stats, LessonBlock.
//
// Dependency rule: L1 depends only on the shared dataset types. It never
// joins sources; that is Layer 2.
package l1sources
