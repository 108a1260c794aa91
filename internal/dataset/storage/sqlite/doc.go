// Package sqlite records dataset runs in a SQLite database.
//
// Each run stores its headline counts, the full JSON report, one row per
// fold and one row per day the continuity filter rejected. The schema is
// embedded and migrated with golang-migrate on Open.
package sqlite
