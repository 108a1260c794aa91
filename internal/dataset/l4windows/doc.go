// Package l4windows owns Layer 4 (Windows) of the occupancy dataset model.
//
// Responsibilities: sliding fixed-size windows over each retained day and
// flattening every window into FeatureRows that share a window id.
// Key types: Window, IDAllocator, Stats.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5.
package l4windows
