package l2unify

import (
	"slices"
	"sync"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
)

// DefaultShards is the shard count used when none is given.
const DefaultShards = 16

// MinuteIndex is a concurrent multimap from minute to values. Keys are
// spread over lock-guarded shards by minute modulo the shard count, so
// writers touching different minutes rarely contend.
type MinuteIndex[V any] struct {
	shards []indexShard[V]
}

type indexShard[V any] struct {
	mu sync.Mutex
	m  map[dataset.Minute][]V
}

// NewMinuteIndex creates an index with n shards, or DefaultShards when n
// is not positive.
func NewMinuteIndex[V any](n int) *MinuteIndex[V] {
	if n <= 0 {
		n = DefaultShards
	}
	ix := &MinuteIndex[V]{shards: make([]indexShard[V], n)}
	for i := range ix.shards {
		ix.shards[i].m = make(map[dataset.Minute][]V)
	}
	return ix
}

// Shards returns the shard count.
func (ix *MinuteIndex[V]) Shards() int { return len(ix.shards) }

// ShardOf returns the shard holding m.
func (ix *MinuteIndex[V]) ShardOf(m dataset.Minute) int {
	n := dataset.Minute(len(ix.shards))
	s := m % n
	if s < 0 {
		s += n
	}
	return int(s)
}

// Append adds v under m.
func (ix *MinuteIndex[V]) Append(m dataset.Minute, v V) {
	sh := &ix.shards[ix.ShardOf(m)]
	sh.mu.Lock()
	sh.m[m] = append(sh.m[m], v)
	sh.mu.Unlock()
}

// Update replaces the values under m with fn's result while holding the
// shard lock. Returning an empty slice removes the key.
func (ix *MinuteIndex[V]) Update(m dataset.Minute, fn func([]V) []V) {
	sh := &ix.shards[ix.ShardOf(m)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	vals := fn(sh.m[m])
	if len(vals) == 0 {
		delete(sh.m, m)
		return
	}
	sh.m[m] = vals
}

// Get returns a copy of the values stored under m.
func (ix *MinuteIndex[V]) Get(m dataset.Minute) []V {
	sh := &ix.shards[ix.ShardOf(m)]
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return slices.Clone(sh.m[m])
}

// Len returns the number of distinct minutes.
func (ix *MinuteIndex[V]) Len() int {
	n := 0
	for i := range ix.shards {
		sh := &ix.shards[i]
		sh.mu.Lock()
		n += len(sh.m)
		sh.mu.Unlock()
	}
	return n
}

// Minutes returns every key in ascending order.
func (ix *MinuteIndex[V]) Minutes() []dataset.Minute {
	var out []dataset.Minute
	for i := range ix.shards {
		sh := &ix.shards[i]
		sh.mu.Lock()
		for m := range sh.m {
			out = append(out, m)
		}
		sh.mu.Unlock()
	}
	slices.Sort(out)
	return out
}

// Each calls fn for every minute in ascending order. fn receives the
// stored slice and may modify its elements in place; it must not call
// back into the index.
func (ix *MinuteIndex[V]) Each(fn func(dataset.Minute, []V)) {
	for _, m := range ix.Minutes() {
		sh := &ix.shards[ix.ShardOf(m)]
		sh.mu.Lock()
		fn(m, sh.m[m])
		sh.mu.Unlock()
	}
}

// build partitions items by shard and feeds each shard's items to add in
// input order, one goroutine per shard. Per-key results therefore do not
// depend on scheduling.
func build[T, V any](ix *MinuteIndex[V], items []T, minute func(T) dataset.Minute, add func([]V, T) []V) {
	parts := make([][]T, len(ix.shards))
	for _, it := range items {
		s := ix.ShardOf(minute(it))
		parts[s] = append(parts[s], it)
	}

	var wg sync.WaitGroup
	for s := range parts {
		if len(parts[s]) == 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sh := &ix.shards[s]
			sh.mu.Lock()
			defer sh.mu.Unlock()
			for _, it := range parts[s] {
				m := minute(it)
				sh.m[m] = add(sh.m[m], it)
			}
		}()
	}
	wg.Wait()
}

// IndexSnapshots folds sensor readings into one SensorSnapshot per
// (minute, location). A later reading of the same field replaces an
// earlier one.
func IndexSnapshots(readings []dataset.SensorReading, shards int) *MinuteIndex[dataset.SensorSnapshot] {
	ix := NewMinuteIndex[dataset.SensorSnapshot](shards)
	build(ix, readings,
		func(r dataset.SensorReading) dataset.Minute { return r.Minute },
		func(snaps []dataset.SensorSnapshot, r dataset.SensorReading) []dataset.SensorSnapshot {
			for i := range snaps {
				if snaps[i].Location == r.Location {
					snaps[i].Set(r.Field, r.Value)
					return snaps
				}
			}
			s := dataset.SensorSnapshot{Location: r.Location}
			s.Set(r.Field, r.Value)
			return append(snaps, s)
		})
	return ix
}

// IndexOccupancy groups occupancy slots by minute.
func IndexOccupancy(slots []dataset.OccupancySlot, shards int) *MinuteIndex[dataset.OccupancySlot] {
	ix := NewMinuteIndex[dataset.OccupancySlot](shards)
	build(ix, slots,
		func(s dataset.OccupancySlot) dataset.Minute { return s.Minute },
		func(vals []dataset.OccupancySlot, s dataset.OccupancySlot) []dataset.OccupancySlot {
			return append(vals, s)
		})
	return ix
}

// OccupancyAt returns the count for loc at m. Overlapping facts resolve
// to the largest count.
func OccupancyAt(ix *MinuteIndex[dataset.OccupancySlot], m dataset.Minute, loc dataset.Location) (int, bool) {
	if ix == nil {
		return 0, false
	}
	sh := &ix.shards[ix.ShardOf(m)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	count, found := 0, false
	for _, s := range sh.m[m] {
		if s.Location != loc {
			continue
		}
		if !found || s.Count > count {
			count = s.Count
		}
		found = true
	}
	return count, found
}
