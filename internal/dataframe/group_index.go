package dataframe

import (
	xxhash "github.com/cespare/xxhash/v2"
)

const (
	groupIndexLoadFactor     = 0.75 // load factor before the bucket array doubles
	groupIndexGrowthFactor   = 2    // growth factor on resize
	groupIndexCapacityFactor = 1.3  // initial capacity relative to the expected group count
	groupIndexMinCapacity    = 8
)

// groupIndex maps a group key to the row indices belonging to it.
// Buckets are selected with xxhash; keys keep first-insertion order.
type groupIndex struct {
	buckets  [][]groupEntry
	capacity int
	size     int
	keys     []string
}

type groupEntry struct {
	key  string
	rows []int
}

func newGroupIndex(estimatedSize int) *groupIndex {
	capacity := nextPowerOfTwo(int(float64(estimatedSize) * groupIndexCapacityFactor))
	return &groupIndex{
		buckets:  make([][]groupEntry, capacity),
		capacity: capacity,
	}
}

func (g *groupIndex) bucket(key string, capacity int) int {
	return int(xxhash.Sum64String(key) & uint64(capacity-1))
}

// put appends row to the group identified by key
func (g *groupIndex) put(key string, row int) {
	idx := g.bucket(key, g.capacity)

	for i := range g.buckets[idx] {
		if g.buckets[idx][i].key == key {
			g.buckets[idx][i].rows = append(g.buckets[idx][i].rows, row)
			return
		}
	}

	g.buckets[idx] = append(g.buckets[idx], groupEntry{key: key, rows: []int{row}})
	g.keys = append(g.keys, key)
	g.size++

	if float64(g.size) > float64(g.capacity)*groupIndexLoadFactor {
		g.resize()
	}
}

// get returns the rows of the group identified by key
func (g *groupIndex) get(key string) ([]int, bool) {
	idx := g.bucket(key, g.capacity)
	for _, entry := range g.buckets[idx] {
		if entry.key == key {
			return entry.rows, true
		}
	}
	return nil, false
}

func (g *groupIndex) resize() {
	newCapacity := g.capacity * groupIndexGrowthFactor
	newBuckets := make([][]groupEntry, newCapacity)

	for _, b := range g.buckets {
		for _, entry := range b {
			idx := g.bucket(entry.key, newCapacity)
			newBuckets[idx] = append(newBuckets[idx], entry)
		}
	}

	g.buckets = newBuckets
	g.capacity = newCapacity
}

// nextPowerOfTwo returns the smallest power of two >= n, never below the minimum capacity
func nextPowerOfTwo(n int) int {
	p := groupIndexMinCapacity
	for p < n {
		p <<= 1
	}
	return p
}
