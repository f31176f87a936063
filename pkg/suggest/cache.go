package suggest

import (
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/charmbracelet/log"
)

// DefaultCacheCapacity is the number of queries kept when no capacity is given.
const DefaultCacheCapacity = 10

type cacheEntry struct {
	query   string
	results []corpus.Item
}

// ResultCache maps exact query strings to their filtered results and keeps
// at most capacity entries, evicting the least recently used one.
//
// Entries are ordered from least recently used (front) to most recently used
// (back). Both Lookup hits and Insert count as a use.
//
// It is not safe for concurrent use; it belongs to a single controller.
type ResultCache struct {
	entries   []cacheEntry
	capacity  int
	hits      int
	misses    int
	evictions int
}

// NewResultCache creates an empty cache. A capacity <= 0 uses DefaultCacheCapacity.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ResultCache{
		entries:  make([]cacheEntry, 0, min(capacity, DefaultCacheCapacity)),
		capacity: capacity,
	}
}

// Lookup returns the stored results for query. A hit moves the entry to the
// most recently used end; a miss leaves the cache untouched.
func (rc *ResultCache) Lookup(query string) ([]corpus.Item, bool) {
	i := rc.indexOf(query)
	if i < 0 {
		rc.misses++
		return nil, false
	}
	rc.hits++
	return rc.touch(i).results, true
}

// Insert stores results for query and reports whether a new entry was added.
// If query is already cached the existing entry is only moved to the most
// recently used end and its stored results are kept.
func (rc *ResultCache) Insert(query string, results []corpus.Item) bool {
	if i := rc.indexOf(query); i >= 0 {
		rc.touch(i)
		log.Debugf("Query %q already cached, relocated", query)
		return false
	}

	if len(rc.entries) >= rc.capacity {
		evicted := rc.entries[0]
		copy(rc.entries, rc.entries[1:])
		rc.entries = rc.entries[:len(rc.entries)-1]
		rc.evictions++
		log.Debugf("Evicted query %q from result cache", evicted.query)
	}
	rc.entries = append(rc.entries, cacheEntry{query: query, results: results})

	rc.checkInvariants()
	return true
}

// Len returns the number of cached queries.
func (rc *ResultCache) Len() int {
	return len(rc.entries)
}

// Capacity returns the maximum number of cached queries.
func (rc *ResultCache) Capacity() int {
	return rc.capacity
}

// Queries returns the cached queries from least to most recently used.
func (rc *ResultCache) Queries() []string {
	out := make([]string, len(rc.entries))
	for i, e := range rc.entries {
		out[i] = e.query
	}
	return out
}

// Reset drops every entry and zeroes the counters.
func (rc *ResultCache) Reset() {
	rc.entries = rc.entries[:0]
	rc.hits, rc.misses, rc.evictions = 0, 0, 0
}

func (rc *ResultCache) Stats() map[string]int {
	return map[string]int{
		"cacheEntries":   len(rc.entries),
		"cacheCapacity":  rc.capacity,
		"cacheHits":      rc.hits,
		"cacheMisses":    rc.misses,
		"cacheEvictions": rc.evictions,
	}
}

func (rc *ResultCache) indexOf(query string) int {
	for i := range rc.entries {
		if rc.entries[i].query == query {
			return i
		}
	}
	return -1
}

// touch moves entry i to the back and returns it.
func (rc *ResultCache) touch(i int) cacheEntry {
	e := rc.entries[i]
	if i == len(rc.entries)-1 {
		return e
	}
	copy(rc.entries[i:], rc.entries[i+1:])
	rc.entries[len(rc.entries)-1] = e
	return e
}
