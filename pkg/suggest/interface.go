/*
Package suggest is the matching core: a recency ordered result cache and the
literal, case-insensitive filter it memoizes.

	cache := suggest.NewResultCache(10)
	results, ok := cache.Lookup(q)
	if !ok {
		results = suggest.Filter(c.Items(), q)
		cache.Insert(q, results)
	}

Cache keys are the query exactly as typed. "React" and "react" are separate
entries even though they filter to the same items.
*/
package suggest

import "github.com/bastiangx/searchpro/pkg/corpus"

// Searcher resolves a query to results, possibly from a cache.
type Searcher interface {
	// Search returns the matching items and whether they came from the cache.
	Search(query string) (results []corpus.Item, cached bool)

	// Stats returns counters describing the searcher's cache.
	Stats() map[string]int
}

// CachedSearcher memoizes Filter over a corpus with a ResultCache.
type CachedSearcher struct {
	corpus *corpus.Corpus
	cache  *ResultCache
}

// NewCachedSearcher wires a corpus to a cache. The cache is owned by the
// returned searcher from then on.
func NewCachedSearcher(c *corpus.Corpus, cache *ResultCache) *CachedSearcher {
	if cache == nil {
		cache = NewResultCache(DefaultCacheCapacity)
	}
	return &CachedSearcher{corpus: c, cache: cache}
}

// Search never caches the empty query.
func (s *CachedSearcher) Search(query string) ([]corpus.Item, bool) {
	if query == "" {
		return nil, false
	}
	if results, ok := s.cache.Lookup(query); ok {
		return results, true
	}
	results := Filter(s.corpus.Items(), query)
	s.cache.Insert(query, results)
	return results, false
}

func (s *CachedSearcher) Stats() map[string]int {
	return s.cache.Stats()
}

// Cache exposes the underlying cache for inspection.
func (s *CachedSearcher) Cache() *ResultCache {
	return s.cache
}

var _ Searcher = (*CachedSearcher)(nil)
