//go:build debug

package suggest

import "fmt"

// checkInvariants panics when the cache holds a duplicate query or grew past
// its capacity. Only compiled with -tags debug.
func (rc *ResultCache) checkInvariants() {
	if len(rc.entries) > rc.capacity {
		panic(fmt.Sprintf("suggest: cache holds %d entries, capacity %d", len(rc.entries), rc.capacity))
	}
	seen := make(map[string]struct{}, len(rc.entries))
	for _, e := range rc.entries {
		if _, dup := seen[e.query]; dup {
			panic(fmt.Sprintf("suggest: duplicate cache key %q", e.query))
		}
		seen[e.query] = struct{}{}
	}
}
