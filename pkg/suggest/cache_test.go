package suggest

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/bastiangx/searchpro/pkg/corpus"
)

func items(names ...string) []corpus.Item {
	out := make([]corpus.Item, len(names))
	for i, n := range names {
		out[i] = corpus.Item{ID: i + 1, Name: n}
	}
	return out
}

func TestNewResultCache(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{"explicit", 3, 3},
		{"zero falls back", 0, DefaultCacheCapacity},
		{"negative falls back", -4, DefaultCacheCapacity},
		{"huge is not preallocated", 1 << 30, 1 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := NewResultCache(tt.capacity)
			if rc.Capacity() != tt.want {
				t.Errorf("Capacity() = %d, want %d", rc.Capacity(), tt.want)
			}
			if rc.Len() != 0 {
				t.Errorf("Len() = %d, want 0", rc.Len())
			}
			if cap(rc.entries) > DefaultCacheCapacity {
				t.Errorf("cap(entries) = %d, want at most %d", cap(rc.entries), DefaultCacheCapacity)
			}
		})
	}
}

func TestResultCache_LookupMissLeavesOrder(t *testing.T) {
	rc := NewResultCache(3)
	rc.Insert("a", nil)
	rc.Insert("b", nil)

	if _, ok := rc.Lookup("c"); ok {
		t.Fatal("expected miss for unknown query")
	}
	if got, want := rc.Queries(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
}

func TestResultCache_LookupRelocates(t *testing.T) {
	rc := NewResultCache(10)
	q1 := items("React Query")
	rc.Insert("Q1", q1)
	rc.Insert("Q2", nil)
	rc.Insert("Q3", nil)

	got, ok := rc.Lookup("Q1")
	if !ok {
		t.Fatal("expected hit for Q1")
	}
	if !reflect.DeepEqual(got, q1) {
		t.Errorf("Lookup(Q1) = %v, want %v", got, q1)
	}
	if got, want := rc.Queries(), []string{"Q2", "Q3", "Q1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}

	// Hitting the most recent entry keeps the order.
	rc.Lookup("Q1")
	if got, want := rc.Queries(), []string{"Q2", "Q3", "Q1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
}

func TestResultCache_Capacity(t *testing.T) {
	const capacity = 10
	rc := NewResultCache(capacity)

	for i := 0; i < 25; i++ {
		rc.Insert(fmt.Sprintf("q%02d", i), nil)
		if rc.Len() > capacity {
			t.Fatalf("Len() = %d after %d inserts, exceeds %d", rc.Len(), i+1, capacity)
		}
	}

	want := make([]string, 0, capacity)
	for i := 15; i < 25; i++ {
		want = append(want, fmt.Sprintf("q%02d", i))
	}
	if got := rc.Queries(); !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
	if got := rc.Stats()["cacheEvictions"]; got != 15 {
		t.Errorf("cacheEvictions = %d, want 15", got)
	}
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	rc := NewResultCache(3)
	rc.Insert("a", nil)
	rc.Insert("b", nil)
	rc.Insert("c", nil)

	rc.Lookup("a") // b is now the oldest

	rc.Insert("d", nil)

	if _, ok := rc.Lookup("b"); ok {
		t.Error("expected b to be evicted")
	}
	if got, want := rc.Queries(), []string{"c", "a", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
}

func TestResultCache_InsertExistingKey(t *testing.T) {
	rc := NewResultCache(3)
	first := items("Redux Saga")
	if !rc.Insert("redux", first) {
		t.Fatal("first Insert should add an entry")
	}
	rc.Insert("node", nil)

	if rc.Insert("redux", items("something else")) {
		t.Error("Insert of an existing key should not add an entry")
	}
	if rc.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rc.Len())
	}
	if got, want := rc.Queries(), []string{"node", "redux"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
	got, _ := rc.Lookup("redux")
	if !reflect.DeepEqual(got, first) {
		t.Errorf("stored results changed: got %v, want %v", got, first)
	}
}

func TestResultCache_KeysAreCaseSensitive(t *testing.T) {
	rc := NewResultCache(5)
	rc.Insert("React", nil)

	if _, ok := rc.Lookup("react"); ok {
		t.Error("lookup should not normalize case")
	}
}

func TestResultCache_StatsAndReset(t *testing.T) {
	rc := NewResultCache(2)
	rc.Lookup("x")
	rc.Insert("x", nil)
	rc.Lookup("x")

	stats := rc.Stats()
	if stats["cacheHits"] != 1 || stats["cacheMisses"] != 1 || stats["cacheEntries"] != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}

	rc.Reset()
	stats = rc.Stats()
	if stats["cacheHits"] != 0 || stats["cacheEntries"] != 0 {
		t.Errorf("stats after Reset = %v", stats)
	}
	if stats["cacheCapacity"] != 2 {
		t.Errorf("cacheCapacity = %d, want 2", stats["cacheCapacity"])
	}
}
