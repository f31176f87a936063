//go:build test

package autocomplete

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/bastiangx/searchpro/internal/clock"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/charmbracelet/log"
)

var typingPatterns = [][]string{
	{"r", "re", "rea", "reac", "react"},
	{"n", "ne", "nex", "next", "next.", "next.j", "next.js"},
	{"t", "ty", "typ", "type", "types", "typesc", "typescr", "typescri", "typescrip", "typescript"},
	{"n", "no", "nod", "node"},
	{"r", "re", "red", "redu", "redux"},
	{"t", "ta", "tai", "tail", "tailw", "tailwi", "tailwin", "tailwind"},
	{"p", "pe", "per", "perf"},
	{"q", "qu", "que", "quer", "query"},
	{"z", "zz", "zzz"},
}

func TestMemoryLeakBursts(t *testing.T) {
	iterations := []int{100, 500, 1000, 2500}

	for _, iterCount := range iterations {
		t.Run(fmt.Sprintf("iterations_%d", iterCount), func(t *testing.T) {
			runBurstMemoryTest(t, iterCount)
		})
	}
}

func TestMemoryLeakLoops(t *testing.T) {
	counts := []int{10, 100, 500}

	for _, n := range counts {
		t.Run(fmt.Sprintf("loops_%d", n), func(t *testing.T) {
			runLoopLifecycleTest(t, n)
		})
	}
}

func runBurstMemoryTest(t *testing.T, iterations int) {
	clk := clock.NewManual()
	ctrl := New(Options{Corpus: corpus.Default(), Clock: clk, Logger: log.New(io.Discard)}, nil)
	defer ctrl.Close()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	totalOps := 0
	for i := 0; i < iterations; i++ {
		for _, pattern := range typingPatterns {
			for _, q := range pattern {
				ctrl.QueryChanged(q)
				clk.Advance(50 * time.Millisecond)
				totalOps++
			}
			clk.Advance(DefaultDelay)
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	finalGoroutines := runtime.NumGoroutine()

	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := finalGoroutines - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("iterations=%d ops=%d resolves=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		iterations, totalOps, ctrl.Resolves(), memDelta, memPerOp, goroutineDelta)

	if want := iterations * len(typingPatterns); ctrl.Resolves() != want {
		t.Errorf("resolves = %d, want one per burst (%d)", ctrl.Resolves(), want)
	}
	if ctrl.Cache().Len() > ctrl.Cache().Capacity() {
		t.Errorf("cache grew past capacity: %d > %d", ctrl.Cache().Len(), ctrl.Cache().Capacity())
	}
	if clk.Pending() != 0 {
		t.Errorf("%d timers left alive", clk.Pending())
	}
	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func runLoopLifecycleTest(t *testing.T, loops int) {
	runtime.GC()
	baselineGoroutines := runtime.NumGoroutine()

	for i := 0; i < loops; i++ {
		l := NewLoop(Options{
			Corpus: corpus.Default(),
			Delay:  time.Hour,
			Logger: log.New(io.Discard),
		}, nil)
		done := make(chan error, 1)
		go func() { done <- l.Run(context.Background()) }()

		// Leave a real timer armed; Close must stop it.
		l.QueryChanged("react")
		l.Snapshot()
		l.Close()
		<-done
	}

	// Give exited goroutines a moment to be reaped.
	time.Sleep(50 * time.Millisecond)
	runtime.GC()
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines

	t.Logf("loops=%d goroutine_delta=%d", loops, goroutineDelta)

	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
