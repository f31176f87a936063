package autocomplete

import (
	"context"
	"sync"

	"github.com/bastiangx/searchpro/internal/clock"
	"github.com/bastiangx/searchpro/pkg/corpus"
)

const loopQueueSize = 64

// State is a copy of the controller's visible state.
type State struct {
	Input        string
	Results      []corpus.Item
	Visible      bool
	Pending      bool
	PendingQuery string
	Resolves     int
}

// Loop owns a Controller on a single goroutine. Every public method and
// every timer callback is queued and run by Run in arrival order, so the
// controller needs no locks. Listener callbacks run on the loop goroutine.
type Loop struct {
	ctrl      *Controller
	events    chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop creates a loop around a new Controller. The controller's clock is
// wrapped so its callbacks are queued on the loop. Run must be started for
// anything to happen.
//
// newListener, when not nil, builds the listener for the owned controller.
// The controller handed to it may only be used from the listener's
// callbacks, which run on the loop goroutine.
func NewLoop(opts Options, newListener func(ctrl *Controller) Listener) *Loop {
	l := &Loop{
		events: make(chan func(), loopQueueSize),
		done:   make(chan struct{}),
	}
	base := opts.Clock
	if base == nil {
		base = clock.Real()
	}
	opts.Clock = clock.Dispatch(base, func(f func()) { l.post(f) })
	l.ctrl = New(opts, nil)
	if newListener != nil {
		if listener := newListener(l.ctrl); listener != nil {
			l.ctrl.listener = listener
		}
	}
	return l
}

// Run processes events until ctx is cancelled or Close is called. The
// controller is closed on return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	defer l.ctrl.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case f := <-l.events:
			f()
		}
	}
}

// Close stops Run. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// QueryChanged queues an input change.
func (l *Loop) QueryChanged(raw string) {
	l.post(func() { l.ctrl.QueryChanged(raw) })
}

// SelectItem queues a selection.
func (l *Loop) SelectItem(item corpus.Item) {
	l.post(func() { l.ctrl.SelectItem(item) })
}

// Focus queues a focus event.
func (l *Loop) Focus() {
	l.post(func() { l.ctrl.Focus() })
}

// Blur queues a blur event.
func (l *Loop) Blur() {
	l.post(func() { l.ctrl.Blur() })
}

// Flush queues an immediate resolve of the pending query.
func (l *Loop) Flush() {
	l.post(func() { l.ctrl.Flush() })
}

// Snapshot waits for every event queued before it and returns the state.
// ok is false when the loop has stopped.
func (l *Loop) Snapshot() (s State, ok bool) {
	ok = l.call(func() {
		q, _ := l.ctrl.PendingQuery()
		s = State{
			Input:        l.ctrl.Input(),
			Results:      l.ctrl.Results(),
			Visible:      l.ctrl.Visible(),
			Pending:      l.ctrl.Pending(),
			PendingQuery: q,
			Resolves:     l.ctrl.Resolves(),
		}
	})
	return s, ok
}

// Stats returns the controller stats, or nil when the loop has stopped.
func (l *Loop) Stats() map[string]int {
	var stats map[string]int
	l.call(func() { stats = l.ctrl.Stats() })
	return stats
}

// Corpus returns the corpus searched by the loop's controller. The corpus
// is immutable, so it can be read from any goroutine.
func (l *Loop) Corpus() *corpus.Corpus {
	return l.ctrl.Corpus()
}

func (l *Loop) post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- f:
		return true
	case <-l.done:
		return false
	}
}

func (l *Loop) call(f func()) bool {
	finished := make(chan struct{})
	if !l.post(func() { f(); close(finished) }) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}
