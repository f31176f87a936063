package autocomplete

import (
	"time"

	"github.com/bastiangx/searchpro/internal/clock"
	"github.com/bastiangx/searchpro/internal/logger"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/bastiangx/searchpro/pkg/suggest"
	"github.com/charmbracelet/log"
)

// DefaultDelay is how long input has to stay quiet before a query resolves.
const DefaultDelay = 300 * time.Millisecond

// Options configures a Controller. Only Corpus is required.
type Options struct {
	Corpus *corpus.Corpus

	// Cache is injected as is when set; otherwise one is built with
	// CacheCapacity.
	Cache         *suggest.ResultCache
	CacheCapacity int

	// Delay <= 0 uses DefaultDelay.
	Delay time.Duration

	// Clock defaults to clock.Real(). Callbacks must run on the goroutine
	// that owns the controller; see Loop.
	Clock clock.Clock

	Logger *log.Logger
}

// pendingTimer is the single outstanding debounce timer.
type pendingTimer struct {
	timer clock.Timer
	token uint64
	query string
}

// Controller turns a burst of input changes into one cached search per
// settled period and tracks what the dropdown shows.
//
// States: Idle (pending == nil) and Pending(q). QueryChanged always cancels
// the current timer before arming a new one, so at most one timer is alive.
//
// A Controller is not safe for concurrent use. All methods, and the timer
// callbacks delivered by its Clock, must run on one goroutine.
type Controller struct {
	corpus   *corpus.Corpus
	cache    *suggest.ResultCache
	searcher *suggest.CachedSearcher
	delay    time.Duration
	clock    clock.Clock
	listener Listener
	log      *log.Logger

	input   string
	results []corpus.Item
	visible bool

	pending *pendingTimer
	token   uint64
	closed  bool

	inputEvents int
	resolves    int
}

// New creates a controller in the Idle state. listener may be nil.
func New(opts Options, listener Listener) *Controller {
	if opts.Corpus == nil {
		opts.Corpus = corpus.MustNew(nil)
	}
	if opts.Cache == nil {
		opts.Cache = suggest.NewResultCache(opts.CacheCapacity)
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("autocomplete")
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}

	return &Controller{
		corpus:   opts.Corpus,
		cache:    opts.Cache,
		searcher: suggest.NewCachedSearcher(opts.Corpus, opts.Cache),
		delay:    opts.Delay,
		clock:    opts.Clock,
		listener: listener,
		log:      opts.Logger,
	}
}

// QueryChanged records raw as the current input and restarts the debounce
// timer for it. It never blocks.
func (c *Controller) QueryChanged(raw string) {
	if c.closed {
		return
	}
	c.inputEvents++
	c.input = raw
	c.arm(raw)
}

// SelectItem fills the input with the item's name, clears and hides the
// results and drops any pending search.
func (c *Controller) SelectItem(item corpus.Item) {
	if c.closed {
		return
	}
	c.cancel()
	c.input = item.Name
	c.results = nil
	c.visible = false

	c.log.Debug("Item selected", "id", item.ID, "name", item.Name)
	c.listener.ItemSelected(item)
	c.listener.ResultsChanged(nil, false)
}

// Focus re-shows the last results, if any, without searching again.
func (c *Controller) Focus() {
	if c.closed || len(c.results) == 0 || c.visible {
		return
	}
	c.visible = true
	c.listener.ResultsChanged(c.results, true)
}

// Blur hides the results but keeps them for a later Focus.
func (c *Controller) Blur() {
	if c.closed || !c.visible {
		return
	}
	c.visible = false
	c.listener.ResultsChanged(c.results, false)
}

// Close cancels the pending timer. Later calls are ignored.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.cancel()
	c.closed = true
}

// Flush resolves the pending query immediately, as if its timer had expired.
// It does nothing when Idle.
func (c *Controller) Flush() {
	if c.closed || c.pending == nil {
		return
	}
	q := c.pending.query
	c.cancel()
	c.resolve(q)
}

func (c *Controller) arm(q string) {
	c.cancel()

	c.token++
	token := c.token
	p := &pendingTimer{token: token, query: q}
	p.timer = c.clock.AfterFunc(c.delay, func() {
		c.expire(token)
	})
	c.pending = p
}

func (c *Controller) cancel() {
	if c.pending == nil {
		return
	}
	c.pending.timer.Stop()
	c.pending = nil
}

// expire runs when a timer fires. A token that no longer matches the
// pending timer belongs to a cancelled arm and is dropped.
func (c *Controller) expire(token uint64) {
	if c.closed || c.pending == nil || c.pending.token != token {
		c.log.Debug("Dropped stale debounce timer", "token", token)
		return
	}
	q := c.pending.query
	c.pending = nil
	c.resolve(q)
}

func (c *Controller) resolve(q string) {
	c.resolves++

	start := time.Now()
	results, cached := c.searcher.Search(q)
	if q != "" {
		c.log.Debug("Resolved query", "query", q, "count", len(results), "cached", cached, "took", time.Since(start))
	}

	c.results = results
	c.visible = len(results) > 0
	c.listener.ResultsChanged(results, c.visible)
}

// Input returns the current input value.
func (c *Controller) Input() string { return c.input }

// Results returns the current results. The slice must not be modified.
func (c *Controller) Results() []corpus.Item { return c.results }

// Visible reports whether the results should be shown.
func (c *Controller) Visible() bool { return c.visible }

// Pending reports whether a debounce timer is armed.
func (c *Controller) Pending() bool { return c.pending != nil }

// PendingQuery returns the query waiting on the armed timer, if any.
func (c *Controller) PendingQuery() (string, bool) {
	if c.pending == nil {
		return "", false
	}
	return c.pending.query, true
}

// Resolves returns how many times a query has been resolved.
func (c *Controller) Resolves() int { return c.resolves }

// Cache returns the controller's result cache.
func (c *Controller) Cache() *suggest.ResultCache { return c.cache }

// Corpus returns the corpus searched by the controller.
func (c *Controller) Corpus() *corpus.Corpus { return c.corpus }

func (c *Controller) Stats() map[string]int {
	stats := c.cache.Stats()
	stats["resolves"] = c.resolves
	stats["inputEvents"] = c.inputEvents
	stats["corpusItems"] = c.corpus.Len()
	return stats
}
