// Package cli is a line based front end for debugging the suggestion
// controller without a terminal UI or an IPC client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/bastiangx/searchpro/pkg/autocomplete"
	"github.com/bastiangx/searchpro/pkg/config"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/bastiangx/searchpro/pkg/suggest"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const namesLimit = 10

var matchStyle = lipgloss.NewStyle().Bold(true).
	Foreground(lipgloss.AdaptiveColor{Light: "#286983", Dark: "#9ccfd8"})

// InputHandler reads lines from its input and feeds each one to a Loop as an
// input change. Lines starting with ':' are commands. Results are printed
// whenever the controller pushes them.
type InputHandler struct {
	loop         *autocomplete.Loop
	in           io.Reader
	out          *log.Logger
	maxQuery     int
	maxRows      int
	showStats    bool
	requestCount atomic.Int64

	// Only touched by listener callbacks on the loop goroutine.
	selected bool
}

// NewInputHandler creates a handler reading from in and printing to out.
func NewInputHandler(opts autocomplete.Options, cfg *config.Config, in io.Reader, out io.Writer) *InputHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	h := &InputHandler{
		in: in,
		out: log.NewWithOptions(out, log.Options{
			ReportCaller:    false,
			ReportTimestamp: false,
		}),
		maxQuery:  cfg.Server.MaxQuery,
		maxRows:   cfg.CLI.MaxRows,
		showStats: cfg.CLI.ShowStats,
	}
	h.loop = autocomplete.NewLoop(opts, func(ctrl *autocomplete.Controller) autocomplete.Listener {
		return autocomplete.ListenerFuncs{
			OnResults: func(items []corpus.Item, visible bool) {
				h.printResults(ctrl, items, visible)
			},
			OnSelected: h.printSelected,
		}
	})
	return h
}

// Start begins the interface loop. It returns nil once the input is
// exhausted, after flushing any pending query.
func (h *InputHandler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() { loopDone <- h.loop.Run(ctx) }()
	defer func() {
		h.loop.Close()
		<-loopDone
	}()

	h.out.Print("SearchPro CLI [DBG]")
	h.out.Print("type to search, :help for commands (Ctrl+C to exit):")

	scanner := bufio.NewScanner(h.in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.HasPrefix(line, ":") {
			if quit := h.handleCommand(strings.TrimPrefix(line, ":")); quit {
				return nil
			}
			continue
		}
		h.handleInput(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	h.loop.Flush()
	h.loop.Snapshot()
	return nil
}

// handleInput forwards one line as the new input value.
func (h *InputHandler) handleInput(line string) {
	h.requestCount.Add(1)
	if n := utf8.RuneCountInString(line); n > h.maxQuery {
		log.Errorf("Query too long: %d characters (max %d)", n, h.maxQuery)
		return
	}
	h.loop.QueryChanged(line)
}

// handleCommand runs a ':' command and reports whether to quit.
func (h *InputHandler) handleCommand(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "q", "quit":
		return true
	case "flush":
		h.loop.Flush()
		h.loop.Snapshot()
	case "focus":
		h.loop.Focus()
		h.loop.Snapshot()
	case "blur":
		h.loop.Blur()
		h.loop.Snapshot()
	case "select", "s":
		h.selectItem(arg)
	case "names":
		h.printNames(arg)
	case "stats":
		h.printStats()
	case "help", "h":
		h.printHelp()
	default:
		log.Errorf("Unknown command: %s", cmd)
	}
	return false
}

// selectItem accepts a 1-based row of the shown results or an item name.
func (h *InputHandler) selectItem(arg string) {
	if arg == "" {
		log.Error("select needs a row number or a name")
		return
	}

	if row, err := strconv.Atoi(arg); err == nil {
		state, ok := h.loop.Snapshot()
		if !ok {
			return
		}
		if !state.Visible || row < 1 || row > len(state.Results) {
			log.Errorf("No row %d in the shown results", row)
			return
		}
		h.loop.SelectItem(state.Results[row-1])
		h.loop.Snapshot()
		return
	}

	item, ok := h.loop.Corpus().ByName(arg)
	if !ok {
		log.Errorf("Unknown item: %q", arg)
		return
	}
	h.loop.SelectItem(item)
	h.loop.Snapshot()
}

// printResults runs on the loop goroutine, so it reads the controller
// directly instead of going through the loop.
func (h *InputHandler) printResults(ctrl *autocomplete.Controller, items []corpus.Item, visible bool) {
	query := ctrl.Input()

	if h.selected {
		h.selected = false
		return
	}
	if !visible {
		if len(items) == 0 && query != "" {
			h.out.Printf("No suggestions for '%s'", query)
		} else if len(items) > 0 {
			h.out.Print("(hidden)")
		}
		return
	}

	h.out.Printf("Found %d suggestions for '%s':", len(items), query)
	for i, it := range items {
		if i == h.maxRows {
			h.out.Printf("    ... %d more", len(items)-h.maxRows)
			break
		}
		h.out.Printf("%2d. %s (id %d)", i+1, highlight(it.Name, query), it.ID)
	}
	if h.showStats {
		h.printStatsLine(ctrl.Stats())
	}
}

func (h *InputHandler) printSelected(item corpus.Item) {
	h.selected = true
	h.out.Printf("Selected: %s (id %d)", item.Name, item.ID)
}

func (h *InputHandler) printNames(prefix string) {
	items := h.loop.Corpus().NamesWithPrefix(prefix, namesLimit)
	if len(items) == 0 {
		h.out.Printf("No names start with '%s'", prefix)
		return
	}
	for _, it := range items {
		h.out.Printf("  %s (id %d)", it.Name, it.ID)
	}
}

func (h *InputHandler) printStats() {
	h.printStatsLine(h.loop.Stats())
}

func (h *InputHandler) printStatsLine(stats map[string]int) {
	h.out.Printf("cache %d/%d  hits %d  misses %d  evictions %d  resolves %d  lines %d",
		stats["cacheEntries"], stats["cacheCapacity"], stats["cacheHits"],
		stats["cacheMisses"], stats["cacheEvictions"], stats["resolves"], h.requestCount.Load())
}

func (h *InputHandler) printHelp() {
	h.out.Print("  <text>          set the input (debounced)")
	h.out.Print("  :flush          search the pending input now")
	h.out.Print("  :select N|name  select row N or an item by name")
	h.out.Print("  :focus / :blur  show or hide the last results")
	h.out.Print("  :names prefix   list item names starting with prefix")
	h.out.Print("  :stats          cache and controller counters")
	h.out.Print("  :quit")
}

func highlight(text, query string) string {
	var b strings.Builder
	for _, seg := range suggest.Highlight(text, query) {
		if seg.Match {
			b.WriteString(matchStyle.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
