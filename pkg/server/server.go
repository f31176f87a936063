package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/searchpro/pkg/autocomplete"
	"github.com/bastiangx/searchpro/pkg/config"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles msgpack IPC for one suggestion widget.
type Server struct {
	loop     *autocomplete.Loop
	config   *config.Config
	reader   io.Reader
	writer   io.Writer
	mu       sync.Mutex
	requests int
	rejected int
}

// NewServer creates a server reading frames from r and writing to w.
// opts configures the controller; cfg supplies the request limits.
func NewServer(opts autocomplete.Options, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		config: cfg,
		reader: r,
		writer: w,
	}
	s.loop = autocomplete.NewLoop(opts, func(*autocomplete.Controller) autocomplete.Listener {
		return autocomplete.ListenerFuncs{
			OnResults:  s.pushResults,
			OnSelected: s.pushSelected,
		}
	})
	return s
}

// Start serves until the input is exhausted or ctx is cancelled. Reaching
// EOF is a clean shutdown that first resolves any pending query.
func (s *Server) Start(ctx context.Context) error {
	log.Debug("Starting server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan error, 1)
	go func() { loopDone <- s.loop.Run(ctx) }()
	defer func() {
		s.loop.Close()
		<-loopDone
	}()

	s.send(StatusResponse{Status: "ready"})

	frames := make(chan msgpack.RawMessage)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go s.readFrames(frames, readErr, stop)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				log.Debug("Input closed, stopping server")
				// Resolve a query still waiting on its timer, then let the
				// queued events produce their frames.
				s.loop.Flush()
				s.loop.Snapshot()
				return nil
			}
			log.Errorf("Reading from input: %v", err)
			return err
		case raw := <-frames:
			s.handleFrame(raw)
		}
	}
}

// readFrames decodes one raw msgpack value at a time so a malformed request
// body never desynchronizes the stream.
func (s *Server) readFrames(frames chan<- msgpack.RawMessage, errs chan<- error, stop <-chan struct{}) {
	dec := msgpack.NewDecoder(s.reader)
	for {
		var raw msgpack.RawMessage
		if err := dec.Decode(&raw); err != nil {
			errs <- err
			return
		}
		select {
		case frames <- raw:
		case <-stop:
			return
		}
	}
}

func (s *Server) handleFrame(raw msgpack.RawMessage) {
	s.requests++

	var req Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		s.sendError("", "invalid request", 400)
		return
	}

	switch req.Action {
	case "", ActionQuery:
		s.handleQuery(req)
	case ActionSelect:
		s.handleSelect(req)
	case ActionFocus:
		s.loop.Focus()
	case ActionBlur:
		s.loop.Blur()
	case ActionFlush:
		s.loop.Flush()
	case ActionStats:
		s.handleStats(req)
	case ActionPing:
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleQuery(req Request) {
	if n := utf8.RuneCountInString(req.Query); n > s.config.Server.MaxQuery {
		log.Debugf("Query too long: %d runes", n)
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d characters", s.config.Server.MaxQuery), 400)
		return
	}
	s.loop.QueryChanged(req.Query)
}

func (s *Server) handleSelect(req Request) {
	c := s.loop.Corpus()

	var (
		item  corpus.Item
		found bool
	)
	switch {
	case req.ItemID != nil:
		item, found = c.ByID(*req.ItemID)
		if !found {
			s.sendError(req.ID, fmt.Sprintf("unknown item %d", *req.ItemID), 404)
			return
		}
	case req.Name != "":
		item, found = c.ByName(req.Name)
		if !found {
			s.sendError(req.ID, fmt.Sprintf("unknown item %q", req.Name), 404)
			return
		}
	default:
		s.sendError(req.ID, "select needs an item id or name", 400)
		return
	}
	s.loop.SelectItem(item)
}

func (s *Server) handleStats(req Request) {
	stats := s.loop.Stats()
	if stats == nil {
		stats = make(map[string]int)
	}
	stats["requests"] = s.requests
	stats["rejected"] = s.rejected
	s.send(StatsResponse{ID: req.ID, Stats: stats})
}

func (s *Server) pushResults(items []corpus.Item, visible bool) {
	s.send(ResultsEvent{
		Event:       EventResults,
		Suggestions: toSuggestions(items),
		Visible:     visible,
		Count:       len(items),
	})
}

func (s *Server) pushSelected(item corpus.Item) {
	s.send(SelectedEvent{Event: EventSelected, ID: item.ID, Name: item.Name})
}

// send encodes v as one frame. Frames come from both the reader and the
// loop goroutine, hence the lock.
func (s *Server) send(v any) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.rejected++
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
