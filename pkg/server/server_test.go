package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bastiangx/searchpro/internal/clock"
	"github.com/bastiangx/searchpro/pkg/autocomplete"
	"github.com/bastiangx/searchpro/pkg/config"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// frame is the union of every frame the server writes.
type frame struct {
	ID          string         `msgpack:"id"`
	Event       string         `msgpack:"ev"`
	Status      string         `msgpack:"status"`
	Suggestions []Suggestion   `msgpack:"s"`
	Visible     bool           `msgpack:"v"`
	Code        int            `msgpack:"c"`
	ItemID      int            `msgpack:"i"`
	Name        string         `msgpack:"n"`
	Error       string         `msgpack:"e"`
	Stats       map[string]int `msgpack:"st"`
}

// syncBuffer lets the test read output written by the server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func encodeRequests(t *testing.T, reqs ...any) *bytes.Buffer {
	t.Helper()
	var in bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	return &in
}

func decodeFrames(t *testing.T, data []byte) []frame {
	t.Helper()
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	var frames []frame
	for {
		var f frame
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			return frames
		}
		if err != nil {
			t.Fatalf("decoding frame %d: %v", len(frames), err)
		}
		frames = append(frames, f)
	}
}

func testOptions() autocomplete.Options {
	return autocomplete.Options{
		Corpus: corpus.Default(),
		Clock:  clock.NewManual(),
		Logger: log.New(io.Discard),
	}
}

// runServer feeds in to a fresh server until EOF and returns every frame.
func runServer(t *testing.T, in io.Reader) []frame {
	t.Helper()
	out := &syncBuffer{}
	s := NewServer(testOptions(), config.DefaultConfig(), in, out)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return decodeFrames(t, out.Bytes())
}

func intPtr(v int) *int { return &v }

func findByID(frames []frame, id string) (frame, bool) {
	for _, f := range frames {
		if f.ID == id {
			return f, true
		}
	}
	return frame{}, false
}

func eventsOf(frames []frame, ev string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Event == ev {
			out = append(out, f)
		}
	}
	return out
}

func TestServer_ReadyAndPing(t *testing.T) {
	frames := runServer(t, encodeRequests(t, Request{ID: "p1", Action: ActionPing}))

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Status != "ready" {
		t.Errorf("first frame = %+v, want ready", frames[0])
	}
	if frames[1].ID != "p1" || frames[1].Status != "ok" {
		t.Errorf("ping reply = %+v", frames[1])
	}
}

func TestServer_QueryFlushResults(t *testing.T) {
	frames := runServer(t, encodeRequests(t,
		Request{ID: "k1", Query: "t"},
		Request{ID: "k2", Query: "ty"},
		Request{ID: "k3", Action: ActionQuery, Query: "typescript"},
		Request{ID: "k4", Action: ActionFlush},
		Request{ID: "k5", Action: ActionStats},
	))

	results := eventsOf(frames, EventResults)
	if len(results) != 1 {
		t.Fatalf("got %d results events, want 1", len(results))
	}
	r := results[0]
	if !r.Visible || r.Code != 10 || len(r.Suggestions) != 10 {
		t.Fatalf("results = visible %v count %d len %d, want 10 visible", r.Visible, r.Code, len(r.Suggestions))
	}
	if r.Suggestions[0].ID != 21 || r.Suggestions[0].Name != "TypeScript Basics" {
		t.Errorf("first suggestion = %+v, want TypeScript Basics", r.Suggestions[0])
	}
	for _, s := range r.Suggestions {
		if !strings.Contains(strings.ToLower(s.Name), "typescript") {
			t.Errorf("suggestion %q does not match", s.Name)
		}
	}

	stats, ok := findByID(frames, "k5")
	if !ok {
		t.Fatal("no stats response")
	}
	if stats.Stats["resolves"] != 1 || stats.Stats["cacheEntries"] != 1 {
		t.Errorf("stats = %v, want one resolve and one cache entry", stats.Stats)
	}
	if stats.Stats["inputEvents"] != 3 {
		t.Errorf("inputEvents = %d, want 3", stats.Stats["inputEvents"])
	}
	if stats.Stats["requests"] != 5 {
		t.Errorf("requests = %d, want 5", stats.Stats["requests"])
	}
}

func TestServer_ResolvesPendingQueryAtEOF(t *testing.T) {
	frames := runServer(t, encodeRequests(t,
		Request{ID: "k1", Query: "de"},
		Request{ID: "k2", Query: "deno"},
	))

	results := eventsOf(frames, EventResults)
	if len(results) != 1 {
		t.Fatalf("got %d results events, want 1", len(results))
	}
	if !results[0].Visible || len(results[0].Suggestions) == 0 {
		t.Fatalf("results = %+v, want visible deno matches", results[0])
	}
	for _, s := range results[0].Suggestions {
		if !strings.Contains(strings.ToLower(s.Name), "deno") {
			t.Errorf("suggestion %q does not match deno", s.Name)
		}
	}
}

func TestServer_SelectByIDAndName(t *testing.T) {
	frames := runServer(t, encodeRequests(t,
		Request{ID: "q", Query: "redux"},
		Request{ID: "f", Action: ActionFlush},
		Request{ID: "s1", Action: ActionSelect, ItemID: intPtr(44)},
		Request{ID: "s2", Action: ActionSelect, Name: "  react router "},
	))

	selected := eventsOf(frames, EventSelected)
	if len(selected) != 2 {
		t.Fatalf("got %d selected events, want 2", len(selected))
	}
	if selected[0].ItemID != 44 || selected[0].Name != "Redux Saga" {
		t.Errorf("first selection = %+v, want Redux Saga", selected[0])
	}
	if selected[1].Name != "React Router" {
		t.Errorf("second selection = %+v, want React Router", selected[1])
	}

	results := eventsOf(frames, EventResults)
	last := results[len(results)-1]
	if last.Visible || len(last.Suggestions) != 0 {
		t.Errorf("selection should push hidden empty results, got %+v", last)
	}
}

func TestServer_Errors(t *testing.T) {
	frames := runServer(t, encodeRequests(t,
		Request{ID: "long", Query: strings.Repeat("x", 121)},
		Request{ID: "act", Action: "explode"},
		Request{ID: "missing", Action: ActionSelect, ItemID: intPtr(999)},
		Request{ID: "noname", Action: ActionSelect, Name: "Cobol Basics"},
		Request{ID: "empty", Action: ActionSelect},
		map[string]any{"id": 12, "a": []int{1}},
		Request{ID: "st", Action: ActionStats},
	))

	cases := []struct {
		id   string
		code int
	}{
		{"long", 400},
		{"act", 400},
		{"missing", 404},
		{"noname", 404},
		{"empty", 400},
	}
	for _, tc := range cases {
		f, ok := findByID(frames, tc.id)
		if !ok {
			t.Errorf("%s: no response", tc.id)
			continue
		}
		if f.Code != tc.code || f.Error == "" {
			t.Errorf("%s: got code %d error %q, want %d", tc.id, f.Code, f.Error, tc.code)
		}
	}

	var invalid int
	for _, f := range frames {
		if f.ID == "" && f.Error == "invalid request" {
			invalid++
		}
	}
	if invalid != 1 {
		t.Errorf("invalid request errors = %d, want 1", invalid)
	}

	stats, ok := findByID(frames, "st")
	if !ok {
		t.Fatal("server stopped answering after malformed frame")
	}
	if stats.Stats["rejected"] != 6 {
		t.Errorf("rejected = %d, want 6", stats.Stats["rejected"])
	}
	if stats.Stats["inputEvents"] != 0 {
		t.Errorf("rejected query reached the controller: inputEvents = %d", stats.Stats["inputEvents"])
	}
}

func TestServer_FocusBlur(t *testing.T) {
	frames := runServer(t, encodeRequests(t,
		Request{Query: "roadmap"},
		Request{Action: ActionFlush},
		Request{Action: ActionBlur},
		Request{Action: ActionFocus},
	))

	results := eventsOf(frames, EventResults)
	if len(results) != 3 {
		t.Fatalf("got %d results events, want 3", len(results))
	}
	want := []bool{true, false, true}
	for i, r := range results {
		if r.Visible != want[i] {
			t.Errorf("event %d visible = %v, want %v", i, r.Visible, want[i])
		}
		if len(r.Suggestions) != len(results[0].Suggestions) {
			t.Errorf("event %d carries %d suggestions, want %d", i, len(r.Suggestions), len(results[0].Suggestions))
		}
	}
}

func TestServer_DebounceOverPipe(t *testing.T) {
	clk := clock.NewManual()
	opts := testOptions()
	opts.Clock = clk

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	s := NewServer(opts, nil, inR, outW)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(context.Background()) }()

	dec := msgpack.NewDecoder(outR)
	next := func() frame {
		t.Helper()
		var f frame
		if err := dec.Decode(&f); err != nil {
			t.Fatalf("reading frame: %v", err)
		}
		return f
	}
	enc := msgpack.NewEncoder(inW)
	send := func(r Request) {
		t.Helper()
		if err := enc.Encode(r); err != nil {
			t.Fatalf("writing request: %v", err)
		}
	}

	if f := next(); f.Status != "ready" {
		t.Fatalf("first frame = %+v, want ready", f)
	}

	send(Request{Query: "d"})
	send(Request{Query: "de"})
	send(Request{Query: "deno"})
	// A stats round trip guarantees the queries reached the controller.
	send(Request{ID: "sync", Action: ActionStats})
	if f := next(); f.ID != "sync" || f.Stats["resolves"] != 0 {
		t.Fatalf("stats = %+v, want no resolves yet", f)
	}

	clk.Advance(autocomplete.DefaultDelay)

	f := next()
	if f.Event != EventResults || !f.Visible {
		t.Fatalf("frame = %+v, want visible results", f)
	}
	for _, s := range f.Suggestions {
		if !strings.Contains(strings.ToLower(s.Name), "deno") {
			t.Errorf("suggestion %q does not match deno", s.Name)
		}
	}

	inW.Close()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after input closed")
	}
}
