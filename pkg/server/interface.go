/*
Package server exposes a suggestion controller over msgpack IPC on stdin/stdout.

A GUI or editor plugin owns the actual input box and dropdown; it forwards
every keystroke to the server and renders whatever the server pushes back.
The debounce and result cache live here, so the client can stay dumb.

# IPC

Every frame on stdin is one msgpack map. The "a" field selects the action
and defaults to "query":

	{"id": "k1", "a": "query", "q": "rea"}
	{"id": "k2", "a": "select", "i": 21}
	{"id": "k3", "a": "select", "n": "TypeScript Basics"}
	{"id": "k4", "a": "focus"}
	{"id": "k5", "a": "blur"}
	{"id": "k6", "a": "flush"}
	{"id": "k7", "a": "stats"}
	{"id": "k8", "a": "ping"}

Query frames are not answered directly. Once input has been quiet for the
debounce delay the server pushes a results event:

	{"ev": "results", "s": [{"i": 1, "n": "React Query"}], "v": true, "c": 1}

A selection pushes a selected event followed by an empty, hidden results
event:

	{"ev": "selected", "i": 21, "n": "TypeScript Basics"}

Errors carry the request id and an HTTP-like code:

	{"id": "k2", "e": "unknown item 99", "c": 404}

The first frame written after start is {"status": "ready"}.
*/
package server

import "github.com/bastiangx/searchpro/pkg/corpus"

// Actions understood by the server.
const (
	ActionQuery  = "query"
	ActionSelect = "select"
	ActionFocus  = "focus"
	ActionBlur   = "blur"
	ActionFlush  = "flush"
	ActionStats  = "stats"
	ActionPing   = "ping"
)

// Event names for pushed frames.
const (
	EventResults  = "results"
	EventSelected = "selected"
)

// Request is a single frame read from the client.
type Request struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"a,omitempty"`
	Query  string `msgpack:"q,omitempty"`
	ItemID *int   `msgpack:"i,omitempty"`
	Name   string `msgpack:"n,omitempty"`
}

// Suggestion is one row of the dropdown.
type Suggestion struct {
	ID   int    `msgpack:"i"`
	Name string `msgpack:"n"`
}

// ResultsEvent is pushed whenever the results or their visibility change.
type ResultsEvent struct {
	Event       string       `msgpack:"ev"`
	Suggestions []Suggestion `msgpack:"s"`
	Visible     bool         `msgpack:"v"`
	Count       int          `msgpack:"c"`
}

// SelectedEvent is pushed after a selection updated the input.
type SelectedEvent struct {
	Event string `msgpack:"ev"`
	ID    int    `msgpack:"i"`
	Name  string `msgpack:"n"`
}

// StatusResponse answers ping and signals readiness.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
}

// StatsResponse carries controller and server counters.
type StatsResponse struct {
	ID    string         `msgpack:"id"`
	Stats map[string]int `msgpack:"st"`
}

// ErrorResponse reports a rejected request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

func toSuggestions(items []corpus.Item) []Suggestion {
	out := make([]Suggestion, len(items))
	for i, it := range items {
		out[i] = Suggestion{ID: it.ID, Name: it.Name}
	}
	return out
}
