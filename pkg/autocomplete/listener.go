/*
Package autocomplete drives a suggestion dropdown from raw keystrokes.

Each input change restarts a debounce timer; only when input has been quiet
for the configured delay is the latest query resolved, first against the
controller's ResultCache and otherwise by filtering the corpus. Results and
the show/hide decision are pushed to a Listener.

	ctrl := autocomplete.New(autocomplete.Options{Corpus: corpus.Default()},
		autocomplete.ListenerFuncs{
			OnResults: func(items []corpus.Item, visible bool) { render(items, visible) },
		})
	ctrl.QueryChanged("r")
	ctrl.QueryChanged("re")
	ctrl.QueryChanged("react") // one search for "react", 300ms later

A Controller must be confined to one goroutine. Loop provides that
confinement for callers that produce events from several goroutines.
*/
package autocomplete

import "github.com/bastiangx/searchpro/pkg/corpus"

// Listener is the render side of the controller.
type Listener interface {
	// ResultsChanged is called whenever the results or their visibility change.
	ResultsChanged(results []corpus.Item, visible bool)

	// ItemSelected is called after SelectItem updated the input.
	ItemSelected(item corpus.Item)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnResults  func(results []corpus.Item, visible bool)
	OnSelected func(item corpus.Item)
}

func (l ListenerFuncs) ResultsChanged(results []corpus.Item, visible bool) {
	if l.OnResults != nil {
		l.OnResults(results, visible)
	}
}

func (l ListenerFuncs) ItemSelected(item corpus.Item) {
	if l.OnSelected != nil {
		l.OnSelected(item)
	}
}
