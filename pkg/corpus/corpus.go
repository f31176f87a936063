/*
Package corpus holds the read-only item list that suggestions are searched against.

A Corpus is built once, either from the embedded default list or from a file
(see Load), and is never mutated afterwards. Several controllers may share one
Corpus without synchronization.

	c := corpus.Default()
	item, ok := c.ByName("typescript basics")
*/
package corpus

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

//go:embed default.toml
var defaultCorpus []byte

// Item is a single searchable entry.
type Item struct {
	ID   int    `toml:"id" yaml:"id" msgpack:"i"`
	Name string `toml:"name" yaml:"name" msgpack:"n"`
}

// File is the on-disk layout shared by the TOML and YAML formats.
type File struct {
	Items []Item `toml:"items" yaml:"items"`
}

// Corpus is an ordered, immutable list of items with id and name indexes.
type Corpus struct {
	items []Item
	byID  map[int]int
	names *patricia.Trie
}

// New validates items and builds a Corpus. The slice is copied so later
// changes by the caller do not leak in.
func New(items []Item) (*Corpus, error) {
	c := &Corpus{
		items: make([]Item, len(items)),
		byID:  make(map[int]int, len(items)),
		names: patricia.NewTrie(),
	}
	copy(c.items, items)

	for i, it := range c.items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("item %d: %w", it.ID, ErrEmptyName)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("item %d (%q): %w", it.ID, it.Name, ErrDuplicateID)
		}
		c.byID[it.ID] = i

		// First item wins when two names only differ by case.
		if !c.names.Insert(patricia.Prefix(strings.ToLower(it.Name)), i) {
			log.Debugf("Name %q already indexed, keeping first occurrence", it.Name)
		}
	}
	return c, nil
}

// MustNew is like New but panics on invalid input. Meant for tests and
// static tables.
func MustNew(items []Item) *Corpus {
	c, err := New(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the embedded corpus.
func Default() *Corpus {
	var f File
	if _, err := toml.Decode(string(defaultCorpus), &f); err != nil {
		panic(fmt.Sprintf("corpus: embedded default is invalid: %v", err))
	}
	return MustNew(f.Items)
}

// Items returns the items in corpus order. The returned slice must not be
// modified.
func (c *Corpus) Items() []Item {
	return c.items
}

// Len returns the number of items.
func (c *Corpus) Len() int {
	return len(c.items)
}

// ByID returns the item with the given id.
func (c *Corpus) ByID(id int) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// ByName returns the item whose name equals name, ignoring case.
func (c *Corpus) ByName(name string) (Item, bool) {
	v := c.names.Get(patricia.Prefix(strings.ToLower(strings.TrimSpace(name))))
	if v == nil {
		return Item{}, false
	}
	return c.items[v.(int)], true
}

// NamesWithPrefix returns up to limit item names starting with prefix,
// ignoring case. A limit <= 0 returns all of them.
func (c *Corpus) NamesWithPrefix(prefix string, limit int) []Item {
	var out []Item
	err := c.names.VisitSubtree(patricia.Prefix(strings.ToLower(prefix)), func(_ patricia.Prefix, v patricia.Item) error {
		if limit > 0 && len(out) >= limit {
			return errStopVisit
		}
		out = append(out, c.items[v.(int)])
		return nil
	})
	if err != nil && err != errStopVisit {
		log.Errorf("Error visiting name index: %v", err)
	}
	return out
}
