// Package tui is an interactive terminal front end for the suggestion
// controller: a text input with a debounced, highlighted dropdown below it.
package tui

import (
	"fmt"
	"strings"

	"github.com/bastiangx/searchpro/pkg/autocomplete"
	"github.com/bastiangx/searchpro/pkg/corpus"
	"github.com/bastiangx/searchpro/pkg/suggest"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	defaultMaxRows = 8
	defaultWidth   = 60
	inputCharLimit = 120
)

// Options configures the model. Autocomplete.Clock is always replaced by a
// clock driven by the Bubble Tea runtime.
type Options struct {
	Autocomplete autocomplete.Options
	MaxRows      int
	ShowStats    bool
}

// dropdown mirrors what the controller last pushed to its listener.
type dropdown struct {
	items    []corpus.Item
	visible  bool
	cursor   int
	query    string
	resolves int
	selected *corpus.Item
}

// show records a listener push. query is the input at push time and
// resolves the controller's resolve count; pushes without a new resolve
// (focus, blur, selection) keep highlighting what was last searched.
func (d *dropdown) show(items []corpus.Item, visible bool, query string, resolves int) {
	if !sameItems(d.items, items) {
		d.cursor = 0
	}
	if resolves != d.resolves {
		d.query = query
		d.resolves = resolves
	}
	d.items = items
	d.visible = visible
}

func (d *dropdown) move(delta int) {
	if !d.visible || len(d.items) == 0 {
		return
	}
	d.cursor = (d.cursor + delta + len(d.items)) % len(d.items)
}

func (d *dropdown) current() (corpus.Item, bool) {
	if !d.visible || len(d.items) == 0 {
		return corpus.Item{}, false
	}
	return d.items[d.cursor], true
}

func sameItems(a, b []corpus.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Model is the Bubble Tea model for the search box.
type Model struct {
	input     textinput.Model
	ctrl      *autocomplete.Controller
	clock     *teaClock
	list      *dropdown
	keys      keyMap
	help      help.Model
	styles    styles
	maxRows   int
	showStats bool
	width     int
	quitting  bool
}

// NewModel creates a focused, empty search box.
func NewModel(opts Options) Model {
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultMaxRows
	}

	clk := newTeaClock()
	opts.Autocomplete.Clock = clk

	list := &dropdown{}
	var ctrl *autocomplete.Controller
	ctrl = autocomplete.New(opts.Autocomplete, autocomplete.ListenerFuncs{
		OnResults: func(items []corpus.Item, visible bool) {
			list.show(items, visible, ctrl.Input(), ctrl.Resolves())
		},
		OnSelected: func(item corpus.Item) {
			list.selected = &item
		},
	})

	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "Search topics"
	input.CharLimit = inputCharLimit
	input.Focus()

	return Model{
		input:     input,
		ctrl:      ctrl,
		clock:     clk,
		list:      list,
		keys:      defaultKeyMap(),
		help:      help.New(),
		styles:    defaultStyles(),
		maxRows:   opts.MaxRows,
		showStats: opts.ShowStats,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.help.Width = msg.Width
		return m, nil

	case timerMsg:
		m.clock.fire(msg.id)
		return m, m.clock.commands()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.ctrl.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.list.move(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.list.move(1)
			return m, nil
		case key.Matches(msg, m.keys.Select):
			if item, ok := m.list.current(); ok {
				m.ctrl.SelectItem(item)
				m.input.SetValue(item.Name)
				m.input.CursorEnd()
			}
			return m, nil
		case key.Matches(msg, m.keys.Show):
			m.ctrl.Focus()
			return m, nil
		case key.Matches(msg, m.keys.Hide):
			m.ctrl.Blur()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.list.selected = nil
		m.ctrl.QueryChanged(value)
	}
	return m, tea.Batch(cmd, m.clock.commands())
}

// View renders the input, the dropdown and a status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("searchpro"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.list.visible && len(m.list.items) > 0 {
		b.WriteString(m.renderDropdown())
		b.WriteString("\n")
	}

	if status := m.statusLine(); status != "" {
		b.WriteString(status)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderDropdown() string {
	items := m.list.items
	start := 0
	if m.list.cursor >= m.maxRows {
		start = m.list.cursor - m.maxRows + 1
	}
	end := min(start+m.maxRows, len(items))

	nameWidth := defaultWidth
	if m.width > 0 {
		nameWidth = max(m.width-8, 10)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		name := runewidth.Truncate(items[i].Name, nameWidth, "…")
		prefix := "  "
		base := m.styles.item
		if i == m.list.cursor {
			prefix = m.styles.cursor.Render("› ")
			base = m.styles.cursor
		}
		lines = append(lines, prefix+m.highlight(name, base))
	}
	if len(items) > m.maxRows {
		lines = append(lines, m.styles.status.Render(fmt.Sprintf("%d of %d", m.list.cursor+1, len(items))))
	}
	return m.styles.dropdown.Render(strings.Join(lines, "\n"))
}

func (m Model) highlight(text string, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range suggest.Highlight(text, m.list.query) {
		if seg.Match {
			b.WriteString(m.styles.match.Render(seg.Text))
		} else {
			b.WriteString(base.Render(seg.Text))
		}
	}
	return b.String()
}

func (m Model) statusLine() string {
	var parts []string
	switch {
	case m.list.selected != nil:
		parts = append(parts, m.styles.selected.Render(fmt.Sprintf("selected: %s (#%d)", m.list.selected.Name, m.list.selected.ID)))
	case m.ctrl.Pending():
		parts = append(parts, m.styles.status.Render("searching…"))
	case m.list.query != "" && len(m.list.items) == 0 && m.input.Value() != "":
		parts = append(parts, m.styles.status.Render("no matches"))
	}

	if m.showStats {
		s := m.ctrl.Stats()
		parts = append(parts, m.styles.status.Render(fmt.Sprintf(
			"cache %d/%d  hits %d  misses %d  evictions %d  resolves %d",
			s["cacheEntries"], s["cacheCapacity"], s["cacheHits"], s["cacheMisses"], s["cacheEvictions"], s["resolves"])))
	}
	return strings.Join(parts, "  ")
}

// Selected returns the last selected item, if the input still holds it.
func (m Model) Selected() (corpus.Item, bool) {
	if m.list.selected == nil {
		return corpus.Item{}, false
	}
	return *m.list.selected, true
}

// Run starts the TUI on the terminal and returns the item selected when the
// user quit, if any.
func Run(opts Options, programOpts ...tea.ProgramOption) (corpus.Item, bool, error) {
	final, err := tea.NewProgram(NewModel(opts), programOpts...).Run()
	if err != nil {
		return corpus.Item{}, false, fmt.Errorf("running tui: %w", err)
	}
	item, ok := final.(Model).Selected()
	return item, ok, nil
}
