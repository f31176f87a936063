package tui

import (
	"time"

	"github.com/bastiangx/searchpro/internal/clock"
	tea "github.com/charmbracelet/bubbletea"
)

// timerMsg delivers an expired controller timer to Update.
type timerMsg struct {
	id uint64
}

// teaClock turns controller timers into tea.Tick commands, so timer
// callbacks run inside Update like every other event. Armed ticks queue up
// until Update hands them to the runtime via commands.
type teaClock struct {
	seq    uint64
	live   map[uint64]func()
	queued []tea.Cmd
}

type teaTimer struct {
	clock *teaClock
	id    uint64
}

func newTeaClock() *teaClock {
	return &teaClock{live: make(map[uint64]func())}
}

func (c *teaClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.seq++
	id := c.seq
	c.live[id] = f
	c.queued = append(c.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return teaTimer{clock: c, id: id}
}

// Stop forgets the timer. Its tick still arrives later and is ignored.
func (t teaTimer) Stop() bool {
	if _, ok := t.clock.live[t.id]; !ok {
		return false
	}
	delete(t.clock.live, t.id)
	return true
}

// fire runs the callback for id unless the timer was stopped.
func (c *teaClock) fire(id uint64) bool {
	f, ok := c.live[id]
	if !ok {
		return false
	}
	delete(c.live, id)
	f()
	return true
}

// commands returns the ticks armed since the last call.
func (c *teaClock) commands() tea.Cmd {
	if len(c.queued) == 0 {
		return nil
	}
	cmds := c.queued
	c.queued = nil
	return tea.Batch(cmds...)
}

// liveIDs returns the ids of timers that have neither fired nor stopped.
func (c *teaClock) liveIDs() []uint64 {
	ids := make([]uint64, 0, len(c.live))
	for id := range c.live {
		ids = append(ids, id)
	}
	return ids
}
