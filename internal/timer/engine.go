// Package timer owns the event-wide countdown shared by every team.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultDuration applies when no configuration row exists at boot.
const DefaultDuration = 24 * time.Hour

// Snapshot is the wire form of the countdown.
type Snapshot struct {
	TimeRemaining int    `json:"timeRemaining"`
	Paused        bool   `json:"paused"`
	FormattedTime string `json:"formattedTime"`
}

// Notifier receives engine output. Calls happen outside the state lock, so
// implementations may read Snapshot, but they are serialized with every other
// change and must not change the engine themselves.
type Notifier interface {
	TimerUpdate(snap Snapshot)
	TestEnded(snap Snapshot)
}

type Engine struct {
	clock  clockwork.Clock
	notify Notifier

	// notifyMu is held from snapshot through delivery so observers see
	// snapshots in the order the state changed.
	notifyMu sync.Mutex

	mu        sync.Mutex
	remaining int
	paused    bool
}

func New(clock clockwork.Clock, notify Notifier) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		clock:     clock,
		notify:    notify,
		remaining: int(DefaultDuration / time.Second),
		paused:    true,
	}
}

// Initialize loads the persisted duration and pause flag. It does not broadcast.
func (e *Engine) Initialize(durationMinutes int, paused bool) {
	if durationMinutes < 0 {
		durationMinutes = 0
	}
	e.mu.Lock()
	e.remaining = durationMinutes * 60
	e.paused = paused
	e.mu.Unlock()
}

// Tick advances the countdown by one second.
func (e *Engine) Tick() {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.mu.Lock()
	if e.paused || e.remaining == 0 {
		e.mu.Unlock()
		return
	}
	e.remaining--
	ended := false
	if e.remaining == 0 {
		e.paused = true
		ended = true
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if e.notify == nil {
		return
	}
	e.notify.TimerUpdate(snap)
	if ended {
		log.Info().Msg("countdown reached zero")
		e.notify.TestEnded(snap)
	}
}

// Run ticks once per second until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	ticker := e.clock.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.Tick()
		}
	}
}

func (e *Engine) SetPaused(paused bool) Snapshot {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.mu.Lock()
	e.paused = paused
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.broadcast(snap)
	return snap
}

func (e *Engine) SetTimeRemaining(seconds int) Snapshot {
	if seconds < 0 {
		seconds = 0
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.mu.Lock()
	e.remaining = seconds
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.broadcast(snap)
	return snap
}

// ResetToFull rewinds to the full duration and pauses, broadcasting once.
func (e *Engine) ResetToFull(durationMinutes int) Snapshot {
	if durationMinutes < 0 {
		durationMinutes = 0
	}
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	e.mu.Lock()
	e.remaining = durationMinutes * 60
	e.paused = true
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.broadcast(snap)
	return snap
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Broadcast re-sends the current snapshot without changing state.
func (e *Engine) Broadcast() Snapshot {
	e.notifyMu.Lock()
	defer e.notifyMu.Unlock()
	snap := e.Snapshot()
	e.broadcast(snap)
	return snap
}

func (e *Engine) broadcast(snap Snapshot) {
	if e.notify != nil {
		e.notify.TimerUpdate(snap)
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		TimeRemaining: e.remaining,
		Paused:        e.paused,
		FormattedTime: FormatDuration(e.remaining),
	}
}

// FormatDuration renders seconds as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
