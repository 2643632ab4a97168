package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type recorder struct {
	mu      sync.Mutex
	updates []Snapshot
	ended   []Snapshot
	tick    chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{tick: make(chan Snapshot, 64)}
}

func (r *recorder) TimerUpdate(snap Snapshot) {
	r.mu.Lock()
	r.updates = append(r.updates, snap)
	r.mu.Unlock()
	r.tick <- snap
}

func (r *recorder) TestEnded(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, snap)
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates), len(r.ended)
}

func TestTickCountsDownToZeroAndEndsOnce(t *testing.T) {
	rec := newRecorder()
	engine := New(clockwork.NewFakeClock(), rec)
	engine.Initialize(0, false)
	engine.SetTimeRemaining(10)

	for i := 0; i < 15; i++ {
		engine.Tick()
	}

	snap := engine.Snapshot()
	if snap.TimeRemaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", snap.TimeRemaining)
	}
	if !snap.Paused {
		t.Fatalf("expected engine paused at zero")
	}
	updates, ended := rec.counts()
	// one update from SetTimeRemaining plus ten ticks
	if updates != 11 {
		t.Fatalf("expected 11 updates, got %d", updates)
	}
	if ended != 1 {
		t.Fatalf("expected exactly one end event, got %d", ended)
	}
}

func TestTickIsNoopWhilePaused(t *testing.T) {
	rec := newRecorder()
	engine := New(clockwork.NewFakeClock(), rec)
	engine.Initialize(1, true)

	engine.Tick()
	if got := engine.Snapshot().TimeRemaining; got != 60 {
		t.Fatalf("expected 60 remaining, got %d", got)
	}
	if updates, _ := rec.counts(); updates != 0 {
		t.Fatalf("expected no updates while paused, got %d", updates)
	}
}

func TestNewStartsPausedWithDefaultDuration(t *testing.T) {
	engine := New(clockwork.NewFakeClock(), nil)
	snap := engine.Snapshot()
	if !snap.Paused || snap.TimeRemaining != 86400 {
		t.Fatalf("expected paused 24h default, got %+v", snap)
	}
	if snap.FormattedTime != "24:00:00" {
		t.Fatalf("expected 24:00:00, got %s", snap.FormattedTime)
	}
}

func TestResetToFullPausesAndBroadcasts(t *testing.T) {
	rec := newRecorder()
	engine := New(clockwork.NewFakeClock(), rec)
	engine.Initialize(5, false)
	engine.Tick()

	snap := engine.ResetToFull(90)
	if snap.TimeRemaining != 5400 || !snap.Paused {
		t.Fatalf("expected paused 5400, got %+v", snap)
	}
	updates, _ := rec.counts()
	if updates != 2 {
		t.Fatalf("expected 2 updates, got %d", updates)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int]string{
		3661:   "01:01:01",
		0:      "00:00:00",
		59:     "00:00:59",
		360000: "100:00:00",
	}
	for seconds, want := range cases {
		if got := FormatDuration(seconds); got != want {
			t.Fatalf("expected %s for %d, got %s", want, seconds, got)
		}
	}
}

func TestRunTicksOnClock(t *testing.T) {
	rec := newRecorder()
	clock := clockwork.NewFakeClock()
	engine := New(clock, rec)
	engine.Initialize(1, false)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(done)
	}()

	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker not registered: %v", err)
	}
	clock.Advance(time.Second)

	select {
	case snap := <-rec.tick:
		if snap.TimeRemaining != 59 {
			t.Fatalf("expected 59 remaining, got %d", snap.TimeRemaining)
		}
	case <-ctx.Done():
		t.Fatalf("expected a tick")
	}
	cancel()
	<-done
}

type lastSeen struct {
	mu   sync.Mutex
	last Snapshot
}

func (l *lastSeen) TimerUpdate(snap Snapshot) {
	l.mu.Lock()
	l.last = snap
	l.mu.Unlock()
}

func (l *lastSeen) TestEnded(Snapshot) {}

func (l *lastSeen) get() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func TestPauseIsNeverOvertakenByTick(t *testing.T) {
	for i := 0; i < 200; i++ {
		seen := &lastSeen{}
		engine := New(clockwork.NewFakeClock(), seen)
		engine.Initialize(60, false)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.Tick()
		}()
		go func() {
			defer wg.Done()
			engine.SetPaused(true)
		}()
		wg.Wait()

		last := seen.get()
		if !last.Paused {
			t.Fatalf("run %d: expected last delivered snapshot paused, got %+v", i, last)
		}
		if last != engine.Snapshot() {
			t.Fatalf("run %d: expected last delivered %+v to match state %+v", i, last, engine.Snapshot())
		}
	}
}
