package countdown

import (
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func newTestEngine() (*Engine, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	return New(clock, slog.Default()), clock
}

func readTick(t *testing.T, e *Engine) Tick {
	t.Helper()
	select {
	case tick := <-e.Ticks():
		return tick
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return Tick{}
	}
}

func assertNoTick(t *testing.T, e *Engine) {
	t.Helper()
	select {
	case tick := <-e.Ticks():
		t.Fatalf("unexpected tick: %+v", tick)
	default:
	}
}

func TestExpiresExactlyOnce(t *testing.T) {
	e, clock := newTestEngine()
	defer e.Stop()

	e.Start(clock.Now().Add(10*time.Second), ModeToEnd)

	tick := readTick(t, e)
	if tick.Expired || tick.Remaining != 10*time.Second {
		t.Fatalf("first tick = %+v, want 10s remaining", tick)
	}

	var expired int
	for i := 0; i < 10; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
		tick = readTick(t, e)
		if tick.Expired {
			expired++
		}
	}

	if expired != 1 {
		t.Fatalf("expired fired %d times, want exactly 1", expired)
	}
	if tick.Display != "00:00:00" {
		t.Fatalf("final display = %q, want 00:00:00", tick.Display)
	}

	// The clock keeps moving but the engine must stay silent: no re-arm
	// without an explicit Start.
	clock.Advance(time.Minute)
	assertNoTick(t, e)
}

func TestAlreadyExpiredTarget(t *testing.T) {
	e, clock := newTestEngine()
	defer e.Stop()

	e.Start(clock.Now().Add(-time.Second), ModeToEnd)

	tick := readTick(t, e)
	if !tick.Expired {
		t.Fatalf("first tick = %+v, want immediate expiry", tick)
	}
	if tick.Remaining != 0 {
		t.Fatalf("remaining = %v, want 0", tick.Remaining)
	}
}

func TestRebaseExtendsDeadline(t *testing.T) {
	e, clock := newTestEngine()
	defer e.Stop()

	e.Start(clock.Now().Add(10*time.Second), ModeToEnd)
	readTick(t, e)

	clock.BlockUntil(1)
	e.Rebase(clock.Now().Add(20 * time.Second))

	tick := readTick(t, e)
	if tick.Expired || tick.Remaining != 20*time.Second {
		t.Fatalf("tick after rebase = %+v, want 20s remaining", tick)
	}

	// Crossing the old deadline must not fire expiry.
	for i := 0; i < 12; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
		tick = readTick(t, e)
		if tick.Expired {
			t.Fatalf("expired fired %v before the rebased deadline", tick)
		}
	}
	if tick.Remaining != 8*time.Second {
		t.Fatalf("remaining = %v, want 8s", tick.Remaining)
	}
}

func TestFreezeStopsWithoutExpiry(t *testing.T) {
	e, clock := newTestEngine()
	defer e.Stop()

	e.Start(clock.Now().Add(10*time.Second), ModeToEnd)
	readTick(t, e)

	clock.BlockUntil(1)
	e.Freeze()

	tick := readTick(t, e)
	if tick.Expired {
		t.Fatal("freeze must not fire the expiry edge")
	}
	if tick.Display != "00:00:00" || tick.Remaining != 0 {
		t.Fatalf("frozen tick = %+v, want zeroed display", tick)
	}

	clock.Advance(time.Minute)
	assertNoTick(t, e)
}

func TestCoarseCadenceBeyondADay(t *testing.T) {
	e, clock := newTestEngine()
	defer e.Stop()

	e.Start(clock.Now().Add(25*time.Hour), ModeToStart)

	tick := readTick(t, e)
	if tick.Display != "1d 01:00" {
		t.Fatalf("display = %q, want 1d 01:00", tick.Display)
	}

	// Redraw interval is one minute out here, so half a minute produces no
	// tick.
	clock.BlockUntil(1)
	clock.Advance(30 * time.Second)
	assertNoTick(t, e)

	clock.Advance(30 * time.Second)
	tick = readTick(t, e)
	if tick.Remaining != 25*time.Hour-time.Minute {
		t.Fatalf("remaining = %v, want %v", tick.Remaining, 25*time.Hour-time.Minute)
	}
}

func TestControlsAreNoOpsWhenIdle(t *testing.T) {
	e, _ := newTestEngine()

	// None of these may block or emit on an engine that never started.
	e.Rebase(time.Now())
	e.Freeze()
	e.Stop()
	assertNoTick(t, e)
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-5 * time.Second, "00:00:00"},
		{time.Second, "00:00:01"},
		{90 * time.Second, "00:01:30"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
		{26*time.Hour + 30*time.Minute, "1d 02:30"},
		{49 * time.Hour, "2d 01:00"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
