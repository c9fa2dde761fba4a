// Package countdown derives a human-readable remaining-time display from a
// target timestamp and an injected clock, and signals expiry exactly once. A
// server-declared end can freeze the display early, overriding whatever the
// local wall clock would show.
package countdown

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Mode says which edge of the auction the engine is counting toward.
type Mode int

const (
	ModeToStart Mode = iota
	ModeToEnd
)

func (m Mode) String() string {
	if m == ModeToStart {
		return "to_start"
	}
	return "to_end"
}

// coarseAfter is the threshold beyond which the engine redraws once per
// minute instead of once per second, to bound redraw cost on far-out
// auctions.
const coarseAfter = 24 * time.Hour

// Tick is one emitted display update. Expired is set on the final tick of a
// run that reached zero by clock; a frozen run emits a zeroed tick with
// Expired false, because the server (not the timer) ended the auction.
type Tick struct {
	Remaining time.Duration
	Display   string
	Expired   bool
}

type cmdKind int

const (
	cmdStop cmdKind = iota
	cmdRebase
	cmdFreeze
)

type command struct {
	kind   cmdKind
	target time.Time
}

// Engine runs at most one countdown at a time. After it has emitted Expired
// it stays silent until Start is called again with a new target; it never
// re-arms on its own.
type Engine struct {
	clock  clockwork.Clock
	logger *slog.Logger
	out    chan Tick
	ctrl   chan command

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// New creates an idle engine. Ticks are delivered on the channel returned by
// Ticks; slow consumers only lose intermediate display updates, never the
// expiry edge.
func New(clock clockwork.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		clock:  clock,
		logger: logger.With(slog.String("component", "countdown")),
		out:    make(chan Tick, 32),
		ctrl:   make(chan command),
	}
}

// Ticks returns the display update channel.
func (e *Engine) Ticks() <-chan Tick {
	return e.out
}

// Start begins counting toward target, replacing any countdown already in
// flight. A target that is already in the past fires the expiry edge
// immediately without a single regular tick.
func (e *Engine) Start(target time.Time, mode Mode) {
	e.Stop()

	e.mu.Lock()
	done := make(chan struct{})
	e.done = done
	e.running = true
	e.mu.Unlock()

	e.logger.Debug("countdown started",
		slog.Time("target", target),
		slog.String("mode", mode.String()),
	)
	go e.run(target, done)
}

// Rebase moves the running countdown to a new target without disturbing the
// tick cadence. A no-op when the engine is idle or already expired.
func (e *Engine) Rebase(target time.Time) {
	e.send(command{kind: cmdRebase, target: target})
}

// Freeze stops the countdown at zero without firing the expiry edge. Used
// when an authoritative lifecycle event declares the auction over ahead of
// the local clock.
func (e *Engine) Freeze() {
	e.send(command{kind: cmdFreeze})
}

// Stop halts the countdown without emitting anything and waits for the run
// to wind down. Safe to call when idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	done := e.done
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	select {
	case e.ctrl <- command{kind: cmdStop}:
	case <-done:
	}
	<-done
}

// send delivers a command to the running loop, or drops it when there is no
// run to receive it.
func (e *Engine) send(cmd command) {
	e.mu.Lock()
	done := e.done
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}

	select {
	case e.ctrl <- cmd:
	case <-done:
	}
}

func (e *Engine) run(target time.Time, done chan struct{}) {
	defer func() {
		e.mu.Lock()
		if e.done == done {
			e.running = false
		}
		e.mu.Unlock()
		close(done)
	}()

	for {
		remaining := target.Sub(e.clock.Now())
		if remaining <= 0 {
			// The expiry edge must not be lost, so this send blocks if the
			// buffer is full.
			e.out <- Tick{Remaining: 0, Display: FormatRemaining(0), Expired: true}
			e.logger.Debug("countdown expired", slog.Time("target", target))
			return
		}

		e.emit(Tick{Remaining: remaining, Display: FormatRemaining(remaining)})

		interval := time.Second
		if remaining > coarseAfter {
			interval = time.Minute
		}

		timer := e.clock.NewTimer(interval)
		select {
		case <-timer.Chan():
		case cmd := <-e.ctrl:
			stopAndDrain(timer)
			switch cmd.kind {
			case cmdRebase:
				e.logger.Debug("countdown rebased",
					slog.Time("old_target", target),
					slog.Time("new_target", cmd.target),
				)
				target = cmd.target
			case cmdFreeze:
				e.emit(Tick{Remaining: 0, Display: FormatRemaining(0)})
				e.logger.Debug("countdown frozen", slog.Time("target", target))
				return
			case cmdStop:
				return
			}
		}
	}
}

// emit delivers a regular tick, dropping it when the consumer is behind. The
// next tick supersedes it anyway.
func (e *Engine) emit(t Tick) {
	select {
	case e.out <- t:
	default:
	}
}

// stopAndDrain stops a timer and drains its channel so an already-fired
// timer cannot leak a stray tick into the next loop iteration.
func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

// FormatRemaining renders a duration as "hh:mm:ss", or "Nd hh:mm" once the
// remaining time exceeds a day.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)

	days := total / 86400
	h := total % 86400 / 3600
	m := total % 3600 / 60
	s := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d", days, h, m)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
