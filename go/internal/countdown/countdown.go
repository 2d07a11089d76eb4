// Package countdown derives the shared question timer from the persisted
// start timestamp. Every client recomputes remaining time from the
// absolute stamp on each tick rather than decrementing locally, so clients
// joining late converge on the same value once the stamp propagates.
package countdown

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Remaining is the pure countdown function: max(0, duration - elapsed
// whole seconds). A nil start means the timer has not begun and the full
// duration is displayed.
func Remaining(now time.Time, start *time.Time, duration int) int {
	if start == nil {
		return duration
	}
	elapsed := int(math.Floor(now.Sub(*start).Seconds()))
	remaining := duration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Countdown runs one client's 1-second tick loop. It is fed the reveal
// flag and timer fields from each reconciliation pass; while revealed with
// a stamp set it publishes the derived remaining seconds and sounds the
// end-of-timer tones.
type Countdown struct {
	clock   clockwork.Clock
	emitter ToneEmitter

	mu          sync.Mutex
	revealed    bool
	start       *time.Time
	duration    int
	muted       bool
	lastToned   int // remaining value already toned, at most one per second
	lastEmitted int
	snapshots   chan int
}

// New creates a countdown. Run drives it; Update feeds it state.
func New(clock clockwork.Clock, emitter ToneEmitter) *Countdown {
	return &Countdown{
		clock:       clock,
		emitter:     emitter,
		lastToned:   -1,
		lastEmitted: -1,
		snapshots:   make(chan int, 8),
	}
}

// Snapshots returns the stream of derived remaining-seconds values.
func (c *Countdown) Snapshots() <-chan int {
	return c.snapshots
}

// Run ticks once per second until the context is cancelled.
func (c *Countdown) Run(ctx context.Context) {
	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.tick()
		}
	}
}

// Update applies the latest reconciled timer fields. Reveal off or a
// missing stamp resets the display to the full duration and stops the
// tones; a re-stamped start restarts them.
func (c *Countdown) Update(revealed bool, start *time.Time, duration int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	restamped := start != nil && (c.start == nil || !c.start.Equal(*start))
	c.duration = duration

	if !revealed || start == nil {
		c.revealed = false
		c.start = nil
		c.lastToned = -1
		c.publish(duration)
		return
	}

	c.revealed = true
	c.start = start
	if restamped {
		c.lastToned = -1
	}
	c.publish(Remaining(c.clock.Now(), c.start, c.duration))
}

// SetMuted toggles this client's sound only; the shared record is not
// touched and other clients keep their own setting.
func (c *Countdown) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

// Remaining returns the currently derived value.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.revealed || c.start == nil {
		return c.duration
	}
	return Remaining(c.clock.Now(), c.start, c.duration)
}

func (c *Countdown) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.revealed || c.start == nil {
		return
	}

	remaining := Remaining(c.clock.Now(), c.start, c.duration)
	c.publish(remaining)

	if remaining > soundWindow || remaining == c.lastToned {
		return
	}
	// mark even when muted so unmuting mid-second does not replay a tone
	c.lastToned = remaining
	if c.muted {
		return
	}
	if tone := toneFor(remaining); tone != "" {
		c.emitter.Emit(tone)
	}
}

// publish emits a snapshot when the value changed, dropping the oldest
// queued value if the consumer lags. Callers hold c.mu.
func (c *Countdown) publish(remaining int) {
	if remaining == c.lastEmitted {
		return
	}
	c.lastEmitted = remaining
	select {
	case c.snapshots <- remaining:
	default:
		select {
		case <-c.snapshots:
		default:
		}
		select {
		case c.snapshots <- remaining:
		default:
		}
	}
}
