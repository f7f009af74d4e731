package replay

import (
	"sync"
	"time"

	"github.com/optbacktest/barsim/sim"
)

// DefaultInterval is the wall-clock delay between bars at speed 1.
const DefaultInterval = 600 * time.Millisecond

// Clock drives an engine forward one bar per tick of a wall-clock timer.
// It owns no market state; all simulation effects go through the engine.
type Clock struct {
	mu      sync.Mutex
	engine  *sim.Engine
	base    time.Duration
	speed   float64
	stop    chan struct{}
	playing bool
}

// NewClock wraps an engine in a playback timer. base is the per-bar delay
// at speed 1; zero or negative means DefaultInterval.
func NewClock(e *sim.Engine, base time.Duration) *Clock {
	if base <= 0 {
		base = DefaultInterval
	}
	return &Clock{engine: e, base: base, speed: 1}
}

// Play starts advancing the engine in a background goroutine. Playback
// pauses itself when the engine reaches the last bar. Calling Play while
// already playing is a no-op.
func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing || c.engine.AtEnd() {
		return
	}
	c.stop = make(chan struct{})
	c.playing = true
	go c.run(c.stop, c.intervalLocked())
}

// Pause stops playback. The playhead stays where it is.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Clock) pauseLocked() {
	if !c.playing {
		return
	}
	close(c.stop)
	c.stop = nil
	c.playing = false
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Speed reports the current playback multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the playback multiplier. Non-positive values are
// ignored. If playback is running it restarts on the new interval.
func (c *Clock) SetSpeed(mult float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mult <= 0 {
		return
	}
	c.speed = mult
	if c.playing {
		c.pauseLocked()
		c.stop = make(chan struct{})
		c.playing = true
		go c.run(c.stop, c.intervalLocked())
	}
}

// Step pauses playback and moves the engine by delta bars.
func (c *Clock) Step(delta int) sim.Snapshot {
	c.Pause()
	return c.engine.Step(delta)
}

// Start pauses playback and rewinds the engine to its starting bar.
func (c *Clock) Start() sim.Snapshot {
	c.Pause()
	return c.engine.SeekStart()
}

func (c *Clock) intervalLocked() time.Duration {
	return time.Duration(float64(c.base) / c.speed)
}

func (c *Clock) run(stop chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.engine.Step(1)
			if c.engine.AtEnd() {
				c.mu.Lock()
				// Only pause if this run is still the active one.
				if c.playing && c.stop == stop {
					c.pauseLocked()
				}
				c.mu.Unlock()
				return
			}
		}
	}
}
