package feedback

import (
	"sync"
	"time"

	"github.com/amiable-dev/midimon/logging"
)

// tickRate is the ~10 Hz animation loop cadence spec §4.F calls for.
const tickRate = 100 * time.Millisecond

// Controller owns a Sink and runs at most one active scheme at a time.
// Callers never touch the Sink directly; they call OnPadPressed,
// OnPadReleased and RunScheme, which take the controller's mutex and write
// to the Sink on the caller's goroutine. Only animated schemes run on a
// goroutine of the controller's own.
type Controller struct {
	sink    Sink
	numPads int

	mu      sync.Mutex
	scheme  Scheme
	done    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewController builds a Controller over sink with numPads addressable
// pads. sink may be nil (no device connected yet); every write then drops
// silently, matching the disconnected-device tolerance the spec requires.
func NewController(sink Sink, numPads int) *Controller {
	return &Controller{sink: sink, numPads: numPads, scheme: SchemeReactive}
}

// SetSink swaps the underlying Sink, e.g. after a device reconnect. The
// active scheme is left running; the next tick picks up the new sink.
func (c *Controller) SetSink(sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

func (c *Controller) write(fn func(Sink) error) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		return
	}
	if err := fn(sink); err != nil {
		logging.Get(logging.Feedback).Warn("feedback write failed", "error", err)
	}
}

// OnPadPressed and OnPadReleased drive the reactive-to-press scheme; in any
// other scheme they are no-ops, since an animation owns the LEDs.
func (c *Controller) OnPadPressed(pad int) {
	c.mu.Lock()
	reactive := c.scheme == SchemeReactive
	c.mu.Unlock()
	if reactive {
		c.write(func(s Sink) error { return s.Set(pad, Red) })
	}
}

func (c *Controller) OnPadReleased(pad int) {
	c.mu.Lock()
	reactive := c.scheme == SchemeReactive
	c.mu.Unlock()
	if reactive {
		c.write(func(s Sink) error { return s.Set(pad, Off) })
	}
}

// RunScheme switches the active scheme, starting the ~10Hz animation loop
// for animated schemes and stopping it (idling) for SchemeReactive.
func (c *Controller) RunScheme(scheme Scheme) {
	c.mu.Lock()
	c.scheme = scheme
	c.mu.Unlock()

	c.stopLoop()
	if scheme != SchemeReactive {
		c.startLoop(scheme)
	} else {
		c.write(func(s Sink) error { return s.Clear() })
	}
}

func (c *Controller) startLoop(scheme Scheme) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	c.wg.Add(1)
	go c.animate(scheme, done)
}

func (c *Controller) stopLoop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	done := c.done
	c.mu.Unlock()

	close(done)
	c.wg.Wait()
}

func (c *Controller) animate(scheme Scheme, done chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	var frame int
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			colors := renderFrame(scheme, c.numPads, frame)
			c.write(func(s Sink) error { return s.SetAll(colors) })
			frame++
		}
	}
}

// Stop tears down any running animation. Safe to call even if none is
// active.
func (c *Controller) Stop() {
	c.stopLoop()
}
