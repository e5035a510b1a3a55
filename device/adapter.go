// Package device is the MIDI I/O adapter (spec §4.B). It opens a MIDI
// input stream by explicit port index or substring name match, delivers
// parsed raw events over a bounded channel with a non-blocking producer
// side, and detects disconnection by heartbeat timeout only (a driver
// error after the port is open is not watched) — but never reconnects on its own: that is
// centrally coordinated by engine.Supervisor so backoff and shutdown stay
// in one place (spec §4.B, §4.G).
//
// Grounded on the teacher's devices/midi.go: the midi.ListenTo callback
// switch over message kinds, and the Get* extraction-then-log-and-continue
// discipline on parse failure, are carried over near verbatim. What
// changes is the delivery model: the teacher registers arbitrary
// per-(channel,key) callbacks invoked synchronously inside the driver
// callback; this adapter instead only ever does one thing inside that
// callback — a non-blocking channel send — because the driver callback
// "does no awaiting" (spec §5) and must never block on downstream
// processing.
package device

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/amiable-dev/midimon/logging"
)

const (
	// DefaultQueueCapacity is the bounded channel capacity from spec §4.B.
	DefaultQueueCapacity = 1024
	// DefaultHeartbeatTimeout is how long the adapter waits without any
	// message, while a device was previously seen, before declaring it
	// lost (spec §4.B).
	DefaultHeartbeatTimeout = 5 * time.Second
)

// Selector picks which MIDI input to open: by explicit index, or by a
// case-insensitive substring match against available port names.
type Selector struct {
	NameHint  string
	PortIndex *int
}

// OpenedInfo describes the port Open actually connected to, which may
// differ from the selector's hint if no matching name was found (spec
// §4.B: "falls back to port 0 and logs a warning").
type OpenedInfo struct {
	Index int
	Name  string
}

// Adapter is the bounded-queue MIDI input source.
type Adapter struct {
	heartbeatTimeout time.Duration

	mu       sync.Mutex
	in       drivers.In
	stop     func()
	opened   bool
	portInfo OpenedInfo

	events  chan RawEvent
	dropped atomic.Uint64

	lastSeen  atomic.Int64 // UnixNano; 0 until the first message arrives
	lost      chan struct{}
	lostOnce  sync.Once
	heartbeat *time.Ticker
	done      chan struct{}
}

// NewAdapter constructs an Adapter with the given bounded-queue capacity
// and heartbeat timeout. Pass 0 for either to use the spec defaults.
func NewAdapter(queueCapacity int, heartbeatTimeout time.Duration) *Adapter {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = DefaultHeartbeatTimeout
	}
	return &Adapter{
		heartbeatTimeout: heartbeatTimeout,
		events:           make(chan RawEvent, queueCapacity),
		lost:             make(chan struct{}),
		done:             make(chan struct{}),
	}
}

// Events returns the receive-only endpoint the supervisor selects on.
func (a *Adapter) Events() <-chan RawEvent { return a.events }

// Lost is closed exactly once when the adapter detects disconnection,
// which happens only via heartbeat timeout. The
// supervisor is the sole reader and the sole party that decides to
// reconnect.
func (a *Adapter) Lost() <-chan struct{} { return a.lost }

// Dropped returns the number of raw events dropped so far because the
// bounded queue was full.
func (a *Adapter) Dropped() uint64 { return a.dropped.Load() }

// ListPorts returns the available input port names in driver order, for
// the IPC `list_devices` command.
func ListPorts() []string {
	ports := midi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names
}

// Open resolves sel against the available input ports and starts
// listening. Resolution order: explicit PortIndex, then case-insensitive
// substring match against NameHint, then port 0 with a warning (spec
// §4.B).
func (a *Adapter) Open(sel Selector) (OpenedInfo, error) {
	log := logging.Get(logging.Device)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.opened {
		return OpenedInfo{}, fmt.Errorf("device: adapter already open")
	}

	var in drivers.In
	var info OpenedInfo
	var err error

	switch {
	case sel.PortIndex != nil:
		ports := midi.GetInPorts()
		idx := *sel.PortIndex
		if idx < 0 || idx >= len(ports) {
			return OpenedInfo{}, fmt.Errorf("device: port index %d out of range (%d ports available)", idx, len(ports))
		}
		in = ports[idx]
		info = OpenedInfo{Index: idx, Name: in.String()}

	case sel.NameHint != "":
		in, err = midi.FindInPort(sel.NameHint)
		if err != nil {
			log.Warn("named MIDI device not found, falling back to port 0", "name_hint", sel.NameHint, "error", err)
			in, info, err = openPortZero()
			if err != nil {
				return OpenedInfo{}, err
			}
		} else {
			info = OpenedInfo{Index: findPortIndex(sel.NameHint), Name: in.String()}
		}

	default:
		in, info, err = openPortZero()
		if err != nil {
			return OpenedInfo{}, err
		}
	}

	if err := in.Open(); err != nil {
		return OpenedInfo{}, fmt.Errorf("device: opening port %q: %w", info.Name, err)
	}

	a.in = in
	a.portInfo = info
	a.opened = true
	a.lost = make(chan struct{})
	a.lostOnce = sync.Once{}
	a.lastSeen.Store(0)

	stop, err := midi.ListenTo(in, a.onMessage, midi.UseSysEx())
	if err != nil {
		in.Close()
		a.opened = false
		return OpenedInfo{}, fmt.Errorf("device: listening on port %q: %w", info.Name, err)
	}
	a.stop = stop

	a.heartbeat = time.NewTicker(a.heartbeatTimeout / 2)
	go a.watchHeartbeat()

	log.Info("MIDI device connected", "index", info.Index, "name", info.Name)
	return info, nil
}

func openPortZero() (drivers.In, OpenedInfo, error) {
	ports := midi.GetInPorts()
	if len(ports) == 0 {
		return nil, OpenedInfo{}, fmt.Errorf("device: no MIDI input ports available")
	}
	return ports[0], OpenedInfo{Index: 0, Name: ports[0].String()}, nil
}

func findPortIndex(nameHint string) int {
	ports := midi.GetInPorts()
	lower := strings.ToLower(nameHint)
	for i, p := range ports {
		if strings.Contains(strings.ToLower(p.String()), lower) {
			return i
		}
	}
	return -1
}

func (a *Adapter) watchHeartbeat() {
	for {
		select {
		case <-a.heartbeat.C:
			last := a.lastSeen.Load()
			if last == 0 {
				continue // nothing received yet; give the device time
			}
			if time.Since(time.Unix(0, last)) > a.heartbeatTimeout {
				a.signalLost()
				return
			}
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) signalLost() {
	a.lostOnce.Do(func() {
		logging.Get(logging.Device).Warn("MIDI device considered lost", "name", a.portInfo.Name)
		close(a.lost)
	})
}

// Close stops listening and releases the underlying port. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.opened {
		return nil
	}
	if a.heartbeat != nil {
		a.heartbeat.Stop()
	}
	close(a.done)
	a.done = make(chan struct{})
	if a.stop != nil {
		a.stop()
	}
	var err error
	if a.in != nil {
		err = a.in.Close()
	}
	a.opened = false
	return err
}

func (a *Adapter) send(ev RawEvent) {
	select {
	case a.events <- ev:
	default:
		a.dropped.Add(1)
		logging.Get(logging.Device).Warn("raw event queue full, dropping event", "dropped_total", a.dropped.Load())
	}
}

func (a *Adapter) onMessage(msg midi.Message, timestampms int32) {
	log := logging.Get(logging.Device)
	a.lastSeen.Store(time.Now().UnixNano())
	t := time.Duration(timestampms) * time.Millisecond

	switch msg.Type() {
	case midi.NoteOnMsg:
		var ch, key, vel uint8
		if !msg.GetNoteOn(&ch, &key, &vel) {
			log.Debug("failed to parse NoteOn message")
			return
		}
		if vel == 0 {
			// Convention: NoteOn with velocity 0 is a NoteOff (spec §4.C).
			a.send(NoteOff{base: base{T: t}, Channel: ch, Note: key})
			return
		}
		a.send(NoteOn{base: base{T: t}, Channel: ch, Note: key, Velocity: vel})

	case midi.NoteOffMsg:
		var ch, key, vel uint8
		if !msg.GetNoteOff(&ch, &key, &vel) {
			log.Debug("failed to parse NoteOff message")
			return
		}
		a.send(NoteOff{base: base{T: t}, Channel: ch, Note: key})

	case midi.ControlChangeMsg:
		var ch, cc, val uint8
		if !msg.GetControlChange(&ch, &cc, &val) {
			log.Debug("failed to parse ControlChange message")
			return
		}
		a.send(CC{base: base{T: t}, Channel: ch, Controller: cc, Value: val})

	case midi.AfterTouchMsg:
		var ch, pressure uint8
		if !msg.GetAfterTouch(&ch, &pressure) {
			log.Debug("failed to parse AfterTouch message")
			return
		}
		a.send(Aftertouch{base: base{T: t}, Channel: ch, Pressure: pressure})

	case midi.PitchBendMsg:
		var ch uint8
		var relative int16
		var absolute uint16
		if !msg.GetPitchBend(&ch, &relative, &absolute) {
			log.Debug("failed to parse PitchBend message")
			return
		}
		a.send(PitchBend{base: base{T: t}, Channel: ch, Value: absolute})

	default:
		// Unrecognized/unsupported message kinds are dropped silently;
		// the processor never needs to see them (spec §4.C: "malformed
		// raw messages are dropped ... the processor never fails").
	}
}
