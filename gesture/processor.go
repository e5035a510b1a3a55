package gesture

import (
	"sort"
	"time"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/device"
)

type noteState struct {
	held      bool
	pressedAt time.Duration
	velocity  uint8
	longFired bool
}

type chordAccumulator struct {
	notes    []uint8
	deadline time.Duration
	active   bool
}

// Processor is the stateful gesture detector from spec §4.C. It is not
// safe for concurrent use: the supervisor is expected to call Feed and
// Tick from a single goroutine, which is also why it needs no internal
// locking despite holding per-note timing state across calls.
type Processor struct {
	adv         config.AdvancedSettings
	conventions map[uint8]config.EncoderConvention

	notes   map[uint8]*noteState
	lastTap map[uint8]time.Duration
	lastCC  map[uint8]uint8
	chord   chordAccumulator
}

// NewProcessor constructs a Processor using adv's timing windows and the
// given per-controller encoder conventions (spec §9 Open Question: never
// a single guessed global default).
func NewProcessor(adv config.AdvancedSettings, conventions map[uint8]config.EncoderConvention) *Processor {
	return &Processor{
		adv:         adv,
		conventions: conventions,
		notes:       make(map[uint8]*noteState),
		lastTap:     make(map[uint8]time.Duration),
		lastCC:      make(map[uint8]uint8),
	}
}

// Reconfigure updates timing windows and encoder conventions in place,
// e.g. after a config hot-reload. In-flight per-note/chord state is
// preserved so a held note mid-long-press does not get its timer reset by
// an unrelated reload (spec S5).
func (p *Processor) Reconfigure(adv config.AdvancedSettings, conventions map[uint8]config.EncoderConvention) {
	p.adv = adv
	p.conventions = conventions
}

// Feed processes one raw event and returns zero or more gesture events, in
// emission order.
func (p *Processor) Feed(ev device.RawEvent, now time.Duration) []Event {
	var out []Event
	out = append(out, p.checkChordExpiry(now)...)

	switch v := ev.(type) {
	case device.NoteOn:
		out = append(out, p.handlePress(v.Note, v.Velocity, now)...)
	case device.NoteOff:
		out = append(out, p.handleRelease(v.Note, now)...)
	case device.CC:
		out = append(out, p.handleCC(v.Controller, v.Value, now)...)
	case device.Aftertouch:
		out = append(out, AftertouchChanged{base: base{T: now}, Pressure: v.Pressure})
	case device.PitchBend:
		out = append(out, PitchBendMoved{base: base{T: now}, Value: v.Value})
	}
	return out
}

// Tick drives time-based detections that no incoming event would
// otherwise trigger: long-press-without-release and chord-window expiry.
// The supervisor calls this periodically (spec §4.G "periodic ticks").
func (p *Processor) Tick(now time.Duration) []Event {
	var out []Event
	out = append(out, p.checkChordExpiry(now)...)

	// Stable iteration order (sorted notes) keeps long-press emission
	// deterministic across otherwise-equivalent map iteration orders.
	notes := make([]uint8, 0, len(p.notes))
	for n := range p.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i] < notes[j] })

	for _, n := range notes {
		st := p.notes[n]
		if st.held && !st.longFired && now-st.pressedAt >= p.adv.LongPressThreshold {
			st.longFired = true
			out = append(out, LongPress{base: base{T: now}, Note: n, Duration: now - st.pressedAt})
		}
	}
	return out
}

func (p *Processor) handlePress(note, velocity uint8, now time.Duration) []Event {
	var out []Event

	st, ok := p.notes[note]
	if !ok {
		st = &noteState{}
		p.notes[note] = st
	}
	st.held = true
	st.pressedAt = now
	st.velocity = velocity
	st.longFired = false

	out = append(out, PadPressed{base: base{T: now}, Note: note, Velocity: velocity, Band: config.Band(velocity)})

	if last, ok := p.lastTap[note]; ok && now-last <= p.effectiveDoubleTapWindow() {
		out = append(out, DoubleTap{base: base{T: now}, Note: note})
	}
	p.lastTap[note] = now

	p.addToChord(note, now)

	return out
}

func (p *Processor) effectiveDoubleTapWindow() time.Duration {
	if p.adv.DoubleTapWindow > 0 {
		return p.adv.DoubleTapWindow
	}
	return config.Defaults().DoubleTapWindow
}

func (p *Processor) handleRelease(note uint8, now time.Duration) []Event {
	var out []Event

	st, ok := p.notes[note]
	holdMS := time.Duration(0)
	if ok && st.held {
		holdMS = now - st.pressedAt
		st.held = false
	}

	out = append(out, p.finalizeChordIfParticipant(note, now)...)
	out = append(out, PadReleased{base: base{T: now}, Note: note, HoldMS: holdMS})
	return out
}

func (p *Processor) addToChord(note uint8, now time.Duration) {
	if !p.chord.active {
		p.chord = chordAccumulator{notes: []uint8{note}, deadline: now + p.adv.ChordWindow, active: true}
		return
	}
	p.chord.notes = append(p.chord.notes, note)
}

// checkChordExpiry finalizes the pending chord if its window has elapsed.
func (p *Processor) checkChordExpiry(now time.Duration) []Event {
	if !p.chord.active || now < p.chord.deadline {
		return nil
	}
	return p.finalizeChord(now)
}

// finalizeChordIfParticipant finalizes the pending chord early if note is
// one of its members — "earliest of window expiry or first NoteOff of any
// participating note" (spec §9 Open Question resolution).
func (p *Processor) finalizeChordIfParticipant(note uint8, now time.Duration) []Event {
	if !p.chord.active {
		return nil
	}
	for _, n := range p.chord.notes {
		if n == note {
			return p.finalizeChord(now)
		}
	}
	return nil
}

func (p *Processor) finalizeChord(now time.Duration) []Event {
	notes := p.chord.notes
	p.chord = chordAccumulator{}
	if len(notes) < 2 {
		return nil
	}
	sorted := append([]uint8(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return []Event{ChordDetected{base: base{T: now}, Notes: sorted}}
}

func (p *Processor) handleCC(controller, value uint8, now time.Duration) []Event {
	convention, isEncoder := p.conventions[controller]
	prev, hadPrev := p.lastCC[controller]
	p.lastCC[controller] = value

	if !isEncoder {
		return []Event{CCValue{base: base{T: now}, Controller: controller, Value: value}}
	}

	switch convention {
	case config.ConventionRelativePrevious:
		if !hadPrev || value == prev {
			return nil
		}
		if value > prev {
			return []Event{EncoderTurned{base: base{T: now}, Controller: controller, Direction: config.CW, Delta: value - prev}}
		}
		return []Event{EncoderTurned{base: base{T: now}, Controller: controller, Direction: config.CCW, Delta: prev - value}}

	default: // ConventionAbsoluteCenter
		switch {
		case value == 64:
			return nil
		case value < 64:
			return []Event{EncoderTurned{base: base{T: now}, Controller: controller, Direction: config.CW, Delta: 64 - value}}
		default:
			return []Event{EncoderTurned{base: base{T: now}, Controller: controller, Direction: config.CCW, Delta: value - 64}}
		}
	}
}
