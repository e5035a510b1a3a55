// Package gesture turns raw MIDI messages into the higher-level gesture
// events the mapping engine matches against (spec §4.C). The Processor is
// single-threaded and deterministic: fed the same sequence of raw events
// and ticks, it always produces the same sequence of gesture events.
package gesture

import (
	"time"

	"github.com/amiable-dev/midimon/config"
)

// Event is the closed set of processed/gesture-level outputs (spec §3).
type Event interface {
	Timestamp() time.Duration
	isEvent()
}

type base struct{ T time.Duration }

func (b base) Timestamp() time.Duration { return b.T }

// PadPressed fires on a qualifying NoteOn.
type PadPressed struct {
	base
	Note     uint8
	Velocity uint8
	Band     config.VelocityBand
}

// PadReleased fires on NoteOff (including a velocity-0 NoteOn).
type PadReleased struct {
	base
	Note   uint8
	HoldMS time.Duration
}

// LongPress fires at most once per press, when a note has been held past
// the configured threshold without a NoteOff.
type LongPress struct {
	base
	Note     uint8
	Duration time.Duration
}

// DoubleTap accompanies the second PadPressed of a same-note double tap.
type DoubleTap struct {
	base
	Note uint8
}

// ChordDetected fires with the sorted set of notes that arrived within the
// chord window.
type ChordDetected struct {
	base
	Notes []uint8
}

// EncoderDirection mirrors config.Direction to keep this package free of a
// dependency cycle risk on the matching layer's own direction constant
// while remaining trivially comparable to it.
type EncoderDirection = config.Direction

// EncoderTurned fires on a CC recognized as an encoder turn.
type EncoderTurned struct {
	base
	Controller uint8
	Direction  EncoderDirection
	Delta      uint8
}

// CCValue fires on every CC from a controller not configured as an
// encoder. A controller configured as an encoder produces EncoderTurned
// (or nothing) instead, never CCValue.
type CCValue struct {
	base
	Controller uint8
	Value      uint8
}

// AftertouchChanged fires on every Aftertouch message.
type AftertouchChanged struct {
	base
	Pressure uint8
}

// PitchBendMoved fires on every PitchBend message.
type PitchBendMoved struct {
	base
	Value uint16
}

func (PadPressed) isEvent()        {}
func (PadReleased) isEvent()       {}
func (LongPress) isEvent()         {}
func (DoubleTap) isEvent()         {}
func (ChordDetected) isEvent()     {}
func (EncoderTurned) isEvent()     {}
func (CCValue) isEvent()           {}
func (AftertouchChanged) isEvent() {}
func (PitchBendMoved) isEvent()    {}
