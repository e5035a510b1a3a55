package device

import "time"

// RawEvent is the closed set of parsed-but-unrecognized-as-gesture MIDI
// messages delivered by Adapter, matching spec §3 "Raw MIDI event" exactly.
// T is the millisecond timestamp the gomidi callback supplies, converted to
// a time.Duration inside the callback before the event is ever queued.
type RawEvent interface {
	Timestamp() time.Duration
	isRawEvent()
}

type base struct{ T time.Duration }

func (b base) Timestamp() time.Duration { return b.T }

type NoteOn struct {
	base
	Channel, Note, Velocity uint8
}

type NoteOff struct {
	base
	Channel, Note uint8
}

type CC struct {
	base
	Channel, Controller, Value uint8
}

type Aftertouch struct {
	base
	Channel, Pressure uint8
}

type PitchBend struct {
	base
	Channel uint8
	Value   uint16
}

func (NoteOn) isRawEvent()     {}
func (NoteOff) isRawEvent()    {}
func (CC) isRawEvent()         {}
func (Aftertouch) isRawEvent() {}
func (PitchBend) isRawEvent()  {}
