package mapping

import (
	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/gesture"
)

// Match finds the first mapping whose trigger fires for ev, checking the
// active mode's mappings before the global list (spec §4.D "mode-local
// mappings are consulted first, then global; first match wins within each
// list"). activeMode must already be clamped to a valid index or -1 to skip
// mode-local mappings entirely (e.g. before the engine has chosen a mode).
func Match(t *Table, activeMode int, ev gesture.Event) (*config.Mapping, bool) {
	if activeMode >= 0 && activeMode < len(t.Modes) {
		if m, ok := firstMatch(t.Modes[activeMode].Mappings, ev); ok {
			return m, true
		}
	}
	return firstMatch(t.Global, ev)
}

func firstMatch(mappings []config.Mapping, ev gesture.Event) (*config.Mapping, bool) {
	for i := range mappings {
		if matchesTrigger(mappings[i].Trigger, ev) {
			return &mappings[i], true
		}
	}
	return nil, false
}

// matchesTrigger reports whether a single trigger fires for ev. Every
// TriggerKind must have a case; an unknown kind (which config.Load already
// rejects at parse time) panics in the default branch.
func matchesTrigger(t config.Trigger, ev gesture.Event) bool {
	switch t.Kind {
	case config.TriggerNote:
		e, ok := ev.(gesture.PadPressed)
		if !ok || e.Note != t.Note {
			return false
		}
		if t.VelocityRange != nil {
			return e.Velocity >= t.VelocityRange.Min && e.Velocity <= t.VelocityRange.Max
		}
		return true

	case config.TriggerVelocityRange:
		e, ok := ev.(gesture.PadPressed)
		if !ok || e.Note != t.Note {
			return false
		}
		return e.Velocity >= t.VelocityRangeAbs.Min && e.Velocity <= t.VelocityRangeAbs.Max

	case config.TriggerLongPress:
		e, ok := ev.(gesture.LongPress)
		return ok && e.Note == t.Note && e.Duration >= t.MinDuration

	case config.TriggerDoubleTap:
		e, ok := ev.(gesture.DoubleTap)
		return ok && e.Note == t.Note

	case config.TriggerChord:
		e, ok := ev.(gesture.ChordDetected)
		return ok && t.MatchesChord(e.Notes)

	case config.TriggerEncoderTurn:
		e, ok := ev.(gesture.EncoderTurned)
		if !ok || e.Controller != t.Controller || e.Direction != t.EncoderDirection {
			return false
		}
		threshold := t.DeltaThreshold
		if threshold == 0 {
			threshold = 1
		}
		return e.Delta >= threshold

	case config.TriggerCC:
		e, ok := ev.(gesture.CCValue)
		if !ok || e.Controller != t.Controller {
			return false
		}
		if t.CCRange != nil {
			return e.Value >= t.CCRange.Min && e.Value <= t.CCRange.Max
		}
		return true

	case config.TriggerAftertouch:
		e, ok := ev.(gesture.AftertouchChanged)
		return ok && e.Pressure >= t.AftertouchThreshold

	case config.TriggerPitchBend:
		e, ok := ev.(gesture.PitchBendMoved)
		return ok && t.MatchesPitchBend(e.Value)

	default:
		panic("mapping: unhandled trigger kind " + string(t.Kind))
	}
}
