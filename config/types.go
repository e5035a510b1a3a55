// Package config parses, validates, and snapshots the declarative mapping
// document that drives the engine. It is pure: Load never touches a MIDI
// device, a window manager, or the network.
package config

import "time"

// EncoderConvention selects how an EncoderTurn trigger derives direction
// from a raw CC value. Left as an Open Question by the distilled spec;
// resolved here as a per-controller, per-config choice rather than a
// guessed global default (see SPEC_FULL.md §9).
type EncoderConvention string

const (
	// ConventionAbsoluteCenter treats 1-63 as cw, 65-127 as ccw, 64 as
	// neutral — the common class-compliant-controller convention.
	ConventionAbsoluteCenter EncoderConvention = "absolute_center"
	// ConventionRelativePrevious derives direction by comparing against
	// the previously observed value for that controller.
	ConventionRelativePrevious EncoderConvention = "relative_previous"
)

// VelocityBand is one of the three bands a NoteOn velocity is sorted into.
type VelocityBand string

const (
	BandSoft   VelocityBand = "soft"
	BandMedium VelocityBand = "medium"
	BandHard   VelocityBand = "hard"
)

// Band classifies a 0-127 velocity. Velocity 0 has no band: callers must
// treat it as a NoteOff before calling Band.
func Band(velocity uint8) VelocityBand {
	switch {
	case velocity <= 42:
		return BandSoft
	case velocity <= 85:
		return BandMedium
	default:
		return BandHard
	}
}

// Config is the root configuration document, loaded once at start and
// replaced wholesale (never mutated in place) on every successful reload.
type Config struct {
	Version  int              `yaml:"version"`
	Device   DeviceSelector   `yaml:"device"`
	Modes    []Mode           `yaml:"modes"`
	Global   []Mapping        `yaml:"global"`
	Advanced AdvancedSettings `yaml:"advanced"`
	Encoders []EncoderConfig  `yaml:"encoders,omitempty"`

	// SourcePath is not part of the wire document; it records where this
	// Config was loaded from so the watcher and reload protocol can refer
	// back to it without threading the path everywhere.
	SourcePath string `yaml:"-"`
}

// EncoderConfig pins the direction convention for one controller number.
// This is the resolution to the Open Question in spec §9: the convention
// is never guessed globally, it is declared per controller.
type EncoderConfig struct {
	Controller uint8             `yaml:"controller"`
	Convention EncoderConvention `yaml:"convention"`
}

// EncoderConventions returns Encoders as a controller -> convention lookup.
// Unlisted controllers are absent from the map, so the gesture processor
// treats them as plain CCs; a listed controller with an empty convention is
// handled as ConventionAbsoluteCenter.
func (c *Config) EncoderConventions() map[uint8]EncoderConvention {
	m := make(map[uint8]EncoderConvention, len(c.Encoders))
	for _, e := range c.Encoders {
		m[e.Controller] = e.Convention
	}
	return m
}

// DeviceSelector picks which MIDI input port to open.
type DeviceSelector struct {
	NameHint      string `yaml:"name_hint"`
	PortIndex     *int   `yaml:"port_index,omitempty"`
	AutoConnect   bool   `yaml:"auto_connect"`
	AutoReconnect bool   `yaml:"auto_reconnect"`
	ProfilePath   string `yaml:"profile,omitempty"`
}

// Mode is a named, ordered set of mappings, consulted before the global
// list when it is the active mode.
type Mode struct {
	Name     string    `yaml:"name"`
	Color    string    `yaml:"color,omitempty"`
	Mappings []Mapping `yaml:"mappings"`
}

// Mapping binds one Trigger to one Action.
type Mapping struct {
	Description string `yaml:"description,omitempty"`
	Trigger     Trigger `yaml:"trigger"`
	Action      Action  `yaml:"action"`
}

// AdvancedSettings are the timing knobs §3 requires to have defaults when
// absent from the document.
type AdvancedSettings struct {
	ChordWindow        time.Duration `yaml:"chord_window"`
	DoubleTapWindow    time.Duration `yaml:"double_tap_window"`
	LongPressThreshold time.Duration `yaml:"long_press_threshold"`
	FadeOutDelay       time.Duration `yaml:"fade_out_delay"`
}

// Defaults returns the advanced-settings block used whenever a document
// omits it or omits individual fields within it.
func Defaults() AdvancedSettings {
	return AdvancedSettings{
		ChordWindow:        100 * time.Millisecond,
		DoubleTapWindow:    300 * time.Millisecond,
		LongPressThreshold: 2000 * time.Millisecond,
		FadeOutDelay:       500 * time.Millisecond,
	}
}

// applyDefaults fills any zero-valued duration in a with the matching
// default, in place.
func (a *AdvancedSettings) applyDefaults() {
	d := Defaults()
	if a.ChordWindow == 0 {
		a.ChordWindow = d.ChordWindow
	}
	if a.DoubleTapWindow == 0 {
		a.DoubleTapWindow = d.DoubleTapWindow
	}
	if a.LongPressThreshold == 0 {
		a.LongPressThreshold = d.LongPressThreshold
	}
	if a.FadeOutDelay == 0 {
		a.FadeOutDelay = d.FadeOutDelay
	}
}
