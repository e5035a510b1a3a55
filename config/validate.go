package config

import (
	"fmt"
	"os/exec"

	"github.com/samber/lo"

	"github.com/amiable-dev/midimon/feedback"
)

// loadProfile delegates to the feedback package's pure profile loader; the
// only thing config.Validate needs to know is whether the referenced path
// exists and parses (§3), not what a pad layout means.
func loadProfile(path string) (*feedback.Profile, error) {
	return feedback.LoadProfile(path)
}

// Validate runs every structural and semantic check over cfg and returns
// **all** violations found, not just the first, so a user editing their
// config sees the complete list on one reload (§4.A). A nil/empty return
// means cfg is safe to install as the active configuration.
func Validate(cfg *Config) Errors {
	var errs Errors

	if !SchemaSupported(cfg.Version) {
		errs = append(errs, newErr(ErrSchema, "version", fmt.Sprintf("unsupported schema version %d", cfg.Version)))
	}

	seen := map[string]bool{}
	for i, m := range cfg.Modes {
		path := fmt.Sprintf("modes[%d]", i)
		if m.Name == "" {
			errs = append(errs, newErr(ErrValidation, path+".name", "mode name must not be empty"))
		} else if seen[m.Name] {
			errs = append(errs, newErr(ErrSemantic, path+".name", fmt.Sprintf("duplicate mode name %q", m.Name)))
		}
		seen[m.Name] = true

		for j, mapping := range m.Mappings {
			errs = append(errs, validateMapping(fmt.Sprintf("%s.mappings[%d]", path, j), mapping)...)
		}
	}
	for i, mapping := range cfg.Global {
		errs = append(errs, validateMapping(fmt.Sprintf("global[%d]", i), mapping)...)
	}

	if cfg.Device.ProfilePath != "" {
		if _, err := loadProfile(cfg.Device.ProfilePath); err != nil {
			errs = append(errs, &Error{
				Kind: ErrCrossReference, Path: "device.profile",
				Message: fmt.Sprintf("referenced device profile %q does not exist or does not parse: %v", cfg.Device.ProfilePath, err),
				Wrapped: err,
			})
		}
	}

	return errs
}

func validateMapping(path string, m Mapping) Errors {
	var errs Errors
	errs = append(errs, validateTrigger(path+".trigger", m.Trigger)...)
	errs = append(errs, validateAction(path+".action", m.Action)...)
	return errs
}

func inRange7(v uint8) bool { return v <= 127 }

func validateTrigger(path string, t Trigger) Errors {
	var errs Errors
	switch t.Kind {
	case TriggerNote, TriggerVelocityRange, TriggerLongPress, TriggerDoubleTap:
		if !inRange7(t.Note) {
			errs = append(errs, newErr(ErrValidation, path+".note", fmt.Sprintf("note %d out of range 0-127", t.Note)))
		}
	case TriggerChord:
		for _, n := range t.ChordNotes {
			if !inRange7(n) {
				errs = append(errs, newErr(ErrValidation, path+".notes", fmt.Sprintf("note %d out of range 0-127", n)))
			}
		}
	case TriggerEncoderTurn, TriggerCC:
		if !inRange7(t.Controller) {
			errs = append(errs, newErr(ErrValidation, path+".controller", fmt.Sprintf("controller %d out of range 0-127", t.Controller)))
		}
	case TriggerAftertouch:
		if !inRange7(t.AftertouchThreshold) {
			errs = append(errs, newErr(ErrValidation, path+".threshold", fmt.Sprintf("threshold %d out of range 0-127", t.AftertouchThreshold)))
		}
	case TriggerPitchBend:
		// Only Min<=Max is enforced; the bounds themselves are not
		// range-checked (MatchesPitchBend scales them from 0-127).
		if t.PitchBendRange.Min > t.PitchBendRange.Max {
			errs = append(errs, newErr(ErrValidation, path+".range", "min must be <= max"))
		}
	}
	return errs
}

func validateAction(path string, a Action) Errors {
	var errs Errors
	switch a.Kind {
	case ActionKeystroke:
		if !IsValidKey(a.Key) {
			errs = append(errs, newErr(ErrValidation, path+".key", fmt.Sprintf("unknown key name %q", a.Key)))
		}
		for _, mod := range a.Modifiers {
			if !IsValidModifier(mod) {
				errs = append(errs, newErr(ErrValidation, path+".modifiers", fmt.Sprintf("unknown modifier name %q", mod)))
			}
		}
	case ActionSequence:
		for i, inner := range a.Sequence {
			errs = append(errs, validateAction(fmt.Sprintf("%s.actions[%d]", path, i), inner)...)
		}
	case ActionRepeat:
		if a.RepeatAction != nil {
			errs = append(errs, validateAction(path+".action", *a.RepeatAction)...)
		}
		if a.RepeatCount <= 0 {
			errs = append(errs, newErr(ErrValidation, path+".count", "repeat count must be positive"))
		}
	case ActionConditional:
		if a.ThenAction != nil {
			errs = append(errs, validateAction(path+".then", *a.ThenAction)...)
		}
		if a.ElseAction != nil {
			errs = append(errs, validateAction(path+".else", *a.ElseAction)...)
		}
	}
	return errs
}

// Warning is a non-fatal finding from DeepValidate: something that looks
// wrong but does not block installing the configuration (§4.A: "returns
// warnings rather than errors for these").
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Path, w.Message) }

// DeepValidate runs the slower, environment-touching checks the hot-reload
// path additionally performs: does a Shell action's binary resolve on
// PATH, is a Launch action's app identifier non-empty. The Launch check
// does not look the application up, so an identifier naming an app that is
// not installed passes. These never block a reload; they are surfaced to
// the operator as warnings only.
func DeepValidate(cfg *Config) []Warning {
	var warnings []Warning
	walkActions(cfg, func(path string, a Action) {
		switch a.Kind {
		case ActionShell:
			bin := firstToken(a.Command)
			if bin == "" {
				return
			}
			if _, err := exec.LookPath(bin); err != nil {
				warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf("shell command binary %q not found on PATH", bin)})
			}
		case ActionLaunch:
			if a.AppID == "" {
				warnings = append(warnings, Warning{Path: path, Message: "launch action has empty app identifier"})
			}
		}
	})
	return warnings
}

func firstToken(command string) string {
	fields := lo.Filter(splitFields(command), func(s string, _ int) bool { return s != "" })
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func splitFields(s string) []string {
	var fields []string
	cur := ""
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if cur != "" {
				fields = append(fields, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		fields = append(fields, cur)
	}
	return fields
}

func walkActions(cfg *Config, visit func(path string, a Action)) {
	var walk func(path string, a Action)
	walk = func(path string, a Action) {
		visit(path, a)
		switch a.Kind {
		case ActionSequence:
			for i, inner := range a.Sequence {
				walk(fmt.Sprintf("%s.actions[%d]", path, i), inner)
			}
		case ActionRepeat:
			if a.RepeatAction != nil {
				walk(path+".action", *a.RepeatAction)
			}
		case ActionConditional:
			if a.ThenAction != nil {
				walk(path+".then", *a.ThenAction)
			}
			if a.ElseAction != nil {
				walk(path+".else", *a.ElseAction)
			}
		}
	}
	for i, m := range cfg.Modes {
		for j, mapping := range m.Mappings {
			walk(fmt.Sprintf("modes[%d].mappings[%d].action", i, j), mapping.Action)
		}
	}
	for i, mapping := range cfg.Global {
		walk(fmt.Sprintf("global[%d].action", i), mapping.Action)
	}
}
