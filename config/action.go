package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ActionKind enumerates the closed set of action tags.
type ActionKind string

const (
	ActionKeystroke     ActionKind = "keystroke"
	ActionText          ActionKind = "text"
	ActionLaunch        ActionKind = "launch"
	ActionShell         ActionKind = "shell"
	ActionVolumeControl ActionKind = "volume_control"
	ActionModeChange    ActionKind = "mode_change"
	ActionSequence      ActionKind = "sequence"
	ActionDelay         ActionKind = "delay"
	ActionMouseClick    ActionKind = "mouse_click"
	ActionRepeat        ActionKind = "repeat"
	ActionConditional   ActionKind = "conditional"
)

// VolumeOp is the closed set of VolumeControl sub-operations.
type VolumeOp string

const (
	VolumeUp   VolumeOp = "up"
	VolumeDown VolumeOp = "down"
	VolumeMute VolumeOp = "mute"
	VolumeSet  VolumeOp = "set"
)

// MouseButton identifies the button a MouseClick action presses.
type MouseButton string

const (
	MouseLeft   MouseButton = "left"
	MouseRight  MouseButton = "right"
	MouseMiddle MouseButton = "middle"
)

// PredicateKind is the closed set of things a Conditional may inspect.
type PredicateKind string

const (
	PredicateMode         PredicateKind = "mode"
	PredicateTimeOfDay    PredicateKind = "time_of_day"
	PredicateFrontmostApp PredicateKind = "frontmost_app"
	PredicateStateVar     PredicateKind = "state_var"
)

// Predicate is evaluated by action.Executor against live context; it never
// mutates state (§4.E).
type Predicate struct {
	Kind PredicateKind

	ModeEquals string // PredicateMode

	After  string // PredicateTimeOfDay, "HH:MM", inclusive
	Before string // PredicateTimeOfDay, "HH:MM", exclusive

	AppEquals string // PredicateFrontmostApp

	VarName   string // PredicateStateVar
	VarEquals string // PredicateStateVar
}

// Action is the closed sum type over side-effecting actions. Exactly one
// payload is populated, selected by Kind.
type Action struct {
	Kind ActionKind

	Key       string   // ActionKeystroke
	Modifiers []string // ActionKeystroke

	Text string // ActionText

	AppID string // ActionLaunch

	Command string // ActionShell

	VolumeOp    VolumeOp // ActionVolumeControl
	VolumeLevel uint8    // ActionVolumeControl (VolumeSet)

	TargetMode int // ActionModeChange

	Sequence []Action // ActionSequence

	DelayMS time.Duration // ActionDelay

	Button MouseButton // ActionMouseClick
	Clicks int         // ActionMouseClick

	RepeatAction *Action       // ActionRepeat
	RepeatCount  int           // ActionRepeat
	RepeatGap    time.Duration // ActionRepeat

	Predicate    *Predicate // ActionConditional
	ThenAction   *Action    // ActionConditional
	ElseAction   *Action    // ActionConditional
}

type wirePredicate struct {
	Kind      string `yaml:"kind"`
	Mode      string `yaml:"mode,omitempty"`
	After     string `yaml:"after,omitempty"`
	Before    string `yaml:"before,omitempty"`
	App       string `yaml:"app,omitempty"`
	Var       string `yaml:"var,omitempty"`
	VarEquals string `yaml:"equals,omitempty"`
}

func (p *Predicate) UnmarshalYAML(value *yaml.Node) error {
	var w wirePredicate
	if err := value.Decode(&w); err != nil {
		return fmt.Errorf("predicate: %w", err)
	}
	k := PredicateKind(w.Kind)
	switch k {
	case PredicateMode:
		p.ModeEquals = w.Mode
	case PredicateTimeOfDay:
		p.After, p.Before = w.After, w.Before
	case PredicateFrontmostApp:
		p.AppEquals = w.App
	case PredicateStateVar:
		p.VarName, p.VarEquals = w.Var, w.VarEquals
	default:
		return fmt.Errorf("predicate: unknown kind %q", w.Kind)
	}
	p.Kind = k
	return nil
}

// wireAction is the literal YAML shape, one optional field per possible
// payload member across every action kind.
type wireAction struct {
	Type string `yaml:"type"`

	Key       string   `yaml:"key,omitempty"`
	Modifiers []string `yaml:"modifiers,omitempty"`

	Text string `yaml:"text,omitempty"`

	App string `yaml:"app,omitempty"`

	Command string `yaml:"command,omitempty"`

	Op    string `yaml:"op,omitempty"`
	Level *uint8 `yaml:"level,omitempty"`

	Mode *int `yaml:"mode,omitempty"`

	Actions []Action `yaml:"actions,omitempty"`

	Ms *int64 `yaml:"ms,omitempty"`

	Button string `yaml:"button,omitempty"`
	Clicks *int   `yaml:"clicks,omitempty"`

	Action  *Action `yaml:"action,omitempty"`
	Count   *int    `yaml:"count,omitempty"`
	GapMS   *int64  `yaml:"gap_ms,omitempty"`

	Predicate *Predicate `yaml:"predicate,omitempty"`
	Then      *Action    `yaml:"then,omitempty"`
	Else      *Action    `yaml:"else,omitempty"`
}

func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var w wireAction
	if err := value.Decode(&w); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	k := ActionKind(w.Type)
	switch k {
	case ActionKeystroke:
		if w.Key == "" {
			return fmt.Errorf("action keystroke: missing %q", "key")
		}
		a.Key = w.Key
		a.Modifiers = w.Modifiers
	case ActionText:
		a.Text = w.Text
	case ActionLaunch:
		if w.App == "" {
			return fmt.Errorf("action launch: missing %q", "app")
		}
		a.AppID = w.App
	case ActionShell:
		if w.Command == "" {
			return fmt.Errorf("action shell: missing %q", "command")
		}
		a.Command = w.Command
	case ActionVolumeControl:
		op := VolumeOp(w.Op)
		switch op {
		case VolumeUp, VolumeDown, VolumeMute:
		case VolumeSet:
			if w.Level == nil {
				return fmt.Errorf("action volume_control: set requires %q", "level")
			}
			a.VolumeLevel = *w.Level
		default:
			return fmt.Errorf("action volume_control: unknown op %q", w.Op)
		}
		a.VolumeOp = op
	case ActionModeChange:
		if w.Mode == nil {
			return fmt.Errorf("action mode_change: missing %q", "mode")
		}
		a.TargetMode = *w.Mode
	case ActionSequence:
		if len(w.Actions) == 0 {
			return fmt.Errorf("action sequence: requires non-empty %q", "actions")
		}
		a.Sequence = w.Actions
	case ActionDelay:
		if w.Ms == nil {
			return fmt.Errorf("action delay: missing %q", "ms")
		}
		a.DelayMS = time.Duration(*w.Ms) * time.Millisecond
	case ActionMouseClick:
		switch MouseButton(w.Button) {
		case MouseLeft, MouseRight, MouseMiddle:
			a.Button = MouseButton(w.Button)
		default:
			return fmt.Errorf("action mouse_click: unknown button %q", w.Button)
		}
		a.Clicks = 1
		if w.Clicks != nil {
			a.Clicks = *w.Clicks
		}
	case ActionRepeat:
		if w.Action == nil || w.Count == nil {
			return fmt.Errorf("action repeat: requires %q and %q", "action", "count")
		}
		a.RepeatAction = w.Action
		a.RepeatCount = *w.Count
		if w.GapMS != nil {
			a.RepeatGap = time.Duration(*w.GapMS) * time.Millisecond
		}
	case ActionConditional:
		if w.Predicate == nil || w.Then == nil {
			return fmt.Errorf("action conditional: requires %q and %q", "predicate", "then")
		}
		a.Predicate = w.Predicate
		a.ThenAction = w.Then
		a.ElseAction = w.Else
	default:
		return fmt.Errorf("action: unknown type %q", w.Type)
	}
	a.Kind = k
	return nil
}
