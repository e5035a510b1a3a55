package action

import (
	"fmt"
	"time"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/logging"
)

// Executor runs config.Action values. It is not safe for concurrent use:
// the lazily-initialized platform backends do not lock their own state, and
// the engine calls Execute only from its single run goroutine.
type Executor struct {
	input  inputBackend
	volume volumeBackend
}

// NewExecutor builds an Executor bound to the current platform's input and
// volume backends.
func NewExecutor() *Executor {
	return &Executor{input: newInputBackend(), volume: newVolumeBackend()}
}

// Execute runs a (or its sub-actions, for the composite kinds) and reports
// the outcome. It never panics on a malformed Action that slipped past
// config.Validate: the default case and the nil checks on composite kinds
// return an error instead, since this runs inline on the supervisor's run
// goroutine and must never take the supervisor down with it (spec §4.E, §5).
func (e *Executor) Execute(a config.Action, ctx Context) Result {
	log := logging.Get(logging.Action)

	switch a.Kind {
	case config.ActionKeystroke:
		if err := e.input.SendKey(a.Key, a.Modifiers); err != nil {
			log.Warn("keystroke action failed", "key", a.Key, "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionText:
		if err := e.input.SendText(a.Text); err != nil {
			log.Warn("text action failed", "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionLaunch:
		if err := runLaunch(a.AppID); err != nil {
			log.Warn("launch action failed", "app", a.AppID, "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionShell:
		if err := runShell(a.Command); err != nil {
			log.Warn("shell action failed", "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionVolumeControl:
		if err := e.volume.Apply(a.VolumeOp, a.VolumeLevel); err != nil {
			log.Warn("volume action failed", "op", a.VolumeOp, "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionModeChange:
		return Result{RequestedMode: a.TargetMode, HasModeChange: true}

	case config.ActionSequence:
		// Inner actions are non-critical by default (spec §4.E): a failing
		// step is logged and the sequence continues. A ModeChange still
		// short-circuits the remaining steps, since it must take effect
		// before anything else runs.
		var last Result
		for i, sub := range a.Sequence {
			last = e.Execute(sub, ctx)
			if last.Err != nil {
				log.Warn("sequence step failed, continuing", "step", i, "error", last.Err)
			}
			if last.HasModeChange {
				return last
			}
		}
		return last

	case config.ActionDelay:
		time.Sleep(a.DelayMS)
		return Result{}

	case config.ActionMouseClick:
		if err := e.input.Click(string(a.Button), a.Clicks); err != nil {
			log.Warn("mouse click action failed", "button", a.Button, "error", err)
			return Result{Err: err}
		}
		return Result{}

	case config.ActionRepeat:
		if a.RepeatAction == nil {
			return Result{Err: fmt.Errorf("action: repeat has no inner action")}
		}
		for i := 0; i < a.RepeatCount; i++ {
			r := e.Execute(*a.RepeatAction, ctx)
			if r.Err != nil {
				return Result{Err: fmt.Errorf("repeat iteration %d: %w", i, r.Err)}
			}
			if r.HasModeChange {
				return r
			}
			if i < a.RepeatCount-1 && a.RepeatGap > 0 {
				time.Sleep(a.RepeatGap)
			}
		}
		return Result{}

	case config.ActionConditional:
		if a.Predicate == nil || a.ThenAction == nil {
			return Result{Err: fmt.Errorf("action: conditional is missing its predicate or then action")}
		}
		if evalPredicate(a.Predicate, ctx) {
			return e.Execute(*a.ThenAction, ctx)
		}
		if a.ElseAction != nil {
			return e.Execute(*a.ElseAction, ctx)
		}
		return Result{}

	default:
		err := fmt.Errorf("action: unhandled kind %q", a.Kind)
		log.Error("refusing to execute unrecognized action kind", "kind", a.Kind)
		return Result{Err: err}
	}
}
