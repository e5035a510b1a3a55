// Package action executes config.Action values against the live system
// (spec §4.E). Every exec.Command invocation runs argv-direct with a
// minimal environment — no shell interpreter ever sees a byte of this
// package's input, mirroring the hardening discipline the teacher's own
// external-process boundaries use.
package action

import "time"

// Context is the live state an Action needs to evaluate Conditional
// predicates and perform ModeChange/StateVar lookups. The executor never
// mutates anything on Context directly; mode changes and state writes are
// reported back via the Result so the engine remains the sole owner of
// that state (spec §4.G "the supervisor is the sole owner of engine
// state").
type Context struct {
	// ActiveMode is the name of the mode active when this action began
	// executing.
	ActiveMode string

	// Now returns the current time; tests substitute a fixed clock.
	Now func() time.Time

	// FrontmostApp returns the bundle/process identifier of the
	// foreground application, or "" if it cannot be determined.
	FrontmostApp func() string

	// StateVar looks up a named state variable held in the engine's memory;
	// these variables are not written to the persisted state file.
	StateVar func(name string) (string, bool)
}

// Result reports what an executed action wants the engine to do next, in
// addition to any side effect already performed.
type Result struct {
	// RequestedMode is set when the action was, or contained, a
	// ModeChange; it may be negative or past the last mode, and the engine
	// wraps it modulo the mode count.
	RequestedMode int
	HasModeChange bool

	Err error
}
