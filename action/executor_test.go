package action

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiable-dev/midimon/config"
)

type fakeInput struct {
	keys  []string
	texts []string
	err   error
}

func (f *fakeInput) SendKey(key string, modifiers []string) error {
	f.keys = append(f.keys, key)
	return f.err
}
func (f *fakeInput) SendText(text string) error {
	f.texts = append(f.texts, text)
	return f.err
}
func (f *fakeInput) Click(button string, clicks int) error { return f.err }

type fakeVolume struct {
	calls []config.VolumeOp
}

func (f *fakeVolume) Apply(op config.VolumeOp, level uint8) error {
	f.calls = append(f.calls, op)
	return nil
}

func testCtx() Context {
	return Context{
		ActiveMode:   "edit",
		Now:          func() time.Time { return time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC) },
		FrontmostApp: func() string { return "com.example.App" },
		StateVar:     func(name string) (string, bool) { return "on", name == "lights" },
	}
}

func TestExecute_Keystroke(t *testing.T) {
	in := &fakeInput{}
	e := &Executor{input: in, volume: &fakeVolume{}}
	r := e.Execute(config.Action{Kind: config.ActionKeystroke, Key: "a"}, testCtx())
	require.NoError(t, r.Err)
	assert.Equal(t, []string{"a"}, in.keys)
}

func TestExecute_Sequence_ContinuesPastNonCriticalError(t *testing.T) {
	in := &fakeInput{err: errors.New("boom")}
	e := &Executor{input: in, volume: &fakeVolume{}}
	seq := config.Action{Kind: config.ActionSequence, Sequence: []config.Action{
		{Kind: config.ActionKeystroke, Key: "a"},
		{Kind: config.ActionKeystroke, Key: "b"},
	}}
	r := e.Execute(seq, testCtx())
	require.Error(t, r.Err, "the sequence's own Result still reports the last step's error")
	assert.Equal(t, []string{"a", "b"}, in.keys, "inner actions are non-critical by default: a failing step does not abort the sequence")
}

func TestExecute_Sequence_PropagatesModeChange(t *testing.T) {
	e := &Executor{input: &fakeInput{}, volume: &fakeVolume{}}
	seq := config.Action{Kind: config.ActionSequence, Sequence: []config.Action{
		{Kind: config.ActionModeChange, TargetMode: 2},
		{Kind: config.ActionKeystroke, Key: "never"},
	}}
	r := e.Execute(seq, testCtx())
	require.NoError(t, r.Err)
	assert.True(t, r.HasModeChange)
	assert.Equal(t, 2, r.RequestedMode)
}

func TestExecute_Repeat(t *testing.T) {
	in := &fakeInput{}
	e := &Executor{input: in, volume: &fakeVolume{}}
	repeat := config.Action{
		Kind:         config.ActionRepeat,
		RepeatAction: &config.Action{Kind: config.ActionKeystroke, Key: "x"},
		RepeatCount:  3,
	}
	r := e.Execute(repeat, testCtx())
	require.NoError(t, r.Err)
	assert.Equal(t, []string{"x", "x", "x"}, in.keys)
}

func TestExecute_Conditional_ModePredicate(t *testing.T) {
	in := &fakeInput{}
	e := &Executor{input: in, volume: &fakeVolume{}}
	cond := config.Action{
		Kind:       config.ActionConditional,
		Predicate:  &config.Predicate{Kind: config.PredicateMode, ModeEquals: "edit"},
		ThenAction: &config.Action{Kind: config.ActionKeystroke, Key: "then"},
		ElseAction: &config.Action{Kind: config.ActionKeystroke, Key: "else"},
	}
	e.Execute(cond, testCtx())
	assert.Equal(t, []string{"then"}, in.keys)
}

func TestExecute_Conditional_StateVarPredicate(t *testing.T) {
	in := &fakeInput{}
	e := &Executor{input: in, volume: &fakeVolume{}}
	cond := config.Action{
		Kind:       config.ActionConditional,
		Predicate:  &config.Predicate{Kind: config.PredicateStateVar, VarName: "lights", VarEquals: "on"},
		ThenAction: &config.Action{Kind: config.ActionKeystroke, Key: "then"},
		ElseAction: &config.Action{Kind: config.ActionKeystroke, Key: "else"},
	}
	e.Execute(cond, testCtx())
	assert.Equal(t, []string{"then"}, in.keys)
}

func TestEvalPredicate_TimeOfDayWindow(t *testing.T) {
	ctx := testCtx() // 14:30
	assert.True(t, evalPredicate(&config.Predicate{Kind: config.PredicateTimeOfDay, After: "09:00", Before: "17:00"}, ctx))
	assert.False(t, evalPredicate(&config.Predicate{Kind: config.PredicateTimeOfDay, After: "18:00", Before: "23:00"}, ctx))
}

func TestEvalPredicate_FrontmostApp(t *testing.T) {
	ctx := testCtx()
	assert.True(t, evalPredicate(&config.Predicate{Kind: config.PredicateFrontmostApp, AppEquals: "com.example.App"}, ctx))
	assert.False(t, evalPredicate(&config.Predicate{Kind: config.PredicateFrontmostApp, AppEquals: "com.other.App"}, ctx))
}

func TestExecute_VolumeControl(t *testing.T) {
	vol := &fakeVolume{}
	e := &Executor{input: &fakeInput{}, volume: vol}
	e.Execute(config.Action{Kind: config.ActionVolumeControl, VolumeOp: config.VolumeUp}, testCtx())
	require.Len(t, vol.calls, 1)
	assert.Equal(t, config.VolumeUp, vol.calls[0])
}
