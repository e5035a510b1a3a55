package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiable-dev/midimon/action"
	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/feedback"
	"github.com/amiable-dev/midimon/gesture"
	"github.com/amiable-dev/midimon/mapping"
)

func noteMapping(note uint8, act config.Action) config.Mapping {
	return config.Mapping{
		Trigger: config.Trigger{Kind: config.TriggerNote, Note: note},
		Action:  act,
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Version: 0,
		Modes: []config.Mode{
			{Name: "edit", Mappings: []config.Mapping{
				noteMapping(40, config.Action{Kind: config.ActionModeChange, TargetMode: 1}),
			}},
			{Name: "play", Mappings: []config.Mapping{}},
		},
	}
	cfg.Advanced = config.Defaults()
	return cfg
}

// newTestSupervisor builds a Supervisor without opening a real MIDI device
// or running config.Load from disk, so engine-level logic (dispatch,
// reload, reconnection bookkeeping) can be tested independent of hardware.
func newTestSupervisor(t *testing.T) *Supervisor {
	t.Helper()
	cfg := testConfig()
	table := mapping.Compile(cfg)

	s := &Supervisor{
		configPath: filepath.Join(t.TempDir(), "config.yaml"),
		statePath:  filepath.Join(t.TempDir(), "state.json"),
		mailbox:    make(chan mailboxRequest, 8),
		shutdown:   make(chan struct{}),
		stopped:    make(chan struct{}),
		cfg:        cfg,
		table:      table,
		activeMode: 0,
		st:         StateRunning,
		conn:       ConnectionStatus{Kind: ConnDisconnected},
		startTime:  time.Now(),
		stateVars:  make(map[string]string),
		processor:  gesture.NewProcessor(cfg.Advanced, cfg.EncoderConventions()),
		executor:   action.NewExecutor(),
		feedback:   feedback.NewController(nil, 16),
	}
	return s
}

func TestDispatchGestureEvent_MatchAppliesModeChange(t *testing.T) {
	s := newTestSupervisor(t)
	ev := gesture.PadPressed{Note: 40, Velocity: 100, Band: config.BandHard}

	s.dispatchGestureEvent(ev)

	assert.Equal(t, 1, s.activeMode)
	assert.EqualValues(t, 1, s.counters.EventsMatched)
	assert.EqualValues(t, 1, s.counters.ActionsRun)
}

func TestDispatchGestureEvent_PausedSkipsMatching(t *testing.T) {
	s := newTestSupervisor(t)
	s.paused = true
	ev := gesture.PadPressed{Note: 40, Velocity: 100, Band: config.BandHard}

	s.dispatchGestureEvent(ev)

	assert.Equal(t, 0, s.activeMode)
	assert.EqualValues(t, 0, s.counters.EventsMatched)
}

func TestDispatchGestureEvent_NoMatchLeavesCountersAlone(t *testing.T) {
	s := newTestSupervisor(t)
	ev := gesture.PadPressed{Note: 99, Velocity: 10, Band: config.BandSoft}

	s.dispatchGestureEvent(ev)

	assert.EqualValues(t, 0, s.counters.EventsMatched)
}

func TestPerformReload_InvalidConfigKeepsCurrent(t *testing.T) {
	s := newTestSupervisor(t)
	before := s.cfg

	err := s.performReload("", "not: [valid: yaml")

	require.Error(t, err)
	assert.Same(t, before, s.cfg)
	assert.EqualValues(t, 1, s.counters.ReloadsFailed)
	assert.EqualValues(t, 0, s.counters.ReloadsOK)
}

func TestPerformReload_PreservesActiveModeByName(t *testing.T) {
	s := newTestSupervisor(t)
	s.activeMode = 1 // "play"

	inline := `
version: 0
modes:
  - name: setup
    mappings: []
  - name: play
    mappings: []
`
	err := s.performReload("", inline)

	require.NoError(t, err)
	assert.Equal(t, "play", s.table.ModeName(s.activeMode))
	assert.EqualValues(t, 1, s.counters.ReloadsOK)
}

func TestPerformReload_RenamedModeClampsToZero(t *testing.T) {
	s := newTestSupervisor(t)
	s.activeMode = 1 // "play"

	inline := `
version: 0
modes:
  - name: only_mode
    mappings: []
`
	err := s.performReload("", inline)

	require.NoError(t, err)
	assert.Equal(t, 0, s.activeMode)
}

func TestWrapMode_WrapsModuloModeCount(t *testing.T) {
	assert.Equal(t, 1, wrapMode(3, 2), "3 mod 2 == 1, not clamped to 0")
	assert.Equal(t, 0, wrapMode(2, 2))
	assert.Equal(t, 1, wrapMode(-1, 2), "negative targets wrap backward, not to a negative index")
	assert.Equal(t, 0, wrapMode(0, 2))
}

func TestApplyModeChange_WrapsOutOfRangeTarget(t *testing.T) {
	s := newTestSupervisor(t) // two modes: "edit", "play"
	s.applyModeChange(3)
	assert.Equal(t, 1, s.activeMode, "3 mod 2 == 1 per spec invariant #6")
}

func TestBackoffDelay_FollowsScheduleAndCaps(t *testing.T) {
	assert.Equal(t, 1*time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 30*time.Second, backoffDelay(6))
	assert.Equal(t, 30*time.Second, backoffDelay(99))
}

func TestReconnect_ExhaustionEndsInDisconnected(t *testing.T) {
	s := newTestSupervisor(t)
	s.cfg.Device.AutoReconnect = true
	s.beginReconnecting()

	for i := 0; i < maxReconnectAttempts; i++ {
		s.attemptReconnect() // adapter is nil-backed selector with no real ports; openDevice fails
	}

	assert.Equal(t, ConnDisconnected, s.conn.Kind)
}

func TestMailbox_StatusReflectsEngineState(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edit", status.ActiveMode)
	assert.Equal(t, string(StateRunning), status.State)
}

func TestMailbox_SetModeByName(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	require.NoError(t, s.SetMode(context.Background(), 0, "play"))

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "play", status.ActiveMode)
}

func TestMailbox_SetModeUnknownNameErrors(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	err := s.SetMode(context.Background(), 0, "nonexistent")
	assert.Error(t, err)
}

func TestMailbox_PauseResume(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	require.NoError(t, s.Pause(context.Background()))
	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Paused)

	require.NoError(t, s.Resume(context.Background()))
	status, err = s.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Paused)
}

func TestMailbox_ReloadThroughHandler(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	inline := `
version: 0
modes:
  - name: only_mode
    mappings: []
`
	require.NoError(t, s.Reload(context.Background(), "", inline))

	status, err := s.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "only_mode", status.ActiveMode)
}

func TestMailbox_GetCounters(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()
	defer s.Shutdown()

	counters, err := s.GetCounters(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 0, counters.EventsIn)
}

func TestMailbox_StopShutsDownSupervisor(t *testing.T) {
	s := newTestSupervisor(t)
	go s.run()

	require.NoError(t, s.Stop(context.Background()))

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}
