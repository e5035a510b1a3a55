package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/gesture"
)

func mustBuildTable() *Table {
	cfg := &config.Config{
		Modes: []config.Mode{
			{
				Name: "edit",
				Mappings: []config.Mapping{
					{Trigger: config.Trigger{Kind: config.TriggerDoubleTap, Note: 40}, Action: config.Action{Kind: config.ActionText, Text: "double"}},
					{Trigger: config.Trigger{Kind: config.TriggerNote, Note: 40}, Action: config.Action{Kind: config.ActionText, Text: "single"}},
				},
			},
		},
		Global: []config.Mapping{
			{Trigger: config.Trigger{Kind: config.TriggerNote, Note: 99}, Action: config.Action{Kind: config.ActionText, Text: "global"}},
		},
	}
	return Compile(cfg)
}

func TestMatch_ModeLocalBeatsGlobal(t *testing.T) {
	table := mustBuildTable()
	table.Global = append(table.Global, config.Mapping{Trigger: config.Trigger{Kind: config.TriggerNote, Note: 40}, Action: config.Action{Kind: config.ActionText, Text: "global40"}})
	ev := gesture.PadPressed{Note: 40, Velocity: 64}
	m, ok := Match(table, 0, ev)
	require.True(t, ok)
	assert.Equal(t, "single", m.Action.Text)
}

// S2: a double tap must match the double_tap mapping even though a plain
// note mapping for the same pad also exists — a note trigger only matches
// PadPressed, so it never claims a DoubleTap event whatever the order.
func TestMatch_DoubleTapWinsOverSingle(t *testing.T) {
	table := mustBuildTable()
	ev := gesture.DoubleTap{Note: 40}
	m, ok := Match(table, 0, ev)
	require.True(t, ok)
	assert.Equal(t, "double", m.Action.Text)
}

func TestMatch_FallsBackToGlobal(t *testing.T) {
	table := mustBuildTable()
	ev := gesture.PadPressed{Note: 99, Velocity: 10}
	m, ok := Match(table, 0, ev)
	require.True(t, ok)
	assert.Equal(t, "global", m.Action.Text)
}

func TestMatch_NoMappingFound(t *testing.T) {
	table := mustBuildTable()
	ev := gesture.PadPressed{Note: 1, Velocity: 1}
	_, ok := Match(table, 0, ev)
	assert.False(t, ok)
}

func TestMatch_InvalidActiveModeSkipsModeLocal(t *testing.T) {
	table := mustBuildTable()
	ev := gesture.PadPressed{Note: 99, Velocity: 1}
	m, ok := Match(table, -1, ev)
	require.True(t, ok)
	assert.Equal(t, "global", m.Action.Text)
}

func TestMatchesTrigger_Chord(t *testing.T) {
	trig := config.Trigger{Kind: config.TriggerChord, ChordNotes: []uint8{60, 64, 67}}
	assert.True(t, matchesTrigger(trig, gesture.ChordDetected{Notes: []uint8{60, 64, 67}}))
	assert.False(t, matchesTrigger(trig, gesture.ChordDetected{Notes: []uint8{60, 64}}))
}

func TestMatchesTrigger_EncoderTurnRespectsDeltaThreshold(t *testing.T) {
	trig := config.Trigger{Kind: config.TriggerEncoderTurn, Controller: 20, EncoderDirection: config.CW, DeltaThreshold: 5}
	assert.False(t, matchesTrigger(trig, gesture.EncoderTurned{Controller: 20, Direction: config.CW, Delta: 3}))
	assert.True(t, matchesTrigger(trig, gesture.EncoderTurned{Controller: 20, Direction: config.CW, Delta: 5}))
}

func TestMatchesTrigger_LongPressRequiresMinDuration(t *testing.T) {
	trig := config.Trigger{Kind: config.TriggerLongPress, Note: 10, MinDuration: 2 * time.Second}
	assert.False(t, matchesTrigger(trig, gesture.LongPress{Note: 10, Duration: 1900 * time.Millisecond}))
	assert.True(t, matchesTrigger(trig, gesture.LongPress{Note: 10, Duration: 2 * time.Second}))
}

func TestTable_ClampMode(t *testing.T) {
	table := mustBuildTable()
	assert.Equal(t, 0, table.ClampMode(0))
	assert.Equal(t, 0, table.ClampMode(7))
	assert.Equal(t, 0, table.ClampMode(-1))
}

func TestTable_ModeIndex(t *testing.T) {
	table := mustBuildTable()
	assert.Equal(t, 0, table.ModeIndex("edit"))
	assert.Equal(t, -1, table.ModeIndex("missing"))
}
