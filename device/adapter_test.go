package device

import (
	"testing"
	"time"

	midi "gitlab.com/gomidi/midi/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnMessage_NoteOnVelocityZeroBecomesNoteOff(t *testing.T) {
	a := NewAdapter(8, time.Second)
	a.onMessage(midi.NoteOn(0, 36, 0), 0)
	select {
	case ev := <-a.Events():
		off, ok := ev.(NoteOff)
		require.True(t, ok, "expected NoteOff, got %T", ev)
		assert.Equal(t, uint8(36), off.Note)
	default:
		t.Fatal("expected an event on the channel")
	}
}

func TestOnMessage_NoteOnNonZeroVelocity(t *testing.T) {
	a := NewAdapter(8, time.Second)
	a.onMessage(midi.NoteOn(0, 40, 100), 5)
	ev := <-a.Events()
	on, ok := ev.(NoteOn)
	require.True(t, ok)
	assert.Equal(t, uint8(40), on.Note)
	assert.Equal(t, uint8(100), on.Velocity)
	assert.Equal(t, 5*time.Millisecond, on.Timestamp())
}

func TestOnMessage_ControlChange(t *testing.T) {
	a := NewAdapter(8, time.Second)
	a.onMessage(midi.ControlChange(0, 21, 64), 0)
	ev := <-a.Events()
	cc, ok := ev.(CC)
	require.True(t, ok)
	assert.Equal(t, uint8(21), cc.Controller)
	assert.Equal(t, uint8(64), cc.Value)
}

func TestSend_DropsWhenQueueFull(t *testing.T) {
	a := NewAdapter(1, time.Second)
	a.onMessage(midi.NoteOn(0, 1, 10), 0)
	a.onMessage(midi.NoteOn(0, 2, 10), 0) // queue capacity 1, this one is dropped
	assert.Equal(t, uint64(1), a.Dropped())
	ev := <-a.Events()
	on := ev.(NoteOn)
	assert.Equal(t, uint8(1), on.Note)
}
