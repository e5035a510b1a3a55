package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/device"
)

func newTestProcessor() *Processor {
	return NewProcessor(config.Defaults(), map[uint8]config.EncoderConvention{
		20: config.ConventionAbsoluteCenter,
		21: config.ConventionRelativePrevious,
	})
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestVelocityBanding(t *testing.T) {
	cases := []struct {
		v    uint8
		want config.VelocityBand
	}{
		{1, config.BandSoft}, {42, config.BandSoft},
		{43, config.BandMedium}, {85, config.BandMedium},
		{86, config.BandHard}, {127, config.BandHard},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, config.Band(c.v))
	}
}

func TestS1_SingleTap(t *testing.T) {
	p := newTestProcessor()
	evs := p.Feed(device.NoteOn{Channel: 0, Note: 36, Velocity: 64}, ms(0))
	require.Len(t, evs, 1)
	pressed := evs[0].(PadPressed)
	assert.Equal(t, uint8(36), pressed.Note)
	assert.Equal(t, config.BandMedium, pressed.Band)

	evs = p.Feed(device.NoteOff{Channel: 0, Note: 36}, ms(50))
	require.Len(t, evs, 1)
	released := evs[0].(PadReleased)
	assert.Equal(t, ms(50), released.HoldMS)
}

func TestDoubleTap(t *testing.T) {
	p := newTestProcessor()
	p.Feed(device.NoteOn{Note: 40}, ms(0))
	p.Feed(device.NoteOff{Note: 40}, ms(20))
	evs := p.Feed(device.NoteOn{Note: 40}, ms(200))

	var sawPress, sawDoubleTap bool
	for _, e := range evs {
		switch e.(type) {
		case PadPressed:
			sawPress = true
		case DoubleTap:
			sawDoubleTap = true
		}
	}
	assert.True(t, sawPress)
	assert.True(t, sawDoubleTap)
}

func TestDoubleTap_OutsideWindowDoesNotFire(t *testing.T) {
	p := newTestProcessor()
	p.Feed(device.NoteOn{Note: 40}, ms(0))
	p.Feed(device.NoteOff{Note: 40}, ms(20))
	evs := p.Feed(device.NoteOn{Note: 40}, ms(500)) // default window is 300ms

	for _, e := range evs {
		if _, ok := e.(DoubleTap); ok {
			t.Fatal("did not expect DoubleTap outside the window")
		}
	}
}

func TestLongPress_FiresExactlyOnce(t *testing.T) {
	p := newTestProcessor()
	p.Feed(device.NoteOn{Note: 36, Velocity: 100}, ms(0))

	evs := p.Tick(ms(1000))
	assert.Empty(t, evs, "below threshold, no LongPress yet")

	evs = p.Tick(ms(2000))
	require.Len(t, evs, 1)
	_, ok := evs[0].(LongPress)
	assert.True(t, ok)

	// A further tick past the threshold must not fire again.
	evs = p.Tick(ms(3000))
	assert.Empty(t, evs)

	evs = p.Feed(device.NoteOff{Note: 36}, ms(2500))
	require.Len(t, evs, 1)
	_, ok = evs[0].(PadReleased)
	assert.True(t, ok)
}

func TestChord_WithinWindow(t *testing.T) {
	p := newTestProcessor()
	p.Feed(device.NoteOn{Note: 60}, ms(0))
	p.Feed(device.NoteOn{Note: 64}, ms(40))
	p.Feed(device.NoteOn{Note: 67}, ms(80))
	evs := p.Feed(device.NoteOff{Note: 60}, ms(150))

	var chord *ChordDetected
	for _, e := range evs {
		if c, ok := e.(ChordDetected); ok {
			chord = &c
		}
	}
	require.NotNil(t, chord)
	assert.Equal(t, []uint8{60, 64, 67}, chord.Notes)
}

func TestChord_NotesOutsideWindowDoNotJoin(t *testing.T) {
	p := newTestProcessor()
	p.Feed(device.NoteOn{Note: 60}, ms(0))
	// Arrives after the 100ms default chord window: starts a *new* chord.
	evs := p.Feed(device.NoteOn{Note: 64}, ms(150))
	for _, e := range evs {
		if _, ok := e.(ChordDetected); ok {
			t.Fatal("should not have finalized a chord yet")
		}
	}
}

func TestEncoder_AbsoluteCenterConvention(t *testing.T) {
	p := newTestProcessor()
	evs := p.Feed(device.CC{Controller: 20, Value: 1}, ms(0))
	require.Len(t, evs, 1)
	turn := evs[0].(EncoderTurned)
	assert.Equal(t, config.CW, turn.Direction)

	evs = p.Feed(device.CC{Controller: 20, Value: 127}, ms(10))
	require.Len(t, evs, 1)
	turn = evs[0].(EncoderTurned)
	assert.Equal(t, config.CCW, turn.Direction)

	evs = p.Feed(device.CC{Controller: 20, Value: 64}, ms(20))
	assert.Empty(t, evs, "64 is neutral")
}

func TestEncoder_RelativePreviousConvention(t *testing.T) {
	p := newTestProcessor()
	evs := p.Feed(device.CC{Controller: 21, Value: 10}, ms(0))
	assert.Empty(t, evs, "no previous value yet")

	evs = p.Feed(device.CC{Controller: 21, Value: 15}, ms(10))
	require.Len(t, evs, 1)
	turn := evs[0].(EncoderTurned)
	assert.Equal(t, config.CW, turn.Direction)
	assert.Equal(t, uint8(5), turn.Delta)
}

func TestCC_NonEncoderControllerEmitsCCValue(t *testing.T) {
	p := newTestProcessor()
	evs := p.Feed(device.CC{Controller: 7, Value: 99}, ms(0))
	require.Len(t, evs, 1)
	cc := evs[0].(CCValue)
	assert.Equal(t, uint8(99), cc.Value)
}
