package feedback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	pads   map[int]Color
	writes int
}

func newFakeSink() *fakeSink { return &fakeSink{pads: map[int]Color{}} }

func (f *fakeSink) Set(pad int, c Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pads[pad] = c
	f.writes++
	return nil
}
func (f *fakeSink) SetAll(colors []Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range colors {
		f.pads[i] = c
	}
	f.writes++
	return nil
}
func (f *fakeSink) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pads = map[int]Color{}
	f.writes++
	return nil
}

func (f *fakeSink) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func TestController_ReactiveSetsAndClears(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink, 8)
	c.OnPadPressed(3)
	assert.Equal(t, Red, sink.pads[3])
	c.OnPadReleased(3)
	assert.Equal(t, Off, sink.pads[3])
}

func TestController_NilSinkDropsSilently(t *testing.T) {
	c := NewController(nil, 8)
	assert.NotPanics(t, func() { c.OnPadPressed(0) })
}

func TestController_RunSchemeAnimates(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink, 4)
	c.RunScheme(SchemeRainbow)
	time.Sleep(250 * time.Millisecond)
	c.Stop()
	require.GreaterOrEqual(t, sink.writeCount(), 1)
}

func TestController_SwitchingBackToReactiveStopsLoop(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink, 4)
	c.RunScheme(SchemeBreathing)
	time.Sleep(150 * time.Millisecond)
	c.RunScheme(SchemeReactive)
	countAfterStop := sink.writeCount()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, countAfterStop, sink.writeCount(), "no more animation writes once reactive")
}

func TestRenderFrame_ReactiveHasNoAnimationFrame(t *testing.T) {
	colors := renderFrame(SchemeReactive, 4, 0)
	for _, c := range colors {
		assert.Equal(t, Off, c)
	}
}

func TestRenderFrame_BreathingIsGrayscale(t *testing.T) {
	colors := renderFrame(SchemeBreathing, 4, 10)
	for _, c := range colors {
		assert.Equal(t, c.R, c.G)
		assert.Equal(t, c.G, c.B)
	}
}
