// Package feedback drives per-pad LED output (spec §4.F). The supervisor
// calls Controller's methods directly; they are guarded by a mutex, and
// reactive pad writes run synchronously on the calling goroutine. There is
// no message channel between the supervisor and the controller.
package feedback

// Color is an opaque RGB triplet; the byte-position translation into a
// given device's LED protocol happens behind Sink, which a real
// implementation binds to a device profile.
type Color struct {
	R, G, B uint8
}

var (
	Off = Color{}
	Red = Color{R: 255}
)

// Scheme is the closed set of pre-defined animations (spec §4.F).
type Scheme string

const (
	SchemeReactive  Scheme = "reactive"
	SchemeRainbow   Scheme = "rainbow"
	SchemeBreathing Scheme = "breathing"
	SchemeVUMeter   Scheme = "vu_meter"
)

// Sink is the narrow contract the realtime path writes through. All
// methods must tolerate a disconnected device by dropping silently — the
// feedback controller never stalls the realtime path (spec §4.F).
type Sink interface {
	Set(pad int, c Color) error
	SetAll(colors []Color) error
	Clear() error
}
