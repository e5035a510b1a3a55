package action

import (
	"fmt"
	"runtime"

	"github.com/the-jonsey/pulseaudio"

	"github.com/amiable-dev/midimon/config"
)

// volumeBackend is the platform seam for VolumeControl. macOS goes through
// osascript against the system output volume; Linux talks to PulseAudio
// directly over its native protocol (grounded on the pulsekontrol example's
// dependency on the same client library — no vendored source of it shipped
// with the pack, so the calls below follow that library's documented
// Client API rather than an observed usage site; see DESIGN.md).
type volumeBackend interface {
	Apply(op config.VolumeOp, level uint8) error
}

func newVolumeBackend() volumeBackend {
	switch runtime.GOOS {
	case "darwin":
		return darwinVolumeBackend{}
	case "linux":
		return &linuxVolumeBackend{}
	default:
		return unsupportedVolumeBackend{goos: runtime.GOOS}
	}
}

type darwinVolumeBackend struct{}

func (darwinVolumeBackend) Apply(op config.VolumeOp, level uint8) error {
	switch op {
	case config.VolumeSet:
		return runOsascript(fmt.Sprintf("set volume output volume %d", scaleTo100(level)))
	case config.VolumeMute:
		return runOsascript("set volume output muted true")
	case config.VolumeUp:
		return runOsascript("set volume output volume (output volume of (get volume settings) + 6)")
	case config.VolumeDown:
		return runOsascript("set volume output volume (output volume of (get volume settings) - 6)")
	default:
		return fmt.Errorf("action: unknown volume op %q", op)
	}
}

func scaleTo100(level uint8) int {
	return int(level) * 100 / 127
}

// linuxVolumeBackend lazily opens a PulseAudio client connection on first
// use and reuses it; reconnecting the native-protocol socket on every
// keypress would add latency no control surface interaction should have.
type linuxVolumeBackend struct {
	client *pulseaudio.Client
}

func (b *linuxVolumeBackend) ensureClient() error {
	if b.client != nil {
		return nil
	}
	c, err := pulseaudio.NewClient()
	if err != nil {
		return fmt.Errorf("action: pulseaudio: %w", err)
	}
	b.client = c
	return nil
}

func (b *linuxVolumeBackend) Apply(op config.VolumeOp, level uint8) error {
	if err := b.ensureClient(); err != nil {
		return err
	}
	switch op {
	case config.VolumeSet:
		return b.client.SetVolume(float32(level) / 127)
	case config.VolumeMute:
		return b.client.ToggleMute()
	case config.VolumeUp:
		vol, err := b.client.Volume()
		if err != nil {
			return fmt.Errorf("action: pulseaudio: %w", err)
		}
		return b.client.SetVolume(clamp01(vol + 0.05))
	case config.VolumeDown:
		vol, err := b.client.Volume()
		if err != nil {
			return fmt.Errorf("action: pulseaudio: %w", err)
		}
		return b.client.SetVolume(clamp01(vol - 0.05))
	default:
		return fmt.Errorf("action: unknown volume op %q", op)
	}
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

type unsupportedVolumeBackend struct{ goos string }

func (b unsupportedVolumeBackend) Apply(config.VolumeOp, uint8) error {
	return fmt.Errorf("action: volume control not implemented on %s", b.goos)
}
