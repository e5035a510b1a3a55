package feedback

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the narrow contract through which the core consumes a device
// capability profile. Real vendor profiles (the full HID LED byte layout,
// multi-color channel counts, etc.) are parsed from vendor XML by the GUI
// tooling, which is explicitly out of scope for this core (spec §1); all
// the realtime path needs from a profile is a pure note-number → pad-index
// lookup table, so that is the only shape defined here. A richer profile
// format can replace this loader without touching any caller, since
// everything downstream only ever calls PadIndex.
type Profile struct {
	Name    string         `yaml:"name"`
	NoteMap map[uint8]int  `yaml:"note_map"`
	NumPads int            `yaml:"num_pads"`
}

// PadIndex maps a MIDI note number to this profile's pad index. ok is false
// when note has no entry, in which case callers fall back to treating note
// itself as the pad index (a reasonable default for controllers laid out
// note == pad, which is the common case for class-compliant pad
// controllers).
func (p *Profile) PadIndex(note uint8) (int, bool) {
	if p == nil {
		return int(note), true
	}
	idx, ok := p.NoteMap[note]
	return idx, ok
}

// LoadProfile reads and parses a device profile from path. It is pure: no
// device I/O, matching config.Load's own purity requirement, since
// config.Validate calls this to confirm a referenced profile "exists and
// parses" (§3 Configuration invariants) without touching hardware.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device profile %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing device profile %s: %w", path, err)
	}
	return &p, nil
}
