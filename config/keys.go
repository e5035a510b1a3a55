package config

// validKeys and validModifiers are the closed vocabularies the loader
// checks Keystroke actions against. Kept intentionally small and
// platform-neutral; action.Executor's platform backend is responsible for
// mapping these names onto the OS's actual key codes.
var validKeys = map[string]bool{
	"a": true, "b": true, "c": true, "d": true, "e": true, "f": true, "g": true,
	"h": true, "i": true, "j": true, "k": true, "l": true, "m": true, "n": true,
	"o": true, "p": true, "q": true, "r": true, "s": true, "t": true, "u": true,
	"v": true, "w": true, "x": true, "y": true, "z": true,
	"0": true, "1": true, "2": true, "3": true, "4": true, "5": true, "6": true,
	"7": true, "8": true, "9": true,
	"space": true, "enter": true, "escape": true, "tab": true, "backspace": true,
	"delete": true, "up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "page_up": true, "page_down": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
	"volume_up": true, "volume_down": true, "volume_mute": true,
	"media_play_pause": true, "media_next": true, "media_prev": true,
}

var validModifiers = map[string]bool{
	"shift": true, "control": true, "ctrl": true, "alt": true, "option": true,
	"command": true, "cmd": true, "super": true, "meta": true,
}

// IsValidKey reports whether name is a recognized key name.
func IsValidKey(name string) bool { return validKeys[name] }

// IsValidModifier reports whether name is a recognized modifier name.
func IsValidModifier(name string) bool { return validModifiers[name] }
