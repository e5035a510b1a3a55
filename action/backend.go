package action

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// inputBackend is the platform seam for the three actions that need to
// inject input into the foreground application: Keystroke, Text, and
// MouseClick. The pack carries no dedicated keystroke-injection library
// (DESIGN.md), so the macOS backend drives System Events through
// osascript — the same "shell out to a trusted, fixed binary with an
// argv built in Go" discipline the Shell action uses, never a
// user-supplied string handed to /bin/sh.
type inputBackend interface {
	SendKey(key string, modifiers []string) error
	SendText(text string) error
	Click(button string, clicks int) error
}

// newInputBackend selects the backend for the running GOOS. Linux and
// Windows are documented gaps (spec §4.E covers the action vocabulary, not
// a specific OS's accessibility APIs): unsupportedBackend returns a clear
// error rather than silently no-opping, so a misconfigured mapping is
// visible in the executed-action log instead of looking like a dropped
// event.
func newInputBackend() inputBackend {
	switch runtime.GOOS {
	case "darwin":
		return darwinBackend{}
	default:
		return unsupportedBackend{goos: runtime.GOOS}
	}
}

type darwinBackend struct{}

var keyCodes = map[string]string{
	"space": "49", "enter": "36", "return": "36", "escape": "53", "tab": "48",
	"up": "126", "down": "125", "left": "123", "right": "124",
	"delete": "51", "backspace": "51",
}

func (darwinBackend) SendKey(key string, modifiers []string) error {
	var script string
	if code, ok := keyCodes[strings.ToLower(key)]; ok {
		script = fmt.Sprintf("key code %s%s", code, modifierSuffix(modifiers))
	} else if len([]rune(key)) == 1 {
		script = fmt.Sprintf("keystroke %q%s", key, modifierSuffix(modifiers))
	} else {
		return fmt.Errorf("action: unrecognized key %q", key)
	}
	return runOsascript("tell application \"System Events\" to " + script)
}

func (darwinBackend) SendText(text string) error {
	if !isASCII(text) {
		// osascript's AppleScript string literals mangle non-ASCII text
		// reliably; route through the clipboard and a paste keystroke
		// instead, the same fallback the teacher's own clipboard-copy
		// helper documents for "anything System Events can't type".
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("action: clipboard fallback: %w", err)
		}
		return runOsascript(`tell application "System Events" to keystroke "v" using command down`)
	}
	return runOsascript(fmt.Sprintf("tell application \"System Events\" to keystroke %q", text))
}

func (darwinBackend) Click(button string, clicks int) error {
	if button != "left" {
		return fmt.Errorf("action: mouse button %q not supported on darwin", button)
	}
	script := "tell application \"System Events\" to click at {0, 0}"
	for i := 1; i < clicks; i++ {
		if err := runOsascript(script); err != nil {
			return err
		}
	}
	return runOsascript(script)
}

func modifierSuffix(modifiers []string) string {
	if len(modifiers) == 0 {
		return ""
	}
	names := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		switch strings.ToLower(m) {
		case "command", "cmd":
			names = append(names, "command down")
		case "shift":
			names = append(names, "shift down")
		case "control", "ctrl":
			names = append(names, "control down")
		case "alt", "option":
			names = append(names, "option down")
		}
	}
	if len(names) == 0 {
		return ""
	}
	return " using {" + strings.Join(names, ", ") + "}"
}

func runOsascript(script string) error {
	cmd := exec.Command("/usr/bin/osascript", "-e", script)
	cmd.Env = []string{"PATH=/usr/bin:/bin"}
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("action: osascript: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}

type unsupportedBackend struct{ goos string }

func (b unsupportedBackend) SendKey(string, []string) error {
	return fmt.Errorf("action: keystroke injection not implemented on %s", b.goos)
}

func (b unsupportedBackend) SendText(string) error {
	return fmt.Errorf("action: text injection not implemented on %s", b.goos)
}

func (b unsupportedBackend) Click(string, int) error {
	return fmt.Errorf("action: mouse click not implemented on %s", b.goos)
}
