package action

import (
	"fmt"
	"os/exec"
	"runtime"
)

// runLaunch starts an application by platform identifier: a bundle ID or
// .app path on macOS, a binary name or .desktop ID on Linux. Like runShell
// it never waits synchronously for the launched process — a macro pad
// launching an app is fire-and-forget (spec §4.E).
func runLaunch(appID string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("/usr/bin/open", "-b", appID)
	case "linux":
		cmd = exec.Command("/usr/bin/xdg-open", appID)
	default:
		return fmt.Errorf("action: launch not implemented on %s", runtime.GOOS)
	}
	cmd.Env = []string{"PATH=/usr/bin:/bin"}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("action: launch %q: %w", appID, err)
	}
	go cmd.Wait()
	return nil
}
