package action

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/amiable-dev/midimon/logging"
)

// DefaultFrontmostApp resolves the foreground application's identifier for
// the frontmost_app Conditional predicate (spec §4.E). macOS has a real
// notion of a focused app, queried through System Events. Other platforms
// have no single "focused window" API the pack's dependencies expose, so
// this falls back to the gopsutil process table and reports the name of
// the most recently started process that has a non-empty name. It does not
// filter by owning user or by whether the process is a GUI application.
// This is an approximation, not a real focus query.
func DefaultFrontmostApp() string {
	if runtime.GOOS == "darwin" {
		if name, ok := frontmostDarwin(); ok {
			return name
		}
	}
	return frontmostByNewestProcess()
}

func frontmostDarwin() (string, bool) {
	cmd := exec.Command("/usr/bin/osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`)
	cmd.Env = []string{"PATH=/usr/bin:/bin"}
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

func frontmostByNewestProcess() string {
	log := logging.Get(logging.Action)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		log.Warn("frontmost app lookup failed", "error", err)
		return ""
	}

	var newestName string
	var newestCreate int64
	for _, p := range procs {
		created, err := p.CreateTimeWithContext(ctx)
		if err != nil || created <= newestCreate {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		newestCreate = created
		newestName = name
	}
	return newestName
}
