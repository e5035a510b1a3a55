package action

import (
	"fmt"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/amiable-dev/midimon/logging"
)

// runShell tokenizes command the way a shell would (quoting, escaping) but
// never hands it to one: the resulting argv is exec'd directly, stdin is
// /dev/null, stdout/stderr are discarded, and the child inherits nothing
// from the daemon's environment: its only variable is a fixed
// PATH=/usr/bin:/bin:/usr/local/bin.
func runShell(command string) error {
	args, err := shellwords.Parse(command)
	if err != nil {
		return fmt.Errorf("action: shell: tokenize %q: %w", command, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("action: shell: empty command")
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = []string{"PATH=/usr/bin:/bin:/usr/local/bin"}
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("action: shell: start %q: %w", args[0], err)
	}

	log := logging.Get(logging.Action)
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn("shell action exited with error", "command", args[0], "error", err)
		}
	}()
	return nil
}
