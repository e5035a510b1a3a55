package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/amiable-dev/midimon/ipc"
)

// runLocalCommand handles the subcommands that are not one IPC round trip:
// starting/restarting the daemon process itself, and the service-manager
// lifecycle commands. handled is false for every command buildRequest
// already covers, in which case the caller proceeds to send it over IPC.
func runLocalCommand(cmdName string, args []string, client *ipc.Client) (code int, handled bool) {
	switch cmdName {
	case "start":
		return startDaemon(), true
	case "restart":
		_, _ = client.Send(ipc.Request{Command: ipc.CmdStop})
		return startDaemon(), true
	case "install", "uninstall", "enable", "disable":
		return serviceManagerStub(cmdName), true
	default:
		return 0, false
	}
}

// startDaemon execs midimond as a detached background process. It assumes
// midimond is on PATH, matching how midimonctl's other commands assume the
// daemon is reachable by its well-known socket path rather than by a
// remembered PID.
func startDaemon() int {
	bin, err := exec.LookPath("midimond")
	if err != nil {
		fmt.Fprintln(os.Stderr, "midimonctl: midimond not found on PATH:", err)
		return exitGeneric
	}
	cmd := exec.Command(bin)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	if err := cmd.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "midimonctl: starting midimond:", err)
		return exitGeneric
	}
	fmt.Println("midimond started, pid", cmd.Process.Pid)
	go cmd.Wait() // reap without blocking midimonctl's own exit
	return exitOK
}

// serviceManagerStub documents a deliberate scope boundary: generating and
// installing the actual systemd unit / launchd plist content is out of
// scope for this core (spec §1 Non-goals: "service-manager installation
// (the plist/unit files themselves)"). The subcommands still exist per
// §4.K's CLI surface, so a user invoking them gets a clear pointer to the
// real mechanism instead of a silent no-op or a fabricated unit file.
func serviceManagerStub(cmdName string) int {
	fmt.Fprintf(os.Stderr, "midimonctl: %s is not implemented by this core; use your platform's service manager directly (systemd --user, launchd) to %s midimond\n", cmdName, cmdName)
	return exitGeneric
}
