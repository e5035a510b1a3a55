// Command midimonctl is the control-plane client for midimond (spec
// §4.K): a thin wrapper over ipc.Client that turns one subcommand into one
// Request, prints the Response, and maps outcomes onto the documented
// exit codes.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/amiable-dev/midimon/ipc"
)

var version = "dev"

const (
	exitOK               = 0
	exitGeneric          = 1
	exitValidationFailed = 2
	exitDaemonNotRunning = 3
	exitPermissionDenied = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("midimonctl", flag.ContinueOnError)
	socketPath := flags.StringP("socket", "s", "", "path to the IPC socket (default: XDG search order)")
	asJSON := flags.Bool("json", false, "print the raw JSON response instead of a summary")
	showVer := flags.BoolP("version", "v", false, "print version and exit")
	flags.Usage = func() { printUsage() }

	if err := flags.Parse(args); err != nil {
		return exitGeneric
	}
	if *showVer {
		fmt.Println("midimonctl", version)
		return exitOK
	}

	rest := flags.Args()
	if len(rest) == 0 {
		printUsage()
		return exitGeneric
	}
	cmdName, cmdArgs := rest[0], rest[1:]

	sock := *socketPath
	if sock == "" {
		var err error
		sock, err = ipc.DefaultSocketPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "midimonctl: resolving socket path:", err)
			return exitGeneric
		}
	}
	client := ipc.NewClient(sock)

	if code, handled := runLocalCommand(cmdName, cmdArgs, client); handled {
		return code
	}

	req, err := buildRequest(cmdName, cmdArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "midimonctl:", err)
		return exitGeneric
	}

	resp, err := client.Send(req)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			fmt.Fprintln(os.Stderr, "midimonctl: daemon not running (no socket at", sock+")")
			return exitDaemonNotRunning
		case errors.Is(err, os.ErrPermission):
			fmt.Fprintln(os.Stderr, "midimonctl: permission denied connecting to", sock)
			return exitPermissionDenied
		default:
			fmt.Fprintln(os.Stderr, "midimonctl:", err)
			return exitGeneric
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(resp)
	} else {
		printResponse(cmdName, resp)
	}

	if !resp.Success {
		if cmdName == "validate" || cmdName == "reload" {
			return exitValidationFailed
		}
		return exitGeneric
	}
	return exitOK
}

func buildRequest(cmdName string, args []string) (ipc.Request, error) {
	switch cmdName {
	case "status":
		return ipc.Request{Command: ipc.CmdStatus}, nil
	case "stop":
		return ipc.Request{Command: ipc.CmdStop}, nil
	case "pause":
		return ipc.Request{Command: ipc.CmdPause}, nil
	case "resume":
		return ipc.Request{Command: ipc.CmdResume}, nil
	case "reconnect":
		return ipc.Request{Command: ipc.CmdReconnect}, nil
	case "list-devices":
		return ipc.Request{Command: ipc.CmdListDevices}, nil
	case "get-config":
		return ipc.Request{Command: ipc.CmdGetConfig}, nil
	case "get-counters":
		return ipc.Request{Command: ipc.CmdGetCounters}, nil

	case "reload":
		fs := flag.NewFlagSet("reload", flag.ContinueOnError)
		path := fs.StringP("path", "p", "", "config file to reload from (default: daemon's current path)")
		if err := fs.Parse(args); err != nil {
			return ipc.Request{}, err
		}
		return ipc.Request{Command: ipc.CmdReload, Path: *path}, nil

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.StringP("path", "p", "", "config file to validate")
		if err := fs.Parse(args); err != nil {
			return ipc.Request{}, err
		}
		if *path == "" {
			return ipc.Request{}, fmt.Errorf("validate requires --path")
		}
		return ipc.Request{Command: ipc.CmdValidate, Path: *path}, nil

	case "set-mode":
		if len(args) != 1 {
			return ipc.Request{}, fmt.Errorf("set-mode requires exactly one argument: an index or a mode name")
		}
		return modeRequest(args[0]), nil

	case "set-log-level":
		fs := flag.NewFlagSet("set-log-level", flag.ContinueOnError)
		category := fs.StringP("category", "c", "", "log category")
		level := fs.StringP("level", "l", "", "log level (debug|info|warn|error)")
		if err := fs.Parse(args); err != nil {
			return ipc.Request{}, err
		}
		if *category == "" || *level == "" {
			return ipc.Request{}, fmt.Errorf("set-log-level requires --category and --level")
		}
		return ipc.Request{Command: ipc.CmdSetLogLevel, Category: *category, Level: *level}, nil

	default:
		return ipc.Request{}, fmt.Errorf("unknown command %q", cmdName)
	}
}

func modeRequest(arg string) ipc.Request {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err == nil {
		return ipc.Request{Command: ipc.CmdSetMode, Mode: &n}
	}
	return ipc.Request{Command: ipc.CmdSetMode, ModeName: arg}
}

func printResponse(cmdName string, resp ipc.Response) {
	if !resp.Success {
		fmt.Fprintln(os.Stderr, "midimonctl:", resp.Message)
		return
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	if resp.Data != nil {
		b, err := json.MarshalIndent(resp.Data, "", "  ")
		if err == nil {
			fmt.Println(string(b))
		}
	}
	if resp.Message == "" && resp.Data == nil {
		fmt.Println("ok")
	}
	_ = cmdName
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: midimonctl [--socket path] [--json] <command> [args]

commands:
  start                        start the daemon (exec's midimond from PATH)
  stop                         stop the daemon
  restart                      stop then start the daemon
  status                      show daemon state, active mode, and counters
  pause / resume              gate gesture matching without disconnecting
  reload [--path FILE]        reload configuration
  validate --path FILE        validate a config file without installing it
  set-mode <index|name>       switch the active mode
  list-devices                list available MIDI input ports
  reconnect                   drop the device and start the reconnect backoff
  get-config                  print the daemon's currently active config
  get-counters                print event/action/reload counters
  set-log-level --category C --level L   adjust a log category at runtime
  install / uninstall / enable / disable   service-manager integration
                               (not implemented; prints a notice and exits)

flags:
  -s, --socket string   path to the IPC socket
      --json            print the raw JSON response
  -v, --version         print version and exit`)
}
