// Command midimond is the MIDI macro-pad daemon (spec §2): it loads a
// config, opens a MIDI input, and routes gestures through the mapping
// table to the action executor and LED feedback controller, all owned by
// a single engine.Supervisor, until asked to stop.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters the default driver

	flag "github.com/spf13/pflag"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/engine"
	"github.com/amiable-dev/midimon/ipc"
	"github.com/amiable-dev/midimon/logging"
	"github.com/amiable-dev/midimon/watcher"
)

var version = "dev" // set via -ldflags "-X main.version=..." at release build time

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "path to config.yaml (default: XDG search order)")
		socketPath = flag.StringP("socket", "s", "", "path to the IPC socket (default: XDG search order)")
		jsonLogs   = flag.Bool("json-logs", false, "emit structured logs as JSON lines instead of text")
		showVer    = flag.BoolP("version", "v", false, "print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Println("midimond", version)
		return
	}
	if *jsonLogs {
		logging.UseJSON()
	}

	log := logging.Get(logging.App)

	path := *configPath
	if path == "" {
		var err error
		path, err = config.ResolvePath()
		if err != nil {
			log.Error("resolving config path", "error", err)
			os.Exit(1)
		}
	}

	sup, err := engine.New(path)
	if err != nil {
		log.Error("constructing supervisor", "error", err)
		os.Exit(1)
	}

	if w, err := watcher.New(path); err != nil {
		log.Warn("config file watcher disabled", "error", err)
	} else {
		sup.WatchReload(w.Reload())
		defer w.Close()
	}

	if err := sup.Start(); err != nil {
		log.Error("starting supervisor", "error", err)
		os.Exit(1)
	}

	sock := *socketPath
	if sock == "" {
		sock, err = ipc.DefaultSocketPath()
		if err != nil {
			log.Error("resolving IPC socket path", "error", err)
			sup.Shutdown()
			os.Exit(1)
		}
	}
	srv, err := ipc.Listen(sock, sup)
	if err != nil {
		log.Error("starting IPC server", "error", err)
		sup.Shutdown()
		os.Exit(1)
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Warn("IPC server stopped", "error", err)
		}
	}()

	log.Info("midimond started", "config", path, "socket", sock, "log_level", slog.LevelInfo)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc

	log.Info("shutting down")
	srv.Close()
	sup.Shutdown()
}
