package engine

import (
	"fmt"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/logging"
	"github.com/amiable-dev/midimon/mapping"
)

// performReload implements spec §4.G's hot-reload protocol. When inline is
// non-empty it is parsed and path is ignored (the IPC `reload` command
// passes the configured path alongside an inline document); otherwise the
// file at path is loaded, which is the watcher-triggered case.
//
//  1. parse + validate the candidate document
//  2. on error: keep the current config, increment reloads_failed, return
//  3. compile a new mapping.Table
//  4. atomically swap the active config and table
//  5. keep the active mode by name if the new table still has it, else
//     keep the index if it is still valid, else fall back to 0
//  6. preserve the device connection unless the selector changed
func (s *Supervisor) performReload(path, inline string) error {
	log := logging.Get(logging.Engine)

	var cfg *config.Config
	var err error
	if inline != "" {
		cfg, err = config.ParseBytes([]byte(inline), "<inline>")
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		s.counters.ReloadsFailed++
		log.Warn("config reload rejected, keeping current config", "error", err)
		return fmt.Errorf("engine: reload rejected: %w", err)
	}

	newTable := mapping.Compile(cfg)
	selectorChanged := s.cfg == nil || !sameSelector(s.cfg.Device, cfg.Device)

	oldModeName := ""
	if s.table != nil {
		oldModeName = s.table.ModeName(s.activeMode)
	}

	s.cfg = cfg
	s.table = newTable
	s.processor.Reconfigure(cfg.Advanced, cfg.EncoderConventions())

	if idx := newTable.ModeIndex(oldModeName); idx >= 0 {
		s.activeMode = idx
	} else {
		s.activeMode = newTable.ClampMode(s.activeMode)
	}

	if selectorChanged {
		log.Info("device selector changed on reload, restarting connection")
		if s.adapter != nil {
			s.adapter.Close()
		}
		if cfg.Device.AutoConnect {
			if _, err := s.openDevice(); err != nil {
				log.Warn("reconnect after selector change failed", "error", err)
				if cfg.Device.AutoReconnect {
					s.beginReconnecting()
				}
			}
		}
	}

	s.counters.ReloadsOK++
	log.Info("config reloaded", "active_mode", s.table.ModeName(s.activeMode))
	return nil
}

func sameSelector(a, b config.DeviceSelector) bool {
	if a.NameHint != b.NameHint {
		return false
	}
	if (a.PortIndex == nil) != (b.PortIndex == nil) {
		return false
	}
	if a.PortIndex != nil && *a.PortIndex != *b.PortIndex {
		return false
	}
	return true
}
