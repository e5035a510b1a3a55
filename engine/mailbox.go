package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amiable-dev/midimon/config"
	"github.com/amiable-dev/midimon/device"
	"github.com/amiable-dev/midimon/ipc"
	"github.com/amiable-dev/midimon/logging"
)

// mailboxRequest is the only way any goroutine other than run() ever
// touches engine state (spec §5 "no global mutable state is shared across
// components outside these channels"): every ipc.Handler method below
// builds one, sends it, and waits for exactly one reply on its own
// one-shot channel.
type mailboxRequest struct {
	op    func(s *Supervisor) (interface{}, error)
	reply chan mailboxReply
}

type mailboxReply struct {
	value interface{}
	err   error
}

// call posts op to the mailbox and blocks for its reply or ctx's
// cancellation, whichever comes first.
func (s *Supervisor) call(ctx context.Context, op func(s *Supervisor) (interface{}, error)) (interface{}, error) {
	req := mailboxRequest{op: op, reply: make(chan mailboxReply, 1)}
	select {
	case s.mailbox <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.stopped:
		return nil, fmt.Errorf("engine: supervisor is stopped")
	}
	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handleMailbox runs req.op on the single supervisor goroutine and posts
// the reply. Called only from run()'s select loop.
func (s *Supervisor) handleMailbox(req mailboxRequest) {
	v, err := req.op(s)
	req.reply <- mailboxReply{value: v, err: err}
}

// --- ipc.Handler implementation -------------------------------------------
//
// Every method below is safe to call concurrently from many IPC server
// goroutines; each one is a thin wrapper around a single mailbox round
// trip.

func (s *Supervisor) Status(ctx context.Context) (ipc.StatusData, error) {
	v, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		return ipc.StatusData{
			State:         string(s.st),
			ActiveMode:    s.table.ModeName(s.activeMode),
			Paused:        s.paused,
			Connection:    s.conn.String(),
			EventsIn:      s.counters.EventsIn,
			EventsMatched: s.counters.EventsMatched,
			ActionsRun:    s.counters.ActionsRun,
			ReloadsOK:     s.counters.ReloadsOK,
			ReloadsFailed: s.counters.ReloadsFailed,
			UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		}, nil
	})
	if err != nil {
		return ipc.StatusData{}, err
	}
	return v.(ipc.StatusData), nil
}

func (s *Supervisor) Reload(ctx context.Context, path, inline string) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		p := path
		if p == "" {
			p = s.configPath
		}
		return nil, s.performReload(p, inline)
	})
	return err
}

// Stop implements ipc.Handler: it requests shutdown asynchronously so the
// mailbox round trip returns promptly; it cannot call s.Shutdown()
// directly from inside the handler func, since Shutdown blocks on
// s.stopped, which only closes after run() (the very goroutine servicing
// this mailbox request) returns.
func (s *Supervisor) Stop(ctx context.Context) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		go s.Shutdown()
		return nil, nil
	})
	return err
}

func (s *Supervisor) Pause(ctx context.Context) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		s.paused = true
		s.st = StatePaused
		return nil, nil
	})
	return err
}

func (s *Supervisor) Resume(ctx context.Context) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		s.paused = false
		s.st = StateRunning
		return nil, nil
	})
	return err
}

func (s *Supervisor) SetMode(ctx context.Context, mode int, name string) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		if name != "" {
			idx := s.table.ModeIndex(name)
			if idx < 0 {
				return nil, fmt.Errorf("engine: no such mode %q", name)
			}
			s.activeMode = idx
			return nil, nil
		}
		if mode < 0 || mode >= len(s.table.Modes) {
			return nil, fmt.Errorf("engine: mode index %d out of range (%d modes)", mode, len(s.table.Modes))
		}
		s.activeMode = mode
		return nil, nil
	})
	return err
}

func (s *Supervisor) ListDevices(ctx context.Context) ([]ipc.DeviceInfo, error) {
	v, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		names := device.ListPorts()
		infos := make([]ipc.DeviceInfo, len(names))
		for i, n := range names {
			infos[i] = ipc.DeviceInfo{
				Index: i,
				Name:  n,
				Live:  s.conn.Kind == ConnConnected && s.conn.Port == i,
			}
		}
		return infos, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]ipc.DeviceInfo), nil
}

func (s *Supervisor) Reconnect(ctx context.Context) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		return nil, s.requestReconnect()
	})
	return err
}

func (s *Supervisor) Validate(ctx context.Context, path, inline string) ([]string, error) {
	// Validate never touches live engine state, so it need not go through
	// the mailbox at all; config.Load/ParseBytes are pure.
	_ = ctx
	var err error
	if inline != "" {
		_, err = parseInline(inline)
	} else {
		_, err = loadPath(path)
	}
	if err == nil {
		return nil, nil
	}
	if errs, ok := asErrorStrings(err); ok {
		return errs, nil
	}
	return []string{err.Error()}, nil
}

func (s *Supervisor) GetConfig(ctx context.Context) (string, error) {
	v, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		data, err := os.ReadFile(s.cfg.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("engine: reading current config: %w", err)
		}
		return string(data), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Supervisor) GetCounters(ctx context.Context) (ipc.Counters, error) {
	v, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		dropped := uint64(0)
		if s.adapter != nil {
			dropped = s.adapter.Dropped()
		}
		return ipc.Counters{
			EventsIn:      s.counters.EventsIn,
			EventsMatched: s.counters.EventsMatched,
			ActionsRun:    s.counters.ActionsRun,
			ReloadsOK:     s.counters.ReloadsOK,
			ReloadsFailed: s.counters.ReloadsFailed,
			Dropped:       dropped,
		}, nil
	})
	if err != nil {
		return ipc.Counters{}, err
	}
	return v.(ipc.Counters), nil
}

func parseInline(inline string) (*config.Config, error) {
	return config.ParseBytes([]byte(inline), "<inline>")
}

func loadPath(path string) (*config.Config, error) {
	return config.Load(path)
}

func asErrorStrings(err error) ([]string, bool) {
	errs, ok := config.AsErrors(err)
	if !ok {
		return nil, false
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out, true
}

func (s *Supervisor) SetLogLevel(ctx context.Context, category, level string) error {
	_, err := s.call(ctx, func(s *Supervisor) (interface{}, error) {
		lvl, ok := logging.ParseLevel(level)
		if !ok {
			return nil, fmt.Errorf("engine: unknown log level %q", level)
		}
		if !logging.SetLevel(logging.Category(category), lvl) {
			return nil, fmt.Errorf("engine: unknown log category %q", category)
		}
		return nil, nil
	})
	return err
}
