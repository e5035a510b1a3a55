package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/amiable-dev/midimon/logging"
)

// Server accepts one request per connection over a Unix domain socket.
// Windows named-pipe support is a designed-for-later gap behind this same
// type: a build-tagged listener constructor would satisfy the same Accept
// loop, but no pack dependency exercises the Windows named-pipe API so it
// is left undone rather than faked (see DESIGN.md).
type Server struct {
	handler Handler
	timeout time.Duration
	ln      net.Listener
	done    chan struct{}
}

// DefaultSocketPath resolves the conventional per-user socket location:
// $XDG_RUNTIME_DIR/midimon/ipc.sock, falling back to a path under the
// user's home directory when XDG_RUNTIME_DIR is unset.
func DefaultSocketPath() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("ipc: resolve home: %w", err)
		}
		base = filepath.Join(home, ".local", "run")
	}
	dir := filepath.Join(base, "midimon")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("ipc: create socket dir: %w", err)
	}
	return filepath.Join(dir, "ipc.sock"), nil
}

// Listen binds the server to path. Any stale socket file left behind by a
// crashed prior instance is removed first. The socket is created
// owner-only: a restrictive umask is installed for the duration of the
// bind call and restored immediately after, the same narrow-window
// technique used to harden file creation against a TOCTOU permission
// widening race.
func Listen(path string, handler Handler) (*Server, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ipc: remove stale socket: %w", err)
	}

	old := unix.Umask(0o077)
	ln, err := net.Listen("unix", path)
	unix.Umask(old)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("ipc: chmod socket: %w", err)
	}

	return &Server{handler: handler, timeout: DefaultTimeout, ln: ln, done: make(chan struct{})}, nil
}

// Serve accepts connections until Close is called. Each connection is
// handled on its own goroutine; no multiplexing, one request/response
// pair per connection (spec §4.H).
func (s *Server) Serve() error {
	log := logging.Get(logging.IPC)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				log.Warn("accept failed", "error", err)
				continue
			}
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	log := logging.Get(logging.IPC)
	correlationID := uuid.NewString()

	limited := io.LimitReader(conn, MaxRequestBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		log.Warn("read failed", "id", correlationID, "error", err)
		return
	}
	if len(raw) > MaxRequestBytes {
		writeResponse(conn, Response{Success: false, Message: "request exceeds 1 MiB limit"})
		return
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		writeResponse(conn, Response{Success: false, Message: fmt.Sprintf("malformed request: %v", err)})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp := s.dispatch(ctx, req)
	writeResponse(conn, resp)
	log.Debug("handled request", "id", correlationID, "command", req.Command, "success", resp.Success)
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Command {
	case CmdPing:
		return ok(nil)

	case CmdStatus:
		data, err := s.handler.Status(ctx)
		return fromErr(data, err)

	case CmdReload:
		err := s.handler.Reload(ctx, req.Path, req.InlineConfig)
		return fromErr(nil, err)

	case CmdStop:
		return fromErr(nil, s.handler.Stop(ctx))

	case CmdPause:
		return fromErr(nil, s.handler.Pause(ctx))

	case CmdResume:
		return fromErr(nil, s.handler.Resume(ctx))

	case CmdSetMode:
		mode := -1
		if req.Mode != nil {
			mode = *req.Mode
		}
		return fromErr(nil, s.handler.SetMode(ctx, mode, req.ModeName))

	case CmdListDevices:
		data, err := s.handler.ListDevices(ctx)
		return fromErr(data, err)

	case CmdReconnect:
		return fromErr(nil, s.handler.Reconnect(ctx))

	case CmdValidate:
		errs, err := s.handler.Validate(ctx, req.Path, req.InlineConfig)
		if err != nil {
			return fromErr(nil, err)
		}
		if len(errs) > 0 {
			return Response{Success: false, Message: "validation failed", Data: errs}
		}
		return ok(nil)

	case CmdGetConfig:
		data, err := s.handler.GetConfig(ctx)
		return fromErr(data, err)

	case CmdGetCounters:
		data, err := s.handler.GetCounters(ctx)
		return fromErr(data, err)

	case CmdSetLogLevel:
		return fromErr(nil, s.handler.SetLogLevel(ctx, req.Category, req.Level))

	default:
		return Response{Success: false, Message: fmt.Sprintf("unknown command %q", req.Command)}
	}
}

func ok(data interface{}) Response {
	return Response{Success: true, Message: "ok", Data: data}
}

func fromErr(data interface{}, err error) Response {
	if err != nil {
		return Response{Success: false, Message: err.Error()}
	}
	return ok(data)
}

func writeResponse(conn net.Conn, resp Response) {
	enc := json.NewEncoder(conn)
	_ = enc.Encode(resp)
}

// Close stops accepting new connections and closes the listener; in-flight
// requests are allowed to finish. Supervisor shutdown does not cancel their
// ctx: a request not yet posted to the engine's mailbox gets an error at
// once, and one already posted waits out its per-request timeout.
func (s *Server) Close() error {
	close(s.done)
	return s.ln.Close()
}
