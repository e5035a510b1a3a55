package ipc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	status        StatusData
	mode          int
	modeName      string
	paused        bool
	stopped       bool
	reloadErr     error
	validateErrs  []string
	loggedCat     string
	loggedLevel   string
}

func (h *fakeHandler) Status(context.Context) (StatusData, error) { return h.status, nil }
func (h *fakeHandler) Reload(_ context.Context, path, inline string) error { return h.reloadErr }
func (h *fakeHandler) Stop(context.Context) error                  { h.stopped = true; return nil }
func (h *fakeHandler) Pause(context.Context) error                 { h.paused = true; return nil }
func (h *fakeHandler) Resume(context.Context) error                { h.paused = false; return nil }
func (h *fakeHandler) SetMode(_ context.Context, mode int, name string) error {
	h.mode, h.modeName = mode, name
	return nil
}
func (h *fakeHandler) ListDevices(context.Context) ([]DeviceInfo, error) {
	return []DeviceInfo{{Index: 0, Name: "Test Controller", Live: true}}, nil
}
func (h *fakeHandler) Reconnect(context.Context) error { return nil }
func (h *fakeHandler) Validate(context.Context, string, string) ([]string, error) {
	return h.validateErrs, nil
}
func (h *fakeHandler) GetConfig(context.Context) (string, error) { return "version: 0\n", nil }
func (h *fakeHandler) GetCounters(context.Context) (Counters, error) {
	return Counters{EventsIn: 42}, nil
}
func (h *fakeHandler) SetLogLevel(_ context.Context, category, level string) error {
	h.loggedCat, h.loggedLevel = category, level
	return nil
}

func startTestServer(t *testing.T, h *fakeHandler) (*Server, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ipc.sock")
	srv, err := Listen(path, h)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv, path
}

func TestServer_PingPong(t *testing.T) {
	_, path := startTestServer(t, &fakeHandler{})
	client := NewClient(path)
	resp, err := client.Send(Request{Command: CmdPing})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestServer_SetMode(t *testing.T) {
	h := &fakeHandler{}
	_, path := startTestServer(t, h)
	client := NewClient(path)
	mode := 2
	resp, err := client.Send(Request{Command: CmdSetMode, Mode: &mode})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, h.mode)
}

func TestServer_ReloadError(t *testing.T) {
	h := &fakeHandler{reloadErr: errors.New("bad yaml")}
	_, path := startTestServer(t, h)
	client := NewClient(path)
	resp, err := client.Send(Request{Command: CmdReload})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "bad yaml")
}

func TestServer_ValidateReportsErrors(t *testing.T) {
	h := &fakeHandler{validateErrs: []string{"mode names must be unique"}}
	_, path := startTestServer(t, h)
	client := NewClient(path)
	resp, err := client.Send(Request{Command: CmdValidate, Path: "x.yaml"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestServer_UnknownCommand(t *testing.T) {
	_, path := startTestServer(t, &fakeHandler{})
	client := NewClient(path)
	resp, err := client.Send(Request{Command: "nonsense"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestServer_OversizeRequestRejected(t *testing.T) {
	_, path := startTestServer(t, &fakeHandler{})
	client := NewClient(path)

	big := make([]byte, MaxRequestBytes+2)
	for i := range big {
		big[i] = 'a'
	}
	req := Request{Command: CmdReload, InlineConfig: string(big)}
	resp, err := client.Send(req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "1 MiB")
}

func TestServer_SocketIsOwnerOnly(t *testing.T) {
	_, path := startTestServer(t, &fakeHandler{})
	time.Sleep(10 * time.Millisecond)
	client := NewClient(path)
	_, err := client.Send(Request{Command: CmdPing})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
