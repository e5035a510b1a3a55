package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client is the thin transport cmd/midimonctl builds on: open, send one
// request, read one response, close (spec §4.K).
type Client struct {
	path    string
	timeout time.Duration
}

// NewClient builds a Client targeting the Unix socket at path.
func NewClient(path string) *Client {
	return &Client{path: path, timeout: DefaultTimeout}
}

// Send performs one request/response round trip.
func (c *Client) Send(req Request) (Response, error) {
	conn, err := net.DialTimeout("unix", c.path, c.timeout)
	if err != nil {
		return Response{}, fmt.Errorf("ipc: connect: %w", err)
	}
	defer conn.Close()

	raw, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("ipc: encode request: %w", err)
	}
	if _, err := conn.Write(raw); err != nil {
		return Response{}, fmt.Errorf("ipc: write request: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(c.timeout))
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("ipc: decode response: %w", err)
	}
	return resp, nil
}
