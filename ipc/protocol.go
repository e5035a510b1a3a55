// Package ipc is the local control-plane server (spec §4.H): one JSon
// request per connection, one JSON response, then close. It authorizes by
// filesystem permission on its own endpoint, not by a credential inside
// the message.
package ipc

import "time"

// MaxRequestBytes caps a single request body; oversize requests are
// rejected with a framed error rather than read to exhaustion (spec §4.H
// "to prevent DoS").
const MaxRequestBytes = 1 << 20 // 1 MiB

// DefaultTimeout bounds how long a handler call may run before the server
// gives up and reports a timeout response (spec §4.H).
const DefaultTimeout = 2 * time.Second

// Command is the closed set of request kinds. set_log_level is a
// supplemented addition (SPEC_FULL.md §13): the ambient logging stack
// needs a runtime control surface and IPC is the daemon's only one, so it
// is a natural extension of the closed command set rather than a new
// transport.
type Command string

const (
	CmdStatus      Command = "status"
	CmdPing        Command = "ping"
	CmdReload      Command = "reload"
	CmdStop        Command = "stop"
	CmdPause       Command = "pause"
	CmdResume      Command = "resume"
	CmdSetMode     Command = "set_mode"
	CmdListDevices Command = "list_devices"
	CmdReconnect   Command = "reconnect"
	CmdValidate    Command = "validate"
	CmdGetConfig   Command = "get_config"
	CmdGetCounters Command = "get_counters"
	CmdSetLogLevel Command = "set_log_level"
)

// Request is the wire shape for every command; fields irrelevant to a
// given Command are left zero.
type Request struct {
	Command Command `json:"command"`

	// Mode is used by set_mode; it accepts either a numeric index or a
	// mode name, resolved by the handler.
	Mode     *int   `json:"mode,omitempty"`
	ModeName string `json:"mode_name,omitempty"`

	// Path is used by validate, and optionally by reload to point at a
	// file other than the daemon's own configured path.
	Path string `json:"path,omitempty"`

	// InlineConfig lets tests (and the validate command) supply document
	// text directly instead of a path (spec §4.H "reload... optionally
	// with an inline new-config for tests").
	InlineConfig string `json:"inline_config,omitempty"`

	// Category and Level are used by set_log_level.
	Category string `json:"category,omitempty"`
	Level    string `json:"level,omitempty"`
}

// Response is the wire shape for every reply (spec §4.H
// "{success, message, data}").
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// StatusData is the payload of a successful status response.
type StatusData struct {
	State         string `json:"state"`
	ActiveMode    string `json:"active_mode"`
	Paused        bool   `json:"paused"`
	Connection    string `json:"connection"`
	EventsIn      uint64 `json:"events_in"`
	EventsMatched uint64 `json:"events_matched"`
	ActionsRun    uint64 `json:"actions_executed"`
	ReloadsOK     uint64 `json:"reloads_ok"`
	ReloadsFailed uint64 `json:"reloads_failed"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// DeviceInfo describes one MIDI input port for list_devices.
type DeviceInfo struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Live  bool   `json:"live"`
}

// Counters is the payload of get_counters.
type Counters struct {
	EventsIn      uint64 `json:"events_in"`
	EventsMatched uint64 `json:"events_matched"`
	ActionsRun    uint64 `json:"actions_executed"`
	ReloadsOK     uint64 `json:"reloads_ok"`
	ReloadsFailed uint64 `json:"reloads_failed"`
	Dropped       uint64 `json:"dropped"`
}
