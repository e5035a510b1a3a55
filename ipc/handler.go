package ipc

import "context"

// Handler is satisfied by engine.Supervisor. Every method corresponds to
// one Command; the server translates a Request into exactly one call and
// reports the error verbatim (spec §4.H "reports supervisor errors
// verbatim").
type Handler interface {
	Status(ctx context.Context) (StatusData, error)
	Reload(ctx context.Context, path, inline string) error
	Stop(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SetMode(ctx context.Context, mode int, name string) error
	ListDevices(ctx context.Context) ([]DeviceInfo, error)
	Reconnect(ctx context.Context) error
	Validate(ctx context.Context, path, inline string) ([]string, error)
	GetConfig(ctx context.Context) (string, error)
	GetCounters(ctx context.Context) (Counters, error)
	SetLogLevel(ctx context.Context, category, level string) error
}
