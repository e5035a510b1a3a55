// Package logging provides category-scoped structured loggers shared by
// every component of the daemon. Each category gets its own *slog.Logger
// and its own runtime-adjustable level, so an operator can turn up "device"
// without drowning in "action" chatter.
package logging

import (
	"log/slog"
	"os"
	"sync"
)

type Category string

const (
	Device   Category = "device"
	Gesture  Category = "gesture"
	Mapping  Category = "mapping"
	Action   Category = "action"
	Feedback Category = "feedback"
	Engine   Category = "engine"
	IPC      Category = "ipc"
	Watcher  Category = "watcher"
	State    Category = "state"
	App      Category = "app"
)

var allCategories = []Category{Device, Gesture, Mapping, Action, Feedback, Engine, IPC, Watcher, State, App}

func defaultLevel(c Category) slog.Level {
	switch c {
	case Device, Gesture:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

var (
	mu      sync.RWMutex
	loggers = map[Category]*slog.Logger{}
	levels  = map[Category]*slog.LevelVar{}
	handler string = "text"
	out             = os.Stderr
)

// UseJSON switches every future category logger to JSON-line output. Must be
// called before the first Get for a given category to take effect for that
// category; intended to be called once at startup from main, driven by the
// daemon's --json-logs flag.
func UseJSON() {
	mu.Lock()
	defer mu.Unlock()
	handler = "json"
}

// Get returns the logger for category, creating it (and its LevelVar) on
// first use.
func Get(category Category) *slog.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	lvl := new(slog.LevelVar)
	lvl.Set(defaultLevel(category))
	levels[category] = lvl

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if handler == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	l := slog.New(h).With("category", string(category))
	loggers[category] = l
	return l
}

// SetLevel adjusts the runtime level of category. Returns false if category
// is unknown. This is the hook the IPC server's set_log_level command calls.
func SetLevel(category Category, level slog.Level) bool {
	known := false
	for _, c := range allCategories {
		if c == category {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	// Ensure the logger (and its LevelVar) exists.
	Get(category)

	mu.Lock()
	defer mu.Unlock()
	lvl, ok := levels[category]
	if !ok {
		return false
	}
	lvl.Set(level)
	return true
}

// Levels returns a snapshot of every category's current level, keyed by
// category name. No IPC response includes it.
func Levels() map[string]string {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]string, len(allCategories))
	for _, c := range allCategories {
		if lvl, ok := levels[c]; ok {
			out[string(c)] = lvl.Level().String()
		} else {
			out[string(c)] = defaultLevel(c).String()
		}
	}
	return out
}

// ParseLevel maps the small set of names the IPC protocol accepts
// ("trace" is downgraded to slog's Debug since slog has no finer level) to
// a slog.Level.
func ParseLevel(name string) (slog.Level, bool) {
	switch name {
	case "trace", "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
