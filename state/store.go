// Package state persists the minimal durable fields the supervisor needs
// across restarts (spec §4.J): the last-known-good active mode, shutdown
// time, and a schema version, checksummed so a torn write is detectable
// rather than silently trusted.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/amiable-dev/midimon/logging"
)

// CurrentSchema is the schema version this build writes. Load accepts any
// document whose schema is <= CurrentSchema; a newer document (written by
// a future daemon version sharing the same data directory) is treated like
// a corrupt one, not a parse error — deferring to defaults until a
// matching version restarts.
const CurrentSchema = 1

// Document is the persisted shape. Checksum is computed over every other
// field and excluded from its own input.
type Document struct {
	ActiveMode    int       `json:"active_mode"`
	ShutdownTime  time.Time `json:"shutdown_time"`
	SchemaVersion int       `json:"schema_version"`
	Checksum      string    `json:"checksum"`
}

// Defaults is what Load returns whenever the file is absent, unreadable,
// unparseable, or checksum-mismatched (spec §4.J "tolerates absence,
// partial writes, and checksum mismatch by returning defaults").
func Defaults() Document {
	return Document{ActiveMode: 0, SchemaVersion: CurrentSchema}
}

func checksum(d Document) string {
	d.Checksum = ""
	raw, _ := json.Marshal(d)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Load reads and validates the state document at path, falling back to
// Defaults on any problem. It never returns an error: a corrupt or missing
// state file is an ordinary startup condition, not a failure worth
// aborting the daemon over.
func Load(path string) Document {
	log := logging.Get(logging.State)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("state file unreadable, using defaults", "path", path, "error", err)
		}
		return Defaults()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("state file corrupt, using defaults", "path", path, "error", err)
		return Defaults()
	}

	if doc.Checksum != checksum(doc) {
		log.Warn("state file checksum mismatch, using defaults", "path", path)
		return Defaults()
	}

	if !schemaSupported(doc.SchemaVersion) {
		log.Warn("state file schema unsupported, using defaults", "path", path, "schema", doc.SchemaVersion)
		return Defaults()
	}

	return doc
}

func schemaSupported(v int) bool {
	got, err := version.NewVersion(fmt.Sprintf("%d.0.0", v))
	if err != nil {
		return false
	}
	max, err := version.NewVersion(fmt.Sprintf("%d.0.0", CurrentSchema))
	if err != nil {
		return false
	}
	return got.LessThanOrEqual(max)
}

// Save atomically persists doc to path: write to a temp file in the same
// directory, then rename over the target, so a concurrent reader never
// observes a partially-written file (spec §4.J). The file is created
// owner-only (0600).
func Save(path string, doc Document) error {
	doc.SchemaVersion = CurrentSchema
	doc.Checksum = checksum(doc)

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("state: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("state: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("state: chmod temp: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("state: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("state: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("state: rename: %w", err)
	}
	return nil
}

// DefaultPath returns the conventional location for the state file under
// the user's data directory, creating the parent directory if needed.
func DefaultPath() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("state: resolve home: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, "midimon")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("state: create data dir: %w", err)
	}
	return filepath.Join(dir, "state.json"), nil
}
