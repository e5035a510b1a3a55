package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/amiable-dev/midimon/logging"
)

// schemaV0 is the earliest published schema version; every later core
// build must still accept documents that declare it or omit Version
// entirely (§6).
const schemaV0 = 0

var minSupportedSchema = version.Must(version.NewVersion("0.0.0"))

// Load reads path, parses it as YAML, fills in missing advanced-settings
// defaults, and runs Validate. It is pure: no device or network I/O.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrParse, Path: path, Message: fmt.Sprintf("reading file: %v", err), Wrapped: err}
	}
	return ParseBytes(data, path)
}

// ParseBytes parses an already-read document, identified by sourcePath for
// error messages (which need not be a real file — the IPC `reload` and
// `validate` commands accept an inline document for tests, spec §4.H).
func ParseBytes(data []byte, sourcePath string) (*Config, error) {
	log := logging.Get(logging.App)

	var raw yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Kind: ErrParse, Path: sourcePath, Message: fmt.Sprintf("parsing YAML: %v", err), Wrapped: err}
	}
	if raw.Kind == 0 {
		// Empty document: treat as a config with no modes rather than a parse
		// error, matching the teacher's tolerant "missing file falls back to
		// defaults" posture at the state-store layer (§3 J) applied here too.
		cfg := &Config{Version: schemaV0, SourcePath: sourcePath}
		cfg.Advanced.applyDefaults()
		if errs := Validate(cfg); len(errs) > 0 {
			return nil, Errors(errs)
		}
		return cfg, nil
	}

	warnUnknownTopLevelKeys(&raw, log)

	var cfg Config
	if err := raw.Decode(&cfg); err != nil {
		return nil, &Error{Kind: ErrSchema, Path: sourcePath, Message: err.Error(), Wrapped: err}
	}
	cfg.SourcePath = sourcePath
	cfg.Advanced.applyDefaults()

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, Errors(errs)
	}
	return &cfg, nil
}

// knownTopLevelKeys mirrors the yaml tags on Config; unknown keys are
// ignored with a warning per §6, never a hard error.
var knownTopLevelKeys = map[string]bool{
	"version": true, "device": true, "modes": true, "global": true, "advanced": true,
}

func warnUnknownTopLevelKeys(doc *yaml.Node, log interface{ Warn(string, ...any) }) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if !knownTopLevelKeys[key] {
			log.Warn("ignoring unknown top-level config key", "key", key, "line", mapping.Content[i].Line)
		}
	}
}

// SchemaSupported reports whether a document declaring the given version
// integer is one this build can load. Uses go-version so future
// fractional/pre-release schema tags (e.g. "1.1") compare correctly instead
// of via raw integer equality.
func SchemaSupported(v int) bool {
	declared, err := version.NewVersion(fmt.Sprintf("%d.0.0", v))
	if err != nil {
		return false
	}
	return declared.GreaterThanOrEqual(minSupportedSchema)
}

// ResolvePath applies the XDG-style search order from SPEC_FULL.md §10:
// $MIDIMON_CONFIG, then $XDG_CONFIG_HOME/midimon/config.yaml, then
// ~/.config/midimon/config.yaml.
func ResolvePath() (string, error) {
	if p := os.Getenv("MIDIMON_CONFIG"); p != "" {
		return p, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "midimon", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving default config path: %w", err)
	}
	return filepath.Join(home, ".config", "midimon", "config.yaml"), nil
}
