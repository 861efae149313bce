package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the runtime configuration, usually read from pyhost.yaml.
type Settings struct {
	// Backend selects the execution strategy: "tree" or "compiled".
	Backend string `yaml:"backend"`

	// MaxDepth bounds the script call depth; exceeding it is fatal.
	MaxDepth int `yaml:"max_depth"`

	// LogLevel is a zerolog level name (trace, debug, info, warn, error, disabled).
	LogLevel string `yaml:"log_level"`

	Host HostSettings `yaml:"host"`
}

// HostSettings controls which host packages are visible to scripts.
type HostSettings struct {
	// Packages lists the hostlib packages to register. Empty means all.
	Packages []string `yaml:"packages,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Settings {
	s := &Settings{}
	s.setDefaults()
	return s
}

// LoadSettings reads and parses a settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseSettings(data, path)
}

// ParseSettings parses settings content from bytes.
// The path argument is used only for error messages.
func ParseSettings(data []byte, path string) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	s.setDefaults()
	if err := s.validate(path); err != nil {
		return nil, err
	}
	return &s, nil
}

// FindSettings searches for pyhost.yaml starting from dir and walking up
// to parent directories. It returns "" and a nil error if none is found.
func FindSettings(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range DefaultConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// ApplyEnv overrides fields from PYHOST_* environment variables.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		s.Backend = strings.ToLower(v)
	}
	if v, ok := lookup(EnvMaxDepth); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxDepth, err)
		}
		s.MaxDepth = n
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		s.LogLevel = strings.ToLower(v)
	}
	return s.validate("environment")
}

// HostPackageEnabled reports whether the named hostlib package should be registered.
func (s *Settings) HostPackageEnabled(name string) bool {
	if len(s.Host.Packages) == 0 {
		return true
	}
	for _, p := range s.Host.Packages {
		if p == name {
			return true
		}
	}
	return false
}

func (s *Settings) validate(path string) error {
	switch s.Backend {
	case BackendTree, BackendCompiled:
	default:
		return fmt.Errorf("%s: unknown backend %q (want %s or %s)", path, s.Backend, BackendTree, BackendCompiled)
	}
	if s.MaxDepth <= 0 {
		return fmt.Errorf("%s: max_depth must be positive, got %d", path, s.MaxDepth)
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (s *Settings) setDefaults() {
	if s.Backend == "" {
		s.Backend = BackendTree
	}
	if s.MaxDepth == 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	if s.LogLevel == "" {
		s.LogLevel = "warn"
	}
}
