package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSettings_Defaults(t *testing.T) {
	s, err := ParseSettings([]byte("{}"), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Backend != BackendTree {
		t.Errorf("backend = %q, want %q", s.Backend, BackendTree)
	}
	if s.MaxDepth != DefaultMaxDepth {
		t.Errorf("max_depth = %d, want %d", s.MaxDepth, DefaultMaxDepth)
	}
	if s.LogLevel != "warn" {
		t.Errorf("log_level = %q, want warn", s.LogLevel)
	}
	if !s.HostPackageEnabled("sqlite") {
		t.Error("expected every host package enabled by default")
	}
}

func TestParseSettings_Full(t *testing.T) {
	yaml := `
backend: compiled
max_depth: 200
log_level: debug
host:
  packages: [uuid, strings]
`
	s, err := ParseSettings([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Backend != BackendCompiled {
		t.Errorf("backend = %q, want compiled", s.Backend)
	}
	if s.MaxDepth != 200 {
		t.Errorf("max_depth = %d, want 200", s.MaxDepth)
	}
	if !s.HostPackageEnabled("uuid") || s.HostPackageEnabled("sqlite") {
		t.Errorf("unexpected host packages: %v", s.Host.Packages)
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown_backend", "backend: jit"},
		{"negative_depth", "max_depth: -1"},
		{"malformed", "backend: [tree"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tc.yaml), "bad.yaml"); err == nil {
				t.Fatalf("expected error for %q", tc.yaml)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBackend:  "COMPILED",
		EnvMaxDepth: "50",
		EnvLogLevel: "trace",
	}
	s := Default()
	err := s.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Backend != BackendCompiled || s.MaxDepth != 50 || s.LogLevel != "trace" {
		t.Errorf("env not applied: %+v", s)
	}

	env[EnvMaxDepth] = "lots"
	if err := Default().ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}); err == nil {
		t.Error("expected error for non-numeric max depth")
	}
}

func TestFindSettings(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pyhost.yaml"), []byte("backend: tree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err := FindSettings(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != filepath.Join(root, "pyhost.yaml") {
		t.Errorf("found %q", found)
	}
	s, err := LoadSettings(found)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Backend != BackendTree {
		t.Errorf("backend = %q", s.Backend)
	}
}
