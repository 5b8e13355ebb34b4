package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultManifest(t *testing.T) {
	m := DefaultManifest()
	if len(m.Modules) != 1 || m.Modules[0] != "fs" {
		t.Errorf("modules = %v, want [fs]", m.Modules)
	}
}

func TestLoadManifest_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap.json")
	raw := `{"modules": ["fs", "shell"], "builtInExtensionsDirectory": "/opt/ext"}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	m := LoadManifest(path)
	if len(m.Modules) != 2 || m.Modules[1] != "shell" {
		t.Errorf("modules = %v", m.Modules)
	}
	if m.BuiltInExtensionsDirectory != "/opt/ext" {
		t.Errorf("builtInExtensionsDirectory = %q", m.BuiltInExtensionsDirectory)
	}
}

func TestLoadManifest_FallsBackOnMissingOrInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{not json`), 0o644); err != nil {
		t.Fatal(err)
	}

	m := LoadManifest(filepath.Join(dir, "missing.json"), bad)
	if len(m.Modules) != 1 || m.Modules[0] != "fs" {
		t.Errorf("modules = %v, want default [fs]", m.Modules)
	}
}

func TestLoadManifest_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env-bootstrap.json")
	if err := os.WriteFile(path, []byte(`{"modules": ["fs"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HUB_BOOTSTRAP_FILE", path)

	m := LoadManifest()
	if len(m.Modules) != 1 || m.Modules[0] != "fs" {
		t.Errorf("modules = %v", m.Modules)
	}
}
