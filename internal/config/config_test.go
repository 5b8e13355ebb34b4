package config

import "testing"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("COMMSURL = %q", cfg.COMMSURL)
	}
	if cfg.SessionName != "session" {
		t.Errorf("SessionName = %q", cfg.SessionName)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("COMMS_URL", "nats://10.0.0.1:4222")
	t.Setenv("SESSION_NAME", "pilot")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.COMMSURL != "nats://10.0.0.1:4222" {
		t.Errorf("COMMSURL = %q", cfg.COMMSURL)
	}
	if cfg.SessionName != "pilot" {
		t.Errorf("SessionName = %q", cfg.SessionName)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestValidateForServe(t *testing.T) {
	cfg := &Config{SessionName: "s", HTTPPort: 8080, HealthCheckTimeout: 1}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.SessionName = ""
	if err := cfg.ValidateForServe(); err == nil {
		t.Error("expected error for empty session name")
	}
}

func TestHandshakeConfig_NilWithoutDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.HandshakeConfig() != nil {
		t.Error("expected nil handshake config without DATA_DIR")
	}
}

func TestHandshakeConfig_Populated(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	cfg := &Config{
		DataDirectory:    "/var/lib/hub",
		WorkingDirectory: "/var/lib/hub/work",
	}

	h := cfg.HandshakeConfig()
	if h == nil {
		t.Fatal("expected handshake config")
	}
	if h.DataDirectory != "/var/lib/hub" {
		t.Errorf("DataDirectory = %q", h.DataDirectory)
	}
	if h.Shell != "/bin/zsh" {
		t.Errorf("Shell = %q", h.Shell)
	}
	if h.TmpDirectory == "" {
		t.Error("expected tmp directory default")
	}
	if h.HomeDirectory == "" {
		t.Error("expected home directory")
	}
}
