// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/proxy-hub/pkg/hub"
)

const logPrefix = "config:LoadConfig"

// Config holds proxy-hub configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"proxy-hub"`

	// SessionName selects the inbound/outbound subject pair for the COMMS session.
	SessionName string `envconfig:"SESSION_NAME" default:"session"`

	// WSAddr enables the WebSocket listener (e.g. "0.0.0.0:9220"); empty disables it.
	WSAddr string `envconfig:"WS_ADDR"`

	// Handshake directories. An empty DataDirectory skips the handshake entirely.
	DataDirectory              string `envconfig:"DATA_DIR"`
	WorkingDirectory           string `envconfig:"WORKING_DIR"`
	BuiltInExtensionsDirectory string `envconfig:"BUILTIN_EXTENSIONS_DIR"`
	TmpDirectory               string `envconfig:"TMP_DIR"`
	Shell                      string `envconfig:"SHELL_PATH"`

	// Bootstrap
	BootstrapFile string `envconfig:"HUB_BOOTSTRAP_FILE"`

	// HTTP status endpoint
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the hub server.
func (c *Config) ValidateForServe() error {
	if c.SessionName == "" {
		return fmt.Errorf("%s - SESSION_NAME must not be empty", logPrefix)
	}
	if c.HTTPPort <= 0 {
		return fmt.Errorf("%s - HTTP_PORT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	return nil
}

// HandshakeConfig derives the handshake description from the environment,
// or nil when no data directory is configured (the session then skips the
// Init envelope).
func (c *Config) HandshakeConfig() *hub.HandshakeConfig {
	if c.DataDirectory == "" {
		return nil
	}

	home := os.Getenv("HOME")
	if h, err := os.UserHomeDir(); err == nil {
		home = h
	}

	shell := c.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	tmp := c.TmpDirectory
	if tmp == "" {
		tmp = os.TempDir()
	}

	return &hub.HandshakeConfig{
		DataDirectory:              c.DataDirectory,
		WorkingDirectory:           c.WorkingDirectory,
		BuiltInExtensionsDirectory: c.BuiltInExtensionsDirectory,
		HomeDirectory:              home,
		TmpDirectory:               tmp,
		Shell:                      shell,
	}
}
