package hub

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"github.com/morezero/proxy-hub/pkg/wire"
)

const handshakeLogPrefix = "hub:handshake"

// serverVersion is advertised in the Init envelope, canonicalized through
// semver so malformed release tags are caught at startup.
const serverVersion = "1.0.0"

// HandshakeConfig carries the environment description sent to the client in
// the Init envelope.
type HandshakeConfig struct {
	DataDirectory              string
	WorkingDirectory           string
	BuiltInExtensionsDirectory string
	HomeDirectory              string
	TmpDirectory               string
	Shell                      string
}

// startHandshake detects the platform, kicks off directory provisioning, and
// sends the Init envelope. Provisioning is fire-and-forget: the Init goes
// out without waiting, so a client issuing filesystem calls right after Init
// may race the directory setup.
func (h *Hub) startHandshake(cfg *HandshakeConfig) error {
	osName, err := wire.DetectOperatingSystem(runtime.GOOS)
	if err != nil {
		return fmt.Errorf("%s - %w", handshakeLogPrefix, err)
	}

	version, err := semver.NewVersion(serverVersion)
	if err != nil {
		return fmt.Errorf("%s - invalid server version %q: %w", handshakeLogPrefix, serverVersion, err)
	}

	go provisionDirectories(cfg)

	h.send(wire.NewInit(&wire.Init{
		DataDirectory:              cfg.DataDirectory,
		WorkingDirectory:           cfg.WorkingDirectory,
		BuiltInExtensionsDirectory: cfg.BuiltInExtensionsDirectory,
		HomeDirectory:              cfg.HomeDirectory,
		TmpDirectory:               cfg.TmpDirectory,
		OperatingSystem:            osName,
		Shell:                      cfg.Shell,
		ServerVersion:              version.String(),
	}))
	return nil
}

// provisionDirectories ensures the working directories exist. Failures are
// logged, never surfaced to the client.
func provisionDirectories(cfg *HandshakeConfig) {
	for _, dir := range []string{
		cfg.DataDirectory,
		cfg.WorkingDirectory,
		cfg.BuiltInExtensionsDirectory,
		cfg.TmpDirectory,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to create %s: %v", handshakeLogPrefix, dir, err))
		}
	}
}
