// Package bootstrap loads the built-in module manifest: which builtin
// proxies a session is seeded with.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

const logPrefix = "bootstrap:loader"

// Manifest names the built-in modules to seed and, optionally, where their
// extensions live on disk.
type Manifest struct {
	Modules                    []string `json:"modules"`
	BuiltInExtensionsDirectory string   `json:"builtInExtensionsDirectory,omitempty"`
}

// DefaultManifest returns the manifest used when no file is found.
func DefaultManifest() *Manifest {
	return &Manifest{Modules: []string{"fs"}}
}

// LoadManifest loads the manifest from file paths or environment. It tries
// paths in order: any paths passed in, then HUB_BOOTSTRAP_FILE, then
// defaults; a missing or unparsable file falls through to the next
// candidate.
func LoadManifest(paths ...string) *Manifest {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("HUB_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/bootstrap.json", "bootstrap.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}
		if len(m.Modules) == 0 {
			m.Modules = DefaultManifest().Modules
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap manifest from %s", logPrefix, p))
		return &m
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap manifest", logPrefix))
	return DefaultManifest()
}
