// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Network registry: the chains the client knows how to connect to,
//     fixed at build time and shared by every install
//   - Runtime settings: data directory, logging, debug — per install
package config

import (
	"os"
	"path/filepath"
	"runtime"

	homedir "github.com/mitchellh/go-homedir"
)

// Config holds per-install runtime configuration.
type Config struct {
	// DataDir is the root directory for the wallet catalog and engine state.
	DataDir string

	// EngineURL is the JSON-RPC endpoint of the shielded-ledger engine.
	EngineURL string

	// Debug enables debug-level logging.
	Debug bool

	// Log holds logging settings.
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	File  string
	JSON  bool
}

// DefaultEngineURL is the JSON-RPC endpoint a locally running
// shielded-ledger engine listens on.
const DefaultEngineURL = "http://127.0.0.1:7547"

// Default returns the default client configuration.
func Default() *Config {
	return &Config{
		DataDir:   DefaultDataDir(),
		EngineURL: DefaultEngineURL,
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.umbra
//	macOS:   ~/Library/Application Support/Umbra
//	Windows: %APPDATA%\Umbra
func DefaultDataDir() string {
	home, err := homedir.Dir()
	if err != nil {
		return ".umbra"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Umbra")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Umbra")
		}
		return filepath.Join(home, "AppData", "Roaming", "Umbra")
	default:
		return filepath.Join(home, ".umbra")
	}
}

// WalletDBDir returns the wallet catalog database directory.
func (c *Config) WalletDBDir() string {
	return filepath.Join(c.DataDir, "walletdb")
}

// EngineDir returns the directory handed to the engine for its own state
// (merkle trees, scan checkpoints).
func (c *Config) EngineDir() string {
	return filepath.Join(c.DataDir, "engine")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// LogLevel returns the effective log level, honoring the debug flag.
func (c *Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.Log.Level
}
