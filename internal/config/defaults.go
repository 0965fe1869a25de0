package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			DurationSeconds: 60,
			IntervalSeconds: 1,
		},
		Metrics: MetricsConfig{
			EnableGPU: true,
			DiskPath:  "/",
		},
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultStorageDir places session snapshots under the user's home
// directory, falling back to the working directory when home is unknown.
func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sessions"
	}
	return filepath.Join(home, ".resmon", "sessions")
}
