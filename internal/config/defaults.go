package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ekisa-team/synadapt/internal/ur"
)

const (
	// CurrentVersion is the configuration format version.
	CurrentVersion = "1"

	DefaultHTTPPort = 8086
	DefaultGRPCPort = 8087
)

// Default returns the configuration used when no file is present. Values
// missing from a loaded file keep these defaults.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Loader: LoaderConfig{
			Library: ur.DefaultLibrary,
		},
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
		},
	}
}

// DefaultConfigPath returns the default path for the synadapt config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "synadapt", "config")
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "synadapt")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "synadapt")
		}
		return filepath.Join(home, ".config", "synadapt")
	}
}

// DefaultConfigFile returns the config file read when none is given.
func DefaultConfigFile() string {
	return filepath.Join(DefaultConfigPath(), "config.yaml")
}
