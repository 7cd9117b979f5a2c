// Package config loads and watches the synadapt configuration file.
package config

// Config holds the main configuration for the application.
type Config struct {
	Version   string          `json:"version"   yaml:"version"`
	Loader    LoaderConfig    `json:"loader"    yaml:"loader"`
	Discovery DiscoveryConfig `json:"discovery" yaml:"discovery"`
	Log       LogConfig       `json:"log"       yaml:"log"`
	Server    ServerConfig    `json:"server"    yaml:"server"`
}

// LoaderConfig selects the native loader library and how it is initialized.
type LoaderConfig struct {
	Library   string `json:"library"              yaml:"library"`
	InitFlags uint32 `json:"init_flags,omitempty" yaml:"init_flags,omitempty"`
}

// DiscoveryConfig controls which platforms discovery reports.
type DiscoveryConfig struct {
	// Backends lists backend names; empty means every backend.
	Backends  []string `json:"backends,omitempty" yaml:"backends,omitempty"`
	KeepEmpty bool     `json:"keep_empty"         yaml:"keep_empty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is empty to use the default of the environment.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	File  string `json:"file,omitempty"  yaml:"file,omitempty"`
}

// ServerConfig holds the listen ports of the serve command.
type ServerConfig struct {
	HTTPPort int `json:"http_port" yaml:"http_port"`
	GRPCPort int `json:"grpc_port" yaml:"grpc_port"`
}

// RequiresRestart reports whether moving from c to next changes settings
// that only take effect when the process starts.
func (c *Config) RequiresRestart(next *Config) bool {
	return c.Loader != next.Loader || c.Server != next.Server || c.Log != next.Log
}
