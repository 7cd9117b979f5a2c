package commands

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/synadapt/internal/backend"
	"github.com/ekisa-team/synadapt/internal/config"
	"github.com/ekisa-team/synadapt/internal/envvar"
)

func newTestApp(t *testing.T, args ...string) (*app, *cobra.Command) {
	t.Helper()

	a := &app{v: viper.New()}
	root := newRootCommand(a)
	require.NoError(t, root.ParseFlags(args))
	return a, root
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
version: "1"
loader:
  library: /opt/ur/libur_loader.so.0
discovery:
  backends: [cuda]
`)
	a, root := newTestApp(t, "--config", path)

	require.NoError(t, a.loadConfig(root))
	assert.Equal(t, "/opt/ur/libur_loader.so.0", a.cfg.Loader.Library)

	filter, err := a.filter()
	require.NoError(t, err)
	assert.Equal(t, []backend.Kind{backend.KindCUDA}, filter.Backends)
}

func TestLoadConfig_FlagAndEnvOverrides(t *testing.T) {
	path := writeConfig(t, "version: \"1\"\n")
	t.Setenv(envvar.SynadaptLogLevel, "debug")
	t.Setenv(envvar.SynadaptServerGRPCPort, "9999")

	a, root := newTestApp(t, "--config", path, "--loader-library", "/tmp/libur.so")

	require.NoError(t, a.loadConfig(root))
	assert.Equal(t, "/tmp/libur.so", a.cfg.Loader.Library)
	assert.Equal(t, "debug", a.cfg.Log.Level)
	assert.Equal(t, 9999, a.cfg.Server.GRPCPort)
	assert.Equal(t, config.DefaultHTTPPort, a.cfg.Server.HTTPPort)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	a, root := newTestApp(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, a.loadConfig(root))
}

func TestLoadConfig_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv(envvar.SynadaptConfig, filepath.Join(t.TempDir(), "absent.yaml"))
	a, root := newTestApp(t)

	require.NoError(t, a.loadConfig(root))
	assert.Equal(t, config.Default(), a.cfg)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := writeConfig(t, "version: \"1\"\ndiscovery: {backends: [vulkan]}\n")
	a, root := newTestApp(t, "--config", path)

	assert.Error(t, a.loadConfig(root))
}

func TestRootCommand_Tree(t *testing.T) {
	root := NewRootCommand()

	for _, name := range []string{"ls", "serve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSetupLogging_Level(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		wantDebug bool
		wantInfo  bool
	}{
		{name: "environment default", config: "version: \"1\"\n", wantDebug: true, wantInfo: true},
		{name: "explicit info", config: "version: \"1\"\nlog: {level: info}\n", wantInfo: true},
		{name: "explicit warn", config: "version: \"1\"\nlog: {level: warn}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := slog.Default()
			t.Cleanup(func() { slog.SetDefault(prev) })
			t.Setenv(envvar.SynadaptEnv, "development")

			a, root := newTestApp(t, "--config", writeConfig(t, tt.config))
			var out bytes.Buffer
			root.SetErr(&out)

			require.NoError(t, a.loadConfig(root))
			require.NoError(t, a.setupLogging(root))

			slog.Debug("debug line")
			slog.Info("info line")
			assert.Equal(t, tt.wantDebug, bytes.Contains(out.Bytes(), []byte("debug line")))
			assert.Equal(t, tt.wantInfo, bytes.Contains(out.Bytes(), []byte("info line")))
		})
	}
}
