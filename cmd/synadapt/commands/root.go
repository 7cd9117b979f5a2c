// Package commands implements the CLI commands for synadapt.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ekisa-team/synadapt/internal/config"
	"github.com/ekisa-team/synadapt/internal/discovery"
	"github.com/ekisa-team/synadapt/internal/env"
	"github.com/ekisa-team/synadapt/internal/envvar"
	"github.com/ekisa-team/synadapt/internal/logger"
	"github.com/ekisa-team/synadapt/internal/metrics"
	"github.com/ekisa-team/synadapt/internal/registry"
	"github.com/ekisa-team/synadapt/internal/ur"
)

const version = "0.1.0"

// Viper keys. Nested keys match the config file layout.
const (
	keyConfig        = "config"
	keyLoaderLibrary = "loader.library"
	keyLogLevel      = "log.level"
	keyHTTPPort      = "server.http_port"
	keyGRPCPort      = "server.grpc_port"
)

// app is the state shared by every command of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	promReg    *prometheus.Registry

	// reg is the registry commands discover through; nil selects the
	// process-wide one.
	reg *registry.Registry
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New()})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "synadapt",
		Short: "Discover compute backends and the platforms they expose",
		Long: `synadapt loads the native unified-runtime loader, connects every
backend adapter it reports and lists the platforms available to the process.

It can print the platforms once (ls) or serve them over HTTP and gRPC (serve).`,
		Example: `  # List platforms
  synadapt ls

  # Show version, name, vendor and devices of each platform
  synadapt ls --verbose

  # Serve the platform list
  synadapt serve --http-port 8086 --grpc-port 8087`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetVersionTemplate("synadapt version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.String(keyConfig, config.DefaultConfigFile(), "path to config file")
	flags.String("loader-library", "", "loader library to open (default "+ur.DefaultLibrary+")")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	mustBind(a.v.BindPFlag(keyConfig, flags.Lookup(keyConfig)))
	mustBind(a.v.BindPFlag(keyLoaderLibrary, flags.Lookup("loader-library")))
	mustBind(a.v.BindPFlag(keyLogLevel, flags.Lookup("log-level")))
	mustBind(a.v.BindEnv(keyConfig, envvar.SynadaptConfig))
	mustBind(a.v.BindEnv(keyLoaderLibrary, envvar.SynadaptLoaderLibrary))
	mustBind(a.v.BindEnv(keyLogLevel, envvar.SynadaptLogLevel))
	mustBind(a.v.BindEnv(keyHTTPPort, envvar.SynadaptServerHTTPPort))
	mustBind(a.v.BindEnv(keyGRPCPort, envvar.SynadaptServerGRPCPort))
	a.v.SetEnvPrefix(envvar.Prefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	root.AddCommand(newListCommand(a), newServeCommand(a))

	return root
}

func mustBind(err error) {
	if err != nil {
		panic(err)
	}
}

// init loads the configuration, sets up logging and configures the
// process-wide registry.
func (a *app) init(cmd *cobra.Command) error {
	if err := a.loadConfig(cmd); err != nil {
		return err
	}
	if err := a.setupLogging(cmd); err != nil {
		return err
	}

	a.promReg = prometheus.NewRegistry()
	a.promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	err := registry.Configure(
		registry.WithLibrary(a.cfg.Loader.Library),
		registry.WithInitFlags(ur.DeviceInitFlags(a.cfg.Loader.InitFlags)),
		registry.WithMetrics(metrics.New(a.promReg)),
	)
	if err != nil {
		return errors.Wrap(err, "configuring registry")
	}

	slog.Debug("Configuration loaded", "config", a.configPath, "library", a.cfg.Loader.Library)
	return nil
}

// loadConfig reads the config file and applies flag and environment
// overrides. A missing file is only an error when named explicitly.
func (a *app) loadConfig(cmd *cobra.Command) error {
	a.configPath = a.v.GetString(keyConfig)

	if cmd.Flags().Changed(keyConfig) {
		if _, err := os.Stat(a.configPath); err != nil {
			return errors.Wrapf(err, "config file %s", a.configPath)
		}
	}

	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return errors.Wrapf(err, "loading config %s", a.configPath)
	}
	a.applyOverrides(cfg)
	a.cfg = cfg
	return nil
}

func (a *app) applyOverrides(cfg *config.Config) {
	if a.v.IsSet(keyLoaderLibrary) && a.v.GetString(keyLoaderLibrary) != "" {
		cfg.Loader.Library = a.v.GetString(keyLoaderLibrary)
	}
	if a.v.IsSet(keyLogLevel) && a.v.GetString(keyLogLevel) != "" {
		cfg.Log.Level = a.v.GetString(keyLogLevel)
	}
	if a.v.IsSet(keyHTTPPort) {
		cfg.Server.HTTPPort = a.v.GetInt(keyHTTPPort)
	}
	if a.v.IsSet(keyGRPCPort) {
		cfg.Server.GRPCPort = a.v.GetInt(keyGRPCPort)
	}
}

// setupLogging configures the default logger from the environment and config.
func (a *app) setupLogging(cmd *cobra.Command) error {
	opts := []logger.Option{
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithLogToFile(a.cfg.Log.File != ""),
		logger.WithLogFile(a.cfg.Log.File),
	}
	if a.cfg.Log.Level != "" {
		level, err := logger.ParseLevel(a.cfg.Log.Level)
		if err != nil {
			return err
		}
		opts = append(opts, logger.WithLevel(level))
	}

	slog.SetDefault(logger.New(env.FromEnv(), opts...))
	return nil
}

// filter returns the discovery filter of the loaded config.
func (a *app) filter() (discovery.Filter, error) {
	return discovery.ParseFilter(a.cfg.Discovery.Backends, a.cfg.Discovery.KeepEmpty)
}

// Execute runs the root command. The process-wide registry is shut down
// when the command returns or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer registry.Shutdown()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}
