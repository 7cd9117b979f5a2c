package commands

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ekisa-team/synadapt/internal/config"
	"github.com/ekisa-team/synadapt/internal/discovery"
	grpcserver "github.com/ekisa-team/synadapt/internal/server/grpc"
	httpserver "github.com/ekisa-team/synadapt/internal/server/http"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the platform list over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().Int("http-port", config.DefaultHTTPPort, "HTTP port to listen on")
	cmd.Flags().Int("grpc-port", config.DefaultGRPCPort, "gRPC port to listen on")
	mustBind(a.v.BindPFlag(keyHTTPPort, cmd.Flags().Lookup("http-port")))
	mustBind(a.v.BindPFlag(keyGRPCPort, cmd.Flags().Lookup("grpc-port")))

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	filter, err := a.filter()
	if err != nil {
		return err
	}
	svc := discovery.NewService(a.reg, filter)

	if watcher := a.watchConfig(svc); watcher != nil {
		defer watcher.Close()
	}

	infos, err := svc.ListPlatforms(ctx)
	if err != nil {
		return err
	}
	slog.Info("Initial discovery finished", "platforms", len(infos))

	grpcLis, err := net.Listen("tcp", ":"+strconv.Itoa(a.cfg.Server.GRPCPort))
	if err != nil {
		return errors.Wrap(err, "listening for gRPC")
	}
	httpLis, err := net.Listen("tcp", ":"+strconv.Itoa(a.cfg.Server.HTTPPort))
	if err != nil {
		_ = grpcLis.Close()
		return errors.Wrap(err, "listening for HTTP")
	}

	return a.runServers(ctx, svc, httpLis, grpcLis)
}

// runServers serves svc on both listeners until ctx is done, then stops the
// servers gracefully. It takes ownership of the listeners.
func (a *app) runServers(ctx context.Context, svc discovery.Lister, httpLis, grpcLis net.Listener) error {
	grpcSrv := grpcserver.NewServer(svc)
	httpSrv := httpserver.NewServer(a.cfg.Server.HTTPPort, httpserver.NewHandler(svc, a.promReg))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcSrv.Serve(grpcLis)
	})

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", httpLis.Addr())
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving HTTP")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcSrv.GracefulStop()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// watchConfig reloads the discovery filter when the config file changes.
// It returns nil when there is no file to watch.
func (a *app) watchConfig(svc *discovery.Service) *config.Watcher {
	if _, err := os.Stat(a.configPath); err != nil {
		slog.Debug("Config file not found, not watching", "path", a.configPath)
		return nil
	}

	started := a.cfg
	watcher, err := config.NewWatcher(a.configPath, func(cfg *config.Config, err error) {
		if err != nil {
			slog.Error("Failed to reload config", "error", err)
			return
		}

		filter, err := discovery.ParseFilter(cfg.Discovery.Backends, cfg.Discovery.KeepEmpty)
		if err != nil {
			slog.Error("Invalid discovery settings, keeping previous filter", "error", err)
			return
		}
		svc.SetFilter(filter)

		if started.RequiresRestart(cfg) {
			slog.Warn("Loader, log or server settings changed; restart to apply them")
		}
	})
	if err != nil {
		slog.Error("Failed to create config watcher", "error", err)
		return nil
	}

	return watcher
}
