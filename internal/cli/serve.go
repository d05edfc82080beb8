package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/bridge"
	"github.com/roach88/pulse/internal/feed"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat bridge, feeds and metrics endpoint",
		Long: `Run pulse: answer chat commands arriving on the Redis commands channel,
relay every configured feed into its rooms, and serve /metrics.

Stops on SIGINT or SIGTERM after in-flight commands finish.

Example:
  pulse serve --config ./pulse.yaml
  PULSE_REDIS_ADDR=redis:6379 pulse serve -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, cmd)
		},
	}
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command) error {
	rt, err := openRuntime(opts, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parentCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus, err := bridge.NewRedisBus(ctx, cfg.Redis.Addr, cfg.Redis.DB, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "connecting to redis", err)
	}
	defer bus.Close()

	br := bridge.New(bus, rt.dispatcher(), bridge.Config{
		CommandsChannel:    cfg.Redis.CommandsChannel,
		RoomsChannelPrefix: cfg.Redis.RoomsChannelPrefix,
		CommandPrefix:      cfg.CommandPrefix,
	}, logger)

	feeds := make([]*feed.Feed, 0, len(cfg.Feeds))
	for _, fc := range cfg.Feeds {
		format, err := feed.FormatterFor(fc.Kind)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("feed %s", fc.Name), err)
		}
		feeds = append(feeds, &feed.Feed{
			Listener: &feed.Listener{
				Name:      fc.Name,
				URL:       fc.URL,
				Reconnect: fc.Reconnect,
				Logger:    logger,
			},
			Format: format,
			Relay: &feed.Relay{
				Rooms:         fc.Rooms,
				Tags:          rt.tags,
				Notifications: rt.notifications,
				Sender:        br,
				Logger:        logger,
			},
			Metrics: rt.metrics,
		})
	}

	var srv *http.Server
	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", rt.metrics.Handler())
		srv = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
				cancel()
			}
		}()
	}

	var wg sync.WaitGroup
	var bridgeErr error
	wg.Go(func() {
		if err := br.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			bridgeErr = err
			logger.Error("bridge stopped", "error", err)
			cancel()
		}
	})
	for _, f := range feeds {
		wg.Go(func() {
			if err := f.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("feed stopped", "feed", f.Listener.Name, "error", err)
			}
		})
	}

	logger.Info("pulse started", "rooms", len(cfg.Rooms), "feeds", len(feeds))
	fmt.Fprintln(cmd.OutOrStdout(), "pulse started. Press Ctrl-C to stop.")

	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}
	wg.Wait()

	if bridgeErr != nil {
		return WrapExitError(ExitFailure, "bridge error", bridgeErr)
	}
	logger.Info("pulse stopped gracefully")
	return nil
}
