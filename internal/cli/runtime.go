package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/command"
	"github.com/roach88/pulse/internal/config"
	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/notify"
	"github.com/roach88/pulse/internal/registry"
	"github.com/roach88/pulse/internal/store"
	"github.com/roach88/pulse/internal/tags"
)

// runtime is the configuration and open registries shared by commands.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	notifications *notify.Store
	tags          *tags.Store

	close func() error
}

// openRuntime loads the configuration and opens both registries on the
// configured backend. Callers must call Close.
func openRuntime(opts *RootOptions, cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}

	logger := NewLogger(cfg, opts.Verbose, cmd.ErrOrStderr())
	m := metrics.New()

	backends, err := openBackends(cfg.Storage)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening storage", err)
	}

	notifications, err := notify.Open(cfg.Rooms, backends.notifications,
		notify.WithLogger(logger), notify.WithMetrics(m))
	if err != nil {
		_ = backends.close()
		return nil, WrapExitError(ExitCommandError, "opening storage", err)
	}
	tagStore, err := tags.Open(backends.tags, tags.WithLogger(logger), tags.WithMetrics(m))
	if err != nil {
		_ = backends.close()
		return nil, WrapExitError(ExitCommandError, "opening storage", err)
	}

	logger.Debug("registries opened", "driver", cfg.Storage.Driver, "rooms", len(cfg.Rooms))
	return &runtime{
		cfg:           cfg,
		logger:        logger,
		metrics:       m,
		notifications: notifications,
		tags:          tagStore,
		close:         backends.close,
	}, nil
}

// Close releases the storage backend.
func (rt *runtime) Close() {
	if err := rt.close(); err != nil {
		rt.logger.Error("error closing storage", "error", err)
	}
}

func (rt *runtime) services() *command.Services {
	return &command.Services{
		Notifications: rt.notifications,
		Tags:          rt.tags,
		Owners:        rt.cfg.Owners,
	}
}

func (rt *runtime) dispatcher() *command.Dispatcher {
	return command.NewDispatcher(rt.services(),
		command.WithLogger(rt.logger),
		command.WithMetrics(rt.metrics),
	)
}

// backends are the registry backends for one storage configuration.
type backends struct {
	notifications registry.Backend[store.Notifications]
	tags          registry.Backend[store.Tags]
	close         func() error
}

func openBackends(storage config.StorageConfig) (*backends, error) {
	switch storage.Driver {
	case config.DriverJSON:
		return &backends{
			notifications: store.NewJSONFile[store.Notifications](storage.Notifications),
			tags:          store.NewJSONFile[store.Tags](storage.Tags),
			close:         func() error { return nil },
		}, nil
	case config.DriverSQLite:
		st, err := store.Open(storage.Database)
		if err != nil {
			return nil, err
		}
		return &backends{
			notifications: st.Notifications(),
			tags:          st.Tags(),
			close:         st.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", storage.Driver)
	}
}
