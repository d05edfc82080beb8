package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/config"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	To string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the registries to the other storage driver",
		Long: `Copy the notification and tag registries from the configured storage
driver into the other one, replacing whatever the target holds. Switch
storage.driver afterwards to start using the copy.

Example:
  pulse migrate --to sqlite`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.To, "to", "", "target driver (json|sqlite)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// MigrateResult is the JSON output of migrate.
type MigrateResult struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Rooms         int    `json:"rooms"`
	Subscriptions int    `json:"subscriptions"`
	Tags          int    `json:"tags"`
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if opts.To != config.DriverJSON && opts.To != config.DriverSQLite {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --to %q: must be json or sqlite", opts.To))
	}
	if opts.To == cfg.Storage.Driver {
		return NewExitError(ExitCommandError, fmt.Sprintf("storage already uses the %s driver", opts.To))
	}

	src, err := openBackends(cfg.Storage)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening source storage", err)
	}
	defer src.close()

	target := cfg.Storage
	target.Driver = opts.To
	dst, err := openBackends(target)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening target storage", err)
	}
	defer dst.close()

	formatter.VerboseLog("Migrating %s -> %s", cfg.Storage.Driver, opts.To)

	notifications, _, err := src.notifications.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading notifications", err)
	}
	tagList, _, err := src.tags.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading tags", err)
	}
	notifications = notifications.Clone()

	if err := dst.notifications.Save(notifications); err != nil {
		return WrapExitError(ExitCommandError, "saving notifications", err)
	}
	if err := dst.tags.Save(tagList.Clone()); err != nil {
		return WrapExitError(ExitCommandError, "saving tags", err)
	}

	result := MigrateResult{
		From:  cfg.Storage.Driver,
		To:    opts.To,
		Rooms: len(notifications.Rooms),
		Tags:  len(tagList),
	}
	for _, patterns := range notifications.Rooms {
		for _, ids := range patterns {
			result.Subscriptions += len(ids)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Migrated %d room(s), %d subscription(s) and %d tag(s) from %s to %s\n",
		result.Rooms, result.Subscriptions, result.Tags, result.From, result.To)
	return nil
}
