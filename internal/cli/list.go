package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/command"
	"github.com/roach88/pulse/internal/notify"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Room string
	User string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notification subscriptions",
		Long: `List the stored notification subscriptions, optionally restricted to
one room and/or one user id.

Example:
  pulse list
  pulse list --room 17 --user 13 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "only list this room")
	cmd.Flags().StringVar(&opts.User, "user", "", "only list this user id")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rt, err := openRuntime(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	var room *notify.RoomID
	if opts.Room != "" {
		r := notify.RoomID(opts.Room)
		room = &r
	}
	var user *string
	if opts.User != "" {
		user = &opts.User
	}
	entries := slices.Collect(rt.notifications.List(room, user))

	if formatter.Format == "json" {
		if entries == nil {
			entries = []notify.Entry{}
		}
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No notifications.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{string(e.Room), e.SubscriberID, e.DisplayName, e.Pattern})
	}
	fmt.Fprintln(formatter.Writer, command.RenderTable([]string{"Room", "User ID", "User", "Regex"}, rows))
	return nil
}
