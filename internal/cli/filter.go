package cli

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/feed"
	"github.com/roach88/pulse/internal/notify"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Room string
}

// NewFilterCommand creates the filter command.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filter <text...>",
		Short: "Show how a feed post would be relayed to a room",
		Long: `Run text through the tag and notification filters of one room and print
the result, without sending anything.

Example:
  pulse filter --room 17 "cheap pills for sale"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "room to filter for (required)")
	_ = cmd.MarkFlagRequired("room")

	return cmd
}

// FilterResult is the JSON output of filter.
type FilterResult struct {
	Room notify.RoomID `json:"room"`
	Text string        `json:"text"`
}

func runFilter(opts *FilterOptions, text string, cmd *cobra.Command) error {
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

	room := notify.RoomID(opts.Room)
	if !slices.Contains(rt.cfg.Rooms, room) {
		_ = formatter.Error(ErrCodeUnknownRoom, fmt.Sprintf("room %s is not declared", room), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: room %s is not declared", ErrCodeUnknownRoom, room))
	}

	sender := &captureSender{}
	relay := &feed.Relay{
		Rooms:         []notify.RoomID{room},
		Tags:          rt.tags,
		Notifications: rt.notifications,
		Sender:        sender,
		Logger:        rt.logger,
	}
	if err := relay.Post(cmd.Context(), text); err != nil {
		return WrapExitError(ExitFailure, "filter failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(FilterResult{Room: room, Text: sender.text})
	}
	sender.print(formatter.Writer)
	return nil
}

// captureSender keeps the last relayed text instead of sending it.
type captureSender struct {
	text string
}

func (s *captureSender) Send(_ context.Context, _ notify.RoomID, text string) error {
	s.text = text
	return nil
}

func (s *captureSender) print(w io.Writer) {
	fmt.Fprintln(w, s.text)
}
