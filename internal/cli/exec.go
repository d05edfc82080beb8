package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulse/internal/command"
	"github.com/roach88/pulse/internal/notify"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	Room     string
	UserID   string
	UserName string
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <command text...>",
		Short: "Run one chat command locally",
		Long: `Run one chat command against the configured registries, as if it had been
sent in a room, and print what pulse would answer. The command prefix is
optional.

Example:
  pulse exec --room 17 --user-id 13 --user-name "Graham Chapman" notify foo.*bar
  pulse exec --room 17 --user-id 13 my notifications`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Room, "room", "", "room the command is sent in (default: first declared room)")
	cmd.Flags().StringVar(&opts.UserID, "user-id", "", "id of the sending user (required)")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "display name of the sending user (default: the user id)")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

// ExecResult is the JSON output of exec.
type ExecResult struct {
	Room     notify.RoomID `json:"room"`
	Content  string        `json:"content"`
	Messages []ExecMessage `json:"messages"`
}

// ExecMessage is one message pulse sent while running the command.
type ExecMessage struct {
	Kind string `json:"kind"` // "reply" | "post"
	Text string `json:"text"`
}

func runExec(opts *ExecOptions, content string, cmd *cobra.Command) error {
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
	if room == "" {
		room = rt.cfg.Rooms[0]
	}
	if !slices.Contains(rt.cfg.Rooms, room) {
		_ = formatter.Error(ErrCodeUnknownRoom, fmt.Sprintf("room %s is not declared", room), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: room %s is not declared", ErrCodeUnknownRoom, room))
	}
	userName := opts.UserName
	if userName == "" {
		userName = opts.UserID
	}
	content = strings.TrimSpace(strings.TrimPrefix(content, rt.cfg.CommandPrefix))

	formatter.VerboseLog("Dispatching %q in room %s as %s", content, room, opts.UserID)

	out := &printReplier{}
	err = rt.dispatcher().Dispatch(cmd.Context(), command.Message{
		ID:       "exec",
		Room:     room,
		UserID:   opts.UserID,
		UserName: userName,
		Content:  content,
	}, out)
	if errors.Is(err, command.ErrUnknownCommand) {
		_ = formatter.Error(ErrCodeUnknownCmd, fmt.Sprintf("no command matches %q", content), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: no command matches %q", ErrCodeUnknownCmd, content))
	}
	if err != nil {
		return WrapExitError(ExitFailure, "dispatch failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ExecResult{Room: room, Content: content, Messages: out.messages})
	}
	out.print(formatter.Writer)
	return nil
}

// printReplier collects what a command sends.
type printReplier struct {
	messages []ExecMessage
}

func (r *printReplier) Reply(_ context.Context, text string) error {
	r.messages = append(r.messages, ExecMessage{Kind: "reply", Text: text})
	return nil
}

func (r *printReplier) Post(_ context.Context, text string) error {
	r.messages = append(r.messages, ExecMessage{Kind: "post", Text: text})
	return nil
}

func (r *printReplier) print(w io.Writer) {
	for _, m := range r.messages {
		if m.Kind == "reply" {
			fmt.Fprintf(w, "> %s\n", m.Text)
			continue
		}
		fmt.Fprintln(w, m.Text)
	}
}
