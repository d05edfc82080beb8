package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/pulse/internal/pattern"
	"github.com/roach88/pulse/internal/tags"
)

// Alive answers liveness checks.
type Alive struct{}

func (h *Alive) Run(ctx context.Context, inv *Invocation) error {
	return inv.Reply(ctx, "Yes, I'm alive.")
}

// ListNotifications posts a table of every subscription in the room.
type ListNotifications struct{}

func (h *ListNotifications) Run(ctx context.Context, inv *Invocation) error {
	room := inv.Message.Room
	inv.Logger.Info(fmt.Sprintf("NOTIFICATIONS by %s in %s", inv.Message.UserID, room))

	var rows [][]string
	for entry := range inv.Services.Notifications.List(&room, nil) {
		rows = append(rows, []string{entry.DisplayName, entry.Pattern})
	}
	return inv.Post(ctx, Indent(RenderTable([]string{"User", "Regex"}, rows)))
}

// MyNotifications posts a table of the caller's own patterns in the room.
type MyNotifications struct{}

func (h *MyNotifications) Run(ctx context.Context, inv *Invocation) error {
	room, user := inv.Message.Room, inv.Message.UserID
	inv.Logger.Info(fmt.Sprintf("MY NOTIFICATIONS by %s in %s", user, room))

	var rows [][]string
	for entry := range inv.Services.Notifications.List(&room, &user) {
		rows = append(rows, []string{entry.Pattern})
	}
	return inv.Post(ctx, Indent(RenderTable([]string{"Regex"}, rows)))
}

// Notify subscribes the caller to a pattern.
type Notify struct{}

func (h *Notify) Run(ctx context.Context, inv *Invocation) error {
	msg := inv.Message
	// The raw argument keeps the case and spacing that tokenizing loses.
	p := pattern.Normalize(inv.RawArgument())
	markedup := pattern.InlineCode(p)
	inv.Logger.Info(fmt.Sprintf("NOTIFY %s in %s for %s", msg.UserID, msg.Room, p))

	added, err := inv.Services.Notifications.Add(msg.Room, p, msg.UserID, msg.UserName)
	switch {
	case pattern.IsValidationError(err):
		return inv.Reply(ctx, fmt.Sprintf("Could not add notification %s: %s", markedup, pattern.Reason(err)))
	case err != nil:
		return err
	case added:
		return inv.Reply(ctx, fmt.Sprintf("Added notification for %s for %s", msg.UserName, markedup))
	default:
		return inv.Reply(ctx, fmt.Sprintf("Pattern %s already registered for %s", markedup, msg.UserName))
	}
}

// Unnotify removes the caller's patterns matching an expression.
type Unnotify struct{}

func (h *Unnotify) Run(ctx context.Context, inv *Invocation) error {
	msg := inv.Message
	expr := pattern.Normalize(inv.RawArgument())
	markedup := pattern.InlineCode(expr)
	inv.Logger.Info(fmt.Sprintf("UNNOTIFY %s for %s in %s", expr, msg.UserID, msg.Room))

	removed, err := inv.Services.Notifications.RemoveMatching(msg.Room, expr, msg.UserID)
	if pattern.IsValidationError(err) {
		return inv.Reply(ctx, fmt.Sprintf("Could not remove notification %s: %s", markedup, pattern.Reason(err)))
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		return inv.Reply(ctx, fmt.Sprintf("No matches on %s for %s", markedup, msg.UserName))
	}

	joined := make([]string, len(removed))
	for i, p := range removed {
		joined[i] = pattern.InlineCode(p)
	}
	return inv.Reply(ctx, "Removed notifications: "+strings.Join(joined, ", "))
}

// ListTags posts a table of every tag.
type ListTags struct{}

func (h *ListTags) Run(ctx context.Context, inv *Invocation) error {
	var rows [][]string
	for _, tag := range inv.Services.Tags.List() {
		rows = append(rows, []string{tag.Name, tag.Regex, tag.UserName})
	}
	return inv.Post(ctx, Indent(RenderTable([]string{"Name", "Regex", "Added By"}, rows)))
}

// AddTag defines a tag: the first argument is the name, the rest the regex.
type AddTag struct{}

func (h *AddTag) Run(ctx context.Context, inv *Invocation) error {
	msg := inv.Message
	name, rawRegex := splitFirst(inv.RawArgument())
	regex := pattern.Normalize(rawRegex)
	markedup := pattern.InlineCode(regex)
	inv.Logger.Info(fmt.Sprintf("ADDTAG %s by %s for %s", name, msg.UserID, regex))

	added, err := inv.Services.Tags.Add(name, regex, msg.UserID, msg.UserName)
	switch {
	case pattern.IsValidationError(err):
		return inv.Reply(ctx, fmt.Sprintf("Could not add tag for regex %s: %s", markedup, pattern.Reason(err)))
	case err != nil:
		return err
	case added:
		return inv.Reply(ctx, fmt.Sprintf("Added %s for regex %s", tags.Format(name), markedup))
	default:
		return inv.Reply(ctx, fmt.Sprintf("Tag %s already exists", tags.Format(name)))
	}
}

// RemoveTag deletes a tag by name.
type RemoveTag struct{}

func (h *RemoveTag) Run(ctx context.Context, inv *Invocation) error {
	name, _ := splitFirst(inv.RawArgument())
	inv.Logger.Info(fmt.Sprintf("REMOVETAG %s by %s", name, inv.Message.UserID))

	removed, err := inv.Services.Tags.Remove(name)
	if err != nil {
		return err
	}
	if !removed {
		return inv.Reply(ctx, "The specified tag does not exist; have you made a typo or specified that tag in a different case?")
	}
	return inv.Reply(ctx, fmt.Sprintf("Removed %s successfully.", tags.Format(name)))
}

// splitFirst splits off the first whitespace-separated field of s.
func splitFirst(s string) (first, rest string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	first = fields[0]
	rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), first))
	return first, rest
}
