package command

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/roach88/pulse/internal/notify"
	"github.com/roach88/pulse/internal/tags"
)

// Message is an incoming chat message.
type Message struct {
	ID       string        `json:"message_id"`
	Room     notify.RoomID `json:"room"`
	UserID   string        `json:"user_id"`
	UserName string        `json:"user_name"`
	Content  string        `json:"content"`
}

// Replier sends responses back to the chat.
type Replier interface {
	// Reply answers the triggering message.
	Reply(ctx context.Context, text string) error

	// Post sends a plain message to the triggering message's room.
	Post(ctx context.Context, text string) error
}

// Services are the shared registries handlers operate on.
type Services struct {
	Notifications *notify.Store
	Tags          *tags.Store

	// Owners lists the user ids allowed to run privileged commands.
	Owners []string
}

// IsOwner reports whether userID may run privileged commands.
func (s *Services) IsOwner(userID string) bool {
	for _, owner := range s.Owners {
		if owner == userID {
			return true
		}
	}
	return false
}

// Invocation is one dispatched command.
type Invocation struct {
	// ID correlates log lines of one dispatch.
	ID string

	Message Message

	// Keyword is the matched keyword phrase, e.g. "my notifications".
	Keyword string

	// Args are the lowercased tokens following the keyword.
	Args []string

	Replier  Replier
	Services *Services
	Logger   *slog.Logger
}

// RawArgument returns the message content after the keyword tokens with
// case and inner spacing preserved.
func (inv *Invocation) RawArgument() string {
	rest := inv.Message.Content
	for range strings.Fields(inv.Keyword) {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			return ""
		}
		rest = rest[end:]
	}
	return strings.TrimSpace(rest)
}

// Reply answers the triggering message.
func (inv *Invocation) Reply(ctx context.Context, text string) error {
	return inv.Replier.Reply(ctx, text)
}

// Post sends a plain message to the room.
func (inv *Invocation) Post(ctx context.Context, text string) error {
	return inv.Replier.Post(ctx, text)
}
