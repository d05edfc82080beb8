package feed

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/notify"
	"github.com/roach88/pulse/internal/tags"
)

// Sender posts text to a chat room.
type Sender interface {
	Send(ctx context.Context, room notify.RoomID, text string) error
}

// Relay filters text for each of its rooms and sends it.
type Relay struct {
	Rooms         []notify.RoomID
	Tags          *tags.Store
	Notifications *notify.Store
	Sender        Sender
	Logger        *slog.Logger
}

// Post tags text, appends each room's mentions and sends it to every room.
// A failed send does not stop the others; the errors are joined.
func (r *Relay) Post(ctx context.Context, text string) error {
	if r.Tags != nil {
		text = r.Tags.FilterPost(text)
	}

	var errs []error
	for _, room := range r.Rooms {
		out := text
		if r.Notifications != nil {
			out = r.Notifications.FilterPost(room, text)
		}
		if err := r.Sender.Send(ctx, room, out); err != nil {
			r.logger().Error("relay send failed", "room", room, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Feed ties a Listener to a Formatter and a Relay.
type Feed struct {
	Listener *Listener
	Format   Formatter
	Relay    *Relay
	Metrics  *metrics.Metrics
}

// Run listens until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	logger := f.Listener.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return f.Listener.Run(ctx, func(ctx context.Context, data []byte) {
		f.Metrics.FeedMessage(f.Listener.Name)

		text, ok, err := f.Format(data)
		if err != nil {
			logger.Warn("dropping feed message", "feed", f.Listener.Name, "error", err)
			return
		}
		if !ok {
			return
		}
		if err := f.Relay.Post(ctx, text); err != nil {
			logger.Warn("feed message not delivered everywhere", "feed", f.Listener.Name, "error", err)
		}
	})
}
