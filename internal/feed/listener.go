package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nhooyr.io/websocket"
)

// readLimit bounds a single frame.
const readLimit = 1 << 20

// FrameHandler receives every text or binary frame.
type FrameHandler func(ctx context.Context, data []byte)

// Listener maintains a websocket connection to one feed.
type Listener struct {
	Name      string
	URL       string
	Reconnect time.Duration
	Logger    *slog.Logger
}

// Run dials the feed and delivers frames to handle until ctx is cancelled.
// A dropped or failed connection is retried after Reconnect. Run returns
// ctx.Err() when cancelled.
func (l *Listener) Run(ctx context.Context, handle FrameHandler) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("feed", l.Name, "url", l.URL)

	for {
		err := l.session(ctx, handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("feed connection closed", "error", err, "retry_in", l.Reconnect)

		timer := time.NewTimer(l.Reconnect)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection until it fails or ctx is cancelled.
func (l *Listener) session(ctx context.Context, handle FrameHandler) error {
	conn, _, err := websocket.Dial(ctx, l.URL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	conn.SetReadLimit(readLimit)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return errors.New("closed by server")
			}
			return fmt.Errorf("read: %w", err)
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			handle(ctx, data)
		}
	}
}
