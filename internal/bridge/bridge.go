// Package bridge connects the command dispatcher and feeds to chat over a
// pub/sub bus.
//
// Inbound chat messages arrive as JSON on one commands channel. Outbound
// posts and replies are published per room on rooms_channel_prefix+room.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/pulse/internal/command"
	"github.com/roach88/pulse/internal/notify"
)

// Outbound is a message published to a room channel.
type Outbound struct {
	Room    notify.RoomID `json:"room"`
	ReplyTo string        `json:"reply_to,omitempty"`
	Text    string        `json:"text"`
}

// Config names the channels and command prefix the bridge uses.
type Config struct {
	CommandsChannel    string
	RoomsChannelPrefix string
	CommandPrefix      string
}

// Bridge carries chat traffic between a Bus and a Dispatcher.
type Bridge struct {
	bus        Bus
	dispatcher *command.Dispatcher
	cfg        Config
	logger     *slog.Logger

	wg sync.WaitGroup
}

// New creates a Bridge.
func New(bus Bus, dispatcher *command.Dispatcher, cfg Config, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{bus: bus, dispatcher: dispatcher, cfg: cfg, logger: logger}
}

// Run dispatches inbound commands until ctx is cancelled, then waits for
// in-flight dispatches to finish.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.wg.Wait()
	return b.bus.Subscribe(ctx, b.cfg.CommandsChannel, func(payload []byte) {
		b.handle(ctx, payload)
	})
}

func (b *Bridge) handle(ctx context.Context, payload []byte) {
	var msg command.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.logger.Warn("dropping malformed inbound message", "error", err)
		return
	}
	content, ok := strings.CutPrefix(msg.Content, b.cfg.CommandPrefix)
	if !ok {
		return
	}
	msg.Content = strings.TrimSpace(content)

	// In-flight commands finish and reply even once Run is cancelled.
	ctx = context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		err := b.dispatcher.Dispatch(ctx, msg, &replier{bridge: b, msg: msg})
		switch {
		case err == nil:
		case errors.Is(err, command.ErrUnknownCommand):
			b.logger.Debug("ignoring unknown command", "room", msg.Room, "content", msg.Content)
		default:
			b.logger.Error("dispatch failed", "room", msg.Room, "message_id", msg.ID, "error", err)
		}
	}()
}

// Send posts text to room.
func (b *Bridge) Send(ctx context.Context, room notify.RoomID, text string) error {
	return b.publish(ctx, Outbound{Room: room, Text: text})
}

func (b *Bridge) publish(ctx context.Context, out Outbound) error {
	payload, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encoding outbound message: %w", err)
	}
	return b.bus.Publish(ctx, b.cfg.RoomsChannelPrefix+string(out.Room), payload)
}

// replier answers one inbound message.
type replier struct {
	bridge *Bridge
	msg    command.Message
}

func (r *replier) Reply(ctx context.Context, text string) error {
	return r.bridge.publish(ctx, Outbound{Room: r.msg.Room, ReplyTo: r.msg.ID, Text: text})
}

func (r *replier) Post(ctx context.Context, text string) error {
	return r.bridge.Send(ctx, r.msg.Room, text)
}
