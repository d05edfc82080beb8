package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/pattern"
)

// ErrUnknownCommand is returned by Dispatch when no route matches.
var ErrUnknownCommand = errors.New("unknown command")

// Handler executes one command.
type Handler interface {
	Run(ctx context.Context, inv *Invocation) error
}

// Route binds keyword phrases to a handler constructor.
type Route struct {
	// Name labels the route in logs and metrics.
	Name string

	// Keywords are the lowercase phrases that select this route.
	Keywords []string

	// MinArgs is the number of argument tokens the route requires. Content
	// with fewer arguments does not match.
	MinArgs int

	// Privileged routes may only be run by owners.
	Privileged bool

	// New returns a fresh handler for one invocation.
	New func() Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics counts dispatched commands by outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithIDGenerator overrides the invocation id generator (for testing).
// The default is UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(d *Dispatcher) {
		d.ids = ids
	}
}

// WithRoutes replaces the routing table. The default is DefaultRoutes().
func WithRoutes(routes []Route) Option {
	return func(d *Dispatcher) {
		d.routes = routes
	}
}

// Dispatcher resolves messages to routes and runs their handlers.
// It is safe for concurrent use; each Dispatch runs independently.
type Dispatcher struct {
	services *Services
	routes   []Route
	logger   *slog.Logger
	metrics  *metrics.Metrics
	ids      IDGenerator

	keywords []keyword
}

type keyword struct {
	tokens []string
	route  int
}

// NewDispatcher builds the dispatcher and its keyword index.
func NewDispatcher(services *Services, opts ...Option) *Dispatcher {
	d := &Dispatcher{services: services}
	for _, opt := range opts {
		opt(d)
	}
	if d.routes == nil {
		d.routes = DefaultRoutes()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.ids == nil {
		d.ids = UUIDv7Generator{}
	}

	for i, route := range d.routes {
		for _, phrase := range route.Keywords {
			d.keywords = append(d.keywords, keyword{
				tokens: strings.Fields(strings.ToLower(phrase)),
				route:  i,
			})
		}
	}
	// Longest phrase first, so the first match is the longest match.
	slices.SortStableFunc(d.keywords, func(a, b keyword) int {
		return len(b.tokens) - len(a.tokens)
	})
	return d
}

// Resolve finds the route for content. It returns the route, the matched
// keyword phrase and the remaining lowercased argument tokens.
func (d *Dispatcher) Resolve(content string) (Route, string, []string, bool) {
	tokens := strings.Fields(strings.ToLower(content))
	for _, kw := range d.keywords {
		if len(tokens) < len(kw.tokens) || !slices.Equal(tokens[:len(kw.tokens)], kw.tokens) {
			continue
		}
		route := d.routes[kw.route]
		args := tokens[len(kw.tokens):]
		if len(args) < route.MinArgs {
			continue
		}
		return route, strings.Join(kw.tokens, " "), args, true
	}
	return Route{}, "", nil, false
}

// Dispatch runs the command in msg. It returns ErrUnknownCommand when no
// route matches. Handler faults are reported to the chat and logged, not
// returned; only a failure to deliver that report is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message, replier Replier) error {
	route, kw, args, ok := d.Resolve(msg.Content)
	if !ok {
		return ErrUnknownCommand
	}

	inv := &Invocation{
		ID:       d.ids.Generate(),
		Message:  msg,
		Keyword:  kw,
		Args:     args,
		Replier:  replier,
		Services: d.services,
	}
	inv.Logger = d.logger.With(
		"invocation", inv.ID,
		"command", route.Name,
		"room", msg.Room,
		"user_id", msg.UserID,
	)

	if route.Privileged && !d.services.IsOwner(msg.UserID) {
		inv.Logger.Warn("privileged command refused")
		d.metrics.Command(route.Name, metrics.OutcomeRefused)
		return inv.Reply(ctx, fmt.Sprintf("You are not privileged to run %s.", pattern.InlineCode(kw)))
	}

	handler := route.New()
	fault := d.guard(ctx, handler, inv)
	if fault == nil {
		d.metrics.Command(route.Name, metrics.OutcomeOK)
		return nil
	}

	d.metrics.Command(route.Name, metrics.OutcomeFault)
	inv.Logger.Error(fmt.Sprintf("%T.Run failed", handler),
		"handler", fmt.Sprintf("%T", handler),
		"args", args,
		"content", msg.Content,
		"error", fault,
	)
	return inv.Reply(ctx, FaultReply(msg.Content, fault))
}

// guard runs the handler, turning a panic into an error.
func (d *Dispatcher) guard(ctx context.Context, handler Handler, inv *Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler.Run(ctx, inv)
}

// FaultReply is the message sent when a command fails unexpectedly.
func FaultReply(content string, fault error) string {
	return fmt.Sprintf("Oops, the %s command encountered a problem: %s.",
		pattern.InlineCode(content), pattern.InlineCode(fault.Error()))
}
