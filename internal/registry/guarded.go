package registry

import (
	"fmt"
	"log/slog"
	"sync"
)

// Backend loads and saves a whole document.
type Backend[T any] interface {
	// Load returns the persisted document. found is false when nothing has
	// been saved yet; doc is then the zero value.
	Load() (doc T, found bool, err error)

	// Save replaces the persisted document with doc.
	Save(doc T) error
}

// WriteObserver is told about every save attempt. err is nil on success.
type WriteObserver func(registry string, err error)

// Option configures a Guarded.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer WriteObserver
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWriteObserver registers a callback invoked after each save attempt.
func WithWriteObserver(observer WriteObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// Guarded holds a document of type T behind a single mutex together with the
// backend it is persisted to.
type Guarded[T any] struct {
	name    string
	backend Backend[T]
	clone   func(T) T
	opts    options

	mu  sync.Mutex
	doc T
}

// Open loads the document from backend and passes it through seed, which
// fills in anything the process expects to exist (for example declared
// rooms). seed receives found=false and the zero document when the backend
// holds nothing yet. The seeded document is not saved until the first
// mutation.
//
// clone must return a deep copy: Update mutates the clone in place.
func Open[T any](name string, backend Backend[T], clone func(T) T, seed func(doc T, found bool) T, opts ...Option) (*Guarded[T], error) {
	doc, found, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("loading %s registry: %w", name, err)
	}

	g := &Guarded[T]{
		name:    name,
		backend: backend,
		clone:   clone,
		doc:     seed(doc, found),
	}
	for _, opt := range opts {
		opt(&g.opts)
	}
	if g.opts.logger == nil {
		g.opts.logger = slog.Default()
	}
	return g, nil
}

// Name returns the registry name given to Open.
func (g *Guarded[T]) Name() string {
	return g.name
}

// Read calls fn with the current document while holding the lock. fn must
// not retain or modify anything reachable from doc.
func (g *Guarded[T]) Read(fn func(doc T)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.doc)
}

// Snapshot returns an independent deep copy of the current document.
func (g *Guarded[T]) Snapshot() T {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clone(g.doc)
}

// Update applies fn to a clone of the document. If fn reports a change, the
// clone is saved and then becomes the current document; the lock is held
// throughout. If fn returns an error or reports no change, nothing is saved
// and the document is unchanged.
//
// A save failure returns a *PersistenceError and the document is unchanged.
func (g *Guarded[T]) Update(fn func(doc *T) (changed bool, err error)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	working := g.clone(g.doc)
	changed, err := fn(&working)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	saveErr := g.backend.Save(working)
	if g.opts.observer != nil {
		g.opts.observer(g.name, saveErr)
	}
	if saveErr != nil {
		g.opts.logger.Error("registry save failed", "registry", g.name, "error", saveErr)
		return &PersistenceError{Registry: g.name, Err: saveErr}
	}

	g.doc = working
	return nil
}
