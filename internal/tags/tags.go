// Package tags is the tag registry. A tag prefixes every relayed post that
// its regex matches with "[tag:<name>]".
//
// It shares the notification registry's locking and persistence rules
// through registry.Guarded.
package tags

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/pattern"
	"github.com/roach88/pulse/internal/registry"
	"github.com/roach88/pulse/internal/store"
)

// RegistryName identifies the tag registry in logs and metrics.
const RegistryName = "tags"

// Tag is one tag definition.
type Tag = store.Tag

// Format returns the chat markup for a tag name.
func Format(name string) string {
	return "[tag:" + name + "]"
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics records registry writes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store is the tag registry.
type Store struct {
	reg     *registry.Guarded[store.Tags]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Open loads the tag registry from backend.
func Open(backend registry.Backend[store.Tags], opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	seed := func(doc store.Tags, _ bool) store.Tags {
		return doc.Clone()
	}
	reg, err := registry.Open(RegistryName, backend, store.Tags.Clone, seed,
		registry.WithLogger(s.logger),
		registry.WithWriteObserver(s.metrics.RegistryWrite),
	)
	if err != nil {
		return nil, err
	}
	s.reg = reg
	return s, nil
}

// Add defines a new tag. rawRegex is normalized and must compile,
// otherwise a *pattern.Error is returned. Add returns false when a tag with
// the same name already exists.
func (s *Store) Add(name, rawRegex, userID, userName string) (bool, error) {
	canonical, err := pattern.Validate(rawRegex, pattern.CaseSensitive)
	if err != nil {
		return false, err
	}

	added := false
	err = s.reg.Update(func(doc *store.Tags) (bool, error) {
		if slices.ContainsFunc(*doc, func(t Tag) bool { return t.Name == name }) {
			return false, nil
		}
		*doc = append(*doc, Tag{
			Name:     name,
			Regex:    canonical,
			UserID:   userID,
			UserName: userName,
		})
		added = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// Remove deletes the tag with the given name. Names are case-sensitive.
func (s *Store) Remove(name string) (bool, error) {
	removed := false
	err := s.reg.Update(func(doc *store.Tags) (bool, error) {
		i := slices.IndexFunc(*doc, func(t Tag) bool { return t.Name == name })
		if i < 0 {
			return false, nil
		}
		*doc = slices.Delete(*doc, i, i+1)
		removed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// List returns the tags in the order they were added.
func (s *Store) List() []Tag {
	return s.reg.Snapshot()
}

// FilterPost prefixes text with the format of every tag whose regex matches
// it, in tag order. Text is returned unchanged when nothing matches.
func (s *Store) FilterPost(text string) string {
	var formats []string
	for _, tag := range s.List() {
		compiled := pattern.Compile(tag.Regex, pattern.CaseSensitive)
		if !compiled.OK() {
			s.logger.Warn("stored tag regex does not compile",
				"tag", tag.Name,
				"regex", tag.Regex,
				"error", compiled.Err.Reason,
			)
			continue
		}
		ok, err := compiled.Regexp.MatchString(text)
		if err != nil {
			s.logger.Warn("tag match failed", "tag", tag.Name, "error", err)
			continue
		}
		if ok {
			formats = append(formats, Format(tag.Name))
		}
	}

	if len(formats) == 0 {
		return text
	}
	return strings.Join(formats, " ") + " " + text
}
