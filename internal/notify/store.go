package notify

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/pulse/internal/metrics"
	"github.com/roach88/pulse/internal/pattern"
	"github.com/roach88/pulse/internal/registry"
	"github.com/roach88/pulse/internal/store"
)

// RegistryName identifies the notification registry in logs and metrics.
const RegistryName = "notifications"

// RoomID identifies a chat room. Numeric ids are kept in their decimal
// string form.
type RoomID string

// Entry is one (room, pattern, subscriber) subscription.
type Entry struct {
	Room         RoomID `json:"room"`
	Pattern      string `json:"pattern"`
	SubscriberID string `json:"user_id"`
	DisplayName  string `json:"user_name"`
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics records registry writes and mentions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store is the notification registry.
type Store struct {
	reg     *registry.Guarded[store.Notifications]
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Open loads the registry from backend and seeds every declared room that
// the persisted document does not have yet. Nothing is written until the
// first mutation.
func Open(rooms []RoomID, backend registry.Backend[store.Notifications], opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	seed := func(doc store.Notifications, found bool) store.Notifications {
		if !found || doc.Rooms == nil || doc.Names == nil {
			doc = doc.Clone()
		}
		for _, room := range rooms {
			if _, ok := doc.Rooms[string(room)]; !ok {
				doc.Rooms[string(room)] = make(map[string][]string)
			}
		}
		return doc
	}

	reg, err := registry.Open(RegistryName, backend, store.Notifications.Clone, seed,
		registry.WithLogger(s.logger),
		registry.WithWriteObserver(s.metrics.RegistryWrite),
	)
	if err != nil {
		return nil, err
	}
	s.reg = reg
	return s, nil
}

// Add subscribes subscriberID to rawPattern in room.
//
// The pattern is normalized and must compile, otherwise a *pattern.Error is
// returned and nothing changes. An unknown room returns (false, nil).
// Otherwise the display name is upserted and Add reports whether the
// subscriber was newly added to the pattern.
func (s *Store) Add(room RoomID, rawPattern, subscriberID, displayName string) (bool, error) {
	canonical, err := pattern.Validate(rawPattern, pattern.CaseSensitive)
	if err != nil {
		return false, err
	}

	added := false
	err = s.reg.Update(func(doc *store.Notifications) (bool, error) {
		patterns, ok := doc.Rooms[string(room)]
		if !ok {
			return false, nil
		}

		changed := false
		if !slices.Contains(patterns[canonical], subscriberID) {
			patterns[canonical] = append(patterns[canonical], subscriberID)
			added = true
			changed = true
		}
		if name, ok := doc.Names[subscriberID]; !ok || name != displayName {
			doc.Names[subscriberID] = displayName
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// List yields subscriptions from a snapshot taken when List is called.
// A nil room or subscriber matches all. Entries are ordered by room, then
// pattern, then subscriber insertion order. The sequence can be iterated
// any number of times and never holds the registry lock.
func (s *Store) List(room *RoomID, subscriber *string) iter.Seq[Entry] {
	var entries []Entry
	s.reg.Read(func(doc store.Notifications) {
		for _, roomID := range slices.Sorted(maps.Keys(doc.Rooms)) {
			if room != nil && string(*room) != roomID {
				continue
			}
			patterns := doc.Rooms[roomID]
			for _, p := range slices.Sorted(maps.Keys(patterns)) {
				for _, id := range patterns[p] {
					if subscriber != nil && *subscriber != id {
						continue
					}
					entries = append(entries, Entry{
						Room:         RoomID(roomID),
						Pattern:      p,
						SubscriberID: id,
						DisplayName:  displayName(doc.Names, id),
					})
				}
			}
		}
	})
	return slices.Values(entries)
}

// RemoveMatching removes subscriberID from every pattern in room that
// either equals expr exactly or is matched by expr searched
// case-insensitively. expr is normalized first and must compile, otherwise
// a *pattern.Error is returned and nothing changes.
//
// The removed patterns are returned sorted. Nothing is written when nothing
// was removed.
func (s *Store) RemoveMatching(room RoomID, expr, subscriberID string) ([]string, error) {
	canonical := pattern.Normalize(expr)
	search := pattern.Compile(canonical, pattern.CaseInsensitive)
	if !search.OK() {
		return nil, search.Err
	}

	var removed []string
	err := s.reg.Update(func(doc *store.Notifications) (bool, error) {
		removed = nil
		patterns := doc.Rooms[string(room)]
		for _, p := range slices.Sorted(maps.Keys(patterns)) {
			if !slices.Contains(patterns[p], subscriberID) {
				continue
			}
			if p == canonical || s.matches(search, p) {
				removed = append(removed, p)
			}
		}

		for _, p := range removed {
			remaining := slices.DeleteFunc(patterns[p], func(id string) bool {
				return id == subscriberID
			})
			if len(remaining) == 0 {
				delete(patterns, p)
			} else {
				patterns[p] = remaining
			}
		}
		return len(removed) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// FilterPost appends the mentions of every subscriber whose pattern in room
// matches text. Text is returned unchanged when nothing matches.
func (s *Store) FilterPost(room RoomID, text string) string {
	type subscription struct {
		pattern     string
		subscribers []string
	}

	var subscriptions []subscription
	mentions := make(map[string]string)
	s.reg.Read(func(doc store.Notifications) {
		for p, ids := range doc.Rooms[string(room)] {
			subscriptions = append(subscriptions, subscription{p, slices.Clone(ids)})
			for _, id := range ids {
				if _, ok := mentions[id]; !ok {
					mentions[id] = pattern.Mention(displayName(doc.Names, id))
				}
			}
		}
	})

	notify := make(map[string]struct{})
	for _, sub := range subscriptions {
		compiled := pattern.Compile(sub.pattern, pattern.CaseSensitive)
		if !compiled.OK() {
			s.logger.Warn("stored pattern does not compile",
				"room", room,
				"pattern", sub.pattern,
				"error", compiled.Err.Reason,
			)
			continue
		}
		if s.matches(compiled, text) {
			for _, id := range sub.subscribers {
				notify[id] = struct{}{}
			}
		}
	}

	if len(notify) == 0 {
		return text
	}

	names := make([]string, 0, len(notify))
	for id := range notify {
		names = append(names, mentions[id])
	}
	slices.Sort(names)
	s.metrics.Mentions(len(names))

	return text + " " + strings.Join(names, " ")
}

// matches reports whether the compiled pattern is found in text. A match
// that exceeds pattern.MatchTimeout counts as no match.
func (s *Store) matches(compiled pattern.Result, text string) bool {
	ok, err := compiled.Regexp.MatchString(text)
	if err != nil {
		s.logger.Warn("pattern match failed",
			"pattern", compiled.Source,
			"error", err,
		)
		return false
	}
	return ok
}

// displayName falls back to the id for subscribers missing from the name
// table, which only happens with hand-edited files.
func displayName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}
