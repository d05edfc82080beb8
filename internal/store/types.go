package store

import (
	"maps"
	"slices"
)

// Notifications is the persisted notification registry.
type Notifications struct {
	// Rooms maps room id -> pattern -> subscriber ids in insertion order.
	Rooms map[string]map[string][]string

	// Names maps subscriber id -> display name.
	Names map[string]string
}

// NewNotifications returns an empty document with non-nil maps.
func NewNotifications() Notifications {
	return Notifications{
		Rooms: make(map[string]map[string][]string),
		Names: make(map[string]string),
	}
}

// Clone returns a deep copy. The copy always has non-nil maps.
func (n Notifications) Clone() Notifications {
	out := Notifications{
		Rooms: make(map[string]map[string][]string, len(n.Rooms)),
		Names: make(map[string]string, len(n.Names)),
	}
	for room, patterns := range n.Rooms {
		copied := make(map[string][]string, len(patterns))
		for pattern, subscribers := range patterns {
			copied[pattern] = slices.Clone(subscribers)
		}
		out.Rooms[room] = copied
	}
	maps.Copy(out.Names, n.Names)
	return out
}

// Tag is one persisted tag definition.
type Tag struct {
	Name     string `json:"name"`
	Regex    string `json:"regex"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Tags is the persisted tag registry, in insertion order.
type Tags []Tag

// Clone returns a copy; Tag holds only values so a shallow copy is deep.
func (t Tags) Clone() Tags {
	if t == nil {
		return Tags{}
	}
	return slices.Clone(t)
}
