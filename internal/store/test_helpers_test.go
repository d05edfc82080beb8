package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new SQLite store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// sampleNotifications returns a document with two rooms, one of them empty,
// and a shared pattern.
func sampleNotifications() Notifications {
	doc := NewNotifications()
	doc.Rooms["17"] = map[string][]string{
		"foo .* bar":   {"13", "23"},
		"foo spam bar": {"23"},
	}
	doc.Rooms["42"] = map[string][]string{}
	doc.Names["13"] = "Graham Chapman"
	doc.Names["23"] = "Terry Gilliam"
	return doc
}
