package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestJSONFile_LoadMissing(t *testing.T) {
	f := NewJSONFile[Notifications](filepath.Join(t.TempDir(), "notifications.json"))

	doc, found, err := f.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if found {
		t.Error("found = true for missing file")
	}
	if doc.Rooms != nil || doc.Names != nil {
		t.Errorf("expected zero document, got %#v", doc)
	}
}

func TestJSONFile_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	f := NewJSONFile[Notifications](path)
	if f.Path() != path {
		t.Errorf("Path() = %q, want %q", f.Path(), path)
	}

	doc := sampleNotifications()
	if err := f.Save(doc); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, found, err := f.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !found {
		t.Fatal("found = false after Save")
	}
	if !reflect.DeepEqual(doc, loaded) {
		t.Errorf("loaded mismatch:\n got %#v\nwant %#v", loaded, doc)
	}

	// The file is a plain two-element JSON array.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON array: %v", err)
	}
	if len(raw) != 2 {
		t.Errorf("file has %d elements, want 2", len(raw))
	}
}

func TestJSONFile_SaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONFile[Notifications](filepath.Join(dir, "notifications.json"))

	for i := 0; i < 3; i++ {
		if err := f.Save(sampleNotifications()); err != nil {
			t.Fatalf("Save() %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "notifications.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contains %v, want only notifications.json", names)
	}
}

func TestJSONFile_SaveIntoMissingDirectoryFails(t *testing.T) {
	f := NewJSONFile[Tags](filepath.Join(t.TempDir(), "missing", "tags.json"))
	if err := f.Save(Tags{}); err == nil {
		t.Error("Save() into missing directory succeeded, want error")
	}
}

func TestJSONFile_LoadToleratesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifications.json")
	content := `[
		// rooms
		{"17": {"pattern": ["13", "13",],},},
		{"13": "Graham Chapman"}, /* names */
	]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	doc, found, err := NewJSONFile[Notifications](path).Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !found {
		t.Fatal("found = false")
	}
	if got := doc.Rooms["17"]["pattern"]; !reflect.DeepEqual(got, []string{"13", "13"}) {
		t.Errorf("subscribers = %v, want duplicates preserved", got)
	}
}

func TestJSONFile_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, _, err := NewJSONFile[Tags](path).Load(); err == nil {
		t.Error("Load() of corrupt file succeeded, want error")
	}
}

func TestJSONFile_Tags(t *testing.T) {
	f := NewJSONFile[Tags](filepath.Join(t.TempDir(), "tags.json"))
	tags := Tags{
		{Name: "spam", Regex: "buy now", UserID: "13", UserName: "Graham Chapman"},
		{Name: "ham", Regex: "(?i)ham", UserID: "23", UserName: "Terry Gilliam"},
	}
	if err := f.Save(tags); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	loaded, found, err := f.Load()
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v", found, err)
	}
	if !reflect.DeepEqual(tags, loaded) {
		t.Errorf("loaded = %#v, want %#v", loaded, tags)
	}
}
