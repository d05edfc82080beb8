package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// encodeJSON marshals v without HTML escaping, so patterns containing
// <, > or & are stored as typed.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalJSON encodes the document as the two-element array
// [rooms, names]. Nil maps encode as {}.
func (n Notifications) MarshalJSON() ([]byte, error) {
	rooms := n.Rooms
	if rooms == nil {
		rooms = map[string]map[string][]string{}
	}
	names := n.Names
	if names == nil {
		names = map[string]string{}
	}

	data, err := encodeJSON([2]any{rooms, names})
	if err != nil {
		return nil, fmt.Errorf("marshal notifications: %w", err)
	}
	return data, nil
}

// UnmarshalJSON decodes the two-element array form. Null maps decode as
// empty maps.
func (n *Notifications) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("unmarshal notifications: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("unmarshal notifications: want [rooms, names], got %d elements", len(pair))
	}

	decoded := NewNotifications()
	if err := json.Unmarshal(pair[0], &decoded.Rooms); err != nil {
		return fmt.Errorf("unmarshal notification rooms: %w", err)
	}
	if err := json.Unmarshal(pair[1], &decoded.Names); err != nil {
		return fmt.Errorf("unmarshal notification names: %w", err)
	}

	if decoded.Rooms == nil {
		decoded.Rooms = make(map[string]map[string][]string)
	}
	if decoded.Names == nil {
		decoded.Names = make(map[string]string)
	}
	for room, patterns := range decoded.Rooms {
		if patterns == nil {
			decoded.Rooms[room] = make(map[string][]string)
		}
	}

	*n = decoded
	return nil
}
