package store

import (
	"database/sql"
	"fmt"
	"maps"
	"slices"
)

// NotificationsTable stores the notifications document in SQLite.
type NotificationsTable struct {
	db *sql.DB
}

// Load reads the document. found is false if it has never been saved.
// Subscriber order within a pattern is preserved.
func (t *NotificationsTable) Load() (Notifications, bool, error) {
	doc := NewNotifications()

	_, found, err := readRevision(t.db, notificationsDocument)
	if err != nil || !found {
		return doc, false, err
	}

	rooms, err := t.db.Query(`SELECT id FROM rooms ORDER BY id`)
	if err != nil {
		return doc, false, fmt.Errorf("query rooms: %w", err)
	}
	defer rooms.Close()
	for rooms.Next() {
		var id string
		if err := rooms.Scan(&id); err != nil {
			return doc, false, fmt.Errorf("scan room: %w", err)
		}
		doc.Rooms[id] = make(map[string][]string)
	}
	if err := rooms.Err(); err != nil {
		return doc, false, fmt.Errorf("iterate rooms: %w", err)
	}

	subscriptions, err := t.db.Query(`
		SELECT room, pattern, subscriber
		FROM subscriptions
		ORDER BY room, pattern, position
	`)
	if err != nil {
		return doc, false, fmt.Errorf("query subscriptions: %w", err)
	}
	defer subscriptions.Close()
	for subscriptions.Next() {
		var room, pattern, subscriber string
		if err := subscriptions.Scan(&room, &pattern, &subscriber); err != nil {
			return doc, false, fmt.Errorf("scan subscription: %w", err)
		}
		doc.Rooms[room][pattern] = append(doc.Rooms[room][pattern], subscriber)
	}
	if err := subscriptions.Err(); err != nil {
		return doc, false, fmt.Errorf("iterate subscriptions: %w", err)
	}

	names, err := t.db.Query(`SELECT id, name FROM subscribers`)
	if err != nil {
		return doc, false, fmt.Errorf("query subscribers: %w", err)
	}
	defer names.Close()
	for names.Next() {
		var id, name string
		if err := names.Scan(&id, &name); err != nil {
			return doc, false, fmt.Errorf("scan subscriber: %w", err)
		}
		doc.Names[id] = name
	}
	if err := names.Err(); err != nil {
		return doc, false, fmt.Errorf("iterate subscribers: %w", err)
	}

	return doc, true, nil
}

// Save replaces the stored document with doc in a single transaction.
func (t *NotificationsTable) Save(doc Notifications) (err error) {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("begin notifications save: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM subscriptions`,
		`DELETE FROM rooms`,
		`DELETE FROM subscribers`,
	} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("clear notifications: %w", err)
		}
	}

	for _, room := range slices.Sorted(maps.Keys(doc.Rooms)) {
		if _, err = tx.Exec(`INSERT INTO rooms (id) VALUES (?)`, room); err != nil {
			return fmt.Errorf("insert room %s: %w", room, err)
		}
		patterns := doc.Rooms[room]
		for _, pattern := range slices.Sorted(maps.Keys(patterns)) {
			for position, subscriber := range patterns[pattern] {
				_, err = tx.Exec(`
					INSERT INTO subscriptions (room, pattern, position, subscriber)
					VALUES (?, ?, ?, ?)
				`, room, pattern, position, subscriber)
				if err != nil {
					return fmt.Errorf("insert subscription %s/%q: %w", room, pattern, err)
				}
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(doc.Names)) {
		if _, err = tx.Exec(`INSERT INTO subscribers (id, name) VALUES (?, ?)`, id, doc.Names[id]); err != nil {
			return fmt.Errorf("insert subscriber %s: %w", id, err)
		}
	}

	if err = bumpRevision(tx, notificationsDocument); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications save: %w", err)
	}
	return nil
}

// TagsTable stores the tags document in SQLite.
type TagsTable struct {
	db *sql.DB
}

// Load reads the tags in insertion order. found is false if they have never
// been saved.
func (t *TagsTable) Load() (Tags, bool, error) {
	_, found, err := readRevision(t.db, tagsDocument)
	if err != nil || !found {
		return nil, false, err
	}

	rows, err := t.db.Query(`
		SELECT name, regex, user_id, user_name
		FROM tags
		ORDER BY position
	`)
	if err != nil {
		return nil, false, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	tags := Tags{}
	for rows.Next() {
		var tag Tag
		if err := rows.Scan(&tag.Name, &tag.Regex, &tag.UserID, &tag.UserName); err != nil {
			return nil, false, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tags: %w", err)
	}
	return tags, true, nil
}

// Save replaces the stored tags with tags in a single transaction.
func (t *TagsTable) Save(tags Tags) (err error) {
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tags save: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM tags`); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for position, tag := range tags {
		_, err = tx.Exec(`
			INSERT INTO tags (position, name, regex, user_id, user_name)
			VALUES (?, ?, ?, ?, ?)
		`, position, tag.Name, tag.Regex, tag.UserID, tag.UserName)
		if err != nil {
			return fmt.Errorf("insert tag %q: %w", tag.Name, err)
		}
	}

	if err = bumpRevision(tx, tagsDocument); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tags save: %w", err)
	}
	return nil
}
