// Package store persists pulse registries.
//
// Two documents are stored:
//   - Notifications: room id -> pattern -> ordered subscriber ids, plus
//     subscriber id -> display name.
//   - Tags: an ordered list of tag definitions.
//
// Each document is always written whole. Two backends implement the same
// Load/Save contract:
//
// # JSON files
//
// JSONFile keeps one document per file. The notifications file is a JSON
// array of exactly two elements:
//
//	[ {"<room>": {"<pattern>": ["<subscriber>", ...]}}, {"<subscriber>": "<name>"} ]
//
// Writes go to a temporary file in the same directory which is fsynced and
// renamed over the target, so readers never observe a partial file. Loads
// accept JSON with comments and trailing commas (hand-edited files).
//
// # SQLite
//
// Store keeps both documents in one SQLite database (mattn/go-sqlite3).
// A save replaces the document's rows inside one transaction and bumps a
// per-document revision; the revision row is also how Load tells "never
// saved" apart from "saved empty".
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
