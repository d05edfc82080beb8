// Package notify is the notification registry: which subscribers want to be
// mentioned when a post in a room matches one of their patterns.
//
// A Store is opened once at startup with the set of declared rooms and is
// shared by every command handler and feed relay. All operations are safe
// for concurrent use. Mutations are persisted before they return; see
// package registry for the locking and rollback rules.
//
// Rooms are known if they were declared at Open or are present in the
// persisted document. Operations on unknown rooms are no-ops, not errors.
package notify
