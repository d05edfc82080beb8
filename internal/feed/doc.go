// Package feed relays external websocket feeds into chat rooms.
//
// A Listener keeps one websocket connection open, redialing after a delay
// whenever it drops, and hands every frame to a handler. A Formatter turns
// a frame into chat text (or drops it). The Relay runs that text through
// the tag and notification filters for each target room and sends the
// result; it never touches registry state itself.
package feed
