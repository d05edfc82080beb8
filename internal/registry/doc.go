// Package registry provides Guarded, the concurrency-safe holder shared by
// every persisted registry in pulse (notifications and tags).
//
// A Guarded value owns one in-memory document and the Backend it is
// persisted to. A single mutex guards both:
//
//   - Reads run a caller-supplied function under the lock. The function
//     copies what it needs and returns; matching and formatting happen after
//     the lock is released.
//   - Updates apply the mutation to a private clone of the document, save the
//     clone while still holding the lock, and only then publish it. The file
//     on disk therefore always equals the in-memory state at the moment of
//     the write, and a failed save leaves the in-memory state untouched.
//
// The lock is deliberately coarse: every registry operation is short and the
// call volume is that of a chat room.
package registry
