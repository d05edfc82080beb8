// Package command turns chat messages into registry operations.
//
// A Dispatcher owns a static routing table built once at startup. Each
// Route maps one or more keyword phrases ("notify", "my notifications") to
// a Handler constructor. Incoming content is lowercased and split on
// whitespace; the route whose keyword phrase is the longest token prefix of
// the content wins.
//
// Handlers run inside a guard. A handler error or panic is logged with the
// handler type, its arguments and the fault, and the user gets a single
// reply:
//
//	Oops, the `<content>` command encountered a problem: `<fault>`.
//
// Pattern validation errors never reach the guard; handlers answer them
// directly.
package command
