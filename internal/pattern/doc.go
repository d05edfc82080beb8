// Package pattern canonicalises user-supplied regular expressions and
// renders the small amount of chat markup that goes with them.
//
// Chat messages arrive as rendered HTML, so a pattern typed as inline code
// reaches the bot wrapped in <code>...</code> with entities escaped.
// Normalize undoes exactly that rendering and nothing else.
//
// Patterns compile with github.com/dlclark/regexp2, a backtracking engine
// that accepts the Perl/Python syntax users actually type (lookaround,
// backreferences). Python's (?P<name>...) and (?P=name) are rewritten to
// the engine's spelling at compile time. Every compiled expression carries a match timeout so a
// pathological pattern cannot stall a relay.
//
// Compile never panics on bad input. It returns a Result that either holds
// the compiled expression or an *Error carrying the engine's message.
package pattern
