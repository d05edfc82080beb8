package pattern

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single match of a compiled pattern.
const MatchTimeout = 100 * time.Millisecond

// Mode selects case sensitivity for Compile.
type Mode int

const (
	// CaseSensitive is used when matching posted text.
	CaseSensitive Mode = iota
	// CaseInsensitive is used when searching stored patterns for removal.
	CaseInsensitive
)

// ErrorCode categorises pattern errors.
type ErrorCode string

// ErrCodeInvalidPattern indicates the source does not compile.
const ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"

// Error is the validation error for a pattern that does not compile.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Pattern is the canonical source that failed to compile.
	Pattern string

	// Reason is the regex engine's message, suitable for showing to users.
	Reason string

	// Err is the underlying engine error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %q: %s", e.Code, e.Pattern, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is (or wraps) a pattern *Error.
func IsValidationError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Reason returns the user-facing regex message carried by a validation
// error, or err.Error() for anything else.
func Reason(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Reason
	}
	return err.Error()
}

// Result is the outcome of Compile: either a compiled expression or the
// reason it could not be compiled.
type Result struct {
	Source string
	Regexp *regexp2.Regexp
	Err    *Error
}

// OK reports whether compilation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Compile compiles an already canonical source string. Python named groups
// are accepted; Result.Source and error messages keep the source as given.
func Compile(source string, mode Mode) Result {
	options := regexp2.None
	if mode == CaseInsensitive {
		options = regexp2.IgnoreCase
	}

	re, err := regexp2.Compile(translatePythonGroups(source), options)
	if err != nil {
		return Result{
			Source: source,
			Err: &Error{
				Code:    ErrCodeInvalidPattern,
				Pattern: source,
				Reason:  err.Error(),
				Err:     err,
			},
		}
	}
	re.MatchTimeout = MatchTimeout
	return Result{Source: source, Regexp: re}
}

// translatePythonGroups rewrites Python's named group (?P<name>...) and
// named backreference (?P=name) into the .NET forms regexp2 accepts:
// (?<name>...) and \k<name>. Escapes and character classes are copied
// unchanged.
func translatePythonGroups(source string) string {
	if !strings.Contains(source, "(?P") {
		return source
	}

	var b strings.Builder
	b.Grow(len(source))
	inClass := false
	for i := 0; i < len(source); i++ {
		c := source[i]
		switch {
		case c == '\\' && i+1 < len(source):
			b.WriteByte(c)
			b.WriteByte(source[i+1])
			i++
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// A ']' right after '[' or '[^' is a literal member.
			if rest := source[i+1:]; strings.HasPrefix(rest, "^]") {
				b.WriteString("[^]")
				i += 2
				continue
			} else if strings.HasPrefix(rest, "]") {
				b.WriteString("[]")
				i++
				continue
			}
		case strings.HasPrefix(source[i:], "(?P<"):
			b.WriteString("(?<")
			i += len("(?P<") - 1
			continue
		case strings.HasPrefix(source[i:], "(?P="):
			if end := strings.IndexByte(source[i:], ')'); end > len("(?P=") {
				b.WriteString(`\k<`)
				b.WriteString(source[i+len("(?P=") : i+end])
				b.WriteByte('>')
				i += end
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Validate normalizes raw and compiles it, returning the canonical source.
// The returned error is always an *Error.
func Validate(raw string, mode Mode) (string, error) {
	canonical := Normalize(raw)
	if result := Compile(canonical, mode); !result.OK() {
		return canonical, result.Err
	}
	return canonical, nil
}
