package famgraph

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failure of the ingest pipeline.
type ErrorKind string

const (
	KindMalformedRow         ErrorKind = "MALFORMED_ROW"
	KindInsufficientInput    ErrorKind = "INSUFFICIENT_INPUT"
	KindTopology             ErrorKind = "TOPOLOGY"
	KindMissingConfiguration ErrorKind = "MISSING_CONFIGURATION"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrMalformedRow         = &Error{Kind: KindMalformedRow}
	ErrInsufficientInput    = &Error{Kind: KindInsufficientInput}
	ErrTopology             = &Error{Kind: KindTopology}
	ErrMissingConfiguration = &Error{Kind: KindMissingConfiguration}
)

// Error is the structured error returned by grouping, building and loading.
// Line is the 1-based sheet row the error refers to, or 0 when no row applies.
type Error struct {
	Kind    ErrorKind
	Line    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Line > 0 {
		fmt.Fprintf(&b, " at row %d", e.Line)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func malformedRow(line int, err error) *Error {
	return &Error{Kind: KindMalformedRow, Line: line, Message: "row does not describe a person", Err: err}
}

func topologyError(line int, format string, args ...any) *Error {
	return &Error{Kind: KindTopology, Line: line, Message: fmt.Sprintf(format, args...)}
}

// NewMissingConfigurationError reports the configuration keys that were not set.
func NewMissingConfigurationError(keys ...string) *Error {
	return &Error{
		Kind:    KindMissingConfiguration,
		Message: "missing " + strings.Join(keys, ", "),
	}
}
