package namespace

import (
	"errors"
	"fmt"
)

// ErrKind classifies registry errors so callers can branch on intent rather than text.
type ErrKind int

const (
	KindNoNamespace ErrKind = iota // registry torn down or never populated
	KindNotFound                   // name or handle does not resolve
	KindOutOfRange                 // handle slot beyond the bucket's current size
	KindScan                       // malformed text at the current position
	KindEndOfStream                // ran out of characters
	KindGrowth                     // entry storage could not be extended
	KindType                       // value does not fit the entry's type tag
	KindInvalid                    // rejected argument (bad name, alias chain, bad pattern)
)

var kindNames = [...]string{
	KindNoNamespace: "no namespace",
	KindNotFound:    "not found",
	KindOutOfRange:  "out of range",
	KindScan:        "scan error",
	KindEndOfStream: "end of stream",
	KindGrowth:      "growth failure",
	KindType:        "type mismatch",
	KindInvalid:     "invalid",
}

func (k ErrKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a typed registry error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "namespace: " + e.Msg
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works for errors carrying a more specific message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels, one per kind.
var (
	ErrNoNamespace = &Error{Kind: KindNoNamespace, Msg: "registry not initialised"}
	ErrNotFound    = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrOutOfRange  = &Error{Kind: KindOutOfRange, Msg: "handle out of range"}
	ErrScan        = &Error{Kind: KindScan, Msg: "scan error"}
	ErrEndOfStream = &Error{Kind: KindEndOfStream, Msg: "end of stream"}
	ErrGrowth      = &Error{Kind: KindGrowth, Msg: "entry storage exhausted"}
	ErrType        = &Error{Kind: KindType, Msg: "type mismatch"}
	ErrInvalid     = &Error{Kind: KindInvalid, Msg: "invalid argument"}
)

func errorf(kind ErrKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a registry error. ok is false for foreign errors.
func KindOf(err error) (kind ErrKind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
