package value

import "fmt"

// ErrKind enumerates the property-tree failure modes.
type ErrKind int

const (
	TypeMismatch ErrKind = iota
	OutOfRange
	PathNotFound
	InvalidJSON
)

var errKindNames = [...]string{
	TypeMismatch: "TypeMismatch",
	OutOfRange:   "OutOfRange",
	PathNotFound: "PathNotFound",
	InvalidJSON:  "InvalidJson",
}

func (k ErrKind) String() string { return errKindNames[k] }

type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func newErr(k ErrKind, format string, a ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, a...)}
}

func errTypeMismatch(have Kind, want string) *Error {
	return newErr(TypeMismatch, "cannot read %s value as %s", have, want)
}

func errOutOfRange(v any, target string) *Error {
	return newErr(OutOfRange, "value %v does not fit in %s", v, target)
}
