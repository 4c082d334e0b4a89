package convert

import (
	"errors"
	"fmt"
)

// ErrInternal marks state-machine violations: out-of-order lifecycle
// transitions or recursion into a type that is mid-create. These indicate
// an importer bug, never bad input.
var ErrInternal = errors.New("internal importer error")

// ErrRefUnresolved marks a foreign reference no resolver could satisfy.
var ErrRefUnresolved = errors.New("unresolved library reference")

// errSkipped is the cause recorded when a type is touched again after an
// earlier failure already abandoned it.
var errSkipped = errors.New("type abandoned after earlier failure")

// TypeError wraps a recoverable per-type failure. The driver catches it,
// reports a warning and moves on to the next top-level type.
type TypeError struct {
	TypeName string
	Err      error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %s: %v", e.TypeName, e.Err)
}

func (e *TypeError) Unwrap() error { return e.Err }

// skipType wraps err so the driver treats the current type as skipped.
func skipType(name string, err error) error {
	var te *TypeError
	if errors.As(err, &te) {
		return err
	}
	return &TypeError{TypeName: name, Err: err}
}

func internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
