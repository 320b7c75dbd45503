package content

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks lookups for entities that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks duplicate writes, e.g. adding a video to a playlist
	// twice.
	ErrConflict = errors.New("conflict")
)

// OpError wraps a sentinel kind with the failing operation.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Op, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsConflict reports whether err is a duplicate-write failure.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}
