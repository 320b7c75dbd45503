package relation

import (
	"errors"
	"fmt"
)

// SubjectKind names the entity types that can be liked.
type SubjectKind string

const (
	KindVideo   SubjectKind = "video"
	KindComment SubjectKind = "comment"
	KindTweet   SubjectKind = "tweet"
)

// Valid reports whether k is a known subject kind.
func (k SubjectKind) Valid() bool {
	switch k {
	case KindVideo, KindComment, KindTweet:
		return true
	default:
		return false
	}
}

// Outcome is the state a toggle left the relation in.
type Outcome string

const (
	// Created means the relation exists after the toggle.
	Created Outcome = "created"
	// Removed means the relation is absent after the toggle.
	Removed Outcome = "removed"
)

var (
	// ErrInvalidInput marks validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks toggles against subjects that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrSelfSubscribe is returned when a user tries to subscribe to their
	// own channel.
	ErrSelfSubscribe = errors.New("cannot subscribe to own channel")
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

// IsNotFound reports whether err is a missing-subject failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}
