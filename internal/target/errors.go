package target

import (
	"errors"
	"fmt"
)

// ErrInvariant is the kind of every InvariantError.
var ErrInvariant = errors.New("target sources invariant violated")

// InvariantError reports inputs that cannot form a consistent TargetSources.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return ErrInvariant.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvariant, e.Msg)
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}
