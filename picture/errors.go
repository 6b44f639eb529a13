package picture

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the stream-error taxonomy of spec.md §4.8/§7.
type Kind uint8

const (
	// KindInvariantViolated covers duplicate reorder slots, dependent_count
	// underflow, unknown GOP hierarchical_levels, and similar internal
	// sentinel violations. Fatal.
	KindInvariantViolated Kind = iota

	// KindResourceExhausted covers a saturated PA reference queue or a
	// buffer-pool acquire that exceeds its bounded wait. Fatal.
	KindResourceExhausted

	// KindInputViolated covers picture numbers delivered out of admission
	// order, a duplicated EOS flag, or a histogram region-count mismatch.
	// Fatal.
	KindInputViolated

	// KindTransient means the reorder window is not yet complete; never
	// surfaced to a caller, only used internally to decide to park and
	// retry on the next picture.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvariantViolated:
		return "InvariantViolated"
	case KindResourceExhausted:
		return "ResourceExhausted"
	case KindInputViolated:
		return "InputViolated"
	case KindTransient:
		return "Transient"
	default:
		return "Unknown"
	}
}

// Error is a typed stream error carrying a Kind alongside the usual message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

// Fatal reports whether the error must abort the stream (spec.md §4.8: all
// kinds but Transient are fatal).
func (e *Error) Fatal() bool { return e.Kind != KindTransient }

// NewError constructs a *Error, formatting Msg like fmt.Sprintf.
func NewError(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches call-site context to err via github.com/pkg/errors while
// preserving the original *Error for errors.As-style inspection, mirroring
// how codec/h264/h264dec wraps parse failures.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}

// AsKind reports whether err wraps a *Error and returns its Kind.
func AsKind(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}
