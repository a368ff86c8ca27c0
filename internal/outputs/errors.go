package outputs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("output not found")
	ErrSchema            = errors.New("invalid outputs state")
	ErrTypeMismatch      = errors.New("outputs state value has the wrong type")
	ErrMissingCapability = errors.New("missing plugin")
	ErrReentrantMutation = errors.New("list mutated while a mutation is in progress")
	ErrReleased          = errors.New("output source has been released")
)

// NotFoundError is returned by lookups of an item or position that is not
// in the active list.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string        { return fmt.Sprintf("%s: %v", e.What, ErrNotFound) }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SchemaError reports persisted state whose "type" entry is missing, not a
// string, or names another kind of output.
type SchemaError struct {
	Kind   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("storage loading (%s outputs): %s", e.Kind, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// TypeMismatchError names the persisted key whose value is not an output
// of the expected kind, or whose key is not a string.
type TypeMismatchError struct {
	Kind   string
	Key    string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("storage loading (%s outputs): key %s %s", e.Kind, e.Key, e.Reason)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// MissingCapabilityError is returned when a view needs a plugin namespace the
// core does not provide. Hint tells the user where to get it.
type MissingCapabilityError struct {
	Plugin string
	Hint   string
}

func (e *MissingCapabilityError) Error() string {
	msg := fmt.Sprintf("can't change to this view mode: missing the %q plugin", e.Plugin)
	if e.Hint != "" {
		msg += ", get it from " + e.Hint
	}
	return msg
}

func (e *MissingCapabilityError) Is(target error) bool { return target == ErrMissingCapability }
