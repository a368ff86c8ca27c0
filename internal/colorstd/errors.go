package colorstd

import (
	"errors"
	"fmt"
)

// ErrInvalidCode is matched by every *InvalidCodeError.
var ErrInvalidCode = errors.New("invalid color standard code")

// InvalidCodeError reports an integer or name that is not a member of one of
// the H.265 code tables. Values are never clamped to the nearest member.
type InvalidCodeError struct {
	Standard string
	Value    int
	Name     string
}

func (e *InvalidCodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: unknown name %q", e.Standard, e.Name)
	}
	return fmt.Sprintf("%s: %d is not a valid code", e.Standard, e.Value)
}

func (e *InvalidCodeError) Is(target error) bool {
	return target == ErrInvalidCode
}

// PropTypeError reports a colour property that is present but does not hold
// an integer.
type PropTypeError struct {
	Key string
}

func (e *PropTypeError) Error() string {
	return fmt.Sprintf("%s: value is not an integer code", e.Key)
}

func (e *PropTypeError) Is(target error) bool {
	return target == ErrInvalidCode
}
