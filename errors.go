package powertimer

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing client input. It is returned
// before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
