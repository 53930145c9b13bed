package transform

import (
	"errors"
	"fmt"
)

// LookupMissError is returned when a reference lookup has no entry for a key.
// It is fatal for the invocation that raised it.
type LookupMissError struct {
	Lookup string
	Key    string
}

func (e *LookupMissError) Error() string {
	return fmt.Sprintf("Error: no %v found for %q", e.Lookup, e.Key)
}

// IsLookupMiss returns true if err wraps a LookupMissError.
func IsLookupMiss(err error) bool {
	var e *LookupMissError
	return errors.As(err, &e)
}
