package entity

import (
	"errors"
	"fmt"
)

// ErrContractViolation wraps every panic raised by this package. Violations are
// programmer errors; recover and errors.Is can be used in tests and tooling.
var ErrContractViolation = errors.New("entity contract violation")

var (
	ErrNilComponent      = errors.New("component is nil")
	ErrUntypedComponent  = errors.New("component has no registered type")
	ErrAlreadyAttached   = errors.New("component already attached to a game object")
	ErrComponentNotFound = errors.New("no component of the requested type")
	ErrTransformRemoval  = errors.New("the transform of a game object cannot be removed")
	ErrNilTransform      = errors.New("transform is nil")
	ErrHierarchyCycle    = errors.New("transform cannot become its own ancestor")
	ErrDestroyed         = errors.New("game object is destroyed")
)

func violate(reason error, format string, args ...any) {
	panic(fmt.Errorf("%w: %w: %s", ErrContractViolation, reason, fmt.Sprintf(format, args...)))
}
