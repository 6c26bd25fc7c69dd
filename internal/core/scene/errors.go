package scene

import (
	"errors"
	"fmt"
)

// ErrContractViolation wraps every panic raised by the scene.
var ErrContractViolation = errors.New("scene contract violation")

var (
	ErrNilObject        = errors.New("game object is nil")
	ErrAlreadyInScene   = errors.New("game object already exists in the scene")
	ErrNotInScene       = errors.New("game object is not in the scene")
	ErrDestroyedObject  = errors.New("game object is destroyed")
	ErrReentrantUpdate  = errors.New("scene is updating")
	ErrUnknownComponent = errors.New("no component of this type ever joined the scene")
	ErrMainPassFailed   = errors.New("main pass failed")
)

func violate(reason error, format string, args ...any) {
	panic(fmt.Errorf("%w: %w: %s", ErrContractViolation, reason, fmt.Sprintf(format, args...)))
}
