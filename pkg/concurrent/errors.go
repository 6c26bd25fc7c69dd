package concurrent

import "errors"

var ErrPanicked = errors.New("concurrent action panicked")
