package physics

import "errors"

var (
	ErrNonFinite     = errors.New("physics: non-finite value")
	ErrInvalidRadius = errors.New("physics: radius must be positive")
	ErrInvalidSize   = errors.New("physics: size must be positive")
	ErrInvalidParams = errors.New("physics: invalid params")
)
