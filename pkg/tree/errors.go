package tree

import (
	"errors"
)

var (
	ErrNotFound        = errors.New("node not found")
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidPosition = errors.New("invalid position")
	ErrPathOverflow    = errors.New("path overflow")
	ErrCorrupted       = errors.New("corrupted tree")
)
