package directory

import "errors"

var (
	ErrNotFound     = errors.New("directory: user not found")
	ErrConflict     = errors.New("directory: already exists")
	ErrInvalidInput = errors.New("directory: invalid input")
)
