package mines

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid board configuration")
	ErrOutOfBounds          = errors.New("coordinates out of bounds")
	ErrUnknownDifficulty    = errors.New("unknown difficulty")
	ErrCorruptState         = errors.New("corrupt board state")
)
