package cli

import "errors"

// Error constants.
var (
	ErrIncomplete = errors.New("document is incomplete")
	ErrRemote     = errors.New("server request failed")
)
