package service

import "errors"

// Sentinel kinds returned by Service. Document parse failures are returned
// as *document.ParseError.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionNotFound = errors.New("session not found")
	ErrImportTooLarge  = errors.New("document too large")
)
