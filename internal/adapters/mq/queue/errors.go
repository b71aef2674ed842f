package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrQueueFull   = errors.New("autosave queue full")
	ErrQueueClosed = errors.New("autosave queue closed")
)
