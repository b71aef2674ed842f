package model

import "errors"

// Sentinel kinds for session mutations. Callers match them with errors.Is.
var (
	ErrRaterIndex = errors.New("rater index out of range")
	ErrSheet      = errors.New("unknown sheet")
	ErrItemIndex  = errors.New("item index out of range")
	ErrScoreRange = errors.New("score out of range")
)
