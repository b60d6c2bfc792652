package server

import "errors"

// Sentinel errors for task operations.
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrAlreadyCompleted = errors.New("task already completed")
	ErrInvalidInput     = errors.New("invalid input")
)
