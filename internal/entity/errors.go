package entity

import "errors"

var (
	// Capsule errors
	ErrCapsuleNotFound    = errors.New("capsule not found")
	ErrDeliveryDateTooFar = errors.New("delivery date cannot be beyond 1 year from now")
	ErrEmptyMessage       = errors.New("message is required")
	ErrInvalidPriority    = errors.New("priority must be between 1 and 5")
	ErrInvalidStatus      = errors.New("invalid capsule status")

	// Batch errors
	ErrBatchRunning = errors.New("batch run already in progress")

	// General errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatabaseError = errors.New("database error")
)
