package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidSnapshot = errors.New("invalid match snapshot")
	ErrDuplicateKey    = errors.New("duplicate key violation")
)
