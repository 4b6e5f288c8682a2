package repository

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate resource")
	ErrInvalidInput      = errors.New("invalid input data")
	ErrInsufficientStock = errors.New("not enough stock available")
	ErrConflict          = errors.New("resource was modified concurrently")
)
