package utils

import "errors"

var (
	// ErrIndexOutOfRange is returned when a row, column, cell or variable index
	// falls outside the dimensions it addresses.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDuplicateEntry is returned when two triplets address the same (row, col).
	ErrDuplicateEntry = errors.New("duplicate sparse matrix entry")

	// ErrDimensionMismatch is returned by products with incompatible operands.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
