package rtti

import "errors"

var (
	ErrEmptyTypeName = errors.New("type name is empty")
	ErrDuplicateType = errors.New("type already registered")
	ErrForeignType   = errors.New("type belongs to another registry")
)
