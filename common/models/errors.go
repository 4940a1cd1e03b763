package models

import "errors"

// Store-level sentinels shared by every repository implementation
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)
