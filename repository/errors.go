package repository

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode repository module code
const ModuleCode = 31

const (
	ErrCodeNotFound         = 1
	ErrCodeAmbiguous        = 2
	ErrCodeDuplicatePrimary = 3
)

var (
	// ErrNotFound no entry registered for the requested key
	ErrNotFound = errcode.Register(errcode.New(
		ModuleCode, ErrCodeNotFound,
		"repository", "error.repository.not_found", "bean not found",
	))

	// ErrAmbiguous several entries for a key and no unique primary
	ErrAmbiguous = errcode.Register(errcode.New(
		ModuleCode, ErrCodeAmbiguous,
		"repository", "error.repository.ambiguous", "ambiguous bean",
	))

	// ErrDuplicatePrimary a second primary entry for the same key
	ErrDuplicatePrimary = errcode.Register(errcode.New(
		ModuleCode, ErrCodeDuplicatePrimary,
		"repository", "error.repository.duplicate_primary", "duplicate primary bean",
	))
)
