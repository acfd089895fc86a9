package typekey

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode typekey module code
const ModuleCode = 30

const (
	ErrCodeInvalidKey = 1
)

var (
	// ErrInvalidKey a key denotes an unresolved type parameter, or a collection
	// key does not carry exactly one type argument
	ErrInvalidKey = errcode.Register(errcode.New(
		ModuleCode, ErrCodeInvalidKey,
		"typekey", "error.typekey.invalid_key", "invalid type key",
	))
)
