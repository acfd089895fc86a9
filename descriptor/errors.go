package descriptor

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode descriptor module code
const ModuleCode = 33

const (
	ErrCodeInvalidDeclaration = 1
)

var (
	// ErrInvalidDeclaration a component declaration cannot be turned into descriptors
	ErrInvalidDeclaration = errcode.Register(errcode.New(
		ModuleCode, ErrCodeInvalidDeclaration,
		"descriptor", "error.descriptor.invalid_declaration", "invalid component declaration",
	))
)
