package dispatch

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode dispatch module code
const ModuleCode = 34

const (
	ErrCodeDuplicateHandler = 1
	ErrCodeClosed           = 2
)

var (
	// ErrDuplicateHandler a handler with the same marker, name and parameters exists
	ErrDuplicateHandler = errcode.Register(errcode.New(
		ModuleCode, ErrCodeDuplicateHandler,
		"dispatch", "error.dispatch.duplicate_handler", "duplicate handler",
	))

	// ErrClosed the dispatcher no longer accepts async work
	ErrClosed = errcode.Register(errcode.New(
		ModuleCode, ErrCodeClosed,
		"dispatch", "error.dispatch.closed", "dispatcher closed",
	))
)
