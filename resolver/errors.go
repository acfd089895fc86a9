package resolver

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode resolver module code
const ModuleCode = 32

const (
	ErrCodeInstantiation         = 1
	ErrCodeUnsupportedConversion = 2
	ErrCodeNoApplicableResolver  = 3
	ErrCodeCycle                 = 4
	ErrCodeInvocation            = 5
)

var (
	// ErrInstantiation a constructor produced no instance or a field could not be set
	ErrInstantiation = errcode.Register(errcode.New(
		ModuleCode, ErrCodeInstantiation,
		"resolver", "error.resolver.instantiation", "instantiation failed",
	))

	// ErrUnsupportedConversion no converter can turn a property into the field type
	ErrUnsupportedConversion = errcode.Register(errcode.New(
		ModuleCode, ErrCodeUnsupportedConversion,
		"resolver", "error.resolver.unsupported_conversion", "unsupported conversion",
	))

	// ErrNoApplicableResolver no registered resolver handles a member shape
	ErrNoApplicableResolver = errcode.Register(errcode.New(
		ModuleCode, ErrCodeNoApplicableResolver,
		"resolver", "error.resolver.no_applicable_resolver", "no applicable resolver",
	))

	// ErrCycle a member is needed while its own creation is in progress
	ErrCycle = errcode.Register(errcode.New(
		ModuleCode, ErrCodeCycle,
		"resolver", "error.resolver.cycle", "dependency cycle",
	))

	// ErrInvocation a constructor, provider or post-init method failed or panicked
	ErrInvocation = errcode.Register(errcode.New(
		ModuleCode, ErrCodeInvocation,
		"resolver", "error.resolver.invocation", "invocation failed",
	))
)
