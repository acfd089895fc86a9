package descriptor

// Scope lifecycle policy of a declared component or provider
type Scope int

const (
	Singleton Scope = iota // created once, cached
	Prototype              // created per request, never stored
)

func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Prototype:
		return "prototype"
	default:
		return "unknown"
	}
}

// Marker declarative marker carried by a class or member
type Marker int

const (
	MarkerNone Marker = iota
	MarkerService
	MarkerFactory
	MarkerInject
	MarkerProperty
	MarkerProvider
	MarkerPostInit
)

func (m Marker) String() string {
	switch m {
	case MarkerService:
		return "service"
	case MarkerFactory:
		return "factory"
	case MarkerInject:
		return "inject"
	case MarkerProperty:
		return "property"
	case MarkerProvider:
		return "provider"
	case MarkerPostInit:
		return "post-init"
	default:
		return "none"
	}
}

// Kind declaration shape
type Kind int

const (
	KindClass Kind = iota
	KindConstructor
	KindField
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindConstructor:
		return "constructor"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}
