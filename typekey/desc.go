// Package typekey defines the identities the container resolves against.
//
// Every key carries an explicit reified type descriptor (TypeDesc) so matching
// works on plain data: element types of arrays, type arguments of collections
// and unresolved type parameters are all spelled out instead of being
// recovered from reflect at match time.
package typekey

import (
	"reflect"
	"strings"
)

// Kind classifies a TypeDesc
type Kind int

const (
	KindPlain      Kind = iota // ordinary Go type
	KindArray                  // slice or array, Elem set
	KindCollection             // List/Set style collection, Args set
	KindGeneric                // any other parameterized type, Args set
	KindParam                  // unresolved type parameter
)

// String kind name
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindArray:
		return "array"
	case KindCollection:
		return "collection"
	case KindGeneric:
		return "generic"
	case KindParam:
		return "param"
	default:
		return "unknown"
	}
}

// Collection names understood by the container
const (
	List = "List"
	Set  = "Set"
)

// TypeDesc reified type descriptor.
// Equality is structural over Name, Kind, Elem and Args; Type is carried along
// for assignability checks and instantiation only.
type TypeDesc struct {
	Name string
	Kind Kind
	Elem *TypeDesc
	Args []TypeDesc
	Type reflect.Type
}

// Reified is implemented by values that know a richer descriptor than their
// Go runtime type exposes (e.g. instances of generic types).
type Reified interface {
	TypeDescriptor() TypeDesc
}

// Of derives a descriptor from a live Go type. Slices and arrays become
// KindArray; everything else is KindPlain.
func Of(t reflect.Type) TypeDesc {
	if t == nil {
		return TypeDesc{}
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		elem := Of(t.Elem())
		return TypeDesc{Name: "[]" + elem.Name, Kind: KindArray, Elem: &elem, Type: t}
	default:
		return TypeDesc{Name: qualifiedName(t), Kind: KindPlain, Type: t}
	}
}

// For is Of for a type parameter
func For[T any]() TypeDesc {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// OfValue describes the runtime type of v, preferring Reified
func OfValue(v any) TypeDesc {
	if r, ok := v.(Reified); ok {
		return r.TypeDescriptor()
	}
	return Of(reflect.TypeOf(v))
}

// ListOf builds a List collection descriptor materialized as a slice
func ListOf(elem TypeDesc) TypeDesc {
	return CollectionOf(List, elem)
}

// SetOf builds a Set collection descriptor materialized as a slice
func SetOf(elem TypeDesc) TypeDesc {
	return CollectionOf(Set, elem)
}

// CollectionOf builds a collection descriptor. Only single-argument
// collections can be resolved; others fail with ErrInvalidKey on use.
func CollectionOf(name string, args ...TypeDesc) TypeDesc {
	d := TypeDesc{Name: name, Kind: KindCollection, Args: args}
	if len(args) == 1 && args[0].Type != nil {
		d.Type = reflect.SliceOf(args[0].Type)
	}
	return d
}

// GenericOf builds a parameterized, non-collection descriptor
func GenericOf(name string, args ...TypeDesc) TypeDesc {
	return TypeDesc{Name: name, Kind: KindGeneric, Args: args}
}

// ParamOf builds an unresolved type parameter
func ParamOf(name string) TypeDesc {
	return TypeDesc{Name: name, Kind: KindParam}
}

// IsZero reports an empty descriptor
func (d TypeDesc) IsZero() bool {
	return d.Name == "" && d.Kind == KindPlain && d.Type == nil
}

// Equal structural equality
func (d TypeDesc) Equal(o TypeDesc) bool {
	return d.ID() == o.ID()
}

// Unresolved reports whether d or any nested descriptor is a type parameter
func (d TypeDesc) Unresolved() bool {
	if d.Kind == KindParam {
		return true
	}
	if d.Elem != nil && d.Elem.Unresolved() {
		return true
	}
	for _, a := range d.Args {
		if a.Unresolved() {
			return true
		}
	}
	return false
}

// ID canonical identity string; two descriptors are equal iff IDs are equal
func (d TypeDesc) ID() string {
	var b strings.Builder
	d.writeID(&b)
	return b.String()
}

func (d TypeDesc) writeID(b *strings.Builder) {
	switch d.Kind {
	case KindArray:
		b.WriteString("[]")
		if d.Elem != nil {
			d.Elem.writeID(b)
		}
	case KindCollection, KindGeneric:
		if d.Kind == KindCollection {
			b.WriteByte('~')
		} else {
			b.WriteByte('^')
		}
		b.WriteString(d.Name)
		b.WriteByte('<')
		for i, a := range d.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.writeID(b)
		}
		b.WriteByte('>')
	case KindParam:
		b.WriteByte('$')
		b.WriteString(d.Name)
	default:
		b.WriteString(d.Name)
	}
}

// String human readable form
func (d TypeDesc) String() string {
	switch d.Kind {
	case KindArray:
		if d.Elem == nil {
			return "[]?"
		}
		return "[]" + d.Elem.String()
	case KindCollection, KindGeneric:
		args := make([]string, len(d.Args))
		for i, a := range d.Args {
			args[i] = a.String()
		}
		return d.Name + "[" + strings.Join(args, ", ") + "]"
	default:
		if d.Name == "" {
			return "<nil>"
		}
		return d.Name
	}
}

// qualifiedName pkgpath-qualified name so equally named types from
// different packages stay distinct
func qualifiedName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer && t.Name() == "" {
		return "*" + qualifiedName(t.Elem())
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
