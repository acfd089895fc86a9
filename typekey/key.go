package typekey

import (
	"reflect"
	"strings"
)

// TypeKey is the identity shared by every key kind
type TypeKey interface {
	Desc() TypeDesc
	Discriminator() string
	String() string
}

// BeanTypeKey identity of an injectable value: a type plus optional discriminator
type BeanTypeKey struct {
	Type TypeDesc
	Name string
}

// Bean builds a key for T
func Bean[T any](name ...string) BeanTypeKey {
	return BeanOf(reflect.TypeOf((*T)(nil)).Elem(), name...)
}

// BeanOf builds a key for a live Go type
func BeanOf(t reflect.Type, name ...string) BeanTypeKey {
	return NewBean(Of(t), name...)
}

// NewBean builds a key for a reified descriptor
func NewBean(d TypeDesc, name ...string) BeanTypeKey {
	k := BeanTypeKey{Type: d}
	if len(name) > 0 {
		k.Name = name[0]
	}
	return k
}

func (k BeanTypeKey) Desc() TypeDesc        { return k.Type }
func (k BeanTypeKey) Discriminator() string { return k.Name }

// Equal structural equality: same descriptor, same discriminator
func (k BeanTypeKey) Equal(o BeanTypeKey) bool {
	return k.Name == o.Name && k.Type.Equal(o.Type)
}

// ID canonical identity string, usable as a map key
func (k BeanTypeKey) ID() string {
	if k.Name == "" {
		return k.Type.ID()
	}
	return k.Type.ID() + "#" + k.Name
}

func (k BeanTypeKey) String() string {
	if k.Name == "" {
		return k.Type.String()
	}
	return k.Type.String() + "#" + k.Name
}

// WithType same discriminator, different type
func (k BeanTypeKey) WithType(d TypeDesc) BeanTypeKey {
	return BeanTypeKey{Type: d, Name: k.Name}
}

// PropertyTypeKey identity of an external configuration value; the type is opaque
type PropertyTypeKey struct {
	Name string
}

// Property builds a property key
func Property(name string) PropertyTypeKey {
	return PropertyTypeKey{Name: name}
}

func (k PropertyTypeKey) Desc() TypeDesc        { return TypeDesc{} }
func (k PropertyTypeKey) Discriminator() string { return k.Name }
func (k PropertyTypeKey) String() string        { return "property:" + k.Name }

// HandlerTypeKey identity of a declared handler: marker kind, discriminator
// and ordered parameter signature
type HandlerTypeKey struct {
	Marker string
	Name   string
	Params []TypeDesc
}

func (k HandlerTypeKey) Desc() TypeDesc        { return TypeDesc{} }
func (k HandlerTypeKey) Discriminator() string { return k.Name }

// Equal exact marker, discriminator, arity and parameter descriptors
func (k HandlerTypeKey) Equal(o HandlerTypeKey) bool {
	if k.Marker != o.Marker || k.Name != o.Name || len(k.Params) != len(o.Params) {
		return false
	}
	for i := range k.Params {
		if !k.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}

func (k HandlerTypeKey) String() string {
	params := make([]string, len(k.Params))
	for i, p := range k.Params {
		params[i] = p.String()
	}
	s := k.Marker
	if k.Name != "" {
		s += "#" + k.Name
	}
	return s + "(" + strings.Join(params, ", ") + ")"
}
