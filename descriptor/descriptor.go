// Package descriptor holds the structural metadata of declared components.
//
// A ClassDescriptor is built once from a declaration (see Builder) and is
// immutable afterwards. Its constructor, fields and methods are Members: each
// reports what it contributes to the bean graph and what it needs from it.
package descriptor

import (
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Member a constructor, field or method of a declared component
type Member interface {
	Kind() Kind
	Marker() Marker
	Scope() Scope
	Owner() *ClassDescriptor

	// Provides keys this member contributes to the graph
	Provides() []typekey.BeanTypeKey

	// Dependencies bean keys this member needs
	Dependencies() []typekey.BeanTypeKey

	// PropertyDependencies configuration values this member needs
	PropertyDependencies() []typekey.PropertyTypeKey

	String() string
}

// ClassDescriptor a declared component
type ClassDescriptor struct {
	Type        reflect.Type // always a pointer to struct
	Marker      Marker       // MarkerService or MarkerFactory
	Scope       Scope
	Name        string
	Primary     bool
	As          []typekey.TypeDesc
	Constructor *ConstructorDescriptor
	Fields      []*FieldDescriptor
	Methods     []*MethodDescriptor
	Handlers    []*HandlerDescriptor
}

// Key the key the component is registered under
func (c *ClassDescriptor) Key() typekey.BeanTypeKey {
	return typekey.BeanOf(c.Type, c.Name)
}

// Keys the class key followed by its As keys
func (c *ClassDescriptor) Keys() []typekey.BeanTypeKey {
	keys := []typekey.BeanTypeKey{c.Key()}
	for _, as := range c.As {
		keys = append(keys, typekey.NewBean(as, c.Name))
	}
	return keys
}

// Members constructor, fields and methods in declaration order
func (c *ClassDescriptor) Members() []Member {
	members := make([]Member, 0, 1+len(c.Fields)+len(c.Methods))
	members = append(members, c.Constructor)
	for _, f := range c.Fields {
		members = append(members, f)
	}
	for _, m := range c.Methods {
		members = append(members, m)
	}
	return members
}

func (c *ClassDescriptor) String() string {
	return c.Key().String()
}

// ConstructorDescriptor how an instance of the owning class is created.
// Without a constructor function the zero value is allocated.
type ConstructorDescriptor struct {
	owner  *ClassDescriptor
	fn     reflect.Value
	params []typekey.BeanTypeKey
	errIdx int
}

func (c *ConstructorDescriptor) Kind() Kind              { return KindConstructor }
func (c *ConstructorDescriptor) Marker() Marker          { return c.owner.Marker }
func (c *ConstructorDescriptor) Scope() Scope            { return c.owner.Scope }
func (c *ConstructorDescriptor) Owner() *ClassDescriptor { return c.owner }
func (c *ConstructorDescriptor) Provides() []typekey.BeanTypeKey {
	return c.owner.Keys()
}
func (c *ConstructorDescriptor) Dependencies() []typekey.BeanTypeKey {
	return append([]typekey.BeanTypeKey(nil), c.params...)
}
func (c *ConstructorDescriptor) PropertyDependencies() []typekey.PropertyTypeKey { return nil }

func (c *ConstructorDescriptor) String() string {
	return c.owner.String() + ".<init>"
}

// Call runs the constructor with already resolved arguments
func (c *ConstructorDescriptor) Call(args []reflect.Value) (reflect.Value, error) {
	if !c.fn.IsValid() {
		return reflect.New(c.owner.Type.Elem()), nil
	}
	return invoke(c.fn, args, c.errIdx)
}

// FieldDescriptor a tagged struct field
type FieldDescriptor struct {
	owner      *ClassDescriptor
	marker     Marker
	Name       string
	Index      []int
	Type       reflect.Type
	Key        typekey.BeanTypeKey // inject fields
	Optional   bool
	Property   string // property fields
	Default    string
	HasDefault bool
}

func (f *FieldDescriptor) Kind() Kind              { return KindField }
func (f *FieldDescriptor) Marker() Marker          { return f.marker }
func (f *FieldDescriptor) Scope() Scope            { return f.owner.Scope }
func (f *FieldDescriptor) Owner() *ClassDescriptor { return f.owner }
func (f *FieldDescriptor) Provides() []typekey.BeanTypeKey {
	return nil
}

// Dependencies the injected key, then the owning instance
func (f *FieldDescriptor) Dependencies() []typekey.BeanTypeKey {
	if f.marker == MarkerInject {
		return []typekey.BeanTypeKey{f.Key, f.owner.Key()}
	}
	return []typekey.BeanTypeKey{f.owner.Key()}
}

func (f *FieldDescriptor) PropertyDependencies() []typekey.PropertyTypeKey {
	if f.marker == MarkerProperty {
		return []typekey.PropertyTypeKey{typekey.Property(f.Property)}
	}
	return nil
}

func (f *FieldDescriptor) String() string {
	return f.owner.String() + "." + f.Name
}

// MethodDescriptor a provider or post-init method
type MethodDescriptor struct {
	owner   *ClassDescriptor
	marker  Marker
	scope   Scope
	Name    string
	Bean    string // discriminator of the provided bean
	Primary bool
	As      []typekey.TypeDesc
	method  reflect.Method
	params  []typekey.BeanTypeKey
	Result  reflect.Type // provided type, nil for post-init
	errIdx  int
}

func (m *MethodDescriptor) Kind() Kind              { return KindMethod }
func (m *MethodDescriptor) Marker() Marker          { return m.marker }
func (m *MethodDescriptor) Scope() Scope            { return m.scope }
func (m *MethodDescriptor) Owner() *ClassDescriptor { return m.owner }

// Provides the produced bean key plus As keys; nothing for post-init
func (m *MethodDescriptor) Provides() []typekey.BeanTypeKey {
	if m.marker != MarkerProvider {
		return nil
	}
	keys := []typekey.BeanTypeKey{typekey.BeanOf(m.Result, m.Bean)}
	for _, as := range m.As {
		keys = append(keys, typekey.NewBean(as, m.Bean))
	}
	return keys
}

// Dependencies method parameters, then the owning instance
func (m *MethodDescriptor) Dependencies() []typekey.BeanTypeKey {
	deps := append([]typekey.BeanTypeKey(nil), m.params...)
	return append(deps, m.owner.Key())
}

// Params the parameter keys alone
func (m *MethodDescriptor) Params() []typekey.BeanTypeKey {
	return append([]typekey.BeanTypeKey(nil), m.params...)
}

func (m *MethodDescriptor) PropertyDependencies() []typekey.PropertyTypeKey { return nil }

func (m *MethodDescriptor) String() string {
	return m.owner.String() + "." + m.Name + "()"
}

// Call invokes the method on recv
func (m *MethodDescriptor) Call(recv reflect.Value, args []reflect.Value) (reflect.Value, error) {
	in := append([]reflect.Value{recv}, args...)
	return invoke(m.method.Func, in, m.errIdx)
}

// HandlerDescriptor a method registered for multi-dispatch
type HandlerDescriptor struct {
	owner  *ClassDescriptor
	Marker string
	Name   string
	Method string
	method reflect.Method
	params []typekey.TypeDesc
}

// Owner the declaring class
func (h *HandlerDescriptor) Owner() *ClassDescriptor { return h.owner }

// Key handler identity
func (h *HandlerDescriptor) Key() typekey.HandlerTypeKey {
	return typekey.HandlerTypeKey{Marker: h.Marker, Name: h.Name, Params: append([]typekey.TypeDesc(nil), h.params...)}
}

func (h *HandlerDescriptor) String() string {
	return h.owner.String() + "." + h.Method + " " + h.Key().String()
}

// Call invokes the handler; an error returned as last result is split off,
// a remaining single result is returned as value
func (h *HandlerDescriptor) Call(recv reflect.Value, args []reflect.Value) (any, error) {
	out := h.method.Func.Call(append([]reflect.Value{recv}, args...))
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if !out[n-1].IsNil() {
			err = out[n-1].Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, err
	}
	return out[0].Interface(), err
}

func invoke(fn reflect.Value, args []reflect.Value, errIdx int) (reflect.Value, error) {
	out := fn.Call(args)
	if errIdx >= 0 && !out[errIdx].IsNil() {
		return reflect.Value{}, out[errIdx].Interface().(error)
	}
	if len(out) == 0 || errIdx == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// splitResults accepts (T), (T, error) and, when allowEmpty, () or (error).
// errIdx is the position of the error result or -1.
func splitResults(ft reflect.Type, allowEmpty bool) (result reflect.Type, errIdx int, err error) {
	switch ft.NumOut() {
	case 0:
		if allowEmpty {
			return nil, -1, nil
		}
	case 1:
		if ft.Out(0) != errorType {
			return ft.Out(0), -1, nil
		}
		if allowEmpty {
			return nil, 0, nil
		}
	case 2:
		if ft.Out(1) == errorType && ft.Out(0) != errorType {
			return ft.Out(0), 1, nil
		}
	}
	return nil, -1, fmt.Errorf("unsupported result signature %s", ft)
}
