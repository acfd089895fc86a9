// Package resolver turns descriptor members into values.
//
// Every member shape (kind, marker, scope) is served by exactly one Resolver
// picked from a Chain. Resolvers never touch the repository directly: they
// call back into a Factory, which is the container, for dependencies, owner
// instances and properties.
package resolver

import (
	"context"
	"reflect"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

// Factory the container services a resolver may use
type Factory interface {
	// GetBean resolves a bean by key
	GetBean(ctx context.Context, key typekey.BeanTypeKey) (any, error)

	// Instance the (possibly cached) instance of a class
	Instance(ctx context.Context, cd *descriptor.ClassDescriptor) (reflect.Value, error)

	// Persisted the stored value produced by a singleton source member
	Persisted(source descriptor.Member) (any, bool)

	// Persist stores the value of a singleton source under every key it provides
	Persist(source descriptor.Member, v reflect.Value) error

	// Resolve runs member through the resolver chain
	Resolve(ctx context.Context, req Request) (reflect.Value, error)

	// Property reads a raw configuration value
	Property(name string) (string, bool)
}

// Request one member resolution
type Request struct {
	Member  descriptor.Member
	Factory Factory

	// Instance the owning instance, set for fields and post-init methods
	Instance reflect.Value
}

// Resolver resolves members of the shapes it declares
type Resolver interface {
	Shapes() []Shape
	Resolve(ctx context.Context, req Request) (reflect.Value, error)
}

// args resolves the parameter keys of a constructor or method
func args(ctx context.Context, f Factory, keys []typekey.BeanTypeKey) ([]reflect.Value, error) {
	out := make([]reflect.Value, len(keys))
	for i, key := range keys {
		v, err := f.GetBean(ctx, key)
		if err != nil {
			return nil, err
		}
		out[i] = valueOf(v, key.Type.Type)
	}
	return out, nil
}

// valueOf wraps v as a reflect.Value of type t; nil becomes the zero value
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		if t == nil {
			return reflect.Value{}
		}
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(v)
	if t != nil && rv.Type() != t && rv.Type().AssignableTo(t) {
		converted := reflect.New(t).Elem()
		converted.Set(rv)
		return converted
	}
	return rv
}

// guard runs fn and turns panics into ErrInvocation
func guard(m descriptor.Member, fn func() (reflect.Value, error)) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = reflect.Value{}
			err = ErrInvocation.WithMsgf("%s panicked: %v", m, r).WithData("member", m.String())
		}
	}()
	v, err = fn()
	if err != nil {
		err = ErrInvocation.WithMsgf("%s failed", m).WithData("member", m.String()).Wrap(err)
	}
	return v, err
}
