package resolver

import (
	"context"
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
)

// SingletonProviderResolver runs a provider method at most once and
// persists its result; later requests are served from the persisted value
type SingletonProviderResolver struct{}

func (SingletonProviderResolver) Shapes() []Shape {
	return shapes(descriptor.KindMethod, []descriptor.Marker{descriptor.MarkerProvider}, descriptor.Singleton)
}

func (SingletonProviderResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	if v, ok := req.Factory.Persisted(req.Member); ok {
		return reflect.ValueOf(v), nil
	}
	m, recv, err := provider(ctx, req)
	if err != nil {
		return reflect.Value{}, err
	}
	// creating the owner runs its providers
	if v, ok := req.Factory.Persisted(m); ok {
		return reflect.ValueOf(v), nil
	}

	v, err := call(ctx, req.Factory, m, recv)
	if err != nil {
		return reflect.Value{}, err
	}
	if err := req.Factory.Persist(m, v); err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// PrototypeProviderResolver runs a provider method on every request
type PrototypeProviderResolver struct{}

func (PrototypeProviderResolver) Shapes() []Shape {
	return shapes(descriptor.KindMethod, []descriptor.Marker{descriptor.MarkerProvider}, descriptor.Prototype)
}

func (PrototypeProviderResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	m, recv, err := provider(ctx, req)
	if err != nil {
		return reflect.Value{}, err
	}
	return call(ctx, req.Factory, m, recv)
}

// provider the method and its receiver: the request instance during class
// resolution, the owner bean otherwise
func provider(ctx context.Context, req Request) (*descriptor.MethodDescriptor, reflect.Value, error) {
	m, ok := req.Member.(*descriptor.MethodDescriptor)
	if !ok {
		return nil, reflect.Value{}, fmt.Errorf("provider resolver got %s", req.Member)
	}
	if req.Instance.IsValid() {
		return m, req.Instance, nil
	}
	owner, err := req.Factory.Instance(ctx, m.Owner())
	if err != nil {
		return nil, reflect.Value{}, err
	}
	return m, owner, nil
}

// PostInitResolver runs a post-init method on the owning instance
type PostInitResolver struct{}

func (PostInitResolver) Shapes() []Shape {
	return shapes(descriptor.KindMethod, []descriptor.Marker{descriptor.MarkerPostInit}, bothScopes...)
}

func (PostInitResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	m, ok := req.Member.(*descriptor.MethodDescriptor)
	if !ok {
		return reflect.Value{}, fmt.Errorf("post-init resolver got %s", req.Member)
	}
	if !req.Instance.IsValid() {
		return reflect.Value{}, ErrInstantiation.WithMsgf("%s has no owner instance", m)
	}
	if _, err := call(ctx, req.Factory, m, req.Instance); err != nil {
		return reflect.Value{}, err
	}
	return req.Instance, nil
}

func call(ctx context.Context, f Factory, m *descriptor.MethodDescriptor, recv reflect.Value) (reflect.Value, error) {
	in, err := args(ctx, f, m.Params())
	if err != nil {
		return reflect.Value{}, err
	}
	return guard(m, func() (reflect.Value, error) { return m.Call(recv, in) })
}
