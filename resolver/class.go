package resolver

import (
	"context"
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
)

// ClassResolver creates a class instance: constructor, then fields in
// declaration order, then methods in declaration order. A singleton is
// persisted once all of them succeeded.
type ClassResolver struct{}

func (ClassResolver) Shapes() []Shape {
	return shapes(descriptor.KindClass, classMarkers, bothScopes...)
}

func (ClassResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	ctor, ok := req.Member.(*descriptor.ConstructorDescriptor)
	if !ok {
		return reflect.Value{}, fmt.Errorf("class resolution expects a constructor, got %s", req.Member)
	}
	cd := ctor.Owner()

	instance, err := req.Factory.Resolve(ctx, Request{Member: ctor, Factory: req.Factory})
	if err != nil {
		return reflect.Value{}, err
	}
	if !instance.IsValid() || (instance.Kind() == reflect.Pointer && instance.IsNil()) {
		return reflect.Value{}, ErrInstantiation.WithMsgf("constructor of %s returned nil", cd).
			WithData("class", cd.String())
	}

	for _, f := range cd.Fields {
		if _, err := req.Factory.Resolve(ctx, Request{Member: f, Factory: req.Factory, Instance: instance}); err != nil {
			return reflect.Value{}, err
		}
	}
	for _, m := range cd.Methods {
		if _, err := req.Factory.Resolve(ctx, Request{Member: m, Factory: req.Factory, Instance: instance}); err != nil {
			return reflect.Value{}, err
		}
	}

	if cd.Scope == descriptor.Singleton {
		if err := req.Factory.Persist(ctor, instance); err != nil {
			return reflect.Value{}, err
		}
	}
	return instance, nil
}

// SingletonConstructorResolver constructs a singleton and publishes it as an
// early reference so field cycles back to it can be served
type SingletonConstructorResolver struct{}

func (SingletonConstructorResolver) Shapes() []Shape {
	return shapes(descriptor.KindConstructor, classMarkers, descriptor.Singleton)
}

func (SingletonConstructorResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	v, err := construct(ctx, req)
	if err != nil {
		return reflect.Value{}, err
	}
	Publish(ctx, req.Member, v)
	return v, nil
}

// PrototypeConstructorResolver constructs a fresh instance on every request
type PrototypeConstructorResolver struct{}

func (PrototypeConstructorResolver) Shapes() []Shape {
	return shapes(descriptor.KindConstructor, classMarkers, descriptor.Prototype)
}

func (PrototypeConstructorResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	return construct(ctx, req)
}

func construct(ctx context.Context, req Request) (reflect.Value, error) {
	ctor, ok := req.Member.(*descriptor.ConstructorDescriptor)
	if !ok {
		return reflect.Value{}, fmt.Errorf("constructor resolver got %s", req.Member)
	}
	in, err := args(ctx, req.Factory, ctor.Dependencies())
	if err != nil {
		return reflect.Value{}, err
	}
	return guard(ctor, func() (reflect.Value, error) { return ctor.Call(in) })
}
