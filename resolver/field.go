package resolver

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/KOMKZ/go-yogan-ioc/convert"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/repository"
)

var stringType = reflect.TypeOf((*string)(nil)).Elem()

// InjectFieldResolver sets an inject field from the container.
// A missing optional dependency leaves the field at its zero value.
type InjectFieldResolver struct{}

func (InjectFieldResolver) Shapes() []Shape {
	return shapes(descriptor.KindField, []descriptor.Marker{descriptor.MarkerInject}, bothScopes...)
}

func (InjectFieldResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	f, target, err := fieldTarget(req)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := req.Factory.GetBean(ctx, f.Key)
	if err != nil {
		if f.Optional && errors.Is(err, repository.ErrNotFound) {
			return target, nil
		}
		return reflect.Value{}, err
	}
	if v == nil {
		return target, nil
	}
	return target, assign(f, target, reflect.ValueOf(v))
}

// PropertyFieldResolver sets a property field from configuration.
// Values assignable from string are set as is; anything else goes through
// the Converter<string, T> bean.
type PropertyFieldResolver struct{}

func (PropertyFieldResolver) Shapes() []Shape {
	return shapes(descriptor.KindField, []descriptor.Marker{descriptor.MarkerProperty}, bothScopes...)
}

func (PropertyFieldResolver) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	f, target, err := fieldTarget(req)
	if err != nil {
		return reflect.Value{}, err
	}

	raw, ok := req.Factory.Property(f.Property)
	if !ok {
		if !f.HasDefault {
			return target, nil
		}
		raw = f.Default
	}

	if stringType.AssignableTo(f.Type) {
		return target, assign(f, target, reflect.ValueOf(raw))
	}

	bean, err := req.Factory.GetBean(ctx, convert.Key(f.Type))
	if err != nil {
		return reflect.Value{}, ErrUnsupportedConversion.
			WithMsgf("no converter from string to %s for %s", f.Type, f).
			WithData("property", f.Property).Wrap(err)
	}
	conv, ok := bean.(convert.Converter)
	if !ok {
		return reflect.Value{}, ErrUnsupportedConversion.
			WithMsgf("bean %T registered as converter to %s is not a converter", bean, f.Type)
	}
	converted, err := conv.Convert(raw)
	if err != nil {
		return reflect.Value{}, ErrUnsupportedConversion.
			WithMsgf("cannot convert property %s=%q to %s", f.Property, raw, f.Type).
			WithData("property", f.Property).Wrap(err)
	}
	return target, assign(f, target, reflect.ValueOf(converted))
}

func fieldTarget(req Request) (*descriptor.FieldDescriptor, reflect.Value, error) {
	f, ok := req.Member.(*descriptor.FieldDescriptor)
	if !ok {
		return nil, reflect.Value{}, fmt.Errorf("field resolver got %s", req.Member)
	}
	if !req.Instance.IsValid() || req.Instance.Kind() != reflect.Pointer || req.Instance.IsNil() {
		return nil, reflect.Value{}, ErrInstantiation.WithMsgf("%s has no owner instance", f)
	}
	target, err := req.Instance.Elem().FieldByIndexErr(f.Index)
	if err != nil {
		return nil, reflect.Value{}, ErrInstantiation.WithMsgf("%s is unreachable", f).Wrap(err)
	}
	return f, target, nil
}

func assign(f *descriptor.FieldDescriptor, target, v reflect.Value) error {
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case v.Type().ConvertibleTo(target.Type()) && v.Kind() == target.Kind():
		target.Set(v.Convert(target.Type()))
	default:
		return ErrInstantiation.WithMsgf("cannot assign %s to %s", v.Type(), f).
			WithData("field", f.String())
	}
	return nil
}
