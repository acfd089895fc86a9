package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

// Get resolves the bean of type T, optionally by name
//
//	svc, err := di.Get[*UserService](ctx, c)
//	primary, err := di.Get[Store](ctx, c, "primary")
func Get[T any](ctx context.Context, c *Container, name ...string) (T, error) {
	var zero T
	key := typekey.Bean[T](name...)
	v, err := c.GetBean(ctx, key)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, resolver.ErrInstantiation.WithMsgf("bean %s has type %T", key, v).
			WithData("key", key.String())
	}
	return t, nil
}

// MustGet is Get that panics on error
func MustGet[T any](ctx context.Context, c *Container, name ...string) T {
	v, err := Get[T](ctx, c, name...)
	if err != nil {
		panic(fmt.Sprintf("di: %v", err))
	}
	return v
}

// GetAll every bean registered under T (same as Get[[]T])
func GetAll[T any](ctx context.Context, c *Container, name ...string) ([]T, error) {
	return Get[[]T](ctx, c, name...)
}

// Provide registers a ready value under T
func Provide[T any](c *Container, value T, name ...string) error {
	return c.RegisterInstance(typekey.Bean[T](name...), value, false)
}
