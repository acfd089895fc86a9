// Package convert provides the string-to-scalar converter beans used to fill
// property fields. A converter is looked up by the key
// Converter<string, Target>, so users can override or add conversions by
// registering their own bean under that key.
package convert

import (
	"reflect"
	"strings"

	"github.com/KOMKZ/go-yogan-ioc/typekey"
	"github.com/spf13/cast"
)

// Name generic name of converter descriptors
const Name = "Converter"

// Converter converts a raw property value into Target
type Converter interface {
	Convert(raw string) (any, error)
	Target() reflect.Type
}

// Key the bean key of the converter from string to target
func Key(target reflect.Type) typekey.BeanTypeKey {
	return typekey.NewBean(Desc(target))
}

// Desc descriptor Converter<string, target>
func Desc(target reflect.Type) typekey.TypeDesc {
	return typekey.GenericOf(Name, typekey.For[string](), typekey.Of(target))
}

// Func adapts a function to Converter
type Func[T any] func(raw string) (T, error)

func (f Func[T]) Convert(raw string) (any, error) {
	return f(raw)
}

func (f Func[T]) Target() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeDescriptor reifies Converter<string, T>
func (f Func[T]) TypeDescriptor() typekey.TypeDesc {
	return Desc(reflect.TypeOf((*T)(nil)).Elem())
}

// Defaults the scalar converters every container starts with
func Defaults() []Converter {
	return []Converter{
		from(cast.ToBoolE),
		integer(cast.ToIntE),
		integer(cast.ToInt8E),
		integer(cast.ToInt16E),
		integer(cast.ToInt32E),
		integer(cast.ToInt64E),
		integer(cast.ToUintE),
		integer(cast.ToUint8E),
		integer(cast.ToUint16E),
		integer(cast.ToUint32E),
		integer(cast.ToUint64E),
		from(cast.ToFloat32E),
		from(cast.ToFloat64E),
		from(cast.ToDurationE),
		from(cast.ToTimeE),
		from(cast.ToStringSliceE),
	}
}

func from[T any](fn func(any) (T, error)) Func[T] {
	return func(raw string) (T, error) { return fn(raw) }
}

// integer parses raw as base 10; cast alone would read "010" as octal
func integer[T any](fn func(any) (T, error)) Func[T] {
	return func(raw string) (T, error) { return fn(decimal(raw)) }
}

// decimal strips leading zeros, keeping the sign and a lone "0".
// Prefixed literals such as "0x10" lose their leading zero and fail to parse.
func decimal(raw string) string {
	s := strings.TrimSpace(raw)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	digits := strings.TrimLeft(s, "0")
	if digits == "" && s != "" {
		digits = "0"
	}
	return sign + digits
}
