package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"

	"github.com/KOMKZ/go-yogan-ioc/typekey"
	"github.com/KOMKZ/go-yogan-ioc/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var discriminatorPattern = regexp.MustCompile(`^[A-Za-z0-9_.:\-]*$`)

// settings shared by class, provider and handler declarations
type settings struct {
	name    string
	scope   Scope
	primary bool
	as      []typekey.TypeDesc
}

// Option tunes a declaration
type Option func(*settings)

// Named sets the discriminator
func Named(name string) Option {
	return func(s *settings) { s.name = name }
}

// Primary marks the declaration as the preferred provider of its keys
func Primary() Option {
	return func(s *settings) { s.primary = true }
}

// InScope sets the lifecycle scope (Singleton by default)
func InScope(scope Scope) Option {
	return func(s *settings) { s.scope = scope }
}

// As additionally registers the declaration under interface I
func As[I any]() Option {
	return AsType(typekey.For[I]())
}

// AsType additionally registers the declaration under an arbitrary descriptor
func AsType(d typekey.TypeDesc) Option {
	return func(s *settings) { s.as = append(s.as, d) }
}

func newSettings(opts []Option) settings {
	s := settings{scope: Singleton}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

type methodDecl struct {
	marker Marker
	name   string
	settings
}

type handlerDecl struct {
	marker string
	method string
	settings
}

// Builder assembles a ClassDescriptor
type Builder struct {
	typ      reflect.Type
	marker   Marker
	settings settings
	ctor     any
	methods  []methodDecl
	handlers []handlerDecl
}

// Service declares T as a service component
func Service[T any](opts ...Option) *Builder {
	return Describe(reflect.TypeOf((*T)(nil)).Elem(), MarkerService, opts...)
}

// Factory declares T as a factory component (a holder of provider methods)
func Factory[T any](opts ...Option) *Builder {
	return Describe(reflect.TypeOf((*T)(nil)).Elem(), MarkerFactory, opts...)
}

// Describe declares t with the given class marker. A struct type is taken
// as a pointer to it.
func Describe(t reflect.Type, marker Marker, opts ...Option) *Builder {
	if t != nil && t.Kind() == reflect.Struct {
		t = reflect.PointerTo(t)
	}
	return &Builder{typ: t, marker: marker, settings: newSettings(opts)}
}

// Constructor sets the function creating the instance.
// Accepted shapes: func(deps...) *T and func(deps...) (*T, error).
func (b *Builder) Constructor(fn any) *Builder {
	b.ctor = fn
	return b
}

// Provider declares method as a provider of its result type
func (b *Builder) Provider(method string, opts ...Option) *Builder {
	b.methods = append(b.methods, methodDecl{marker: MarkerProvider, name: method, settings: newSettings(opts)})
	return b
}

// PostInit declares method to run after fields are injected
func (b *Builder) PostInit(method string) *Builder {
	b.methods = append(b.methods, methodDecl{marker: MarkerPostInit, name: method})
	return b
}

// Handler registers method for dispatch under marker; Named sets the handler name
func (b *Builder) Handler(marker, method string, opts ...Option) *Builder {
	b.handlers = append(b.handlers, handlerDecl{marker: marker, method: method, settings: newSettings(opts)})
	return b
}

// MustBuild is Build that panics on error, for init() catalogs
func (b *Builder) MustBuild() *ClassDescriptor {
	cd, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cd
}

// Build validates the declaration and produces its descriptor
func (b *Builder) Build() (*ClassDescriptor, error) {
	cd := &ClassDescriptor{
		Type:    b.typ,
		Marker:  b.marker,
		Scope:   b.settings.scope,
		Name:    b.settings.name,
		Primary: b.settings.primary,
		As:      append([]typekey.TypeDesc(nil), b.settings.as...),
	}
	if err := validator.Validate(cd); err != nil {
		return nil, ErrInvalidDeclaration.WithMsgf("invalid declaration of %v", b.typ).Wrap(err)
	}

	var errs []error
	errs = append(errs, checkAs(cd.Type, cd.As)...)

	ctor, err := b.buildConstructor(cd)
	if err != nil {
		errs = append(errs, err)
	}
	cd.Constructor = ctor

	fields, fieldErrs := scanFields(cd)
	cd.Fields = fields
	errs = append(errs, fieldErrs...)

	for _, decl := range b.methods {
		m, err := buildMethod(cd, decl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cd.Methods = append(cd.Methods, m)
	}

	for _, decl := range b.handlers {
		h, err := buildHandler(cd, decl)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cd.Handlers = append(cd.Handlers, h)
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		return nil, ErrInvalidDeclaration.WithMsgf("invalid declaration of %s", cd).Wrap(joined)
	}
	return cd, nil
}

// Validate checks the class-level settings
func (c *ClassDescriptor) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.By(structPointer)),
		validation.Field(&c.Marker, validation.Required, validation.In(MarkerService, MarkerFactory)),
		validation.Field(&c.Scope, validation.In(Singleton, Prototype)),
		validation.Field(&c.Name, validation.Match(discriminatorPattern)),
	)
}

func structPointer(value any) error {
	t, _ := value.(reflect.Type)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return errors.New("must be a struct or pointer to struct")
	}
	return nil
}

func checkAs(t reflect.Type, as []typekey.TypeDesc) []error {
	var errs []error
	for _, d := range as {
		if d.Unresolved() {
			errs = append(errs, typekey.ErrInvalidKey.WithMsgf("unresolved type parameter in %s", d))
			continue
		}
		if d.Type != nil && d.Type.Kind() == reflect.Interface && !t.Implements(d.Type) {
			errs = append(errs, fmt.Errorf("%s does not implement %s", t, d))
		}
	}
	return errs
}

func (b *Builder) buildConstructor(cd *ClassDescriptor) (*ConstructorDescriptor, error) {
	ctor := &ConstructorDescriptor{owner: cd, errIdx: -1}
	if b.ctor == nil {
		return ctor, nil
	}

	fv := reflect.ValueOf(b.ctor)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return ctor, fmt.Errorf("constructor must be a function, got %T", b.ctor)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return ctor, fmt.Errorf("constructor %s must not be variadic", ft)
	}
	result, errIdx, err := splitResults(ft, false)
	if err != nil {
		return ctor, fmt.Errorf("constructor: %w", err)
	}
	if result != cd.Type {
		return ctor, fmt.Errorf("constructor must return %s, returns %s", cd.Type, result)
	}

	ctor.fn = fv
	ctor.errIdx = errIdx
	for i := 0; i < ft.NumIn(); i++ {
		ctor.params = append(ctor.params, typekey.BeanOf(ft.In(i)))
	}
	return ctor, nil
}

// scanFields collects fields tagged inject or property, including promoted ones
func scanFields(cd *ClassDescriptor) ([]*FieldDescriptor, []error) {
	var (
		fields []*FieldDescriptor
		errs   []error
	)
	for _, f := range reflect.VisibleFields(cd.Type.Elem()) {
		injectName, isInject := f.Tag.Lookup("inject")
		property, isProperty := f.Tag.Lookup("property")
		if !isInject && !isProperty {
			continue
		}
		switch {
		case isInject && isProperty:
			errs = append(errs, fmt.Errorf("field %s: inject and property are exclusive", f.Name))
			continue
		case !f.IsExported():
			errs = append(errs, fmt.Errorf("field %s: tagged field must be exported", f.Name))
			continue
		}

		fd := &FieldDescriptor{
			owner: cd,
			Name:  f.Name,
			Index: append([]int(nil), f.Index...),
			Type:  f.Type,
		}
		if isInject {
			if name, ok := f.Tag.Lookup("name"); ok {
				injectName = name
			}
			fd.marker = MarkerInject
			fd.Key = typekey.BeanOf(f.Type, injectName)
			fd.Optional = f.Tag.Get("optional") == "true"
		} else {
			if property == "" {
				errs = append(errs, fmt.Errorf("field %s: property name is empty", f.Name))
				continue
			}
			fd.marker = MarkerProperty
			fd.Property = property
			fd.Default, fd.HasDefault = f.Tag.Lookup("default")
		}
		fields = append(fields, fd)
	}
	return fields, errs
}

func buildMethod(cd *ClassDescriptor, decl methodDecl) (*MethodDescriptor, error) {
	if err := validation.Validate(decl.name, validation.Required); err != nil {
		return nil, fmt.Errorf("%s method name: %w", decl.marker, err)
	}
	if err := validation.Validate(decl.settings.name, validation.Match(discriminatorPattern)); err != nil {
		return nil, fmt.Errorf("%s %s name: %w", decl.marker, decl.name, err)
	}
	method, ok := cd.Type.MethodByName(decl.name)
	if !ok {
		return nil, fmt.Errorf("%s has no exported method %s", cd.Type, decl.name)
	}
	ft := method.Type
	if ft.IsVariadic() {
		return nil, fmt.Errorf("method %s must not be variadic", decl.name)
	}

	md := &MethodDescriptor{
		owner:  cd,
		marker: decl.marker,
		Name:   decl.name,
		method: method,
	}
	for i := 1; i < ft.NumIn(); i++ {
		md.params = append(md.params, typekey.BeanOf(ft.In(i)))
	}

	switch decl.marker {
	case MarkerProvider:
		result, errIdx, err := splitResults(ft, false)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", decl.name, err)
		}
		if err := validation.Validate(decl.scope, validation.In(Singleton, Prototype)); err != nil {
			return nil, fmt.Errorf("provider %s scope: %w", decl.name, err)
		}
		if errs := checkAs(result, decl.as); len(errs) > 0 {
			return nil, fmt.Errorf("provider %s: %w", decl.name, errors.Join(errs...))
		}
		md.scope = decl.scope
		md.Bean = decl.settings.name
		md.Primary = decl.primary
		md.As = append([]typekey.TypeDesc(nil), decl.as...)
		md.Result = result
		md.errIdx = errIdx
	case MarkerPostInit:
		result, errIdx, err := splitResults(ft, true)
		if err == nil && result != nil {
			err = fmt.Errorf("unsupported result signature %s", ft)
		}
		if err != nil {
			return nil, fmt.Errorf("post-init %s: %w", decl.name, err)
		}
		md.scope = cd.Scope
		md.errIdx = errIdx
	}
	return md, nil
}

func buildHandler(cd *ClassDescriptor, decl handlerDecl) (*HandlerDescriptor, error) {
	err := validation.Validate(decl.marker, validation.Required, validation.Match(discriminatorPattern))
	if err != nil {
		return nil, fmt.Errorf("handler %s marker: %w", decl.method, err)
	}
	method, ok := cd.Type.MethodByName(decl.method)
	if !ok {
		return nil, fmt.Errorf("%s has no exported method %s", cd.Type, decl.method)
	}
	ft := method.Type
	if ft.IsVariadic() {
		return nil, fmt.Errorf("handler %s must not be variadic", decl.method)
	}
	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("handler %s: unsupported result signature %s", decl.method, ft)
		}
	default:
		return nil, fmt.Errorf("handler %s: unsupported result signature %s", decl.method, ft)
	}

	h := &HandlerDescriptor{
		owner:  cd,
		Marker: decl.marker,
		Name:   decl.settings.name,
		Method: decl.method,
		method: method,
	}
	for i := 1; i < ft.NumIn(); i++ {
		h.params = append(h.params, typekey.Of(ft.In(i)))
	}
	return h, nil
}
