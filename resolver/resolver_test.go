package resolver

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/KOMKZ/go-yogan-ioc/convert"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/repository"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFactory resolves beans from a fixed map and classes through the chain
type stubFactory struct {
	chain     *Chain
	beans     map[string]any
	props     map[string]string
	persisted map[descriptor.Member]any
}

func newStubFactory() *stubFactory {
	f := &stubFactory{
		chain:     Default(),
		beans:     map[string]any{},
		props:     map[string]string{},
		persisted: map[descriptor.Member]any{},
	}
	for _, c := range convert.Defaults() {
		f.beans[convert.Key(c.Target()).ID()] = c
	}
	return f
}

func (f *stubFactory) GetBean(_ context.Context, key typekey.BeanTypeKey) (any, error) {
	if v, ok := f.beans[key.ID()]; ok {
		return v, nil
	}
	return nil, repository.ErrNotFound.WithMsgf("no bean %s", key)
}

func (f *stubFactory) Instance(ctx context.Context, cd *descriptor.ClassDescriptor) (reflect.Value, error) {
	if v, ok := f.persisted[cd.Constructor]; ok {
		return reflect.ValueOf(v), nil
	}
	r, err := f.chain.Lookup(ClassShape(cd))
	if err != nil {
		return reflect.Value{}, err
	}
	ctx, _, err = Enter(ctx, cd.Constructor)
	if err != nil {
		return reflect.Value{}, err
	}
	return r.Resolve(ctx, Request{Member: cd.Constructor, Factory: f})
}

func (f *stubFactory) Persisted(source descriptor.Member) (any, bool) {
	v, ok := f.persisted[source]
	return v, ok
}

func (f *stubFactory) Persist(source descriptor.Member, v reflect.Value) error {
	if _, done := f.persisted[source]; !done && v.IsValid() {
		f.persisted[source] = v.Interface()
	}
	return nil
}

func (f *stubFactory) Resolve(ctx context.Context, req Request) (reflect.Value, error) {
	r, err := f.chain.Lookup(ShapeOf(req.Member))
	if err != nil {
		return reflect.Value{}, err
	}
	return r.Resolve(ctx, req)
}

func (f *stubFactory) Property(name string) (string, bool) {
	v, ok := f.props[name]
	return v, ok
}

type engine struct{ power int }

type car struct {
	Engine  *engine `inject:""`
	Spare   *engine `inject:"spare" optional:"true"`
	Name    string  `property:"car.name"`
	Wheels  int     `property:"car.wheels"`
	Color   string  `property:"car.color" default:"red"`
	Doors   int     `property:"car.doors"`
	started int
}

func (c *car) Start() { c.started++ }

type garage struct{}

func (g *garage) Engine() *engine          { return &engine{power: 100} }
func (g *garage) Broken() (*engine, error) { return nil, errors.New("broken") }
func (g *garage) Panics() *engine          { panic("kaboom") }

func TestShapes(t *testing.T) {
	cd := descriptor.Service[car](descriptor.InScope(descriptor.Prototype)).PostInit("Start").MustBuild()

	assert.Equal(t, Shape{descriptor.KindClass, descriptor.MarkerService, descriptor.Prototype}, ClassShape(cd))
	assert.Equal(t, Shape{descriptor.KindConstructor, descriptor.MarkerService, descriptor.Prototype}, ShapeOf(cd.Constructor))
	assert.Equal(t, Shape{descriptor.KindField, descriptor.MarkerInject, descriptor.Prototype}, ShapeOf(cd.Fields[0]))
	assert.Equal(t, Shape{descriptor.KindMethod, descriptor.MarkerPostInit, descriptor.Prototype}, ShapeOf(cd.Methods[0]))
	assert.Equal(t, "field/property/singleton", Shape{descriptor.KindField, descriptor.MarkerProperty, descriptor.Singleton}.String())
}

type customClassResolver struct{ ClassResolver }

func TestChain(t *testing.T) {
	t.Run("first registered wins", func(t *testing.T) {
		custom := customClassResolver{}
		c := NewChain()
		c.Register(custom)
		c.Register(Builtin()...)

		r, err := c.Lookup(Shape{descriptor.KindClass, descriptor.MarkerService, descriptor.Singleton})
		require.NoError(t, err)
		assert.Equal(t, custom, r)
		assert.Len(t, c.Resolvers(), len(Builtin())+1)
	})

	t.Run("no applicable resolver", func(t *testing.T) {
		_, err := NewChain().Lookup(Shape{descriptor.KindField, descriptor.MarkerInject, descriptor.Singleton})
		assert.ErrorIs(t, err, ErrNoApplicableResolver)
	})

	t.Run("check", func(t *testing.T) {
		cd := descriptor.Service[car]().PostInit("Start").MustBuild()
		assert.NoError(t, Default().Check([]*descriptor.ClassDescriptor{cd}))

		partial := NewChain()
		partial.Register(ClassResolver{}, SingletonConstructorResolver{})
		err := partial.Check([]*descriptor.ClassDescriptor{cd})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoApplicableResolver)
		assert.Contains(t, err.Error(), "Engine")
	})
}

func TestEnter(t *testing.T) {
	a := descriptor.Service[car]().MustBuild().Constructor
	b := descriptor.Service[engine]().MustBuild().Constructor

	ctx, early, err := Enter(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, early.IsValid())

	ctx, _, err = Enter(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []descriptor.Member{a, b}, Path(ctx))

	t.Run("cycle without early reference", func(t *testing.T) {
		_, _, err := Enter(ctx, a)
		require.ErrorIs(t, err, ErrCycle)
		assert.Contains(t, err.Error(), "->")
	})

	t.Run("early reference", func(t *testing.T) {
		instance := reflect.ValueOf(&car{})
		Publish(ctx, a, instance)
		_, early, err := Enter(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, instance.Pointer(), early.Pointer())
	})
}

func TestClassResolution(t *testing.T) {
	f := newStubFactory()
	f.beans[typekey.Bean[*engine]().ID()] = &engine{power: 7}
	f.props["car.name"] = "beetle"
	f.props["car.wheels"] = "4"

	cd := descriptor.Service[car]().PostInit("Start").PostInit("Start").MustBuild()

	v, err := f.Instance(context.Background(), cd)
	require.NoError(t, err)
	c := v.Interface().(*car)

	assert.Equal(t, 7, c.Engine.power)
	assert.Nil(t, c.Spare)
	assert.Equal(t, "beetle", c.Name)
	assert.Equal(t, 4, c.Wheels)
	assert.Equal(t, "red", c.Color)
	assert.Zero(t, c.Doors)
	assert.Equal(t, 2, c.started)
}

func TestClassResolutionErrors(t *testing.T) {
	t.Run("missing required dependency", func(t *testing.T) {
		f := newStubFactory()
		_, err := f.Instance(context.Background(), descriptor.Service[car]().MustBuild())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("unconvertible property", func(t *testing.T) {
		f := newStubFactory()
		f.beans[typekey.Bean[*engine]().ID()] = &engine{}
		f.props["car.wheels"] = "abc"
		_, err := f.Instance(context.Background(), descriptor.Service[car]().MustBuild())
		assert.ErrorIs(t, err, ErrUnsupportedConversion)
	})

	t.Run("no converter", func(t *testing.T) {
		type exotic struct {
			At complex128 `property:"at"`
		}
		f := newStubFactory()
		f.props["at"] = "1+2i"
		_, err := f.Instance(context.Background(), descriptor.Service[exotic]().MustBuild())
		require.ErrorIs(t, err, ErrUnsupportedConversion)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("nil constructor result", func(t *testing.T) {
		f := newStubFactory()
		cd := descriptor.Service[engine]().Constructor(func() *engine { return nil }).MustBuild()
		_, err := f.Instance(context.Background(), cd)
		assert.ErrorIs(t, err, ErrInstantiation)
	})

	t.Run("constructor error", func(t *testing.T) {
		f := newStubFactory()
		boom := errors.New("boom")
		cd := descriptor.Service[engine]().Constructor(func() (*engine, error) { return nil, boom }).MustBuild()
		_, err := f.Instance(context.Background(), cd)
		assert.ErrorIs(t, err, ErrInvocation)
		assert.ErrorIs(t, err, boom)
	})
}

func TestProviders(t *testing.T) {
	ctx := context.Background()

	t.Run("singleton runs once", func(t *testing.T) {
		cd := descriptor.Factory[garage]().Provider("Engine").MustBuild()
		f := newStubFactory()

		v, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f})
		require.NoError(t, err)
		assert.Equal(t, 100, v.Interface().(*engine).power)
		assert.Contains(t, f.persisted, descriptor.Member(cd.Constructor))

		again, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f})
		require.NoError(t, err)
		assert.Same(t, v.Interface(), again.Interface())
	})

	t.Run("singleton served from persisted value", func(t *testing.T) {
		cd := descriptor.Factory[garage]().Provider("Engine").MustBuild()
		f := newStubFactory()
		persisted := &engine{power: 1}
		f.persisted[cd.Methods[0]] = persisted

		v, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f})
		require.NoError(t, err)
		assert.Same(t, persisted, v.Interface())
	})

	t.Run("prototype re-runs", func(t *testing.T) {
		cd := descriptor.Factory[garage]().Provider("Engine", descriptor.InScope(descriptor.Prototype)).MustBuild()
		f := newStubFactory()

		a, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f})
		require.NoError(t, err)
		b, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f})
		require.NoError(t, err)
		assert.NotSame(t, a.Interface(), b.Interface())
		assert.NotContains(t, f.persisted, descriptor.Member(cd.Methods[0]))
	})

	cd := descriptor.Factory[garage]().
		Provider("Broken", descriptor.Named("broken")).
		Provider("Panics", descriptor.Named("panics"), descriptor.InScope(descriptor.Prototype)).
		MustBuild()
	recv := reflect.ValueOf(&garage{})

	t.Run("error result", func(t *testing.T) {
		f := newStubFactory()
		_, err := f.Resolve(ctx, Request{Member: cd.Methods[0], Factory: f, Instance: recv})
		assert.ErrorIs(t, err, ErrInvocation)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("panic recovered", func(t *testing.T) {
		f := newStubFactory()
		_, err := f.Resolve(ctx, Request{Member: cd.Methods[1], Factory: f, Instance: recv})
		require.ErrorIs(t, err, ErrInvocation)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("class resolution fails with its providers", func(t *testing.T) {
		f := newStubFactory()
		_, err := f.Instance(ctx, cd)
		assert.ErrorIs(t, err, ErrInvocation)
	})
}
