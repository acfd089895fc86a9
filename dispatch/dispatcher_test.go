package dispatch

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct{ id int }

type events struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (e *events) record(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = append(e.seen, s)
}

func (e *events) Exact(o *order) string { e.record("exact"); return "exact" }
func (e *events) Any(v any) string      { e.record("any"); return "any" }
func (e *events) Pair(o *order, n int) (int, error) {
	return o.id + n, nil
}
func (e *events) Fail(o *order) error { return errors.New("rejected") }
func (e *events) Nothing(o *order)    {}
func (e *events) Boom(s string)       { panic("boom") }
func (e *events) Async(o *order) {
	e.record("async")
	close(e.done)
}

type owners struct {
	instance *events
	calls    int
}

func (o *owners) Instance(context.Context, *descriptor.ClassDescriptor) (reflect.Value, error) {
	o.calls++
	return reflect.ValueOf(o.instance), nil
}

func newDispatcher(t *testing.T, own Owners) *Dispatcher {
	t.Helper()
	d := New(own, WithPoolSize(2), WithLogger(logger.NewCtxZapLogger("ioc")))
	t.Cleanup(d.Close)
	return d
}

func TestDispatchOrder(t *testing.T) {
	t.Run("exact registered first wins", func(t *testing.T) {
		cd := descriptor.Service[events]().
			Handler("on", "Exact").
			Handler("on", "Any").
			MustBuild()
		d := newDispatcher(t, nil)
		require.NoError(t, d.RegisterClass(cd))

		target := &events{}
		out, err := d.Dispatch(context.Background(), "on", "", target, &order{})
		require.NoError(t, err)
		assert.Equal(t, "exact", out)
		assert.Equal(t, []string{"exact"}, target.seen)
	})

	t.Run("registration order is authoritative", func(t *testing.T) {
		cd := descriptor.Service[events]().
			Handler("on", "Any").
			Handler("on", "Exact").
			MustBuild()
		d := newDispatcher(t, nil)
		require.NoError(t, d.RegisterClass(cd))

		out, err := d.Dispatch(context.Background(), "on", "", &events{}, &order{})
		require.NoError(t, err)
		assert.Equal(t, "any", out)
	})
}

func TestDispatchFiltering(t *testing.T) {
	cd := descriptor.Service[events]().
		Handler("on", "Exact", descriptor.Named("created")).
		Handler("on", "Pair").
		Handler("other", "Any").
		MustBuild()
	d := newDispatcher(t, nil)
	require.NoError(t, d.RegisterClass(cd))
	ctx := context.Background()

	tests := []struct {
		name   string
		marker string
		disc   string
		args   []any
		want   any
	}{
		{"by name", "on", "created", []any{&order{}}, "exact"},
		{"blank name does not match named handler", "on", "", []any{&order{}}, nil},
		{"arity", "on", "", []any{&order{id: 1}, 2}, 3},
		{"incompatible argument", "on", "", []any{&order{}, "2"}, nil},
		{"unknown marker", "missing", "", []any{&order{}}, nil},
		{"nil pointer argument", "on", "created", []any{nil}, "exact"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.Dispatch(ctx, tt.marker, tt.disc, &events{}, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDispatchResults(t *testing.T) {
	cd := descriptor.Service[events]().
		Handler("fail", "Fail").
		Handler("nothing", "Nothing").
		Handler("boom", "Boom").
		MustBuild()
	d := newDispatcher(t, nil)
	require.NoError(t, d.RegisterClass(cd))
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "fail", "", &events{}, &order{})
	assert.EqualError(t, err, "rejected")

	out, err := d.Dispatch(ctx, "nothing", "", &events{}, &order{})
	assert.NoError(t, err)
	assert.Nil(t, out)

	_, err = d.Dispatch(ctx, "boom", "", &events{}, "x")
	assert.ErrorIs(t, err, resolver.ErrInvocation)
}

func TestDispatchOwnerBean(t *testing.T) {
	cd := descriptor.Service[events]().Handler("on", "Exact").MustBuild()
	own := &owners{instance: &events{}}
	d := newDispatcher(t, own)
	require.NoError(t, d.RegisterClass(cd))

	out, err := d.Dispatch(context.Background(), "on", "", "not an events", &order{})
	require.NoError(t, err)
	assert.Equal(t, "exact", out)
	assert.Equal(t, 1, own.calls)
	assert.Equal(t, []string{"exact"}, own.instance.seen)

	t.Run("without owners", func(t *testing.T) {
		d := newDispatcher(t, nil)
		require.NoError(t, d.RegisterClass(cd))
		_, err := d.Dispatch(context.Background(), "on", "", nil, &order{})
		assert.ErrorIs(t, err, resolver.ErrInstantiation)
	})
}

func TestRegisterDuplicate(t *testing.T) {
	a := descriptor.Service[events]().Handler("on", "Exact").MustBuild()
	b := descriptor.Service[events](descriptor.Named("b")).Handler("on", "Nothing").MustBuild()

	d := newDispatcher(t, nil)
	require.NoError(t, d.RegisterClass(a))
	err := d.RegisterClass(b)
	assert.ErrorIs(t, err, ErrDuplicateHandler)

	assert.Len(t, d.Handlers("on"), 1)
	assert.Len(t, d.Handlers(""), 1)
	assert.Empty(t, d.Handlers("other"))
}

func TestDispatchAsync(t *testing.T) {
	cd := descriptor.Service[events]().Handler("on", "Async").MustBuild()
	d := newDispatcher(t, nil)
	require.NoError(t, d.RegisterClass(cd))

	target := &events{done: make(chan struct{})}
	require.NoError(t, d.DispatchAsync(context.Background(), "on", "", target, &order{}))

	select {
	case <-target.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler did not run")
	}
	assert.Equal(t, []string{"async"}, target.seen)

	d.Close()
	assert.ErrorIs(t, d.DispatchAsync(context.Background(), "on", "", target, &order{}), ErrClosed)
}
