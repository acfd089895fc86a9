// Package dispatch selects and invokes handler methods by the runtime types
// of their arguments.
//
// Handlers are tried in registration order; the first whose marker, name
// and parameters are compatible with the call wins. A call nothing matches
// returns (nil, nil).
package dispatch

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Owners resolves the owning bean of a handler when no target is given
type Owners interface {
	Instance(ctx context.Context, cd *descriptor.ClassDescriptor) (reflect.Value, error)
}

// Dispatcher handler registry
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []*descriptor.HandlerDescriptor
	owners   Owners
	pool     *ants.Pool
	poolSize int
	logger   *logger.CtxZapLogger
	closed   int32
}

// New creates a dispatcher
func New(owners Owners, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		owners:   owners,
		poolSize: 16,
		logger:   logger.GetLogger("ioc"),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	d.pool, err = ants.NewPool(d.poolSize)
	if err != nil {
		d.logger.Error("failed to create dispatch pool, falling back to defaults", zap.Error(err))
		d.pool, _ = ants.NewPool(16)
	}
	return d
}

// Register adds a handler; an identical HandlerTypeKey is rejected
func (d *Dispatcher) Register(h *descriptor.HandlerDescriptor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := h.Key()
	for _, existing := range d.handlers {
		if existing.Key().Equal(key) {
			return ErrDuplicateHandler.WithMsgf("handler %s already registered by %s", key, existing).
				WithData("handler", key.String())
		}
	}
	d.handlers = append(d.handlers, h)
	return nil
}

// RegisterClass registers every handler of cd
func (d *Dispatcher) RegisterClass(cd *descriptor.ClassDescriptor) error {
	for _, h := range cd.Handlers {
		if err := d.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// Handlers registered handlers for marker in registration order; all of
// them when marker is empty
func (d *Dispatcher) Handlers(marker string) []*descriptor.HandlerDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*descriptor.HandlerDescriptor
	for _, h := range d.handlers {
		if marker == "" || h.Marker == marker {
			out = append(out, h)
		}
	}
	return out
}

// Match the first handler accepting args, nil if none
func (d *Dispatcher) Match(marker, name string, args ...any) *descriptor.HandlerDescriptor {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, h := range d.handlers {
		if h.Marker != marker || h.Name != name {
			continue
		}
		if accepts(h.Key().Params, args) {
			return h
		}
	}
	return nil
}

// Dispatch invokes the first matching handler. The handler runs on target
// when target is an instance of the declaring class, else on the owner bean.
func (d *Dispatcher) Dispatch(ctx context.Context, marker, name string, target any, args ...any) (any, error) {
	h := d.Match(marker, name, args...)
	if h == nil {
		d.logger.DebugCtx(ctx, "no handler matched",
			zap.String("marker", marker),
			zap.String("name", name),
			zap.Int("args", len(args)))
		return nil, nil
	}

	recv, err := d.receiver(ctx, h, target)
	if err != nil {
		return nil, err
	}
	return invoke(h, recv, args)
}

// DispatchAsync runs Dispatch on the pool; failures are logged
func (d *Dispatcher) DispatchAsync(ctx context.Context, marker, name string, target any, args ...any) error {
	if atomic.LoadInt32(&d.closed) == 1 {
		return ErrClosed
	}

	err := d.pool.Submit(func() {
		if _, err := d.Dispatch(ctx, marker, name, target, args...); err != nil {
			d.logger.ErrorCtx(ctx, "async dispatch failed",
				zap.String("marker", marker),
				zap.String("name", name),
				zap.Error(err))
		}
	})
	if err != nil {
		d.logger.ErrorCtx(ctx, "failed to submit async dispatch",
			zap.String("marker", marker),
			zap.Error(err))
	}
	return err
}

// Closed reports whether Close was called
func (d *Dispatcher) Closed() bool {
	return atomic.LoadInt32(&d.closed) == 1
}

// Close releases the async pool
func (d *Dispatcher) Close() {
	if atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		d.pool.Release()
	}
}

func (d *Dispatcher) receiver(ctx context.Context, h *descriptor.HandlerDescriptor, target any) (reflect.Value, error) {
	owner := h.Owner()
	if target != nil && reflect.TypeOf(target).AssignableTo(owner.Type) {
		return reflect.ValueOf(target), nil
	}
	if d.owners == nil {
		return reflect.Value{}, resolver.ErrInstantiation.WithMsgf("no owner instance for %s", h)
	}
	return d.owners.Instance(ctx, owner)
}

func accepts(params []typekey.TypeDesc, args []any) bool {
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		if !compatible(p, args[i]) {
			return false
		}
	}
	return true
}

// compatible: assignable to the declared type, or structurally equal to a
// parameterized declared descriptor
func compatible(p typekey.TypeDesc, arg any) bool {
	if arg == nil {
		return p.Type != nil && nillable(p.Type.Kind())
	}
	if p.Type != nil && reflect.TypeOf(arg).AssignableTo(p.Type) {
		return true
	}
	return typekey.OfValue(arg).Equal(p)
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func invoke(h *descriptor.HandlerDescriptor, recv reflect.Value, args []any) (out any, err error) {
	params := h.Key().Params
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		if a == nil {
			in[i] = reflect.Zero(params[i].Type)
			continue
		}
		in[i] = reflect.ValueOf(a)
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = resolver.ErrInvocation.WithMsgf("handler %s panicked: %v", h, r)
		}
	}()
	return h.Call(recv, in)
}
