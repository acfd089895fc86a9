// Package di is the metadata-driven dependency-injection container.
//
// A Container loads class descriptors from one or more scanners, registers
// every key they provide, and creates instances on demand through the
// resolver chain. Singletons are created once per container: concurrent
// requesters of one singleton share a single flight, and the flight holder
// creates the whole singleton subgraph under the container's creation lock.
// Prototypes are created on every request.
package di

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/config"
	"github.com/KOMKZ/go-yogan-ioc/convert"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/dispatch"
	"github.com/KOMKZ/go-yogan-ioc/graph"
	"github.com/KOMKZ/go-yogan-ioc/health"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/repository"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/KOMKZ/go-yogan-ioc/typekey"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// instanceSource the source of an entry registered with a ready value
type instanceSource struct {
	key string
}

type creationKey struct{}

// creation marks a ctx as running under the creation lock
type creation struct {
	source descriptor.Member
}

// Container implements resolver.Factory and dispatch.Owners
type Container struct {
	id     string
	repo   *repository.Layered
	local  *repository.MapRepository
	chain  *resolver.Chain
	props  config.PropertySource
	logger *logger.CtxZapLogger

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metrics        *containerMetrics
	tracer         trace.Tracer

	dispatcher   *dispatch.Dispatcher
	dispatchOpts []dispatch.Option

	flight   singleflight.Group
	createMu sync.Mutex
	creator  atomic.Pointer[creation]

	mu      sync.RWMutex
	classes []*descriptor.ClassDescriptor
}

// New creates an empty container holding the default converters and itself
func New(opts ...Option) *Container {
	c := &Container{
		id:             uuid.NewString(),
		repo:           repository.NewLayered(),
		local:          repository.New(),
		chain:          resolver.Default(),
		logger:         logger.GetLogger("ioc"),
		meterProvider:  otel.GetMeterProvider(),
		tracerProvider: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.repo.SetPrimary(c.local)
	c.tracer = c.tracerProvider.Tracer(instrumentationName)

	m, err := newContainerMetrics(c.meterProvider)
	if err != nil {
		c.logger.Warn("container metrics disabled", zap.Error(err))
	}
	c.metrics = m

	c.dispatcher = dispatch.New(c, append([]dispatch.Option{dispatch.WithLogger(c.logger)}, c.dispatchOpts...)...)

	for _, conv := range convert.Defaults() {
		_ = c.RegisterInstance(convert.Key(conv.Target()), conv, false)
	}
	_ = c.RegisterInstance(typekey.Bean[*Container](), c, false)
	return c
}

// ID unique id of this container
func (c *Container) ID() string { return c.id }

// Chain the resolver chain in use
func (c *Container) Chain() *resolver.Chain { return c.chain }

// Repository the layered repository backing the container
func (c *Container) Repository() repository.Repository { return c.repo }

// Dispatcher the handler dispatcher
func (c *Container) Dispatcher() *dispatch.Dispatcher { return c.dispatcher }

// Load scans declarations and registers every key they provide.
// Nothing is registered when any declaration, resolver shape, primary flag
// or handler key is rejected.
func (c *Container) Load(scanners ...descriptor.Scanner) error {
	var classes []*descriptor.ClassDescriptor
	for _, s := range scanners {
		found, err := s.Scan()
		if err != nil {
			return err
		}
		classes = append(classes, found...)
	}
	classes = c.unloaded(classes)

	if err := c.chain.Check(classes); err != nil {
		return err
	}
	if err := c.checkHandlers(classes); err != nil {
		return err
	}

	staged := repository.New()
	for _, cd := range classes {
		for _, m := range cd.Members() {
			primary := isPrimary(m)
			for _, key := range m.Provides() {
				if err := staged.Set(key, repository.Entry{Source: m, Primary: primary}); err != nil {
					return err
				}
				if primary && c.hasOtherPrimary(key, m) {
					return repository.ErrDuplicatePrimary.
						WithMsgf("a primary bean is already registered for %s", key).
						WithData("key", key.String())
				}
			}
		}
	}

	keys := staged.GetAllKeys()
	for _, key := range keys {
		for _, e := range staged.GetMany(key) {
			if err := c.repo.Set(key, e); err != nil {
				return err
			}
		}
	}
	for _, cd := range classes {
		if err := c.dispatcher.RegisterClass(cd); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.classes = append(c.classes, classes...)
	c.mu.Unlock()

	c.logger.Info("declarations loaded",
		zap.String("container", c.id),
		zap.Int("classes", len(classes)),
		zap.Int("keys", len(keys)))
	return nil
}

// unloaded drops classes already loaded into c or repeated in the batch
func (c *Container) unloaded(classes []*descriptor.ClassDescriptor) []*descriptor.ClassDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[*descriptor.ClassDescriptor]bool, len(c.classes)+len(classes))
	for _, cd := range c.classes {
		seen[cd] = true
	}
	out := make([]*descriptor.ClassDescriptor, 0, len(classes))
	for _, cd := range classes {
		if !seen[cd] {
			seen[cd] = true
			out = append(out, cd)
		}
	}
	return out
}

func (c *Container) checkHandlers(classes []*descriptor.ClassDescriptor) error {
	known := c.dispatcher.Handlers("")
	for _, cd := range classes {
		for _, h := range cd.Handlers {
			key := h.Key()
			for _, existing := range known {
				if existing.Key().Equal(key) {
					return dispatch.ErrDuplicateHandler.
						WithMsgf("handler %s already registered by %s", key, existing).
						WithData("handler", key.String())
				}
			}
			known = append(known, h)
		}
	}
	return nil
}

func (c *Container) hasOtherPrimary(key typekey.BeanTypeKey, source descriptor.Member) bool {
	for _, e := range c.repo.GetMany(key) {
		if m, ok := e.Source.(descriptor.Member); e.Primary && (!ok || m != source) {
			return true
		}
	}
	return false
}

func isPrimary(m descriptor.Member) bool {
	switch m := m.(type) {
	case *descriptor.ConstructorDescriptor:
		return m.Owner().Primary
	case *descriptor.MethodDescriptor:
		return m.Primary
	}
	return false
}

// RegisterInstance registers a ready value under key
func (c *Container) RegisterInstance(key typekey.BeanTypeKey, value any, primary bool) error {
	if err := typekey.Validate(key); err != nil {
		return err
	}
	if value == nil {
		return resolver.ErrInstantiation.WithMsgf("cannot register a nil instance for %s", key).
			WithData("key", key.String())
	}
	return c.repo.Set(key, repository.Entry{
		Value:   value,
		Source:  &instanceSource{key: key.String()},
		Primary: primary,
	})
}

// Classes loaded class descriptors in load order
func (c *Container) Classes() []*descriptor.ClassDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*descriptor.ClassDescriptor(nil), c.classes...)
}

// Keys every registered key in registration order
func (c *Container) Keys() []typekey.BeanTypeKey {
	return c.repo.GetAllKeys()
}

// GetBean resolves the value for key.
// A slice or single-argument collection key that is not registered itself
// collects every bean registered under its element key.
func (c *Container) GetBean(ctx context.Context, key typekey.BeanTypeKey) (any, error) {
	if len(resolver.Path(ctx)) > 0 {
		return c.getBean(ctx, key)
	}

	ctx, span := c.tracer.Start(ctx, "ioc.GetBean", trace.WithAttributes(
		attribute.String("ioc.key", key.String()),
		attribute.String("ioc.container", c.id),
	))
	defer span.End()

	start := time.Now()
	v, err := c.getBean(ctx, key)
	c.metrics.recordResolve(ctx, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnCtx(ctx, "bean resolution failed", zap.String("key", key.String()), zap.Error(err))
	}
	return v, err
}

func (c *Container) getBean(ctx context.Context, key typekey.BeanTypeKey) (any, error) {
	if err := typekey.Validate(key); err != nil {
		return nil, err
	}

	entry, err := c.repo.GetOne(key)
	if err == nil {
		return c.value(ctx, entry)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	elem, ok, elemErr := typekey.ElementKey(key)
	if elemErr != nil {
		return nil, elemErr
	}
	if !ok {
		return nil, err
	}
	return c.collect(ctx, key, elem)
}

// GetBeans every value registered under key, in registration order
func (c *Container) GetBeans(ctx context.Context, key typekey.BeanTypeKey) ([]any, error) {
	if err := typekey.Validate(key); err != nil {
		return nil, err
	}
	entries := c.repo.GetMany(key)
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		v, err := c.value(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Container) collect(ctx context.Context, key, elem typekey.BeanTypeKey) (any, error) {
	entries := c.repo.GetMany(elem)
	if len(entries) == 0 {
		return nil, repository.ErrNotFound.WithMsgf("no bean registered for %s or %s", key, elem).
			WithData("key", key.String())
	}

	st := key.Type.Type
	if st == nil || st.Kind() != reflect.Slice {
		et := elem.Type.Type
		if et == nil {
			et = anyType
		}
		st = reflect.SliceOf(et)
	}

	out := reflect.MakeSlice(st, 0, len(entries))
	for _, e := range entries {
		v, err := c.value(ctx, e)
		if err != nil {
			return nil, err
		}
		if v == nil {
			out = reflect.Append(out, reflect.Zero(st.Elem()))
			continue
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(st.Elem()) {
			return nil, resolver.ErrInstantiation.
				WithMsgf("bean of type %s cannot be collected into %s", rv.Type(), st).
				WithData("key", key.String())
		}
		out = reflect.Append(out, rv)
	}
	return out.Interface(), nil
}

// value the entry's stored value, or the value its source member produces
func (c *Container) value(ctx context.Context, e repository.Entry) (any, error) {
	if e.HasValue() {
		return e.Value, nil
	}
	m, ok := e.Source.(descriptor.Member)
	if !ok {
		return nil, resolver.ErrInstantiation.WithMsgf("entry source %T cannot produce a value", e.Source)
	}
	v, err := c.produce(ctx, m)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Instance implements resolver.Factory and dispatch.Owners
func (c *Container) Instance(ctx context.Context, cd *descriptor.ClassDescriptor) (reflect.Value, error) {
	return c.produce(ctx, cd.Constructor)
}

// produce runs a source member (a constructor or a provider method).
// The cycle check happens before the single-flight guard: a goroutine
// waiting on its own flight would never wake up.
// Singletons needed while the creation lock is held are created inline,
// never through another flight, so two goroutines cannot wait on each other.
func (c *Container) produce(ctx context.Context, source descriptor.Member) (reflect.Value, error) {
	singleton := source.Scope() == descriptor.Singleton
	if singleton {
		if v, ok := c.Persisted(source); ok {
			return reflect.ValueOf(v), nil
		}
	}

	ctx, early, err := resolver.Enter(ctx, source)
	if err != nil {
		return reflect.Value{}, err
	}
	if early.IsValid() {
		return early, nil
	}

	if !singleton || c.creating(ctx) {
		return c.run(ctx, source)
	}

	v, err, _ := c.flight.Do(fmt.Sprintf("%p", source), func() (any, error) {
		c.createMu.Lock()
		defer c.createMu.Unlock()
		if v, ok := c.Persisted(source); ok {
			return reflect.ValueOf(v), nil
		}

		token := &creation{source: source}
		c.creator.Store(token)
		defer c.creator.Store(nil)
		return c.run(context.WithValue(ctx, creationKey{}, token), source)
	})
	if err != nil {
		return reflect.Value{}, err
	}
	return v.(reflect.Value), nil
}

// creating reports whether ctx belongs to the current holder of the creation lock
func (c *Container) creating(ctx context.Context) bool {
	token, _ := ctx.Value(creationKey{}).(*creation)
	return token != nil && c.creator.Load() == token
}

func (c *Container) run(ctx context.Context, source descriptor.Member) (reflect.Value, error) {
	var (
		v   reflect.Value
		err error
	)
	if ctor, ok := source.(*descriptor.ConstructorDescriptor); ok {
		var r resolver.Resolver
		if r, err = c.chain.Lookup(resolver.ClassShape(ctor.Owner())); err == nil {
			v, err = r.Resolve(ctx, resolver.Request{Member: ctor, Factory: c})
		}
	} else {
		v, err = c.Resolve(ctx, resolver.Request{Member: source, Factory: c})
	}
	if err != nil {
		return reflect.Value{}, err
	}

	c.metrics.recordCreated(ctx, source.Scope().String())
	c.logger.DebugCtx(ctx, "bean created",
		zap.String("source", source.String()),
		zap.String("scope", source.Scope().String()))
	return v, nil
}

// Resolve implements resolver.Factory
func (c *Container) Resolve(ctx context.Context, req resolver.Request) (reflect.Value, error) {
	r, err := c.chain.Lookup(resolver.ShapeOf(req.Member))
	if err != nil {
		return reflect.Value{}, err
	}
	if req.Factory == nil {
		req.Factory = c
	}
	return r.Resolve(ctx, req)
}

// Persisted implements resolver.Factory
func (c *Container) Persisted(source descriptor.Member) (any, bool) {
	keys := source.Provides()
	if len(keys) == 0 {
		return nil, false
	}
	for _, e := range c.repo.GetMany(keys[0]) {
		if m, ok := e.Source.(descriptor.Member); ok && m == source && e.HasValue() {
			return e.Value, true
		}
	}
	return nil, false
}

// Persist implements resolver.Factory
func (c *Container) Persist(source descriptor.Member, v reflect.Value) error {
	if !v.IsValid() {
		return nil
	}
	value := v.Interface()
	for _, key := range source.Provides() {
		entry := repository.Entry{Value: value, Source: source, Primary: isPrimary(source)}
		if err := c.repo.Set(key, entry); err != nil {
			return err
		}
	}
	return nil
}

// Property implements resolver.Factory
func (c *Container) Property(name string) (string, bool) {
	if c.props == nil {
		return "", false
	}
	return c.props.GetProperty(name)
}

// Dispatch invokes the first handler matching marker, name and args
func (c *Container) Dispatch(ctx context.Context, marker, name string, target any, args ...any) (any, error) {
	return c.dispatcher.Dispatch(ctx, marker, name, target, args...)
}

// DispatchAsync Dispatch on the dispatcher's worker pool
func (c *Container) DispatchAsync(ctx context.Context, marker, name string, target any, args ...any) error {
	return c.dispatcher.DispatchAsync(ctx, marker, name, target, args...)
}

// Graph dependency graph of the loaded classes
func (c *Container) Graph() (*graph.Graph, error) {
	return graph.New(c.Classes())
}

// Cycles the first dependency cycle among loaded classes, empty when acyclic
func (c *Container) Cycles() ([]descriptor.Member, error) {
	g, err := c.Graph()
	if err != nil {
		return nil, err
	}
	return g.CycleSet(), nil
}

// Name implements health.Checker
func (c *Container) Name() string { return "ioc" }

// Check implements health.Checker. A closed container is unhealthy; a
// constructor or provider cycle among loaded classes only degrades it,
// since beans outside the cycle still resolve.
func (c *Container) Check(ctx context.Context) error {
	if c.dispatcher.Closed() {
		return dispatch.ErrClosed.WithMsgf("container %s is closed", c.id)
	}
	cycle, err := c.Cycles()
	if err != nil {
		return err
	}
	if len(cycle) > 0 {
		return health.ErrDegraded.WithMsgf("dependency cycle through %s", cycle[0]).
			Wrap(resolver.ErrCycle)
	}
	return nil
}

// Shutdown releases the dispatch pool; satisfies do.ShutdownerWithError
func (c *Container) Shutdown() error {
	c.dispatcher.Close()
	c.logger.Info("container closed", zap.String("container", c.id))
	return nil
}
