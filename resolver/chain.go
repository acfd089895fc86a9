package resolver

import (
	"errors"
	"sync"

	"github.com/KOMKZ/go-yogan-ioc/descriptor"
)

// Chain resolvers indexed by shape. The first resolver registered for a
// shape wins; later ones are only kept for introspection.
type Chain struct {
	mu        sync.RWMutex
	resolvers []Resolver
	byShape   map[Shape]Resolver
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{byShape: make(map[Shape]Resolver)}
}

// Default a chain holding every built-in resolver
func Default() *Chain {
	c := NewChain()
	c.Register(Builtin()...)
	return c
}

// Builtin the built-in resolvers in registration order
func Builtin() []Resolver {
	return []Resolver{
		ClassResolver{},
		SingletonConstructorResolver{},
		PrototypeConstructorResolver{},
		InjectFieldResolver{},
		PropertyFieldResolver{},
		SingletonProviderResolver{},
		PrototypeProviderResolver{},
		PostInitResolver{},
	}
}

// Register appends resolvers
func (c *Chain) Register(resolvers ...Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range resolvers {
		c.resolvers = append(c.resolvers, r)
		for _, s := range r.Shapes() {
			if _, taken := c.byShape[s]; !taken {
				c.byShape[s] = r
			}
		}
	}
}

// Lookup the resolver for shape
func (c *Chain) Lookup(shape Shape) (Resolver, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if r, ok := c.byShape[shape]; ok {
		return r, nil
	}
	return nil, ErrNoApplicableResolver.WithMsgf("no resolver for %s", shape).WithData("shape", shape.String())
}

// Resolvers registered resolvers in order
func (c *Chain) Resolvers() []Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Resolver(nil), c.resolvers...)
}

// Check verifies that every class and member shape has a resolver
func (c *Chain) Check(classes []*descriptor.ClassDescriptor) error {
	var errs []error
	for _, cd := range classes {
		if _, err := c.Lookup(ClassShape(cd)); err != nil {
			errs = append(errs, ErrNoApplicableResolver.WithMsgf("%s: no resolver for %s", cd, ClassShape(cd)))
		}
		for _, m := range cd.Members() {
			if _, err := c.Lookup(ShapeOf(m)); err != nil {
				errs = append(errs, ErrNoApplicableResolver.WithMsgf("%s: no resolver for %s", m, ShapeOf(m)))
			}
		}
	}
	return errors.Join(errs...)
}
