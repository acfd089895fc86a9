package descriptor

import (
	"errors"
	"sync"
)

// Scanner yields the component declarations to load into a container
type Scanner interface {
	Scan() ([]*ClassDescriptor, error)
}

// ScannerFunc adapts a function to Scanner
type ScannerFunc func() ([]*ClassDescriptor, error)

func (f ScannerFunc) Scan() ([]*ClassDescriptor, error) { return f() }

// Catalog an ordered set of declarations, typically filled from init()
type Catalog struct {
	mu      sync.Mutex
	entries []catalogEntry
}

type catalogEntry struct {
	builder *Builder
	class   *ClassDescriptor
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Add queues builders; they are built on Scan
func (c *Catalog) Add(builders ...*Builder) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range builders {
		c.entries = append(c.entries, catalogEntry{builder: b})
	}
	return c
}

// AddClass appends already built descriptors
func (c *Catalog) AddClass(classes ...*ClassDescriptor) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cd := range classes {
		c.entries = append(c.entries, catalogEntry{class: cd})
	}
	return c
}

// Len number of queued declarations
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Scan builds every queued declaration in insertion order.
// All build errors are reported together.
func (c *Catalog) Scan() ([]*ClassDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]*ClassDescriptor, 0, len(c.entries))
	var errs []error
	for _, e := range c.entries {
		if e.class != nil {
			result = append(result, e.class)
			continue
		}
		cd, err := e.builder.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = append(result, cd)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}

var defaultCatalog = NewCatalog()

// Default the process-wide catalog used by Register
func Default() *Catalog {
	return defaultCatalog
}

// Register adds builders to the default catalog
func Register(builders ...*Builder) {
	defaultCatalog.Add(builders...)
}
