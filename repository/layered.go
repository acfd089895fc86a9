package repository

import (
	"errors"
	"sync"

	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

// Layered queries several repositories in priority order.
// When a primary overlay is set, writes and clears go to it alone and reads
// consult it first; otherwise writes fan out to every layer. GetMany and
// GetAllKeys always union across all layers.
type Layered struct {
	mu      sync.RWMutex
	layers  []Repository
	primary Repository
}

// NewLayered creates a layered repository over layers, in registration order
func NewLayered(layers ...Repository) *Layered {
	return &Layered{layers: append([]Repository(nil), layers...)}
}

// Add appends a layer
func (l *Layered) Add(r Repository) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.layers = append(l.layers, r)
}

// SetPrimary designates the overlay; it is added as a layer when missing
func (l *Layered) SetPrimary(r Repository) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.primary = r
	for _, layer := range l.layers {
		if layer == r {
			return
		}
	}
	l.layers = append(l.layers, r)
}

// Primary returns the overlay, nil when unset
func (l *Layered) Primary() Repository {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.primary
}

// readOrder primary overlay first, then the rest in registration order
func (l *Layered) readOrder() []Repository {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Repository, 0, len(l.layers))
	if l.primary != nil {
		out = append(out, l.primary)
	}
	for _, layer := range l.layers {
		if layer != l.primary {
			out = append(out, layer)
		}
	}
	return out
}

// writeTargets primary overlay alone, or every layer
func (l *Layered) writeTargets() []Repository {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.primary != nil {
		return []Repository{l.primary}
	}
	return append([]Repository(nil), l.layers...)
}

// GetOne first layer that has the key wins; ambiguity in that layer surfaces
func (l *Layered) GetOne(key typekey.BeanTypeKey) (Entry, error) {
	for _, layer := range l.readOrder() {
		e, err := layer.GetOne(key)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Entry{}, err
		}
	}
	return Entry{}, ErrNotFound.WithMsgf("no bean registered for %s", key).WithData("key", key.String())
}

// GetMany union across layers; an entry whose source already appeared in an
// earlier layer is skipped
func (l *Layered) GetMany(key typekey.BeanTypeKey) []Entry {
	out := []Entry{}
	for _, layer := range l.readOrder() {
	next:
		for _, e := range layer.GetMany(key) {
			for _, seen := range out {
				if sameSource(seen.Source, e.Source) {
					continue next
				}
			}
			out = append(out, e)
		}
	}
	return out
}

// Set implements Repository
func (l *Layered) Set(key typekey.BeanTypeKey, entry Entry) error {
	var errs []error
	for _, layer := range l.writeTargets() {
		if err := layer.Set(key, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// Contains implements Repository
func (l *Layered) Contains(key typekey.BeanTypeKey) bool {
	for _, layer := range l.readOrder() {
		if layer.Contains(key) {
			return true
		}
	}
	return false
}

// UnSet implements Repository
func (l *Layered) UnSet(key typekey.BeanTypeKey) {
	for _, layer := range l.writeTargets() {
		layer.UnSet(key)
	}
}

// Clear implements Repository
func (l *Layered) Clear() {
	for _, layer := range l.writeTargets() {
		layer.Clear()
	}
}

// GetAllKeys implements Repository
func (l *Layered) GetAllKeys() []typekey.BeanTypeKey {
	return l.GetKeys(nil)
}

// GetKeys implements Repository
func (l *Layered) GetKeys(predicate func(typekey.BeanTypeKey) bool) []typekey.BeanTypeKey {
	seen := make(map[string]bool)
	var keys []typekey.BeanTypeKey
	for _, layer := range l.readOrder() {
		for _, k := range layer.GetKeys(predicate) {
			if seen[k.ID()] {
				continue
			}
			seen[k.ID()] = true
			keys = append(keys, k)
		}
	}
	return keys
}
