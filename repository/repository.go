// Package repository stores bean entries by key.
//
// A key may hold several entries; GetOne picks the single entry or the unique
// primary one, GetMany returns all of them. Layered stacks several
// repositories behind one interface.
package repository

import (
	"reflect"
	"sync"

	"github.com/KOMKZ/go-yogan-ioc/typekey"
)

// Entry one registration under a key.
// Source identifies where the value comes from (a constructor or provider
// descriptor, or an instance source) and must be comparable to take part in
// de-duplication. Value stays nil until the source has produced an instance.
type Entry struct {
	Value   any
	Source  any
	Primary bool
}

// HasValue reports whether the entry carries an instance
func (e Entry) HasValue() bool {
	return e.Value != nil
}

// Repository multi-valued key -> entry store
type Repository interface {
	// GetOne returns the only entry, or the unique primary entry
	GetOne(key typekey.BeanTypeKey) (Entry, error)

	// GetMany returns every entry for key; never fails
	GetMany(key typekey.BeanTypeKey) []Entry

	// Set registers an entry.
	// An entry whose source is already registered under key is ignored, except
	// that it fills in the stored value when the stored entry has none.
	Set(key typekey.BeanTypeKey, entry Entry) error

	Contains(key typekey.BeanTypeKey) bool
	UnSet(key typekey.BeanTypeKey)
	Clear()

	// GetAllKeys keys in registration order
	GetAllKeys() []typekey.BeanTypeKey

	// GetKeys keys accepted by predicate, in registration order
	GetKeys(predicate func(typekey.BeanTypeKey) bool) []typekey.BeanTypeKey
}

type bucket struct {
	key     typekey.BeanTypeKey
	entries []Entry
}

// MapRepository in-memory Repository, safe for concurrent use
type MapRepository struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	order   []string
}

// New creates an empty MapRepository
func New() *MapRepository {
	return &MapRepository{
		buckets: make(map[string]*bucket),
	}
}

// GetOne implements Repository
func (r *MapRepository) GetOne(key typekey.BeanTypeKey) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buckets[key.ID()]
	if !ok || len(b.entries) == 0 {
		return Entry{}, ErrNotFound.WithMsgf("no bean registered for %s", key).WithData("key", key.String())
	}
	return pickOne(key, b.entries)
}

func pickOne(key typekey.BeanTypeKey, entries []Entry) (Entry, error) {
	if len(entries) == 1 {
		return entries[0], nil
	}

	var primary []Entry
	for _, e := range entries {
		if e.Primary {
			primary = append(primary, e)
		}
	}
	if len(primary) != 1 {
		return Entry{}, ErrAmbiguous.
			WithMsgf("%d beans registered for %s and %d marked primary", len(entries), key, len(primary)).
			WithData("key", key.String()).
			WithData("candidates", len(entries))
	}
	return primary[0], nil
}

// GetMany implements Repository
func (r *MapRepository) GetMany(key typekey.BeanTypeKey) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buckets[key.ID()]
	if !ok {
		return []Entry{}
	}
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Set implements Repository
func (r *MapRepository) Set(key typekey.BeanTypeKey, entry Entry) error {
	if key.Type.Unresolved() {
		return typekey.ErrInvalidKey.WithMsgf("cannot register %s: unresolved type parameter", key).
			WithData("key", key.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := key.ID()
	b, ok := r.buckets[id]
	if !ok {
		b = &bucket{key: key}
		r.buckets[id] = b
		r.order = append(r.order, id)
	}

	for i, existing := range b.entries {
		if sameSource(existing.Source, entry.Source) {
			if entry.HasValue() && !existing.HasValue() {
				b.entries[i].Value = entry.Value
			}
			return nil
		}
	}

	if entry.Primary {
		for _, existing := range b.entries {
			if existing.Primary {
				return ErrDuplicatePrimary.WithMsgf("a primary bean is already registered for %s", key).
					WithData("key", key.String())
			}
		}
	}

	b.entries = append(b.entries, entry)
	return nil
}

// Contains implements Repository
func (r *MapRepository) Contains(key typekey.BeanTypeKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.buckets[key.ID()]
	return ok && len(b.entries) > 0
}

// UnSet implements Repository
func (r *MapRepository) UnSet(key typekey.BeanTypeKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := key.ID()
	if _, ok := r.buckets[id]; !ok {
		return
	}
	delete(r.buckets, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Clear implements Repository
func (r *MapRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buckets = make(map[string]*bucket)
	r.order = nil
}

// GetAllKeys implements Repository
func (r *MapRepository) GetAllKeys() []typekey.BeanTypeKey {
	return r.GetKeys(nil)
}

// GetKeys implements Repository
func (r *MapRepository) GetKeys(predicate func(typekey.BeanTypeKey) bool) []typekey.BeanTypeKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]typekey.BeanTypeKey, 0, len(r.order))
	for _, id := range r.order {
		b := r.buckets[id]
		if len(b.entries) == 0 {
			continue
		}
		if predicate == nil || predicate(b.key) {
			keys = append(keys, b.key)
		}
	}
	return keys
}

// sameSource nil or non-comparable sources never collide
func sameSource(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
