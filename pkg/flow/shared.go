package flow

import (
	"fmt"
	"sort"
)

// Shared is the mutable key-value store passed by reference through one
// flow run. Every node in the run sees the mutations of the nodes that ran
// before it. The engine enforces no schema; key conventions are an
// agreement between collaborating nodes.
//
// Shared is NOT safe for concurrent use. Within one flow run node
// lifecycles never overlap, so no locking is needed. Parallel batch
// execution must never share one live Shared across iterations; the engine
// hands each parallel iteration a Clone and the caller aggregates results
// explicitly after all iterations settle.
type Shared struct {
	values map[string]any
}

// NewShared creates an empty store.
func NewShared() *Shared {
	return &Shared{values: make(map[string]any)}
}

// NewSharedFrom creates a store seeded with a copy of values.
func NewSharedFrom(values map[string]any) *Shared {
	s := NewShared()
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Set stores a value under key, replacing any previous value.
func (s *Shared) Set(key string, value any) {
	s.values[key] = value
}

// Get returns the raw value for key and whether it exists.
func (s *Shared) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Has returns true if key is present.
func (s *Shared) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Delete removes key from the store.
func (s *Shared) Delete(key string) {
	delete(s.values, key)
}

// Len returns the number of stored keys.
func (s *Shared) Len() int {
	return len(s.values)
}

// Keys returns all keys in sorted order.
func (s *Shared) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent store holding the same entries. The copy is
// shallow: values of reference types still point at the same underlying
// data, so parallel iterations should treat inherited values as read-only
// and write results under iteration-owned keys.
func (s *Shared) Clone() *Shared {
	return NewSharedFrom(s.values)
}

// Snapshot returns a copy of the underlying map, for serialization or
// debugging.
func (s *Shared) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// String returns the string stored under key. Fails with ErrKeyNotFound
// if the key is absent, or a *TypeError matching ErrWrongType if the
// value is not a string.
func (s *Shared) String(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", &KeyError{Key: key, Err: ErrKeyNotFound}
	}
	str, ok := v.(string)
	if !ok {
		return "", typeError(key, "string", v)
	}
	return str, nil
}

// Int returns the int stored under key. Fails with ErrKeyNotFound if the
// key is absent, or a *TypeError matching ErrWrongType if the value is
// not an int.
func (s *Shared) Int(key string) (int, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, &KeyError{Key: key, Err: ErrKeyNotFound}
	}
	i, ok := v.(int)
	if !ok {
		return 0, typeError(key, "int", v)
	}
	return i, nil
}

// Float returns the float64 stored under key. Fails with ErrKeyNotFound
// if the key is absent, or a *TypeError matching ErrWrongType if the
// value is not a float64.
func (s *Shared) Float(key string) (float64, error) {
	v, ok := s.values[key]
	if !ok {
		return 0, &KeyError{Key: key, Err: ErrKeyNotFound}
	}
	f, ok := v.(float64)
	if !ok {
		return 0, typeError(key, "float64", v)
	}
	return f, nil
}

// Bool returns the bool stored under key. Fails with ErrKeyNotFound if
// the key is absent, or a *TypeError matching ErrWrongType if the value
// is not a bool.
func (s *Shared) Bool(key string) (bool, error) {
	v, ok := s.values[key]
	if !ok {
		return false, &KeyError{Key: key, Err: ErrKeyNotFound}
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeError(key, "bool", v)
	}
	return b, nil
}

// StringSlice returns the []string stored under key. Fails with
// ErrKeyNotFound if the key is absent, or a *TypeError matching
// ErrWrongType if the value is not a []string.
func (s *Shared) StringSlice(key string) ([]string, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, &KeyError{Key: key, Err: ErrKeyNotFound}
	}
	ss, ok := v.([]string)
	if !ok {
		return nil, typeError(key, "[]string", v)
	}
	return ss, nil
}

func typeError(key, want string, got any) *TypeError {
	return &TypeError{Key: key, Want: want, Got: fmt.Sprintf("%T", got)}
}
