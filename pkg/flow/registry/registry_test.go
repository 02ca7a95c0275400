package registry

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRegistry_RegisterGet tests basic registration and lookup.
func TestRegistry_RegisterGet(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.True(t, r.Has("b"))
	assert.Equal(t, 2, r.Len())
}

// TestRegistry_RegisterReplaces tests that re-registering overwrites.
func TestRegistry_RegisterReplaces(t *testing.T) {
	r := New[string, string]()
	r.Register("k", "old")
	r.Register("k", "new")

	v, _ := r.Get("k")
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, r.Len())
}

// TestRegistry_Delete tests removal.
func TestRegistry_Delete(t *testing.T) {
	r := New[string, int]()
	r.Register("k", 1)
	r.Delete("k")

	assert.False(t, r.Has("k"))
	// Deleting twice is a no-op.
	r.Delete("k")
	assert.Equal(t, 0, r.Len())
}

// TestRegistry_Keys tests key listing.
func TestRegistry_Keys(t *testing.T) {
	r := New[string, int]()
	r.Register("b", 1)
	r.Register("a", 2)

	keys := r.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)
}

// TestRegistry_Range tests iteration and early termination.
func TestRegistry_Range(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)
	r.Register("c", 3)

	visited := 0
	r.Range(func(k string, v int) bool {
		visited++
		return true
	})
	assert.Equal(t, 3, visited)

	stopped := 0
	r.Range(func(k string, v int) bool {
		stopped++
		return false
	})
	assert.Equal(t, 1, stopped)
}

// TestRegistry_RangeSnapshotAllowsMutation tests that modifying inside
// Range is safe.
func TestRegistry_RangeSnapshotAllowsMutation(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	assert.NotPanics(t, func() {
		r.Range(func(k string, v int) bool {
			r.Register(k+"x", v*10)
			r.Delete(k)
			return true
		})
	})
	assert.True(t, r.Has("ax"))
	assert.False(t, r.Has("a"))
}

// TestRegistry_ConcurrentAccess tests thread safety under contention.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Register(n*100+j, j)
				r.Get(n*100 + j)
				r.Has(n)
				r.Len()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, r.Len())
}
