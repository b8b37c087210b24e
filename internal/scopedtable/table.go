// Package scopedtable provides a multi-valued hash table whose entries are
// grouped into nested scopes.
//
// Entries are inserted into the innermost open scope and disappear when that
// scope is popped. Lookups only see entries of open scopes. The table never
// owns or mutates what it stores.
package scopedtable

// Table maps keys to buckets of values. Within a bucket, values are kept in
// insertion order, so entries of inner scopes always follow those of outer
// scopes.
type Table[K comparable, V any] struct {
	buckets map[K][]V
	scopes  [][]K // keys inserted per open scope, in insertion order
	size    int
}

// New creates an empty table with no open scope.
func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{buckets: make(map[K][]V)}
}

// Push opens a new innermost scope.
func (t *Table[K, V]) Push() {
	t.scopes = append(t.scopes, nil)
}

// Pop discards every entry inserted since the matching Push.
// It panics if no scope is open.
func (t *Table[K, V]) Pop() {
	if len(t.scopes) == 0 {
		panic("scopedtable: Pop without open scope")
	}
	top := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]

	for i := len(top) - 1; i >= 0; i-- {
		k := top[i]
		b := t.buckets[k]
		if len(b) == 1 {
			delete(t.buckets, k)
		} else {
			var zero V
			b[len(b)-1] = zero
			t.buckets[k] = b[:len(b)-1]
		}
		t.size--
	}
}

// Insert adds v under k in the innermost scope.
// It panics if no scope is open.
func (t *Table[K, V]) Insert(k K, v V) {
	if len(t.scopes) == 0 {
		panic("scopedtable: Insert without open scope")
	}
	t.buckets[k] = append(t.buckets[k], v)
	top := len(t.scopes) - 1
	t.scopes[top] = append(t.scopes[top], k)
	t.size++
}

// Lookup returns the first value under k, in insertion order, for which
// match returns true. A nil match accepts any value.
func (t *Table[K, V]) Lookup(k K, match func(V) bool) (V, bool) {
	for _, v := range t.buckets[k] {
		if match == nil || match(v) {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Depth returns the number of open scopes.
func (t *Table[K, V]) Depth() int {
	return len(t.scopes)
}

// Len returns the number of visible entries.
func (t *Table[K, V]) Len() int {
	return t.size
}
