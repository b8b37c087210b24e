package tracking

import (
	"cmp"
	"slices"

	"github.com/roach88/trackcse/internal/ir"
)

// Key names a handle held by the caller.
type Key string

// Pair is one (key, operation) association.
type Pair struct {
	Key Key     `json:"key"`
	Op  ir.OpID `json:"op"`
}

// Mapping is a multi-map from keys to operations. A key may map to any
// number of operations and an operation may be reachable from any number of
// keys. Insert is idempotent and removing an absent pair is a no-op.
type Mapping interface {
	// Pairs returns every pair ordered by key, then by OpID.
	Pairs() ([]Pair, error)

	// Remove deletes the pair (key, op).
	Remove(key Key, op ir.OpID) error

	// Insert adds the pair (key, op).
	Insert(key Key, op ir.OpID) error
}

// KeyIndex is implemented by mappings that can list the keys of one
// operation without a full scan.
type KeyIndex interface {
	KeysOf(op ir.OpID) ([]Key, error)
}

// KeysOf returns the keys mapping to op, sorted, using KeyIndex when m
// implements it.
func KeysOf(m Mapping, op ir.OpID) ([]Key, error) {
	if idx, ok := m.(KeyIndex); ok {
		return idx.KeysOf(op)
	}
	pairs, err := m.Pairs()
	if err != nil {
		return nil, err
	}
	var keys []Key
	for _, p := range pairs {
		if p.Op == op {
			keys = append(keys, p.Key)
		}
	}
	return keys, nil
}

// SortPairs orders pairs by key, then by OpID.
func SortPairs(pairs []Pair) {
	slices.SortFunc(pairs, func(a, b Pair) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Op, b.Op)
	})
}

// Map is an in-memory Mapping with a reverse index.
type Map struct {
	byKey map[Key]map[ir.OpID]struct{}
	byOp  map[ir.OpID]map[Key]struct{}
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{
		byKey: make(map[Key]map[ir.OpID]struct{}),
		byOp:  make(map[ir.OpID]map[Key]struct{}),
	}
}

// Track associates key with every given operation.
func (m *Map) Track(key Key, ops ...*ir.Operation) {
	for _, op := range ops {
		_ = m.Insert(key, op.ID())
	}
}

// Insert implements Mapping.
func (m *Map) Insert(key Key, op ir.OpID) error {
	if m.byKey[key] == nil {
		m.byKey[key] = make(map[ir.OpID]struct{})
	}
	if m.byOp[op] == nil {
		m.byOp[op] = make(map[Key]struct{})
	}
	m.byKey[key][op] = struct{}{}
	m.byOp[op][key] = struct{}{}
	return nil
}

// Remove implements Mapping.
func (m *Map) Remove(key Key, op ir.OpID) error {
	if ops, ok := m.byKey[key]; ok {
		delete(ops, op)
		if len(ops) == 0 {
			delete(m.byKey, key)
		}
	}
	if keys, ok := m.byOp[op]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.byOp, op)
		}
	}
	return nil
}

// Pairs implements Mapping.
func (m *Map) Pairs() ([]Pair, error) {
	var out []Pair
	for k, ops := range m.byKey {
		for op := range ops {
			out = append(out, Pair{Key: k, Op: op})
		}
	}
	SortPairs(out)
	return out, nil
}

// KeysOf implements KeyIndex.
func (m *Map) KeysOf(op ir.OpID) ([]Key, error) {
	keys := make([]Key, 0, len(m.byOp[op]))
	for k := range m.byOp[op] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Ops returns the operations mapped from key, sorted.
func (m *Map) Ops(key Key) []ir.OpID {
	out := make([]ir.OpID, 0, len(m.byKey[key]))
	for op := range m.byKey[key] {
		out = append(out, op)
	}
	slices.Sort(out)
	return out
}

// Keys returns every key with at least one operation, sorted.
func (m *Map) Keys() []Key {
	out := make([]Key, 0, len(m.byKey))
	for k := range m.byKey {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of pairs.
func (m *Map) Len() int {
	n := 0
	for _, ops := range m.byKey {
		n += len(ops)
	}
	return n
}
