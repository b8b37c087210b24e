package ir

import "sort"

// Effect summarizes the memory effects of an operation kind.
type Effect string

const (
	// EffectNone marks a pure operation.
	EffectNone Effect = "none"

	// EffectRead marks an operation that reads state.
	EffectRead Effect = "read"

	// EffectWrite marks an operation that writes state or is otherwise
	// observable (I/O, allocation, unknown semantics).
	EffectWrite Effect = "write"

	// EffectRecursive marks an operation whose effects are exactly those of
	// the operations nested in its regions.
	EffectRecursive Effect = "recursive"
)

// ValidEffects lists the accepted effect names.
var ValidEffects = map[Effect]bool{
	EffectNone:      true,
	EffectRead:      true,
	EffectWrite:     true,
	EffectRecursive: true,
}

// OpSpec describes the traits of one operation kind.
type OpSpec struct {
	Name              string `json:"name"`
	Effects           Effect `json:"effects"`
	NonHoistable      bool   `json:"non_hoistable,omitempty"`
	Terminator        bool   `json:"terminator,omitempty"`
	IsolatedFromAbove bool   `json:"isolated_from_above,omitempty"`
}

// DialectSpec is a named group of operation specs. Op names are relative
// to the dialect: op "addi" of dialect "arith" has kind "arith.addi".
type DialectSpec struct {
	Name string   `json:"name"`
	Ops  []OpSpec `json:"ops"`
}

// Registry resolves operation kinds to their specs.
type Registry struct {
	specs map[string]OpSpec
}

// NewRegistry creates a registry holding the given dialects.
func NewRegistry(dialects ...DialectSpec) *Registry {
	r := &Registry{specs: make(map[string]OpSpec)}
	for _, d := range dialects {
		r.Register(d)
	}
	return r
}

// Register adds or replaces every op of d.
func (r *Registry) Register(d DialectSpec) {
	for _, op := range d.Ops {
		r.specs[d.Name+"."+op.Name] = op
	}
}

// Lookup returns the spec for a fully qualified kind.
func (r *Registry) Lookup(kind string) (OpSpec, bool) {
	if r == nil {
		return OpSpec{}, false
	}
	s, ok := r.specs[kind]
	return s, ok
}

// Effects returns the declared effects of kind. Unregistered kinds are
// conservatively treated as writing.
func (r *Registry) Effects(kind string) Effect {
	if s, ok := r.Lookup(kind); ok {
		return s.Effects
	}
	return EffectWrite
}

// Kinds returns every registered kind, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.specs))
	for k := range r.specs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuiltinDialects returns the dialects every registry starts from.
func BuiltinDialects() []DialectSpec {
	return []DialectSpec{
		{Name: "builtin", Ops: []OpSpec{
			{Name: "module", Effects: EffectRecursive, NonHoistable: true, IsolatedFromAbove: true},
		}},
		{Name: "func", Ops: []OpSpec{
			{Name: "func", Effects: EffectRecursive, NonHoistable: true, IsolatedFromAbove: true},
			{Name: "return", Effects: EffectNone, Terminator: true},
			{Name: "call", Effects: EffectWrite},
		}},
		{Name: "arith", Ops: []OpSpec{
			{Name: "constant", Effects: EffectNone},
			{Name: "addi", Effects: EffectNone},
			{Name: "subi", Effects: EffectNone},
			{Name: "muli", Effects: EffectNone},
			{Name: "addf", Effects: EffectNone},
			{Name: "mulf", Effects: EffectNone},
			{Name: "cmpi", Effects: EffectNone},
			{Name: "select", Effects: EffectNone},
		}},
		{Name: "scf", Ops: []OpSpec{
			{Name: "if", Effects: EffectRecursive},
			{Name: "execute_region", Effects: EffectRecursive},
			{Name: "yield", Effects: EffectNone, Terminator: true},
		}},
		{Name: "cf", Ops: []OpSpec{
			{Name: "br", Effects: EffectNone, Terminator: true},
			{Name: "cond_br", Effects: EffectNone, Terminator: true},
		}},
		{Name: "memref", Ops: []OpSpec{
			{Name: "alloc", Effects: EffectWrite},
			{Name: "load", Effects: EffectRead},
			{Name: "store", Effects: EffectWrite},
		}},
		{Name: "test", Ops: []OpSpec{
			{Name: "source", Effects: EffectWrite},
			{Name: "sink", Effects: EffectWrite},
			{Name: "pure", Effects: EffectNone},
			{Name: "effect", Effects: EffectWrite},
			{Name: "pinned", Effects: EffectNone, NonHoistable: true},
			{Name: "region", Effects: EffectRecursive},
			{Name: "isolated", Effects: EffectRecursive, IsolatedFromAbove: true},
		}},
	}
}

// BuiltinRegistry returns a fresh registry holding BuiltinDialects.
func BuiltinRegistry() *Registry {
	return NewRegistry(BuiltinDialects()...)
}
