package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	r := BuiltinRegistry()

	spec, ok := r.Lookup("arith.addi")
	require.True(t, ok)
	assert.Equal(t, EffectNone, spec.Effects)

	spec, ok = r.Lookup("func.func")
	require.True(t, ok)
	assert.True(t, spec.IsolatedFromAbove)
	assert.True(t, spec.NonHoistable)

	spec, ok = r.Lookup("scf.yield")
	require.True(t, ok)
	assert.True(t, spec.Terminator)

	for _, kind := range r.Kinds() {
		spec, _ := r.Lookup(kind)
		assert.True(t, ValidEffects[spec.Effects], "%s has invalid effects %q", kind, spec.Effects)
	}
}

func TestRegistryUnknownKindWrites(t *testing.T) {
	r := BuiltinRegistry()
	_, ok := r.Lookup("mystery.op")
	assert.False(t, ok)
	assert.Equal(t, EffectWrite, r.Effects("mystery.op"))

	var nilRegistry *Registry
	assert.Equal(t, EffectWrite, nilRegistry.Effects("arith.addi"))
}

func TestRegistryRegisterOverrides(t *testing.T) {
	r := BuiltinRegistry()
	r.Register(DialectSpec{Name: "arith", Ops: []OpSpec{{Name: "addi", Effects: EffectWrite}}})
	assert.Equal(t, EffectWrite, r.Effects("arith.addi"))
	assert.Equal(t, EffectNone, r.Effects("arith.muli"))

	r.Register(DialectSpec{Name: "toy", Ops: []OpSpec{{Name: "mul", Effects: EffectNone}}})
	assert.Contains(t, r.Kinds(), "toy.mul")
}
