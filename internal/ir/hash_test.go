package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashWithDomainDeterministic(t *testing.T) {
	a := HashWithDomain(DomainFingerprint, []byte("payload"))
	b := HashWithDomain(DomainFingerprint, []byte("payload"))
	assert.Equal(t, a, b)
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte("payload")
	assert.NotEqual(t,
		HashWithDomain(DomainFingerprint, data),
		HashWithDomain(DomainModule, data),
		"different domains must not collide")

	// The null separator keeps the domain/data boundary unambiguous.
	assert.NotEqual(t,
		HashWithDomain("foo", []byte("bar")),
		HashWithDomain("foob", []byte("ar")))
}

func TestModuleDigestTracksStructure(t *testing.T) {
	m1, _ := buildLinear(t)
	m2, _ := buildLinear(t)
	assert.Equal(t, ModuleDigest(m1), ModuleDigest(m2))

	m2.Body().Op(0).SetAttr("tag", StringAttr("x"))
	assert.NotEqual(t, ModuleDigest(m1), ModuleDigest(m2))
}
