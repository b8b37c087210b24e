package ir

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Domain prefixes for digests. The version suffix allows changing the
// encoding without silently colliding with digests from an older one.
const (
	DomainFingerprint = "trackcse/fingerprint/v1"
	DomainModule      = "trackcse/module/v1"
)

// Digest is a 256-bit BLAKE3 digest.
type Digest [32]byte

// String returns the lowercase hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// HashWithDomain computes BLAKE3-256 over domain + 0x00 + data.
// The null separator prevents domain/data boundary ambiguity:
// ("foo", "bar") and ("foob", "ar") hash differently.
func HashWithDomain(domain string, data []byte) Digest {
	h := blake3.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ModuleDigest hashes the printed form of a module. Two modules with the
// same digest print identically, which is what determinism checks compare.
func ModuleDigest(m *Module) Digest {
	return HashWithDomain(DomainModule, []byte(Print(m.Root())))
}
