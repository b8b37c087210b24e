package fingerprint

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/roach88/trackcse/internal/ir"
)

// Signature is the BLAKE3-256 structural fingerprint of an operation.
type Signature [32]byte

// String returns the lowercase hex form.
func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// Short returns the first 12 hex characters, for log lines.
func (s Signature) Short() string {
	return s.String()[:12]
}

// badAttrs stands in for attribute dictionaries that have no canonical form.
const badAttrs = "\xffbad-attrs"

// Compute returns the fingerprint of op.
//
// The encoding covers the kind, the canonical attribute bytes, operand value
// IDs, result types, successor count and the shape of nested regions. Values
// defined inside nested regions are anonymous in the shape, so two ops whose
// bodies differ only in value naming fingerprint the same.
func Compute(op *ir.Operation) Signature {
	e := &encoder{}
	e.str(op.Kind())
	e.attrs(op.Attrs())

	e.uint(uint64(op.NumOperands()))
	for _, v := range op.Operands() {
		e.uint(uint64(v.ID()))
	}
	e.types(op.ResultTypes())
	e.uint(uint64(len(op.Successors())))

	e.uint(uint64(op.NumRegions()))
	for _, r := range op.Regions() {
		e.region(r)
	}
	return Signature(ir.HashWithDomain(ir.DomainFingerprint, e.buf))
}

type encoder struct {
	buf []byte
}

func (e *encoder) uint(n uint64) {
	e.buf = binary.AppendUvarint(e.buf, n)
}

func (e *encoder) str(s string) {
	e.uint(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) types(ts []ir.Type) {
	e.uint(uint64(len(ts)))
	for _, t := range ts {
		e.str(string(t))
	}
}

func (e *encoder) attrs(d ir.DictAttr) {
	enc, err := ir.MarshalCanonical(d)
	if err != nil {
		e.str(badAttrs)
		return
	}
	e.str(string(enc))
}

func (e *encoder) region(r *ir.Region) {
	e.uint(uint64(r.NumBlocks()))
	for _, b := range r.Blocks() {
		args := b.Args()
		ts := make([]ir.Type, len(args))
		for i, a := range args {
			ts[i] = a.Type()
		}
		e.types(ts)

		e.uint(uint64(b.NumOps()))
		for _, op := range b.Ops() {
			e.str(op.Kind())
			e.attrs(op.Attrs())
			e.uint(uint64(op.NumOperands()))
			e.types(op.ResultTypes())
			e.uint(uint64(op.NumRegions()))
			for _, nested := range op.Regions() {
				e.region(nested)
			}
		}
	}
}
