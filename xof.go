package dilithium

import (
	"golang.org/x/crypto/sha3"
)

// xof.go adapts golang.org/x/crypto/sha3's SHAKE implementations to the
// absorb/squeezeblocks shape this package's samplers are built around: a
// state is absorbed once, then squeezed in whole-rate blocks for as long as
// rejection sampling needs. sha3.ShakeHash already buffers writes until the
// first Read and streams output in internal blocks, so this is a thin,
// named wrapper rather than a reimplementation.

const (
	shake128Rate = 168
	shake256Rate = 136
)

// xof128 wraps a SHAKE-128 state.
type xof128 struct{ h sha3.ShakeHash }

func newXOF128() xof128 {
	return xof128{h: sha3.NewShake128()}
}

func (x *xof128) absorb(parts ...[]byte) {
	for _, p := range parts {
		x.h.Write(p)
	}
}

func (x *xof128) squeezeBlocks(out []byte, nblocks int) {
	x.h.Read(out[:nblocks*shake128Rate])
}

// xof256 wraps a SHAKE-256 state.
type xof256 struct{ h sha3.ShakeHash }

func newXOF256() xof256 {
	return xof256{h: sha3.NewShake256()}
}

func (x *xof256) absorb(parts ...[]byte) {
	for _, p := range parts {
		x.h.Write(p)
	}
}

func (x *xof256) squeezeBlocks(out []byte, nblocks int) {
	x.h.Read(out[:nblocks*shake256Rate])
}

// shake128Sum is the one-shot SHAKE-128 primitive: xof(out, in).
func shake128Sum(out []byte, parts ...[]byte) {
	h := sha3.NewShake128()
	for _, p := range parts {
		h.Write(p)
	}
	h.Read(out)
}

// shake256Sum is the one-shot SHAKE-256 primitive: xof(out, in).
func shake256Sum(out []byte, parts ...[]byte) {
	h := sha3.NewShake256()
	for _, p := range parts {
		h.Write(p)
	}
	h.Read(out)
}

// shake128Sum4x is the 4-way-parallel one-shot SHAKE-128 primitive from
// spec.md §4.1: four independent (seed, domain-byte) inputs produce four
// independent outputs. It is a data-parallelism primitive, not concurrency
// — callers see one synchronous call that returns four streams, bit-
// identical to four serial shake128Sum calls. This implementation computes
// the four lanes serially (no SIMD Keccak-f permutation is available in
// this corpus's Go dependency set), which spec.md explicitly permits as a
// conforming stand-in for the AVX2 4-way lane batching the original
// reference (expand_mat_avx) performs.
func shake128Sum4x(out0, out1, out2, out3 []byte, in0, in1, in2, in3 []byte) {
	shake128Sum(out0, in0)
	shake128Sum(out1, in1)
	shake128Sum(out2, in2)
	shake128Sum(out3, in3)
}
