package dilithium

import "errors"

// pack.go implements the bit-exact, non-byte-aligned wire encodings from
// spec.md §4.5. Unlike the teacher's per-width unrolled packers (one
// hand-written function per fixed bit width), every coefficient-array
// encoding here goes through one generic LSB-first bit accumulator: the
// four parameter sets need five different widths for t1/t0/eta/z/w1, and a
// generic packer is the idiomatic way to cover that without four copies of
// each unrolled function. Hint and challenge encoding are structurally
// different (position lists, not per-coefficient fields): the hint codec is
// adapted directly from the teacher's packHint/unpackHint, while the
// challenge codec has no teacher counterpart and follows the round-1
// reference's direct encoding of the challenge polynomial.

// packBits packs len(vals) coefficients, each mapped through enc into
// [0, 2^bits), LSB-first and tightly packed without byte alignment.
func packBits(vals []int32, bits uint, enc func(int32) uint32) []byte {
	out := make([]byte, (len(vals)*int(bits)+7)/8)
	var acc uint64
	var accBits uint
	pos := 0
	for _, v := range vals {
		acc |= uint64(enc(v)) << accBits
		accBits += bits
		for accBits >= 8 {
			out[pos] = byte(acc)
			acc >>= 8
			accBits -= 8
			pos++
		}
	}
	if accBits > 0 {
		out[pos] = byte(acc)
	}
	return out
}

// unpackBits reverses packBits, decoding count values of the given width
// through dec.
func unpackBits(b []byte, count int, bits uint, dec func(uint32) int32) []int32 {
	out := make([]int32, count)
	var acc uint64
	var accBits uint
	pos := 0
	mask := uint64(1)<<bits - 1
	for i := 0; i < count; i++ {
		for accBits < bits {
			acc |= uint64(b[pos]) << accBits
			accBits += 8
			pos++
		}
		out[i] = dec(uint32(acc & mask))
		acc >>= bits
		accBits -= bits
	}
	return out
}

func packPoly(p *ringElement, bits uint, enc func(int32) uint32) []byte {
	return packBits(p[:], bits, enc)
}

func unpackPoly(b []byte, bits uint, dec func(uint32) int32) ringElement {
	var f ringElement
	copy(f[:], unpackBits(b, n, bits, dec))
	return f
}

// packT1 packs a polynomial with unsigned t1Bits-wide coefficients.
func packT1(p *ringElement, bits uint) []byte {
	return packPoly(p, bits, func(v int32) uint32 { return uint32(v) })
}

func unpackT1(b []byte, bits uint) ringElement {
	return unpackPoly(b, bits, func(v uint32) int32 { return int32(v) })
}

// packT0 packs a polynomial with coefficients in (-2^(D-1), 2^(D-1)],
// encoded as 2^(D-1) - v in D bits.
func packT0(p *ringElement) []byte {
	const center = int32(1) << (d - 1)
	return packPoly(p, d, func(v int32) uint32 { return uint32(center - v) })
}

func unpackT0(b []byte) ringElement {
	const center = int32(1) << (d - 1)
	return unpackPoly(b, d, func(raw uint32) int32 { return center - int32(raw) })
}

// packEta packs a polynomial with coefficients in [-eta, eta], encoded as
// eta - v in p.etaBits bits.
func packEta(p *ringElement, eta int32, bits uint) []byte {
	return packPoly(p, bits, func(v int32) uint32 { return uint32(eta - v) })
}

// unpackEta reverses packEta, rejecting any raw value outside [0, 2*eta]
// (the encoding is dense but a corrupted or adversarial encoding can still
// carry an out-of-range nibble/field).
func unpackEta(b []byte, eta int32, bits uint) (ringElement, error) {
	bad := false
	f := unpackPoly(b, bits, func(raw uint32) int32 {
		if raw > uint32(2*eta) {
			bad = true
		}
		return eta - int32(raw)
	})
	if bad {
		return ringElement{}, errors.New("dilithium: invalid eta encoding")
	}
	return f, nil
}

// packZ packs a polynomial with coefficients in [-(gamma1-1), gamma1-1],
// encoded as gamma1-1-v in p.zBits bits — the same width expandMask reads.
func packZ(p *ringElement, gamma1 int32, bits uint) []byte {
	return packPoly(p, bits, func(v int32) uint32 { return uint32(gamma1 - 1 - v) })
}

func unpackZ(b []byte, gamma1 int32, bits uint) ringElement {
	return unpackPoly(b, bits, func(raw uint32) int32 { return gamma1 - 1 - int32(raw) })
}

// packW1 packs a polynomial with unsigned p.w1Bits-wide coefficients. w1 is
// never unpacked: it only ever feeds the challenge hash.
func packW1(p *ringElement, bits uint) []byte {
	return packPoly(p, bits, func(v int32) uint32 { return uint32(v) })
}

// packHint packs the hint vectors into a p.Omega+p.K-byte encoding: each
// row's set positions (in ascending order), followed by K cumulative
// offsets.
func packHint(hints []ringElement, omega int) []byte {
	k := len(hints)
	b := make([]byte, omega+k)
	idx := 0
	for i := 0; i < k; i++ {
		for j := 0; j < n; j++ {
			if hints[i][j] != 0 {
				b[idx] = byte(j)
				idx++
			}
		}
		b[omega+i] = byte(idx)
	}
	return b
}

// unpackHint reverses packHint, rejecting any encoding whose positions are
// not strictly increasing within a row or whose trailing padding is
// nonzero — both are required by spec.md for a hint to be well-formed.
func unpackHint(b []byte, k, omega int) ([]ringElement, bool) {
	hints := make([]ringElement, k)
	idx := 0
	for i := 0; i < k; i++ {
		limit := int(b[omega+i])
		if limit < idx || limit > omega {
			return nil, false
		}
		prev := idx
		for ; idx < limit; idx++ {
			pos := b[idx]
			if idx > prev && b[idx-1] >= pos {
				return nil, false
			}
			hints[i][pos] = 1
		}
	}
	for ; idx < omega; idx++ {
		if b[idx] != 0 {
			return nil, false
		}
	}
	return hints, true
}

// packChallenge encodes a challenge sampler's (order, signs) record as an
// 8-byte sign bitmap (60 bits, LSB-first, one bit per sampling round)
// followed by the tau position bytes sampleChallenge produced them in —
// i.e. the coefficient indices in the order the sampler actually picked
// them, not sorted by index. That order is load-bearing: buildChallenge
// replays it as a sequence of array swaps, so permuting these bytes can
// change the reconstructed polynomial (for example, swapping two rounds
// that picked different positions with different signs always does).
func packChallenge(order [tau]byte, signs [tau]bool) []byte {
	out := make([]byte, 8+tau)
	var bitmap uint64
	for k := 0; k < tau; k++ {
		if signs[k] {
			bitmap |= 1 << uint(k)
		}
	}
	for i := 0; i < 8; i++ {
		out[i] = byte(bitmap >> (8 * i))
	}
	copy(out[8:], order[:])
	return out
}

// unpackChallenge reverses packChallenge, rejecting any round whose
// position byte exceeds that round's valid range (i = n-tau+k), mirroring
// the sampler's own `b <= i` acceptance condition.
func unpackChallenge(b []byte) (order [tau]byte, signs [tau]bool, err error) {
	if len(b) != 8+tau {
		return order, signs, errors.New("dilithium: malformed challenge encoding")
	}
	var bitmap uint64
	for i := 0; i < 8; i++ {
		bitmap |= uint64(b[i]) << (8 * i)
	}
	for k := 0; k < tau; k++ {
		i := n - tau + k
		pos := b[8+k]
		if int(pos) > i {
			return order, signs, errors.New("dilithium: invalid challenge position")
		}
		order[k] = pos
		signs[k] = bitmap&(1<<uint(k)) != 0
	}
	return order, signs, nil
}
