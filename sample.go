package dilithium

// sample.go implements the deterministic, XOF-backed samplers from
// spec.md §4.3: uniform matrix expansion, uniform-eta secret sampling, the
// gamma1-bounded mask, and the 60-sparse ternary challenge.

// expandA generates the K*L matrix A (row-major, a[i*L+j]) with uniform
// coefficients in [0, Q), directly in NTT-domain representation — A is
// never transformed via ntt(); its entries are taken to be NTT evaluations
// by construction, exactly as the reference implementation does.
//
// Matrix entries are independent (seed, domain-byte) XOF calls, so they're
// drawn four at a time through shake128Sum4x, the same lane-batched shape
// the reference's expand_mat_avx uses for its AVX2 4-way Keccak.
func expandA(rho []byte, p *Params) []nttElement {
	total := p.K * p.L
	mat := make([]nttElement, total)

	seeds := make([][]byte, total)
	for idx := 0; idx < total; idx++ {
		i, j := idx/p.L, idx%p.L
		s := make([]byte, seedBytes+1)
		copy(s, rho)
		s[seedBytes] = byte(i + (j << 4))
		seeds[idx] = s
	}

	var bufs [4][5 * shake128Rate]byte
	idx := 0
	for idx < total {
		lanes := total - idx
		if lanes > 4 {
			lanes = 4
		}
		lane := func(n int) []byte {
			if n < lanes {
				return seeds[idx+n]
			}
			return seeds[idx] // padding lane, result discarded
		}
		shake128Sum4x(bufs[0][:], bufs[1][:], bufs[2][:], bufs[3][:], lane(0), lane(1), lane(2), lane(3))
		for n := 0; n < lanes; n++ {
			mat[idx+n] = nttElement(sampleUniformQ(bufs[n][:]))
		}
		idx += lanes
	}
	return mat
}

// sampleUniformQ rejection-samples N coefficients uniform in [0, Q) from a
// stream of 3-byte, 23-bit-masked little-endian triples.
func sampleUniformQ(buf []byte) ringElement {
	var a ringElement
	j := 0
	for i := 0; i+3 <= len(buf) && j < n; i += 3 {
		dv := uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2]&0x7F)<<16
		if int32(dv) < qInt {
			a[j] = int32(dv)
			j++
		}
	}
	if j < n {
		// 5 rate-blocks fail to fill a polynomial with probability < 2^-132;
		// spec.md calls this budget sufficient and gives no fallback path.
		panic("dilithium: expandA XOF budget exhausted")
	}
	return a
}

// expandS samples one polynomial with coefficients uniform in [-eta, eta],
// seeded by rhoPrime and a 16-bit nonce.
func expandS(rhoPrime []byte, eta int32, nonce uint16) ringElement {
	var a ringElement
	x := newXOF256()
	nb := [2]byte{byte(nonce), byte(nonce >> 8)}
	x.absorb(rhoPrime, nb[:])

	m := 2*eta + 1
	var buf [shake256Rate]byte
	x.squeezeBlocks(buf[:], 1)
	pos, j := 0, 0
	for j < n {
		if pos >= len(buf) {
			x.squeezeBlocks(buf[:], 1)
			pos = 0
		}
		b := buf[pos]
		pos++
		lo := int32(b & 0x0F)
		hi := int32(b >> 4)
		if lo < m {
			a[j] = eta - lo
			j++
		}
		if j < n && hi < m {
			a[j] = eta - hi
			j++
		}
	}
	return a
}

// expandMask samples one polynomial with coefficients uniform in
// [-(gamma1-1), gamma1-1], seeded by key and a 16-bit nonce. Values are
// read as p.zBits-wide groups and rejected when the raw value would exceed
// 2*(gamma1-1) — the same width used to pack the resulting z coefficient
// on the wire, since bitlen(2x) == bitlen(x)+1.
func expandMask(key []byte, nonce uint16, p *Params) ringElement {
	var a ringElement
	bits := p.zBits
	bound := uint32(2*p.Gamma1 - 2)
	mask := uint64(1)<<bits - 1

	nb := [2]byte{byte(nonce), byte(nonce >> 8)}
	x := newXOF256()
	x.absorb(key, nb[:])

	buf := make([]byte, shake256Rate)
	x.squeezeBlocks(buf, 1)

	var acc uint64
	var accBits uint
	pos, j := 0, 0
	for j < n {
		for accBits < bits {
			if pos >= len(buf) {
				x.squeezeBlocks(buf, 1)
				pos = 0
			}
			acc |= uint64(buf[pos]) << accBits
			accBits += 8
			pos++
		}
		v := uint32(acc & mask)
		acc >>= bits
		accBits -= bits
		if v <= bound {
			a[j] = p.Gamma1 - 1 - int32(v)
			j++
		}
	}
	return a
}

// sampleChallenge implements H: it hashes mu together with the packed w1
// vector and replays the reference's swap-based rejection sampler (a
// Fisher-Yates pass over the tail of the coefficient array), grounded
// directly in the original submission's challenge() routine. It returns the
// raw (position, sign) record the sampler produced at each of the tau
// rounds rather than the assembled polynomial: spec.md's wire format packs
// that record directly (the position each round picked, in sampling order),
// so signing and verification both build the actual challenge polynomial
// from it via buildChallenge, and packChallenge never has to re-derive an
// order that sampleChallenge already discarded.
func sampleChallenge(mu []byte, w1Packed [][]byte) (order [tau]byte, signs [tau]bool) {
	x := newXOF256()
	x.absorb(mu)
	for _, wp := range w1Packed {
		x.absorb(wp)
	}

	var buf [shake256Rate]byte
	x.squeezeBlocks(buf[:], 1)

	var signBits uint64
	for i := 0; i < 8; i++ {
		signBits |= uint64(buf[i]) << (8 * i)
	}
	pos := 8

	for k := 0; k < tau; k++ {
		i := n - tau + k
		var b byte
		for {
			if pos >= len(buf) {
				x.squeezeBlocks(buf[:], 1)
				pos = 0
			}
			b = buf[pos]
			pos++
			if int(b) <= i {
				break
			}
		}
		order[k] = b
		signs[k] = signBits&1 != 0
		signBits >>= 1
	}
	return order, signs
}

// buildChallenge reconstructs the 60-sparse ternary challenge polynomial by
// replaying the swap assignment sampleChallenge's rounds performed: round k
// sets position i = n-tau+k to whatever value currently sits at order[k],
// then overwrites order[k] with +1 or -1 per signs[k]. Both signing (right
// after sampling) and verification (right after unpacking a signature's
// challenge encoding) call this so there is exactly one place that turns an
// (order, signs) record into a polynomial.
func buildChallenge(order [tau]byte, signs [tau]bool) ringElement {
	var c ringElement
	for k := 0; k < tau; k++ {
		i := n - tau + k
		b := order[k]
		c[i] = c[b]
		if signs[k] {
			c[b] = -1
		} else {
			c[b] = 1
		}
	}
	return c
}
