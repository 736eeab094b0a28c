package dilithium

// rounding.go implements the high/low-bit decomposition and hint primitives
// that let a verifier reconstruct w1 from z, t1, and a small correction
// hint instead of transmitting w in full.

// power2Round splits r (assumed already reduced into [0, Q)) into
// r = r1*2^D + r0 with r0 in (-2^(D-1), 2^(D-1)].
func power2Round(r int32) (r1, r0 int32) {
	r1 = r >> d
	r0 = r - (r1 << d)
	const half = 1 << (d - 1)
	if r0 > half {
		r0 -= 1 << d
		r1++
	}
	return r1, r0
}

// decompose splits r (assumed already reduced into [0, Q)) into
// r = r1*alpha + r0 with alpha = 2*gamma2, r0 in (-alpha/2, alpha/2], and
// r1 in [0, (Q-1)/alpha). The boundary case that would otherwise produce
// r1 = (Q-1)/alpha is collapsed to r1 = 0, per spec.
func decompose(r, gamma2 int32) (r1, r0 int32) {
	alpha := 2 * gamma2
	r0 = r % alpha
	if r0 > gamma2 {
		r0 -= alpha
	}
	if r-r0 == qInt-1 {
		r1 = 0
		r0--
	} else {
		r1 = (r - r0) / alpha
	}
	return r1, r0
}

// highBits returns Decompose(r, gamma2)'s r1 component.
func highBits(r, gamma2 int32) int32 {
	r1, _ := decompose(r, gamma2)
	return r1
}

// lowBits returns Decompose(r, gamma2)'s r0 component.
func lowBits(r, gamma2 int32) int32 {
	_, r0 := decompose(r, gamma2)
	return r0
}

// makeHint returns 1 if adding z to r (both already reduced into [0, Q))
// changes HighBits, 0 otherwise.
func makeHint(z, r, gamma2 int32) int32 {
	h0 := highBits(r, gamma2)
	h1 := highBits(freeze(r+z), gamma2)
	if h0 != h1 {
		return 1
	}
	return 0
}

// useHint recovers HighBits(r+z) from hint and r alone, given |z| <= gamma2.
func useHint(hint, r, gamma2 int32) int32 {
	m := (qInt - 1) / (2 * gamma2)
	r1, r0 := decompose(r, gamma2)
	if hint == 0 {
		return r1
	}
	if r0 > 0 {
		return (r1 + 1) % m
	}
	return (r1 - 1 + m) % m
}

// chknorm reports whether any coefficient of p, interpreted as the signed
// representative in (-Q/2, Q/2], has absolute value >= bound. It walks
// every coefficient unconditionally — its running time does not depend on
// which coefficient (if any) triggers the bound, only the returned boolean
// does, as spec'd for secret-dependent rejection checks.
func chknorm(p *ringElement, bound int32) bool {
	var bad int32
	for _, c := range p {
		t := freeze(c)
		if t > (qInt-1)/2 {
			t -= qInt
		}
		if t < 0 {
			t = -t
		}
		if t >= bound {
			bad = 1
		}
	}
	return bad != 0
}

// vecChknorm reports whether chknorm holds for any polynomial in v.
func vecChknorm(v []ringElement, bound int32) bool {
	for i := range v {
		if chknorm(&v[i], bound) {
			return true
		}
	}
	return false
}

// popcount returns the number of set coefficients across a hint vector.
func popcount(hints []ringElement) int {
	c := 0
	for i := range hints {
		for j := range hints[i] {
			if hints[i][j] != 0 {
				c++
			}
		}
	}
	return c
}
