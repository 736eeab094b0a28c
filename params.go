package dilithium

// params.go holds the global ring parameters and the four compile-time
// parameter sets from the round-1 NIST PQC Dilithium submission that this
// package implements: Weak (K=3,L=2), Medium (K=4,L=3), Recommended
// (K=5,L=4) and VeryHigh (K=6,L=5). Parameter-set selection happens once,
// at the call site's choice of which *Params value to pass — there is no
// runtime switch inside the hot loops.

const (
	// n is the number of coefficients in a ring element.
	n = 256
	// q is the ring modulus: 2^23 - 2^13 + 1.
	q = 8380417
	// d is the number of bits dropped from t when forming t1/t0.
	d = 13
	// tau is the number of nonzero coefficients in the challenge
	// polynomial, fixed across all parameter sets.
	tau = 60

	// seedBytes is the width of rho, rho', key, and the keygen seed.
	seedBytes = 32
	// crhBytes is the width of tr and mu (collision-resistant hash output).
	crhBytes = 48
)

// qBitLen is bitlen(q-1): the number of bits needed to represent t's
// uncompressed range, used to size t1's packed coefficients.
const qBitLen = 23

// Params describes one fixed Dilithium parameter set: module dimensions,
// secret/mask bounds, and the derived packed-encoding widths. A *Params
// value is the "vtable" selected once per compiled binary (or per call, for
// a library that exposes more than one set) — design note 9's option (b).
type Params struct {
	Name string

	K, L int // module dimensions

	Eta    int32 // secret coefficient bound
	Gamma1 int32 // mask coefficient bound
	Gamma2 int32 // low-order rounding radius (alpha = 2*Gamma2)
	Omega  int   // max hint weight
	Beta   int32 // tau * eta

	// Derived packed-encoding widths, in bits per coefficient.
	etaBits    uint
	t0Bits     uint
	t1Bits     uint
	zBits      uint
	w1Bits     uint
}

func newParams(name string, k, l int, eta, gamma1, gamma2 int32, omega int) *Params {
	p := &Params{
		Name: name, K: k, L: l,
		Eta: eta, Gamma1: gamma1, Gamma2: gamma2, Omega: omega,
		Beta: tau * eta,
	}
	p.etaBits = bitLen(uint32(2*eta + 1))
	p.t0Bits = d
	p.t1Bits = qBitLen - d
	p.zBits = bitLen(uint32(gamma1-1)) + 1
	alpha := uint32(2 * gamma2)
	m := uint32(q-1) / alpha
	p.w1Bits = bitLen(m - 1)
	return p
}

// The four fixed parameter sets. Gamma1/Gamma2/Eta/Omega values are this
// implementation's own choice within the constraints spec.md lays out
// (alpha=2*Gamma2 divides q-1, Gamma1 > Beta, etc) since the distilled spec
// does not pin exact historical constants — see the table in SPEC_FULL.md §0.
var (
	Weak        = newParams("Weak", 3, 2, 5, (q-1)/16, (q-1)/32, 64)
	Medium      = newParams("Medium", 4, 3, 5, (q-1)/16, (q-1)/32, 80)
	Recommended = newParams("Recommended", 5, 4, 3, (q-1)/32, (q-1)/32, 96)
	VeryHigh    = newParams("VeryHigh", 6, 5, 3, (q-1)/32, (q-1)/32, 120)
)

// bitLen returns the number of bits needed to represent x (0 -> 0).
func bitLen(x uint32) uint {
	var b uint
	for x > 0 {
		b++
		x >>= 1
	}
	return b
}

// PublicKeySize returns the wire size of a public key for p.
func (p *Params) PublicKeySize() int {
	return seedBytes + p.K*n*int(p.t1Bits)/8
}

// PrivateKeySize returns the wire size of a private key for p.
func (p *Params) PrivateKeySize() int {
	return seedBytes + seedBytes + crhBytes +
		(p.L+p.K)*n*int(p.etaBits)/8 + p.K*n*d/8
}

// SignatureSize returns the wire size of a signature for p.
func (p *Params) SignatureSize() int {
	zBytes := p.L * n * int(p.zBits) / 8
	hintBytes := p.Omega + p.K
	cBytes := 8 + tau
	return zBytes + hintBytes + cBytes
}
