// Package dilithium implements the Module-LWE/Module-SIS lattice signature
// scheme submitted to the first round of NIST's post-quantum cryptography
// standardization process: key generation, signing via Fiat-Shamir with
// aborts, and verification, parameterized over four fixed security levels
// (Weak, Medium, Recommended, VeryHigh — see Params in params.go).
//
// Basic usage:
//
//	key, err := dilithium.GenerateKey(dilithium.Recommended, rand.Reader)
//	if err != nil {
//	    // handle error
//	}
//	sig, err := key.Sign(rand.Reader, message, nil)
//	if err != nil {
//	    // handle error
//	}
//	valid := key.PublicKey().Verify(sig, message, nil)
package dilithium

import (
	"crypto"
	"errors"
	"io"
)

// SignerOpts implements crypto.SignerOpts for Dilithium signing operations.
// It allows specifying an optional context string for domain separation.
type SignerOpts struct {
	// Context is an optional context string for domain separation (max 255 bytes).
	Context []byte
}

// HashFunc returns 0: Dilithium signs messages directly, never a digest.
func (opts *SignerOpts) HashFunc() crypto.Hash {
	return 0
}

// Compile-time interface assertions for crypto.Signer.
var _ crypto.Signer = (*PrivateKey)(nil)

// PrivateKey holds the expanded secret-key material for one parameter set:
// the two short secret vectors, the low bits of t, and the matrix A (kept
// expanded so repeated signing does not re-derive it from rho).
type PrivateKey struct {
	params *Params

	rho [seedBytes]byte // public matrix seed
	key [seedBytes]byte // private signing seed
	tr  [crhBytes]byte  // H(pk)

	s1 []ringElement // length L
	s2 []ringElement // length K
	t0 []ringElement // length K

	a []nttElement // K*L, matrix A in NTT domain
}

// PublicKey holds the verification material for one parameter set.
type PublicKey struct {
	params *Params

	rho [seedBytes]byte
	t1  []ringElement // length K
	tr  [crhBytes]byte

	a []nttElement // K*L, matrix A in NTT domain
}

// Key is a freshly generated key pair. It carries t1 (the public key's high
// bits of t) alongside the private key so PublicKey can be derived without
// recomputing A*s1+s2; t1 is not part of the persisted private-key
// encoding, matching the wire format spec.md defines for PrivateKeySize.
type Key struct {
	PrivateKey
	seed [seedBytes]byte
	t1   []ringElement
}

// GenerateKey generates a new key pair for params, drawing a fresh seed
// from rand.
func GenerateKey(params *Params, rand io.Reader) (*Key, error) {
	var seed [seedBytes]byte
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, err
	}
	return NewKey(params, seed[:])
}

// NewKey deterministically derives a key pair for params from a 32-byte
// seed.
func NewKey(params *Params, seed []byte) (*Key, error) {
	if len(seed) != seedBytes {
		return nil, errors.New("dilithium: invalid seed length")
	}
	key := &Key{}
	key.params = params
	copy(key.seed[:], seed)
	key.generate()
	return key, nil
}

func (key *Key) generate() {
	p := key.params

	expanded := make([]byte, 3*seedBytes)
	shake256Sum(expanded, key.seed[:])
	copy(key.rho[:], expanded[:seedBytes])
	rhoPrime := expanded[seedBytes : 2*seedBytes]
	copy(key.key[:], expanded[2*seedBytes:])

	key.s1 = make([]ringElement, p.L)
	key.s2 = make([]ringElement, p.K)
	for i := 0; i < p.L; i++ {
		key.s1[i] = expandS(rhoPrime, p.Eta, uint16(i))
	}
	for i := 0; i < p.K; i++ {
		key.s2[i] = expandS(rhoPrime, p.Eta, uint16(p.L+i))
	}

	key.a = expandA(key.rho[:], p)

	s1NTT := nttVec(key.s1)
	t := matVecMulInvNTT(key.a, s1NTT, p.K, p.L)

	key.t0 = make([]ringElement, p.K)
	key.t1 = make([]ringElement, p.K)
	for i := 0; i < p.K; i++ {
		sum := polyAdd(&t[i], &key.s2[i])
		polyFreeze(&sum)
		for j := 0; j < n; j++ {
			key.t1[i][j], key.t0[i][j] = power2Round(sum[j])
		}
	}

	pkBytes := encodePublicKey(p, key.rho, key.t1)
	shake256Sum(key.tr[:], pkBytes)
}

// PublicKey returns the public key corresponding to key.
func (key *Key) PublicKey() *PublicKey {
	return &PublicKey{params: key.params, rho: key.rho, t1: key.t1, tr: key.tr, a: key.a}
}

// Bytes returns the 32-byte seed this key was derived from.
func (key *Key) Bytes() []byte {
	b := make([]byte, seedBytes)
	copy(b, key.seed[:])
	return b
}

// PrivateKeyBytes returns the encoded private key.
func (key *Key) PrivateKeyBytes() []byte {
	return key.PrivateKey.Bytes()
}

// Bytes returns the encoded private key.
func (sk *PrivateKey) Bytes() []byte {
	p := sk.params
	b := make([]byte, p.PrivateKeySize())
	copy(b[:seedBytes], sk.rho[:])
	copy(b[seedBytes:2*seedBytes], sk.key[:])
	copy(b[2*seedBytes:2*seedBytes+crhBytes], sk.tr[:])

	offset := 2*seedBytes + crhBytes
	etaBytes := n * int(p.etaBits) / 8
	for i := 0; i < p.L; i++ {
		copy(b[offset:], packEta(&sk.s1[i], p.Eta, p.etaBits))
		offset += etaBytes
	}
	for i := 0; i < p.K; i++ {
		copy(b[offset:], packEta(&sk.s2[i], p.Eta, p.etaBits))
		offset += etaBytes
	}
	t0Bytes := n * d / 8
	for i := 0; i < p.K; i++ {
		copy(b[offset:], packT0(&sk.t0[i]))
		offset += t0Bytes
	}
	return b
}

// encodePublicKey builds the public-key wire encoding from its raw parts,
// used both by Key.generate (before tr exists) and PublicKey.Bytes.
func encodePublicKey(p *Params, rho [seedBytes]byte, t1 []ringElement) []byte {
	b := make([]byte, p.PublicKeySize())
	copy(b[:seedBytes], rho[:])
	offset := seedBytes
	t1Bytes := n * int(p.t1Bits) / 8
	for i := 0; i < p.K; i++ {
		copy(b[offset:], packT1(&t1[i], p.t1Bits))
		offset += t1Bytes
	}
	return b
}

// Bytes returns the encoded public key.
func (pk *PublicKey) Bytes() []byte {
	return encodePublicKey(pk.params, pk.rho, pk.t1)
}

// Equal reports whether pk and other are the same public key.
func (pk *PublicKey) Equal(other crypto.PublicKey) bool {
	o, ok := other.(*PublicKey)
	if !ok || o.params != pk.params || pk.rho != o.rho || len(pk.t1) != len(o.t1) {
		return false
	}
	for i := range pk.t1 {
		if pk.t1[i] != o.t1[i] {
			return false
		}
	}
	return true
}

// NewPublicKey parses an encoded public key for params.
func NewPublicKey(params *Params, b []byte) (*PublicKey, error) {
	if len(b) != params.PublicKeySize() {
		return nil, errors.New("dilithium: invalid public key length")
	}
	pk := &PublicKey{params: params}
	copy(pk.rho[:], b[:seedBytes])

	offset := seedBytes
	t1Bytes := n * int(params.t1Bits) / 8
	pk.t1 = make([]ringElement, params.K)
	for i := 0; i < params.K; i++ {
		pk.t1[i] = unpackT1(b[offset:offset+t1Bytes], params.t1Bits)
		offset += t1Bytes
	}

	pk.a = expandA(pk.rho[:], params)
	shake256Sum(pk.tr[:], b)
	return pk, nil
}

// NewPrivateKey parses an encoded private key for params.
func NewPrivateKey(params *Params, b []byte) (*PrivateKey, error) {
	if len(b) != params.PrivateKeySize() {
		return nil, errors.New("dilithium: invalid private key length")
	}
	sk := &PrivateKey{params: params}
	copy(sk.rho[:], b[:seedBytes])
	copy(sk.key[:], b[seedBytes:2*seedBytes])
	copy(sk.tr[:], b[2*seedBytes:2*seedBytes+crhBytes])

	offset := 2*seedBytes + crhBytes
	etaBytes := n * int(params.etaBits) / 8
	sk.s1 = make([]ringElement, params.L)
	sk.s2 = make([]ringElement, params.K)
	var err error
	for i := 0; i < params.L; i++ {
		sk.s1[i], err = unpackEta(b[offset:offset+etaBytes], params.Eta, params.etaBits)
		if err != nil {
			return nil, err
		}
		offset += etaBytes
	}
	for i := 0; i < params.K; i++ {
		sk.s2[i], err = unpackEta(b[offset:offset+etaBytes], params.Eta, params.etaBits)
		if err != nil {
			return nil, err
		}
		offset += etaBytes
	}

	t0Bytes := n * d / 8
	sk.t0 = make([]ringElement, params.K)
	for i := 0; i < params.K; i++ {
		sk.t0[i] = unpackT0(b[offset : offset+t0Bytes])
		offset += t0Bytes
	}

	sk.a = expandA(sk.rho[:], params)
	return sk, nil
}

// nttVec transforms each polynomial of v into NTT domain, returning a fresh
// slice and leaving v untouched.
func nttVec(v []ringElement) []nttElement {
	out := make([]nttElement, len(v))
	for i := range v {
		tmp := v[i]
		ntt(&tmp)
		polyReduce(&tmp)
		out[i] = nttElement(tmp)
	}
	return out
}

// matVecMulInvNTT computes A*v for the K*L matrix a (row-major) and the
// length-L NTT-domain vector vNTT, returning the K-length result in
// standard domain, fully reduced into [0, Q).
func matVecMulInvNTT(a []nttElement, vNTT []nttElement, k, l int) []ringElement {
	out := make([]ringElement, k)
	for i := 0; i < k; i++ {
		var acc nttElement
		for j := 0; j < l; j++ {
			prod := pointwiseMontgomery(&a[i*l+j], &vNTT[j])
			for idx := range acc {
				acc[idx] += prod[idx]
			}
		}
		r := ringElement(acc)
		polyReduce(&r)
		invNTT(&r)
		polyFreeze(&r)
		out[i] = r
	}
	return out
}

// cMulInvNTT computes c*x for NTT-domain c and x, returning the product in
// standard domain, fully reduced into [0, Q).
func cMulInvNTT(cNTT, xNTT *nttElement) ringElement {
	prod := pointwiseMontgomery(cNTT, xNTT)
	r := ringElement(prod)
	polyReduce(&r)
	invNTT(&r)
	polyFreeze(&r)
	return r
}

func zeroizeVec(v []ringElement) {
	for i := range v {
		zeroize(&v[i])
	}
}

// buildMPrime builds the byte string mu is hashed over: the bare message when no
// context is given (spec.md §4.7's literal mu = SHAKE256(tr || message)),
// or, as a disclosed extension beyond spec.md's round-1 formula, a
// 0x00 || len(context) || context prefix when a context is supplied — a nil
// or empty context always reduces to exactly the unprefixed construction,
// so plain signing/verification stays byte-exact to spec.md and KAT vectors
// derived from it.
func buildMPrime(message, context []byte) []byte {
	if len(context) == 0 {
		return message
	}
	m := make([]byte, 2+len(context)+len(message))
	m[0] = 0
	m[1] = byte(len(context))
	copy(m[2:], context)
	copy(m[2+len(context):], message)
	return m
}

// SignWithContext signs message under an optional context string.
// Signing is deterministic given sk and message (spec.md §6/§8): unlike the
// hedged FIPS 204 construction this scheme's teacher codebase implements,
// round-1 Dilithium draws no entropy during signing at all — rand is
// accepted only for crypto.Signer/SignMessage interface conformance and is
// never read, the same convention crypto/ed25519.PrivateKey.Sign follows
// for its own deterministic scheme.
func (sk *PrivateKey) SignWithContext(rand io.Reader, message, context []byte) ([]byte, error) {
	if len(context) > 255 {
		return nil, errors.New("dilithium: context too long")
	}
	return sk.signInternal(buildMPrime(message, context))
}

// signInternal runs the Fiat-Shamir-with-aborts rejection loop from
// spec.md §4.7. The intermediate vector y is sampled straight from sk.key
// and the per-iteration nonce, with no additional randomizer mixed in
// (original_source/src/dilithium/sign.c:398-416 seeds poly_uniform_gamma1m1
// from the unpacked secret key alone), which is what makes two calls over
// the same (sk, mPrime) produce byte-identical signatures.
func (sk *PrivateKey) signInternal(mPrime []byte) ([]byte, error) {
	p := sk.params

	var mu [crhBytes]byte
	shake256Sum(mu[:], sk.tr[:], mPrime)

	s1NTT := nttVec(sk.s1)
	s2NTT := nttVec(sk.s2)
	t0NTT := nttVec(sk.t0)

	for kappa := uint16(0); ; kappa += uint16(p.L) {
		y := make([]ringElement, p.L)
		for i := 0; i < p.L; i++ {
			y[i] = expandMask(sk.key[:], kappa+uint16(i), p)
		}
		yNTT := nttVec(y)

		w := matVecMulInvNTT(sk.a, yNTT, p.K, p.L)
		w1 := make([]ringElement, p.K)
		w1Packed := make([][]byte, p.K)
		for i := 0; i < p.K; i++ {
			for j := 0; j < n; j++ {
				w1[i][j] = highBits(w[i][j], p.Gamma2)
			}
			w1Packed[i] = packW1(&w1[i], p.w1Bits)
		}

		order, signs := sampleChallenge(mu[:], w1Packed)
		c := buildChallenge(order, signs)
		cTmp := c
		ntt(&cTmp)
		polyReduce(&cTmp)
		cNTT := nttElement(cTmp)

		z := make([]ringElement, p.L)
		for i := 0; i < p.L; i++ {
			cs1 := cMulInvNTT(&cNTT, &s1NTT[i])
			z[i] = polyAdd(&y[i], &cs1)
			for j := 0; j < n; j++ {
				v := freeze(z[i][j])
				if v > (qInt-1)/2 {
					v -= qInt
				}
				z[i][j] = v
			}
		}
		if vecChknorm(z, p.Gamma1-p.Beta) {
			zeroizeVec(y)
			zeroizeVec(z)
			continue
		}

		r0 := make([]ringElement, p.K)
		for i := 0; i < p.K; i++ {
			cs2 := cMulInvNTT(&cNTT, &s2NTT[i])
			diff := polySub(&w[i], &cs2)
			polyFreeze(&diff)
			for j := 0; j < n; j++ {
				_, r0[i][j] = decompose(diff[j], p.Gamma2)
			}
		}
		if vecChknorm(r0, p.Gamma2-p.Beta) {
			zeroizeVec(y)
			zeroizeVec(z)
			continue
		}

		ct0 := make([]ringElement, p.K)
		for i := 0; i < p.K; i++ {
			ct0[i] = cMulInvNTT(&cNTT, &t0NTT[i])
		}
		if vecChknorm(ct0, p.Gamma2) {
			zeroizeVec(y)
			zeroizeVec(z)
			continue
		}

		hints := make([]ringElement, p.K)
		for i := 0; i < p.K; i++ {
			cs2 := cMulInvNTT(&cNTT, &s2NTT[i])
			r := polySub(&w[i], &cs2)
			polyFreeze(&r)
			for j := 0; j < n; j++ {
				hints[i][j] = makeHint(ct0[i][j], r[j], p.Gamma2)
			}
		}
		if popcount(hints) > p.Omega {
			zeroizeVec(y)
			zeroizeVec(z)
			continue
		}

		sig := make([]byte, p.SignatureSize())
		copy(sig, packChallenge(order, signs))
		offset := 8 + tau
		zBytes := n * int(p.zBits) / 8
		for i := 0; i < p.L; i++ {
			copy(sig[offset:], packZ(&z[i], p.Gamma1, p.zBits))
			offset += zBytes
		}
		copy(sig[offset:], packHint(hints, p.Omega))

		zeroizeVec(y)
		zeroizeVec(z)
		return sig, nil
	}
}

// Verify checks sig over message under an optional context string.
func (pk *PublicKey) Verify(sig, message, context []byte) bool {
	if len(context) > 255 {
		return false
	}
	return pk.verifyInternal(sig, buildMPrime(message, context))
}

// verifyInternal runs spec.md §4.8's reconstruction-and-compare check.
func (pk *PublicKey) verifyInternal(sig, mPrime []byte) bool {
	p := pk.params
	if len(sig) != p.SignatureSize() {
		return false
	}

	var mu [crhBytes]byte
	shake256Sum(mu[:], pk.tr[:], mPrime)

	order, signs, err := unpackChallenge(sig[:8+tau])
	if err != nil {
		return false
	}
	c := buildChallenge(order, signs)
	offset := 8 + tau

	zBytes := n * int(p.zBits) / 8
	z := make([]ringElement, p.L)
	for i := 0; i < p.L; i++ {
		z[i] = unpackZ(sig[offset:offset+zBytes], p.Gamma1, p.zBits)
		offset += zBytes
	}
	if vecChknorm(z, p.Gamma1-p.Beta) {
		return false
	}

	hints, ok := unpackHint(sig[offset:], p.K, p.Omega)
	if !ok {
		return false
	}

	cTmp := c
	ntt(&cTmp)
	polyReduce(&cTmp)
	cNTT := nttElement(cTmp)

	zNTT := nttVec(z)

	t1Scaled := make([]nttElement, p.K)
	for i := 0; i < p.K; i++ {
		scaled := pk.t1[i]
		polyShiftL(&scaled, d)
		ntt(&scaled)
		polyReduce(&scaled)
		t1Scaled[i] = nttElement(scaled)
	}

	w1 := make([]ringElement, p.K)
	w1Packed := make([][]byte, p.K)
	for i := 0; i < p.K; i++ {
		var acc nttElement
		for j := 0; j < p.L; j++ {
			prod := pointwiseMontgomery(&pk.a[i*p.L+j], &zNTT[j])
			for idx := range acc {
				acc[idx] += prod[idx]
			}
		}
		ct1 := pointwiseMontgomery(&cNTT, &t1Scaled[i])
		for idx := range acc {
			acc[idx] -= ct1[idx]
		}
		r := ringElement(acc)
		polyReduce(&r)
		invNTT(&r)
		polyFreeze(&r)

		for j := 0; j < n; j++ {
			w1[i][j] = useHint(hints[i][j], r[j], p.Gamma2)
		}
		w1Packed[i] = packW1(&w1[i], p.w1Bits)
	}

	orderCheck, signsCheck := sampleChallenge(mu[:], w1Packed)
	cCheck := buildChallenge(orderCheck, signsCheck)
	return cCheck == c
}

// Sign creates a signature using the key pair's private key.
func (key *Key) Sign(rand io.Reader, message, context []byte) ([]byte, error) {
	return key.PrivateKey.SignWithContext(rand, message, context)
}

// Public returns the public key, implementing crypto.Signer.
func (sk *PrivateKey) Public() crypto.PublicKey {
	pk := &PublicKey{rho: sk.rho, tr: sk.tr, a: sk.a, params: sk.params}
	s1NTT := nttVec(sk.s1)
	t := matVecMulInvNTT(sk.a, s1NTT, sk.params.K, sk.params.L)
	pk.t1 = make([]ringElement, sk.params.K)
	for i := 0; i < sk.params.K; i++ {
		sum := polyAdd(&t[i], &sk.s2[i])
		polyFreeze(&sum)
		for j := 0; j < n; j++ {
			pk.t1[i][j], _ = power2Round(sum[j])
		}
	}
	return pk
}

// Sign implements crypto.Signer: digest is the message to be signed
// directly (Dilithium signs messages, not digests). If opts is *SignerOpts,
// its Context field is used for domain separation.
func (sk *PrivateKey) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return sk.SignMessage(rand, digest, opts)
}

// SignMessage implements crypto.MessageSigner (Go 1.25+; the method exists
// unconditionally, the interface assertion is build-tagged in
// signer_go125.go since the interface type itself is version-gated).
func (sk *PrivateKey) SignMessage(rand io.Reader, msg []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts != nil && opts.HashFunc() != 0 {
		return nil, errors.New("dilithium: cannot sign pre-hashed messages")
	}
	var context []byte
	if o, ok := opts.(*SignerOpts); ok && o != nil {
		context = o.Context
	}
	return sk.SignWithContext(rand, msg, context)
}
