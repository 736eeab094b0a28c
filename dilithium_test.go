package dilithium

import (
	"bytes"
	"crypto/rand"
	mrand "math/rand"
	"testing"
)

var allParams = []*Params{Weak, Medium, Recommended, VeryHigh}

func TestGenerateKey(t *testing.T) {
	for _, p := range allParams {
		key, err := GenerateKey(p, rand.Reader)
		if err != nil {
			t.Fatalf("%s: GenerateKey failed: %v", p.Name, err)
		}
		if key == nil {
			t.Fatalf("%s: GenerateKey returned nil", p.Name)
		}
	}
}

func TestSignVerify(t *testing.T) {
	for _, p := range allParams {
		p := p
		t.Run(p.Name, func(t *testing.T) {
			key, err := GenerateKey(p, rand.Reader)
			if err != nil {
				t.Fatalf("GenerateKey failed: %v", err)
			}

			message := []byte("hello, world!")
			sig, err := key.Sign(rand.Reader, message, nil)
			if err != nil {
				t.Fatalf("Sign failed: %v", err)
			}
			if len(sig) != p.SignatureSize() {
				t.Errorf("signature size: got %d, want %d", len(sig), p.SignatureSize())
			}

			pk := key.PublicKey()
			if !pk.Verify(sig, message, nil) {
				t.Error("Verify returned false for a valid signature")
			}
		})
	}
}

// The five negative scenarios: each corrupts exactly one aspect of a valid
// (key, message, signature) triple and checks that Verify rejects it.
func TestVerifyNegative(t *testing.T) {
	p := Medium
	key, err := GenerateKey(p, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	message := []byte("attack at dawn")
	sig, err := key.Sign(rand.Reader, message, nil)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	pk := key.PublicKey()
	if !pk.Verify(sig, message, nil) {
		t.Fatal("valid signature failed to verify")
	}

	t.Run("flipped z byte", func(t *testing.T) {
		bad := bytes.Clone(sig)
		bad[8+tau] ^= 0x01
		if pk.Verify(bad, message, nil) {
			t.Error("Verify accepted a signature with a flipped z byte")
		}
	})

	t.Run("permuted hint position", func(t *testing.T) {
		bad := bytes.Clone(sig)
		hintStart := len(bad) - (p.Omega + p.K)
		offsets := bad[hintStart+p.Omega:]
		prev := 0
		found := false
		for i := 0; i < p.K && !found; i++ {
			end := int(offsets[i])
			if end-prev >= 2 {
				j := hintStart + prev
				bad[j], bad[j+1] = bad[j+1], bad[j]
				found = true
			}
			prev = end
		}
		if !found {
			t.Skip("no hint row in this signature has 2+ positions to permute")
		}
		if pk.Verify(bad, message, nil) {
			t.Error("Verify accepted a signature with a permuted hint row")
		}
	})

	t.Run("message swap", func(t *testing.T) {
		if pk.Verify(sig, []byte("retreat at dusk"), nil) {
			t.Error("Verify accepted a signature under a different message")
		}
	})

	t.Run("truncated message", func(t *testing.T) {
		if pk.Verify(sig, message[:len(message)-1], nil) {
			t.Error("Verify accepted a signature over a truncated message")
		}
	})

	t.Run("flipped pk.rho byte", func(t *testing.T) {
		pkBytes := bytes.Clone(pk.Bytes())
		pkBytes[0] ^= 0x01
		badPk, err := NewPublicKey(p, pkBytes)
		if err != nil {
			t.Fatalf("NewPublicKey failed: %v", err)
		}
		if badPk.Verify(sig, message, nil) {
			t.Error("Verify accepted a signature under a corrupted public key")
		}
	})
}

// Sign is deterministic given sk and message: two calls over the same
// (sk, message) produce byte-identical signatures regardless of what the
// rand argument reads, since nothing about the rejection loop depends on
// it.
func TestSignDeterministic(t *testing.T) {
	for _, p := range allParams {
		p := p
		t.Run(p.Name, func(t *testing.T) {
			key, err := GenerateKey(p, rand.Reader)
			if err != nil {
				t.Fatalf("GenerateKey failed: %v", err)
			}
			message := []byte("the same message, signed twice")

			sig1, err := key.Sign(rand.Reader, message, nil)
			if err != nil {
				t.Fatalf("first Sign failed: %v", err)
			}
			sig2, err := key.Sign(bytes.NewReader(nil), message, nil)
			if err != nil {
				t.Fatalf("second Sign failed: %v", err)
			}
			if !bytes.Equal(sig1, sig2) {
				t.Error("two signatures over the same key and message differ")
			}
		})
	}
}

// A nil/empty context must produce the same mu (and hence signature) as
// spec.md §4.7's literal mu = SHAKE256(tr || message) construction, with no
// context-length prefix mixed in.
func TestSignNilContextMatchesBareMessage(t *testing.T) {
	key, err := GenerateKey(Medium, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	message := []byte("no context here")

	sigNil, err := key.Sign(rand.Reader, message, nil)
	if err != nil {
		t.Fatalf("Sign with nil context failed: %v", err)
	}
	sigEmpty, err := key.Sign(rand.Reader, message, []byte{})
	if err != nil {
		t.Fatalf("Sign with empty context failed: %v", err)
	}
	if !bytes.Equal(sigNil, sigEmpty) {
		t.Error("nil and empty context produced different signatures")
	}

	var muDirect [crhBytes]byte
	sk := &key.PrivateKey
	shake256Sum(muDirect[:], sk.tr[:], message)
	var muViaAPI [crhBytes]byte
	shake256Sum(muViaAPI[:], sk.tr[:], buildMPrime(message, nil))
	if muDirect != muViaAPI {
		t.Error("nil-context mu does not match SHAKE256(tr || message) directly")
	}
}

func TestSignVerifyWithContext(t *testing.T) {
	p := Medium
	key, err := GenerateKey(p, rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	message := []byte("hello, world!")
	context := []byte("test context")

	sig, err := key.Sign(rand.Reader, message, context)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	pk := key.PublicKey()

	if !pk.Verify(sig, message, context) {
		t.Error("Verify returned false for a valid signature with context")
	}
	if pk.Verify(sig, message, []byte("wrong context")) {
		t.Error("Verify returned true for a wrong context")
	}
	if pk.Verify(sig, message, nil) {
		t.Error("Verify returned true for a missing context")
	}
}

func TestKeyRoundtrip(t *testing.T) {
	for _, p := range allParams {
		p := p
		t.Run(p.Name, func(t *testing.T) {
			key, err := GenerateKey(p, rand.Reader)
			if err != nil {
				t.Fatalf("GenerateKey failed: %v", err)
			}

			seed := key.Bytes()
			key2, err := NewKey(p, seed)
			if err != nil {
				t.Fatalf("NewKey failed: %v", err)
			}
			if !bytes.Equal(key.PrivateKeyBytes(), key2.PrivateKeyBytes()) {
				t.Error("key roundtrip via seed failed")
			}

			skBytes := key.PrivateKeyBytes()
			sk, err := NewPrivateKey(p, skBytes)
			if err != nil {
				t.Fatalf("NewPrivateKey failed: %v", err)
			}
			if !bytes.Equal(sk.Bytes(), skBytes) {
				t.Error("private key roundtrip failed")
			}

			pk := key.PublicKey()
			pkBytes := pk.Bytes()
			pk2, err := NewPublicKey(p, pkBytes)
			if err != nil {
				t.Fatalf("NewPublicKey failed: %v", err)
			}
			if !bytes.Equal(pk2.Bytes(), pkBytes) {
				t.Error("public key roundtrip failed")
			}
		})
	}
}

func TestKeySizes(t *testing.T) {
	for _, p := range allParams {
		key, err := GenerateKey(p, rand.Reader)
		if err != nil {
			t.Fatalf("%s: GenerateKey failed: %v", p.Name, err)
		}
		if got := len(key.PublicKey().Bytes()); got != p.PublicKeySize() {
			t.Errorf("%s: public key size: got %d, want %d", p.Name, got, p.PublicKeySize())
		}
		if got := len(key.PrivateKeyBytes()); got != p.PrivateKeySize() {
			t.Errorf("%s: private key size: got %d, want %d", p.Name, got, p.PrivateKeySize())
		}
	}
}

func TestPublicKeyEquality(t *testing.T) {
	key1, _ := GenerateKey(Recommended, rand.Reader)
	key2, _ := GenerateKey(Recommended, rand.Reader)

	pk1 := key1.PublicKey()
	pk1Copy := key1.PublicKey()
	pk2 := key2.PublicKey()

	if !pk1.Equal(pk1Copy) {
		t.Error("Equal returned false for the same key")
	}
	if pk1.Equal(pk2) {
		t.Error("Equal returned true for different keys")
	}
}

func TestDeterministicKeyGen(t *testing.T) {
	seed := make([]byte, seedBytes)
	for i := range seed {
		seed[i] = byte(i)
	}

	key1, _ := NewKey(Recommended, seed)
	key2, _ := NewKey(Recommended, seed)

	if !bytes.Equal(key1.PrivateKeyBytes(), key2.PrivateKeyBytes()) {
		t.Error("deterministic key generation produced different keys")
	}
}

func TestExpandADeterministic(t *testing.T) {
	var rho [seedBytes]byte
	rand.Read(rho[:])
	a1 := expandA(rho[:], Medium)
	a2 := expandA(rho[:], Medium)
	if len(a1) != len(a2) {
		t.Fatal("expandA returned different lengths across calls")
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Errorf("expandA not deterministic at entry %d", i)
		}
	}
}

func TestChallengeWeight(t *testing.T) {
	var mu [crhBytes]byte
	rand.Read(mu[:])
	w1 := [][]byte{{1, 2, 3}, {4, 5, 6}}
	order, signs := sampleChallenge(mu[:], w1)
	c := buildChallenge(order, signs)

	weight := 0
	for _, v := range c {
		if v != 0 {
			if v != 1 && v != -1 {
				t.Fatalf("challenge coefficient not in {-1, 0, 1}: %d", v)
			}
			weight++
		}
	}
	if weight != tau {
		t.Errorf("challenge weight: got %d, want %d", weight, tau)
	}
}

// The packed challenge encoding's position bytes are load-bearing order,
// not a sorted index set: swapping the positions of two adjacent rounds
// that picked different positions with different signs must change the
// reconstructed polynomial.
func TestChallengeOrderMatters(t *testing.T) {
	var mu [crhBytes]byte
	rand.Read(mu[:])
	w1 := [][]byte{{1, 2, 3}, {7, 8, 9}}
	order, signs := sampleChallenge(mu[:], w1)
	c := buildChallenge(order, signs)

	k := 0
	for k+1 < tau && (order[k] == order[k+1] || signs[k] == signs[k+1]) {
		k++
	}
	if k+1 == tau {
		t.Fatal("no adjacent rounds with distinct positions and signs to swap")
	}
	swapped := order
	swapped[k], swapped[k+1] = swapped[k+1], swapped[k]
	cSwapped := buildChallenge(swapped, signs)

	if cSwapped == c {
		t.Error("permuting the sampled order did not change the reconstructed challenge")
	}
}

func TestNTTRoundtrip(t *testing.T) {
	rng := mrand.New(mrand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		var p ringElement
		for i := range p {
			p[i] = int32(rng.Intn(2*q) - q)
		}
		want := p
		polyFreeze(&want)

		ntt(&p)
		polyReduce(&p)
		invNTT(&p)
		// invNTT leaves a factor of R = 2^32 on its output; a Montgomery
		// reduction of each coefficient removes it.
		for i := range p {
			p[i] = montgomeryReduce(int64(p[i]))
		}
		polyFreeze(&p)

		if p != want {
			t.Fatalf("trial %d: NTT roundtrip mismatch", trial)
		}
	}
}

func TestPackUnpackT1(t *testing.T) {
	rng := mrand.New(mrand.NewSource(2))
	for _, p := range allParams {
		bound := int32(1)<<p.t1Bits - 1
		for trial := 0; trial < 50; trial++ {
			var poly ringElement
			for i := range poly {
				poly[i] = int32(rng.Intn(int(bound) + 1))
			}
			packed := packT1(&poly, p.t1Bits)
			got := unpackT1(packed, p.t1Bits)
			if got != poly {
				t.Fatalf("%s trial %d: t1 roundtrip mismatch", p.Name, trial)
			}
		}
	}
}

func TestPackUnpackEta(t *testing.T) {
	rng := mrand.New(mrand.NewSource(3))
	for _, p := range allParams {
		for trial := 0; trial < 50; trial++ {
			var poly ringElement
			for i := range poly {
				poly[i] = int32(rng.Intn(int(2*p.Eta+1))) - p.Eta
			}
			packed := packEta(&poly, p.Eta, p.etaBits)
			got, err := unpackEta(packed, p.Eta, p.etaBits)
			if err != nil {
				t.Fatalf("%s trial %d: unpackEta error: %v", p.Name, trial, err)
			}
			if got != poly {
				t.Fatalf("%s trial %d: eta roundtrip mismatch", p.Name, trial)
			}
		}
	}
}

func TestPackUnpackT0(t *testing.T) {
	rng := mrand.New(mrand.NewSource(4))
	const bound = int32(1) << (d - 1)
	for trial := 0; trial < 50; trial++ {
		var poly ringElement
		for i := range poly {
			poly[i] = int32(rng.Intn(int(2*bound))) - bound + 1
		}
		packed := packT0(&poly)
		got := unpackT0(packed)
		if got != poly {
			t.Fatalf("trial %d: t0 roundtrip mismatch", trial)
		}
	}
}

func TestPackUnpackZ(t *testing.T) {
	rng := mrand.New(mrand.NewSource(5))
	for _, p := range allParams {
		bound := p.Gamma1 - 1
		for trial := 0; trial < 50; trial++ {
			var poly ringElement
			for i := range poly {
				poly[i] = int32(rng.Intn(int(2*bound+1))) - bound
			}
			packed := packZ(&poly, p.Gamma1, p.zBits)
			got := unpackZ(packed, p.Gamma1, p.zBits)
			if got != poly {
				t.Fatalf("%s trial %d: z roundtrip mismatch", p.Name, trial)
			}
		}
	}
}

func TestDecomposeIdentity(t *testing.T) {
	rng := mrand.New(mrand.NewSource(6))
	for _, p := range allParams {
		for trial := 0; trial < 200; trial++ {
			rr := int32(rng.Intn(q))
			r1, r0 := decompose(rr, p.Gamma2)
			if got := freeze(r1*2*p.Gamma2 + r0); got != rr {
				t.Fatalf("%s trial %d: decompose identity failed: got %d, want %d", p.Name, trial, got, rr)
			}
		}
	}
}

func TestMakeUseHint(t *testing.T) {
	rng := mrand.New(mrand.NewSource(7))
	for _, p := range allParams {
		for trial := 0; trial < 200; trial++ {
			rr := int32(rng.Intn(q))
			z := int32(rng.Intn(int(2*p.Gamma2))) - p.Gamma2 + 1
			hint := makeHint(z, rr, p.Gamma2)
			want := highBits(freeze(rr+z), p.Gamma2)
			got := useHint(hint, rr, p.Gamma2)
			if got != want {
				t.Fatalf("%s trial %d: useHint mismatch: got %d, want %d", p.Name, trial, got, want)
			}
		}
	}
}

func BenchmarkGenerateKey(b *testing.B) {
	for _, p := range allParams {
		p := p
		b.Run(p.Name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				GenerateKey(p, rand.Reader)
			}
		})
	}
}

func BenchmarkSign(b *testing.B) {
	for _, p := range allParams {
		p := p
		key, _ := GenerateKey(p, rand.Reader)
		message := []byte("benchmark message")
		b.Run(p.Name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				key.Sign(rand.Reader, message, nil)
			}
		})
	}
}

func BenchmarkVerify(b *testing.B) {
	for _, p := range allParams {
		p := p
		key, _ := GenerateKey(p, rand.Reader)
		message := []byte("benchmark message")
		sig, _ := key.Sign(rand.Reader, message, nil)
		pk := key.PublicKey()
		b.Run(p.Name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				pk.Verify(sig, message, nil)
			}
		})
	}
}
