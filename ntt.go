package dilithium

// ntt.go implements the negacyclic number-theoretic transform over
// Z_q[X]/(X^n+1). The twiddle table is derived once at package
// initialization from the primitive 2n-th root of unity (1753) rather than
// hand-copied as a literal table: it is read-only, process-wide state
// computed at library load, matching the design intent of a precomputed
// table without risking a transcription error in 256 magic numbers.

// zetas holds the bit-reversed, Montgomery-form powers of 1753 used by ntt
// and invNTT: zetas[k] = 1753^(bitrev(k)) * R mod q.
var zetas [n]int32

// invN is R^2 * n^-1 mod q. invNTT multiplies by it through a Montgomery
// reduction, which rescales by n^-1 and leaves a factor of R = 2^32 on the
// result.
const invN int32 = 41978

func init() {
	const root = 1753
	var pw [n]int64
	pw[0] = 1
	for i := 1; i < n; i++ {
		pw[i] = pw[i-1] * root % q
	}
	for k := 0; k < n; k++ {
		zetas[k] = freeze(toMontgomery(int32(pw[bitrev8(uint8(k))])))
	}
}

func bitrev8(x uint8) uint8 {
	x = (x&0xF0)>>4 | (x&0x0F)<<4
	x = (x&0xCC)>>2 | (x&0x33)<<2
	x = (x&0xAA)>>1 | (x&0x55)<<1
	return x
}

// ntt performs the forward NTT in place. The input is in standard form;
// the output is in NTT (bit-reversed, pointwise) form and must be passed
// through polyReduce before further use — its coefficients are not yet
// fully reduced.
func ntt(f *ringElement) {
	k := 1
	for length := 128; length >= 1; length /= 2 {
		for start := 0; start < n; start += 2 * length {
			zeta := zetas[k]
			k++
			for j := start; j < start+length; j++ {
				t := fieldMul(zeta, f[j+length])
				f[j+length] = f[j] - t
				f[j] = f[j] + t
			}
		}
	}
}

// invNTT performs the inverse NTT in place. The input is in NTT form; the
// output is in standard form multiplied by R = 2^32 (the final step
// multiplies by invN), so invNTT(ntt(f)) is R*f mod q. That factor cancels
// the R^-1 that pointwiseMontgomery leaves on a product.
func invNTT(f *ringElement) {
	k := n - 1
	for length := 1; length < n; length *= 2 {
		for start := 0; start < n; start += 2 * length {
			zeta := qInt - zetas[k]
			k--
			for j := start; j < start+length; j++ {
				t := f[j]
				f[j] = t + f[j+length]
				f[j+length] = fieldMul(zeta, t-f[j+length])
			}
		}
	}
	for i := range f {
		f[i] = fieldMul(f[i], invN)
	}
}
