// Package randutil provides deterministic random sources.
package randutil

import rand "math/rand/v2"

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed, so that a
// configured seed always yields the same starting ranges.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Distribution returns n non-negative weights drawn from rng that sum to one.
func Distribution(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	total := 0.0
	for i := range out {
		// ExpFloat64 draws make the result uniform over the simplex.
		out[i] = rng.ExpFloat64()
		total += out[i]
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
