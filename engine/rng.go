package engine

import "math/rand"

// rouletteTolerance is the small fixed tolerance used by Roulette to
// absorb floating-point rounding at the boundary of the last bucket
// (spec.md §4.1).
const rouletteTolerance = 1e-10

// RNG is a seedable uniform pseudo-random generator wrapping the
// standard library's *rand.Rand, providing the three sampling
// primitives the engine needs (spec.md §4.1).
type RNG struct {
	r *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Reseed resets the generator's stream to start fresh from seed, used
// between simulations that must be reproducible (spec.md §8 round-trip
// property: same seed + config => identical run).
func (g *RNG) Reseed(seed int64) {
	g.r = rand.New(rand.NewSource(seed))
}

// Uniform returns a floating value in [min, max) (min itself when
// max <= min).
func (g *RNG) Uniform(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + g.r.Float64()*(max-min)
}

// Bernoulli returns true iff a fresh Uniform(0,1) draw is strictly less
// than p.
func (g *RNG) Bernoulli(p float64) bool {
	return g.Uniform(0, 1) < p
}

// Intn returns a uniform random int in [0, n).
func (g *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.Intn(n)
}

// Roulette draws u in [0, total) and walks weights accumulating sum,
// returning the first index i with u <= sum+tolerance. A zero weight is
// skipped and never selected. If rounding prevents any hit, the last
// nonzero-weight index is returned (spec.md §4.1, §7 NumericTolerance).
// Roulette returns -1 if weights contains no positive entry.
func (g *RNG) Roulette(weights []float64, total float64) int {
	lastNonZero := -1
	for i, w := range weights {
		if w > 0 {
			lastNonZero = i
		}
	}
	if lastNonZero == -1 {
		return -1
	}

	u := g.Uniform(0, total)
	sum := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		sum += w
		if u <= sum+rouletteTolerance {
			return i
		}
	}
	return lastNonZero
}
