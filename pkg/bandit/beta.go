// Package bandit draws Thompson-Sampling probabilities from the
// Beta-Bernoulli posterior over each variant's true success rate.
package bandit

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Sampler draws from Beta posteriors. Safe for concurrent use.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler seeds a sampler; seed 0 falls back to the clock.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Posterior draws a single sample from Beta(successes+1, failures+1) where
// failures = total - successes. This is deliberately a random draw, not the
// posterior mean: repeated recomputation then naturally explores uncertain
// variants. Negative or inconsistent counters (total < successes) are
// clamped to zero failures before the shape parameters are derived.
func (s *Sampler) Posterior(successes, total int64) float64 {
	if successes < 0 {
		successes = 0
	}
	failures := total - successes
	if failures < 0 {
		failures = 0
	}
	return s.Beta(float64(successes)+1, float64(failures)+1)
}

// Beta draws one sample from Beta(alpha, beta) via two Gamma draws.
func (s *Sampler) Beta(alpha, beta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	x := s.gamma(alpha)
	y := s.gamma(beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// gamma samples Gamma(shape, 1) using Marsaglia-Tsang, with the standard
// boost for shape < 1.
func (s *Sampler) gamma(shape float64) float64 {
	if shape < 1 {
		u := s.rng.Float64()
		return s.gamma(shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		var x, v float64
		for {
			x = s.rng.NormFloat64()
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := s.rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
