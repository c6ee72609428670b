// Package simrand holds the pseudo-random helpers shared by the simulator.
package simrand

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Source is the randomness the simulator consumes. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// New returns a time-seeded source.
func New() Source {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// Seeded returns a deterministic source.
func Seeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws from [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// Chance returns true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Pick returns one of vals with equal probability.
func Pick(src Source, vals ...float64) float64 {
	return vals[src.IntN(len(vals))]
}

// IPv4 returns a synthetic dotted-quad address with every octet in [1, 254].
func IPv4(src Source) string {
	return fmt.Sprintf("%d.%d.%d.%d", src.IntN(254)+1, src.IntN(254)+1, src.IntN(254)+1, src.IntN(254)+1)
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
