package noise

import (
	"math"
	"math/rand"
	"time"

	"github.com/furui/fastnoiselite-go"
)

// NoiseGenerator is a seeded source of random bytes and coherent noise. Two
// generators created with the same seed produce identical output.
type NoiseGenerator struct {
	seed    int64
	rng     *rand.Rand
	terrain *fastnoiselite.FastNoiseLite
}

// NewNoiseGenerator creates a new noise generator with the given seed.
// A zero seed picks one from the clock.
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	terrain := fastnoiselite.NewNoise()
	terrain.Seed = int32(seed)
	terrain.SetNoiseType(fastnoiselite.NoiseTypeOpenSimplex2)
	terrain.FractalType = fastnoiselite.FractalTypeFBm
	terrain.Frequency = 3.0
	terrain.SetFractalOctaves(4)

	return &NoiseGenerator{
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		terrain: terrain,
	}
}

// Seed returns the seed the generator was created with
func (ng *NoiseGenerator) Seed() int64 {
	return ng.seed
}

// Fill overwrites buf with uniformly distributed bytes
func (ng *NoiseGenerator) Fill(buf []byte) {
	for i := range buf {
		buf[i] = byte(ng.rng.Uint32() & 0xFF)
	}
}

// Bytes returns n uniformly distributed bytes
func (ng *NoiseGenerator) Bytes(n int) []byte {
	buf := make([]byte, n)
	ng.Fill(buf)
	return buf
}

// Terrain samples a fractal height field at (x, y) remapped to [0, 1]
func (ng *NoiseGenerator) Terrain(x, y float64) float64 {
	n := float64(ng.terrain.GetNoise2D(fastnoiselite.FNLfloat(x), fastnoiselite.FNLfloat(y)))
	return math.Max(0, math.Min(1, n*0.5+0.5))
}
