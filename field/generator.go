// Package field generates the vertex attributes of a static particle field.
package field

import (
	"errors"
	"math/rand"
	"time"

	"github.com/chewxy/math32"
)

const (
	DefaultCount  = 5000
	DefaultExtent = float32(10)

	// Components per particle in both buffers.
	Stride = 3
)

var ErrNegativeCount = errors.New("field: particle count must not be negative")

// ParticleSet holds two parallel attribute buffers. Component c of particle i
// lives at index Stride*i+c in both Positions and Colors.
type ParticleSet struct {
	Count     int
	Extent    float32
	Positions []float32
	Colors    []float32
}

// Len returns the number of scalars in each buffer.
func (s ParticleSet) Len() int {
	return s.Count * Stride
}

// Position returns the position of particle i.
func (s ParticleSet) Position(i int) [3]float32 {
	o := i * Stride
	return [3]float32{s.Positions[o], s.Positions[o+1], s.Positions[o+2]}
}

// Color returns the RGB tint of particle i.
func (s ParticleSet) Color(i int) [3]float32 {
	o := i * Stride
	return [3]float32{s.Colors[o], s.Colors[o+1], s.Colors[o+2]}
}

// NewSource returns a random source for Generate. A zero seed picks a
// time-derived seed, so two unseeded fields differ.
func NewSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Generate fills n particles with positions uniform in [-extent/2, extent/2)
// and colors uniform in [0, 1), every component drawn independently.
func Generate(n int, extent float32, rng *rand.Rand) (ParticleSet, error) {
	if n < 0 {
		return ParticleSet{}, ErrNegativeCount
	}
	if rng == nil {
		rng = NewSource(0)
	}

	set := ParticleSet{
		Count:     n,
		Extent:    extent,
		Positions: make([]float32, n*Stride),
		Colors:    make([]float32, n*Stride),
	}

	half := extent / 2
	for i := range set.Positions {
		set.Positions[i] = spread(rng.Float32(), extent, half)
		set.Colors[i] = rng.Float32()
	}

	return set, nil
}

// spread maps u in [0,1) onto [-half, half). Rounding can land exactly on
// half for large extents; such values move to the next float below.
func spread(u, extent, half float32) float32 {
	p := (u - 0.5) * extent
	if half > 0 && p >= half {
		p = math32.Nextafter(half, 0)
	}
	return p
}
