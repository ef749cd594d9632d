// Package splitmix implements the SplitMix64 generator: a tiny, fast,
// platform-independent pseudo-random stream. The same seed always yields the
// same sequence, which is what the color filter relies on for reproducible
// dithering.
package splitmix

import (
	"math/rand/v2"
	"time"
)

const (
	golden = 0x9e3779b97f4a7c15
	mix1   = 0xbf58476d1ce4e5b9
	mix2   = 0x94d049bb133111eb
)

// SplitMix64 holds the generator state. The zero value is a valid generator
// seeded with 0.
type SplitMix64 struct {
	state uint64
}

var _ rand.Source = (*SplitMix64)(nil)

// New returns a generator seeded with seed.
func New(seed uint64) *SplitMix64 {
	return &SplitMix64{state: seed}
}

// Seed resets the generator to seed.
func (s *SplitMix64) Seed(seed uint64) {
	s.state = seed
}

// Uint64 advances the stream and returns the next value.
func (s *SplitMix64) Uint64() uint64 {
	s.state += golden
	z := s.state
	z = (z ^ (z >> 30)) * mix1
	z = (z ^ (z >> 27)) * mix2
	return z ^ (z >> 31)
}

// Uint32 returns the high 32 bits of the next value.
func (s *SplitMix64) Uint32() uint32 {
	return uint32(s.Uint64() >> 32)
}

// Float64 returns a value in [0,1) built from the top 53 bits.
func (s *SplitMix64) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// Float32 returns a value in [0,1) built from the top 24 bits.
func (s *SplitMix64) Float32() float32 {
	return float32(s.Uint64()>>40) / (1 << 24)
}

// Probably draws one value and reports whether it falls below chance.
// A chance >= 1 is always true, <= 0 always false; a value is consumed either way.
func (s *SplitMix64) Probably(chance float64) bool {
	return s.Float64() < chance
}

// Random returns a single value from a generator seeded with the current
// wall clock in milliseconds. Not reproducible; meant for naming files.
func Random() uint64 {
	return New(uint64(time.Now().UnixMilli())).Uint64()
}
