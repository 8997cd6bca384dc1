// Package rng provides the injectable randomness source shared by the game
// engines. Engines draw indexes with the floor(r*N) mapping so that tests
// supplying a fixed sequence hit exact index boundaries.
package rng

import "math/rand"

// Source returns a uniform value in [0, 1).
type Source func() float64

// Default is the production source.
func Default() Source {
	return rand.Float64
}

// Index maps a draw to [0, n) via floor(r*n). The mapping is part of the
// engine contract; do not replace it with rand.IntN.
func (s Source) Index(n int) int {
	return int(s() * float64(n))
}

// Sequence builds a source replaying vals in order, cycling at the end.
// Intended for tests.
func Sequence(vals ...float64) Source {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}
