// Package lexrank computes sentence centrality as the stationary distribution of a similarity graph.
package lexrank

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrZeroRow is returned when a sentence has no outgoing similarity mass.
	ErrZeroRow = errors.New("similarity row sums to zero")
	// ErrNotConverged is returned when power iteration exceeds its iteration bound.
	ErrNotConverged = errors.New("power iteration did not converge")
	// ErrBiasLength is returned when a bias vector does not match the matrix size.
	ErrBiasLength = errors.New("bias vector length does not match matrix")
	// ErrNotSquare is returned for non-square similarity matrices.
	ErrNotSquare = errors.New("similarity matrix is not square")
)

const (
	DefaultDamping       = 0.15
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 1000
	// relTolerance mirrors the relative term of the usual floating-point closeness check.
	relTolerance = 1e-5
)

// Config controls transition matrix construction and power iteration.
type Config struct {
	// Threshold binarizes similarities when set (discrete mode); nil keeps raw values (continuous mode).
	Threshold     *float64
	Damping       float64
	Tolerance     float64
	MaxIterations int
}

// DefaultConfig returns continuous LexRank with the standard damping.
func DefaultConfig() Config {
	return Config{Damping: DefaultDamping, Tolerance: DefaultTolerance, MaxIterations: DefaultMaxIterations}
}

// Validate checks numeric ranges.
func (c Config) Validate() error {
	if c.Damping < 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be within [0,1], got %v", c.Damping)
	}
	if c.Tolerance <= 0 {
		return errors.New("tolerance must be positive")
	}
	if c.MaxIterations <= 0 {
		return errors.New("max iterations must be positive")
	}
	return nil
}

// Transition builds the row-stochastic transition matrix. A nil bias damps toward the uniform distribution.
func Transition(sim *mat.Dense, cfg Config, bias []float64) (*mat.Dense, error) {
	n, cols := sim.Dims()
	if n != cols {
		return nil, ErrNotSquare
	}
	if bias != nil && len(bias) != n {
		return nil, fmt.Errorf("%w: %d != %d", ErrBiasLength, len(bias), n)
	}

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		var rowSum float64
		for j := 0; j < n; j++ {
			v := sim.At(i, j)
			if cfg.Threshold != nil {
				if v > *cfg.Threshold {
					v = 1
				} else {
					v = 0
				}
			}
			out.Set(i, j, v)
			rowSum += v
		}
		if rowSum == 0 {
			return nil, fmt.Errorf("%w: row %d", ErrZeroRow, i)
		}
		for j := 0; j < n; j++ {
			prior := 1 / float64(n)
			if bias != nil {
				prior = bias[j]
			}
			out.Set(i, j, cfg.Damping*prior+(1-cfg.Damping)*out.At(i, j)/rowSum)
		}
	}
	return out, nil
}

// Stationary runs power iteration p ← Tᵀp from the uniform vector until successive vectors are close.
func Stationary(transition *mat.Dense, cfg Config) ([]float64, error) {
	n, _ := transition.Dims()
	start := make([]float64, n)
	for i := range start {
		start[i] = 1 / float64(n)
	}
	return stationaryFrom(transition, cfg, start)
}

func stationaryFrom(transition *mat.Dense, cfg Config, start []float64) ([]float64, error) {
	n := len(start)
	p := mat.NewVecDense(n, append([]float64(nil), start...))
	next := mat.NewVecDense(n, nil)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		next.MulVec(transition.T(), p)
		if allClose(next, p, cfg.Tolerance) {
			return next.RawVector().Data, nil
		}
		p, next = next, p
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNotConverged, cfg.MaxIterations)
}

// Rank builds the transition matrix and returns each sentence's stationary probability.
// An empty matrix ranks nothing.
func Rank(sim *mat.Dense, cfg Config, bias []float64) ([]float64, error) {
	if sim == nil || sim.IsEmpty() {
		return nil, nil
	}
	transition, err := Transition(sim, cfg, bias)
	if err != nil {
		return nil, err
	}
	return Stationary(transition, cfg)
}

func allClose(a, b *mat.VecDense, atol float64) bool {
	for i := 0; i < a.Len(); i++ {
		x, y := a.AtVec(i), b.AtVec(i)
		if math.Abs(x-y) > atol+relTolerance*math.Abs(y) {
			return false
		}
	}
	return true
}
