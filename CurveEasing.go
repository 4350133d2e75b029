package ropechain

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/harmonica"
)

/// Shapes the blend weight between the two extrapolations of a curve segment.
/// Must map [0,1] monotonically onto [0,1].
type Easing interface {
	Ease(t float64) float64
}

type EaseFunc func(t float64) float64

func (f EaseFunc) Ease(t float64) float64 {
	return f(t)
}

var Linear Easing = EaseFunc(func(t float64) float64 {
	return FloatClamp(t, 0.0, 1.0)
})

var SmoothStep Easing = EaseFunc(func(t float64) float64 {
	t = FloatClamp(t, 0.0, 1.0)
	return t * t * (3.0 - 2.0*t)
})

var (
	ErrEasingKeys         = errors.New("easing needs at least two keys with increasing times")
	ErrEasingRange        = errors.New("easing values must lie in [0,1]")
	ErrEasingNotMonotonic = errors.New("easing is not monotonic")
)

type EasingKey struct {
	T     float64
	Value float64
}

/// Piecewise linear easing through a list of keys. Outside the key range the
/// first or last value holds.
type PiecewiseLinear struct {
	keys []EasingKey
}

func MakePiecewiseLinear(keys []EasingKey) (PiecewiseLinear, error) {
	if len(keys) < 2 {
		return PiecewiseLinear{}, ErrEasingKeys
	}

	for i, key := range keys {
		if !(key.Value >= 0.0 && key.Value <= 1.0) {
			return PiecewiseLinear{}, fmt.Errorf("%w: key %d value %g", ErrEasingRange, i, key.Value)
		}
		if i == 0 {
			continue
		}
		if !(key.T > keys[i-1].T) {
			return PiecewiseLinear{}, fmt.Errorf("%w: key %d at %g", ErrEasingKeys, i, key.T)
		}
		if key.Value < keys[i-1].Value {
			return PiecewiseLinear{}, fmt.Errorf("%w: key %d drops to %g", ErrEasingNotMonotonic, i, key.Value)
		}
	}

	res := PiecewiseLinear{
		keys: make([]EasingKey, len(keys)),
	}
	copy(res.keys, keys)

	return res, nil
}

func (curve PiecewiseLinear) Keys() []EasingKey {
	return curve.keys
}

func (curve PiecewiseLinear) Ease(t float64) float64 {
	n := len(curve.keys)
	if n == 0 {
		return Linear.Ease(t)
	}
	if t <= curve.keys[0].T {
		return curve.keys[0].Value
	}
	if t >= curve.keys[n-1].T {
		return curve.keys[n-1].Value
	}

	i := sort.Search(n, func(i int) bool {
		return curve.keys[i].T > t
	})
	a := curve.keys[i-1]
	b := curve.keys[i]
	f := (t - a.T) / (b.T - a.T)

	return a.Value + f*(b.Value-a.Value)
}

/// Polynomial easing c0 + c1*t + c2*t^2 + ...
type Polynomial struct {
	coefficients []float64
}

/// Number of samples used to check a polynomial for monotonicity.
const polynomialValidationSamples = 256

const easingTolerance = 1e-9

func MakePolynomial(coefficients ...float64) (Polynomial, error) {
	res := Polynomial{
		coefficients: make([]float64, len(coefficients)),
	}
	copy(res.coefficients, coefficients)

	previous := res.evaluate(0.0)
	for i := 0; i <= polynomialValidationSamples; i++ {
		t := float64(i) / polynomialValidationSamples
		v := res.evaluate(t)
		if v < -easingTolerance || v > 1.0+easingTolerance {
			return Polynomial{}, fmt.Errorf("%w: %g at t=%g", ErrEasingRange, v, t)
		}
		if v < previous-easingTolerance {
			return Polynomial{}, fmt.Errorf("%w: drops at t=%g", ErrEasingNotMonotonic, t)
		}
		previous = v
	}

	return res, nil
}

func (p Polynomial) evaluate(t float64) float64 {
	v := 0.0
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		v = v*t + p.coefficients[i]
	}
	return v
}

func (p Polynomial) Ease(t float64) float64 {
	return FloatClamp(p.evaluate(FloatClamp(t, 0.0, 1.0)), 0.0, 1.0)
}

/// Builds a lookup table from a spring that settles from 0 towards 1 over one
/// second in samples steps, normalized so that it ends exactly on 1. Damping
/// ratios below 1 overshoot and are rejected.
func MakeSpringEasing(angularFrequency, dampingRatio float64, samples int) (PiecewiseLinear, error) {
	if samples < 1 {
		return PiecewiseLinear{}, ErrEasingKeys
	}

	spring := harmonica.NewSpring(harmonica.FPS(samples), angularFrequency, dampingRatio)

	positions := make([]float64, samples+1)
	pos, vel := 0.0, 0.0
	for i := 1; i <= samples; i++ {
		pos, vel = spring.Update(pos, vel, 1.0)
		positions[i] = pos
	}

	final := positions[samples]
	if !(final > 0.0) || math.IsInf(final, 0) {
		return PiecewiseLinear{}, fmt.Errorf("%w: spring does not move", ErrEasingRange)
	}

	keys := make([]EasingKey, samples+1)
	for i := range keys {
		keys[i] = EasingKey{
			T:     float64(i) / float64(samples),
			Value: positions[i] / final,
		}
	}
	keys[samples].Value = 1.0

	return MakePiecewiseLinear(keys)
}
