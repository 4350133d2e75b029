package ropechain_test

import (
	"errors"
	"testing"

	ropechain "github.com/Alexander-r/ropechain.go"
)

func TestPiecewiseLinearValidation(t *testing.T) {
	for _, tc := range []struct {
		name   string
		keys   []ropechain.EasingKey
		target error
	}{
		{"one key", []ropechain.EasingKey{{0.0, 0.0}}, ropechain.ErrEasingKeys},
		{"repeated time", []ropechain.EasingKey{{0.0, 0.0}, {0.0, 1.0}}, ropechain.ErrEasingKeys},
		{"value above one", []ropechain.EasingKey{{0.0, 0.0}, {1.0, 1.5}}, ropechain.ErrEasingRange},
		{"negative value", []ropechain.EasingKey{{0.0, -0.1}, {1.0, 1.0}}, ropechain.ErrEasingRange},
		{"dropping value", []ropechain.EasingKey{{0.0, 0.0}, {0.5, 0.8}, {1.0, 0.6}}, ropechain.ErrEasingNotMonotonic},
	} {
		if _, err := ropechain.MakePiecewiseLinear(tc.keys); !errors.Is(err, tc.target) {
			t.Errorf("%s: got %v, expected %v", tc.name, err, tc.target)
		}
	}
}

func TestPiecewiseLinearEase(t *testing.T) {
	curve, err := ropechain.MakePiecewiseLinear([]ropechain.EasingKey{
		{0.0, 0.0},
		{0.5, 0.8},
		{1.0, 1.0},
	})
	if err != nil {
		t.Fatalf("MakePiecewiseLinear: %v", err)
	}

	for _, tc := range []struct{ t, expected float64 }{
		{-1.0, 0.0},
		{0.0, 0.0},
		{0.25, 0.4},
		{0.5, 0.8},
		{0.75, 0.9},
		{1.0, 1.0},
		{2.0, 1.0},
	} {
		if v := curve.Ease(tc.t); v < tc.expected-1e-12 || v > tc.expected+1e-12 {
			t.Errorf("Ease(%v) = %v, expected %v", tc.t, v, tc.expected)
		}
	}
}

func TestPolynomialEasing(t *testing.T) {
	smooth, err := ropechain.MakePolynomial(0.0, 0.0, 3.0, -2.0)
	if err != nil {
		t.Fatalf("smoothstep polynomial rejected: %v", err)
	}
	for _, x := range []float64{0.0, 0.3, 0.5, 0.9, 1.0} {
		if d := smooth.Ease(x) - ropechain.SmoothStep.Ease(x); d > 1e-12 || d < -1e-12 {
			t.Errorf("Ease(%v) differs from smoothstep by %v", x, d)
		}
	}

	if _, err := ropechain.MakePolynomial(0.0, 1.5); !errors.Is(err, ropechain.ErrEasingRange) {
		t.Errorf("overshooting polynomial: %v", err)
	}
	if _, err := ropechain.MakePolynomial(0.0, 4.0, -4.0); !errors.Is(err, ropechain.ErrEasingNotMonotonic) {
		t.Errorf("dropping polynomial: %v", err)
	}
}

func TestSpringEasing(t *testing.T) {
	spring, err := ropechain.MakeSpringEasing(6.0, 1.0, 60)
	if err != nil {
		t.Fatalf("critically damped spring rejected: %v", err)
	}

	if spring.Ease(0.0) != 0.0 || spring.Ease(1.0) != 1.0 {
		t.Fatalf("spring easing ends at %v and %v", spring.Ease(0.0), spring.Ease(1.0))
	}

	previous := 0.0
	for i := 0; i <= 100; i++ {
		v := spring.Ease(float64(i) / 100.0)
		if v < previous {
			t.Fatalf("spring easing drops at %v", float64(i)/100.0)
		}
		previous = v
	}

	if _, err := ropechain.MakeSpringEasing(6.0, 0.2, 60); err == nil {
		t.Fatalf("overshooting spring accepted")
	}
	if _, err := ropechain.MakeSpringEasing(6.0, 1.0, 0); !errors.Is(err, ropechain.ErrEasingKeys) {
		t.Fatalf("zero samples: %v", err)
	}
}
