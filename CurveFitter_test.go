package ropechain_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

func cornerSet() *ropechain.ControlPointSet {
	return ropechain.MakeControlPointSet(
		mgl64.Vec3{0.0, 0.0, 0.0},
		mgl64.Vec3{1.0, 0.0, 0.0},
		mgl64.Vec3{1.0, 1.0, 0.0},
	)
}

func TestCurveEndpoints(t *testing.T) {
	set := cornerSet()

	for _, easing := range []ropechain.Easing{ropechain.Linear, ropechain.SmoothStep} {
		fitter := ropechain.MakeCurveFitter(easing)
		total := fitter.TotalLength(set, 0)

		if total != 2.0 {
			t.Fatalf("total length %v, expected 2", total)
		}

		for _, tc := range []struct {
			length   float64
			expected mgl64.Vec3
		}{
			{0.0, set.At(0)},
			{-1.0, set.At(0)},
			{math.NaN(), set.At(0)},
			{total, set.At(2)},
			{total + 10.0, set.At(2)},
			{math.Inf(1), set.At(2)},
		} {
			p, err := fitter.PointAtLength(set, 0, tc.length)
			if err != nil {
				t.Fatalf("PointAtLength(%v): %v", tc.length, err)
			}
			if p != tc.expected {
				t.Fatalf("PointAtLength(%v) = %v, expected %v", tc.length, p, tc.expected)
			}
		}
	}
}

func TestCurveSinglePoint(t *testing.T) {
	point := mgl64.Vec3{3.0, -2.0, 7.0}
	set := ropechain.MakeControlPointSet(point)
	fitter := ropechain.MakeCurveFitter(nil)

	if total := fitter.TotalLength(set, 0); total != 0.0 {
		t.Fatalf("single point length %v", total)
	}
	for _, length := range []float64{-1.0, 0.0, 5.0} {
		p, err := fitter.PointAtLength(set, 0, length)
		if err != nil || p != point {
			t.Fatalf("PointAtLength(%v) = %v, %v", length, p, err)
		}
	}

	points, err := fitter.SampleRenderPoints(set, 0, 0.5, nil)
	if err != nil {
		t.Fatalf("SampleRenderPoints: %v", err)
	}
	if len(points) != 2 || points[0] != point || points[1] != point {
		t.Fatalf("single point samples %v", points)
	}
}

func TestCurveEmptySet(t *testing.T) {
	set := ropechain.MakeControlPointSet()
	fitter := ropechain.MakeCurveFitter(nil)

	if _, err := fitter.PointAtLength(set, 0, 0.0); !errors.Is(err, ropechain.ErrNoControlPoints) {
		t.Fatalf("PointAtLength on an empty set: %v", err)
	}
	if _, err := fitter.SampleRenderPoints(set, 0, 0.1, nil); !errors.Is(err, ropechain.ErrNoControlPoints) {
		t.Fatalf("SampleRenderPoints on an empty set: %v", err)
	}
	if _, err := fitter.SampleRenderPoints(cornerSet(), 0, 0.0, nil); !errors.Is(err, ropechain.ErrRenderSpacing) {
		t.Fatalf("SampleRenderPoints with zero spacing: %v", err)
	}
}

func TestCurveCollinearPointsStayOnLine(t *testing.T) {
	set := ropechain.MakeControlPointSet(
		mgl64.Vec3{0.0, 0.0, 0.0},
		mgl64.Vec3{1.0, 0.0, 0.0},
		mgl64.Vec3{2.0, 0.0, 0.0},
	)
	fitter := ropechain.MakeCurveFitter(ropechain.SmoothStep)

	for _, length := range []float64{0.25, 0.5, 1.0, 1.5, 1.75} {
		p, err := fitter.PointAtLength(set, 0, length)
		if err != nil {
			t.Fatalf("PointAtLength(%v): %v", length, err)
		}
		if p.Sub(mgl64.Vec3{length, 0.0, 0.0}).Len() > 1e-12 {
			t.Fatalf("PointAtLength(%v) = %v, expected the point on the line", length, p)
		}
	}
}

func TestCurveCoincidentPoints(t *testing.T) {
	set := ropechain.MakeControlPointSet(
		mgl64.Vec3{0.0, 0.0, 0.0},
		mgl64.Vec3{0.0, 0.0, 0.0},
		mgl64.Vec3{1.0, 0.0, 0.0},
	)
	fitter := ropechain.MakeCurveFitter(nil)

	for _, length := range []float64{0.0, 0.5, 1.0} {
		p, err := fitter.PointAtLength(set, 0, length)
		if err != nil {
			t.Fatalf("PointAtLength(%v): %v", length, err)
		}
		if math.IsNaN(p.X()) || math.IsNaN(p.Y()) || math.IsNaN(p.Z()) {
			t.Fatalf("PointAtLength(%v) = %v", length, p)
		}
		if p.Sub(mgl64.Vec3{length, 0.0, 0.0}).Len() > 1e-12 {
			t.Fatalf("PointAtLength(%v) = %v", length, p)
		}
	}
}

func TestCurveSamplingCoverage(t *testing.T) {
	set := cornerSet()
	fitter := ropechain.MakeCurveFitter(ropechain.SmoothStep)
	const spacing = 0.1

	points, err := fitter.SampleRenderPoints(set, 0, spacing, nil)
	if err != nil {
		t.Fatalf("SampleRenderPoints: %v", err)
	}

	if len(points) != ropechain.RenderPointCount(2.0, spacing) {
		t.Fatalf("%d samples, expected %d", len(points), ropechain.RenderPointCount(2.0, spacing))
	}
	if points[0] != set.At(0) || points[len(points)-1] != set.At(2) {
		t.Fatalf("samples do not start and end on the control points")
	}

	for i := 1; i < len(points); i++ {
		if gap := points[i].Sub(points[i-1]).Len(); gap > 2.0*spacing {
			t.Fatalf("gap of %v between samples %d and %d", gap, i-1, i)
		}
	}

	// Reuses dst.
	again, err := fitter.SampleRenderPoints(set, 0, spacing, points[:0])
	if err != nil || len(again) != len(points) || &again[0] != &points[0] {
		t.Fatalf("SampleRenderPoints did not reuse its buffer")
	}
}

func TestCurveSamplingSteps(t *testing.T) {
	// On a straight line the curve is the line itself, so a sample's X is the
	// length it was taken at.
	set := ropechain.MakeControlPointSet(
		mgl64.Vec3{0.0, 0.0, 0.0},
		mgl64.Vec3{0.5, 0.0, 0.0},
		mgl64.Vec3{1.25, 0.0, 0.0},
	)
	fitter := ropechain.MakeCurveFitter(ropechain.SmoothStep)
	const spacing = 0.1

	points, err := fitter.SampleRenderPoints(set, 0, spacing, nil)
	if err != nil {
		t.Fatalf("SampleRenderPoints: %v", err)
	}
	if len(points) != 15 {
		t.Fatalf("%d samples, expected 15", len(points))
	}

	for i := 1; i < len(points)-1; i++ {
		if expected := float64(i-1) * spacing; math.Abs(points[i].X()-expected) > 1e-12 {
			t.Fatalf("sample %d at %v, expected %v", i, points[i].X(), expected)
		}
	}
	for i := 1; i < len(points); i++ {
		step := points[i].X() - points[i-1].X()
		if step < -1e-12 || step > spacing+1e-12 {
			t.Fatalf("step of %v between samples %d and %d", step, i-1, i)
		}
	}
}

func TestRenderPointCount(t *testing.T) {
	for _, tc := range []struct {
		length, spacing float64
		expected        int
	}{
		{0.0, 0.1, 2},
		{1.0, 0.0, 2},
		{1.0, 0.5, 4},
		{1.2, 0.5, 5},
		{3.0, 1.0, 5},
	} {
		if n := ropechain.RenderPointCount(tc.length, tc.spacing); n != tc.expected {
			t.Errorf("RenderPointCount(%v, %v) = %d, expected %d", tc.length, tc.spacing, n, tc.expected)
		}
	}
}

func TestControlPointLengthCache(t *testing.T) {
	set := cornerSet()

	if total := set.TotalLength(1); total != 2.0 {
		t.Fatalf("total %v, expected 2", total)
	}

	set.Set(2, mgl64.Vec3{1.0, 3.0, 0.0})
	if total := set.TotalLength(1); total != 4.0 {
		t.Fatalf("total %v after a move in the same tick, expected 4", total)
	}

	set.Add(mgl64.Vec3{2.0, 3.0, 0.0})
	set.Insert(0, mgl64.Vec3{-1.0, 0.0, 0.0})
	if total := set.TotalLength(2); total != 6.0 {
		t.Fatalf("total %v, expected 6", total)
	}

	set.Remove(0)
	if set.Len() != 4 || set.TotalLength(2) != 5.0 {
		t.Fatalf("after remove: %d points, total %v", set.Len(), set.TotalLength(2))
	}

	version := set.Version()
	set.Clear()
	if set.Version() == version || set.TotalLength(2) != 0.0 {
		t.Fatalf("Clear did not invalidate the cache")
	}
}

func TestCurveFollowsChain(t *testing.T) {
	rig := makeChainRig(t, mgl64.Vec3{0.0, 0.0, 5.0}, nil)
	rig.source.UnlockLength()
	rig.source.Step(testDt)

	set := ropechain.MakeControlPointSet(rig.source.GetPositions(nil)...)
	fitter := ropechain.MakeCurveFitter(ropechain.SmoothStep)

	if total := fitter.TotalLength(set, 0); math.Abs(total-5.0) > 1e-9 {
		t.Fatalf("curve length %v, expected 5", total)
	}

	p, err := fitter.PointAtLength(set, 0, 2.0)
	if err != nil {
		t.Fatalf("PointAtLength: %v", err)
	}
	expectNear(t, "point on straight chain", p, mgl64.Vec3{0.0, 0.0, 2.0}, 1e-9)
}
