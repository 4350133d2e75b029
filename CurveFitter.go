package ropechain

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrNoControlPoints = errors.New("curve has no control points")

/// Fits a smooth curve through an ordered list of points and evaluates it by
/// arc length. Between two neighbouring points the curve blends a forward
/// extrapolation from the first point with a backward extrapolation from the
/// second, weighted by Easing.
type CurveFitter struct {
	Easing Easing
}

func MakeCurveFitter(easing Easing) CurveFitter {
	if easing == nil {
		easing = Linear
	}
	return CurveFitter{
		Easing: easing,
	}
}

/// Length of the polyline through the control points.
func (fitter CurveFitter) TotalLength(set *ControlPointSet, tick Tick) float64 {
	return set.TotalLength(tick)
}

/// Returns the point of the smooth curve at the given distance from the first
/// control point. The distance is measured along the polyline.
func (fitter CurveFitter) PointAtLength(set *ControlPointSet, tick Tick, length float64) (mgl64.Vec3, error) {
	points := set.Points()
	count := len(points)

	if count == 0 {
		return mgl64.Vec3{}, ErrNoControlPoints
	}
	if count == 1 {
		return points[0], nil
	}

	total := set.TotalLength(tick)
	if math.IsNaN(length) {
		length = 0.0
	}
	length = FloatClamp(length, 0.0, total)

	sumOfDistances := 0.0
	for i := 0; i < count-1; i++ {
		distance := Vec3Distance(points[i], points[i+1])

		// Zero length segments can never contain length.
		if length < sumOfDistances+distance {
			t := (length - sumOfDistances) / distance
			return fitter.PointBetween(
				points[i], curveTangent(points, i),
				points[i+1], curveTangent(points, i+1),
				t), nil
		}

		sumOfDistances += distance
	}

	return points[count-1], nil
}

/// Point of the smooth curve connecting start and end at interpolation value t.
/// t <= 0 gives start, t >= 1 gives end.
func (fitter CurveFitter) PointBetween(start, startDirection, end, endDirection mgl64.Vec3, t float64) mgl64.Vec3 {
	if t <= 0.0 {
		return start
	}
	if t >= 1.0 {
		return end
	}

	distance := Vec3Distance(start, end)

	startExtension := start.Add(SafeNormalize(startDirection).Mul(distance * t))
	endBackwardExtension := end.Sub(SafeNormalize(endDirection).Mul(distance * (1.0 - t)))

	easing := fitter.Easing
	if easing == nil {
		easing = Linear
	}

	return Vec3Lerp(startExtension, endBackwardExtension, easing.Ease(t))
}

// Direction of the curve at control point index, unit length or zero.
func curveTangent(points []mgl64.Vec3, index int) mgl64.Vec3 {
	last := len(points) - 1

	var direction mgl64.Vec3
	switch index {
	case 0:
		direction = points[1].Sub(points[0])
	case last:
		direction = points[last].Sub(points[last-1])
	default:
		direction = points[index+1].Sub(points[index-1])
	}

	return SafeNormalize(direction)
}
