package ropechain

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrRenderSpacing = errors.New("distance between render points must be positive")

/// Number of render points for a curve: one every spacing along its length,
/// plus the explicit first and last point.
func RenderPointCount(totalLength, spacing float64) int {
	if !(spacing > 0.0) || !(totalLength > 0.0) {
		return 2
	}
	return int(math.Ceil(totalLength/spacing)) + 2
}

/// Samples the curve every spacing units and appends the points to dst. The
/// first point is at length 0 and the last at the total length.
func (fitter CurveFitter) SampleRenderPoints(set *ControlPointSet, tick Tick, spacing float64, dst []mgl64.Vec3) ([]mgl64.Vec3, error) {
	if !(spacing > 0.0) || math.IsInf(spacing, 1) {
		return dst, ErrRenderSpacing
	}
	if set.Len() == 0 {
		return dst, ErrNoControlPoints
	}

	total := fitter.TotalLength(set, tick)
	count := RenderPointCount(total, spacing)

	first, _ := fitter.PointAtLength(set, tick, 0.0)
	dst = append(dst, first)

	for i := 0; i < count-2; i++ {
		p, _ := fitter.PointAtLength(set, tick, float64(i)*spacing)
		dst = append(dst, p)
	}

	last, _ := fitter.PointAtLength(set, tick, total)
	dst = append(dst, last)

	return dst, nil
}
