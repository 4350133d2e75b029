package render

import (
	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// Turns chain positions into evenly spaced render points once per frame.
/// All buffers are kept between frames.
type LineStrip struct {
	Fitter  ropechain.CurveFitter
	Spacing float64

	controlPoints *ropechain.ControlPointSet
	positions     []mgl64.Vec3
	points        []mgl64.Vec3
	tick          ropechain.Tick
}

func MakeLineStrip(fitter ropechain.CurveFitter, spacing float64) *LineStrip {
	return &LineStrip{
		Fitter:        fitter,
		Spacing:       spacing,
		controlPoints: ropechain.MakeControlPointSet(),
	}
}

/// Fits the curve through positions and samples it. The returned slice is
/// valid until the next update.
func (strip *LineStrip) Update(positions []mgl64.Vec3) ([]mgl64.Vec3, error) {
	strip.tick++
	strip.controlPoints.Reset(positions)

	points, err := strip.Fitter.SampleRenderPoints(strip.controlPoints, strip.tick, strip.Spacing, strip.points[:0])
	if err != nil {
		strip.points = strip.points[:0]
		return nil, err
	}

	strip.points = points
	return strip.points, nil
}

func (strip *LineStrip) UpdateFromChain(source *ropechain.ChainLinkSource) ([]mgl64.Vec3, error) {
	strip.positions = source.GetPositions(strip.positions[:0])
	return strip.Update(strip.positions)
}

func (strip LineStrip) Points() []mgl64.Vec3 {
	return strip.points
}

/// Length of the fitted curve as of the last update.
func (strip LineStrip) Length() float64 {
	return strip.Fitter.TotalLength(strip.controlPoints, strip.tick)
}

/// Calls fn for every consecutive pair of render points.
func (strip LineStrip) Segments(fn func(a, b mgl64.Vec3)) {
	for i := 1; i < len(strip.points); i++ {
		fn(strip.points[i-1], strip.points[i])
	}
}
