package ropechain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// @file
// Settings that can be overriden for your application
//

// Tunable Constants

// You can use this to change the length scale used by your game.
// For example for inches you could use 39.4.
const LengthUnitsPerMeter = 1.0

/// A small length used as a collision and constraint tolerance. Gaps shorter
/// than this are treated as closed.
const LinearSlop = 0.005 * LengthUnitsPerMeter

/// Effective lengths at or below this value count as zero.
const LengthEpsilon = 1e-9

const MaxFloat = math.MaxFloat64

const Pi = math.Pi

/// Stiffness reported by a rigid length limiter.
var RigidStiffness = math.Inf(1)

/// Local axes shared by every body. A link runs along UpAxis; the anchor
/// expels the chain along ForwardAxis.
var (
	UpAxis      = mgl64.Vec3{0, 1, 0}
	DownAxis    = mgl64.Vec3{0, -1, 0}
	ForwardAxis = mgl64.Vec3{0, 0, 1}
	RightAxis   = mgl64.Vec3{1, 0, 0}
)

// Assert panics when an internal invariant does not hold.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("ropechain: assertion failed: "+format, args...))
	}
}
