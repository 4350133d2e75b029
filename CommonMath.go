package ropechain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func FloatClamp(a, low, high float64) float64 {
	return math.Max(low, math.Min(a, high))
}

/// Returns v scaled to unit length, or the zero vector when v is too short
/// to carry a direction.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l <= LengthEpsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1.0 / l)
}

/// Rotation taking direction from onto direction to. Degenerate inputs give
/// the identity.
func FromToRotation(from, to mgl64.Vec3) mgl64.Quat {
	if from.Len() <= LengthEpsilon || to.Len() <= LengthEpsilon {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatBetweenVectors(from, to).Normalize()
}

/// Linearly interpolates between a and b, t clamped to [0,1].
func Vec3Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = FloatClamp(t, 0.0, 1.0)
	return a.Add(b.Sub(a).Mul(t))
}

func Vec3Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}

/// Projection factor of v onto direction: the signed length of v along it.
func ProjectionFactor(direction, v mgl64.Vec3) float64 {
	d := SafeNormalize(direction)
	return d.Dot(v)
}

/// A plane in Hessian normal form: dot(Normal, p) + Distance = 0.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

func MakePlane(normal, point mgl64.Vec3) Plane {
	n := SafeNormalize(normal)
	return Plane{
		Normal:   n,
		Distance: -n.Dot(point),
	}
}

func (plane Plane) SignedDistance(p mgl64.Vec3) float64 {
	return plane.Normal.Dot(p) + plane.Distance
}

/// Is p strictly on the side the normal points to?
func (plane Plane) GetSide(p mgl64.Vec3) bool {
	return plane.SignedDistance(p) > 0.0
}
