package cpworld

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// A body simulated in the XY plane. The solver never rotates it (infinite
/// moment, angle pinned at zero); the full 3D rotation and the Z coordinate
/// are kept here and only feed the joint anchors.
type Body struct {
	space *Space
	body  *cp.Body

	bodyType ropechain.BodyType
	mass     float64
	z        float64
	rotation mgl64.Quat
}

func toVector(v mgl64.Vec3) cp.Vector {
	return cp.Vector{X: v[0], Y: v[1]}
}

func fromVector(v cp.Vector, z float64) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, z}
}

func makeBody(space *Space, def ropechain.BodyDef) *Body {
	res := &Body{
		space:    space,
		bodyType: def.Type,
		z:        def.Position[2],
		rotation: def.Rotation,
	}

	if res.rotation == (mgl64.Quat{}) {
		res.rotation = mgl64.QuatIdent()
	}

	switch def.Type {
	case ropechain.BodyTypes.Static:
		res.body = cp.NewStaticBody()
	case ropechain.BodyTypes.Kinematic:
		res.body = cp.NewKinematicBody()
	default:
		res.mass = def.Mass
		if res.mass <= 0.0 {
			res.mass = 1.0
		}
		res.body = cp.NewBody(res.mass, cp.INFINITY)
	}

	res.body.SetPosition(toVector(def.Position))
	res.body.SetAngle(0.0)
	if def.Type != ropechain.BodyTypes.Static {
		res.body.SetVelocityVector(toVector(def.LinearVelocity))
	}

	return res
}

/// The underlying chipmunk body.
func (body Body) GetCPBody() *cp.Body {
	return body.body
}

func (body Body) GetType() ropechain.BodyType {
	return body.bodyType
}

func (body Body) Position() mgl64.Vec3 {
	return fromVector(body.body.Position(), body.z)
}

func (body *Body) SetPosition(position mgl64.Vec3) {
	body.z = position[2]
	body.body.SetPosition(toVector(position))
}

func (body Body) Rotation() mgl64.Quat {
	return body.rotation
}

func (body *Body) SetRotation(rotation mgl64.Quat) {
	body.rotation = rotation.Normalize()
}

/// Z velocity is always zero.
func (body Body) LinearVelocity() mgl64.Vec3 {
	return fromVector(body.body.Velocity(), 0.0)
}

func (body *Body) SetLinearVelocity(velocity mgl64.Vec3) {
	if body.bodyType == ropechain.BodyTypes.Static {
		return
	}
	body.body.SetVelocityVector(toVector(velocity))
}

func (body *Body) ApplyForce(force mgl64.Vec3) {
	if body.bodyType != ropechain.BodyTypes.Dynamic {
		return
	}
	body.body.ApplyForceAtWorldPoint(toVector(force), body.body.Position())
}

func (body *Body) ApplyVelocityChange(deltaVelocity mgl64.Vec3) {
	if body.bodyType != ropechain.BodyTypes.Dynamic {
		return
	}
	body.body.SetVelocityVector(body.body.Velocity().Add(toVector(deltaVelocity)))
}

func (body Body) Mass() float64 {
	return body.mass
}

// Offset of a local point from the body origin, flattened into the plane.
func (body Body) planarOffset(localPoint mgl64.Vec3) cp.Vector {
	return toVector(body.rotation.Rotate(localPoint))
}

func (body Body) planarPoint(localPoint mgl64.Vec3) cp.Vector {
	return body.body.Position().Add(body.planarOffset(localPoint))
}

func (body Body) invMass() float64 {
	if body.bodyType != ropechain.BodyTypes.Dynamic {
		return 0.0
	}
	return 1.0 / body.mass
}
