package physics3d

import (
	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// A rigid body. Rotation is kinematic: the solver only moves body origins and
/// never changes orientation, the application sets it.
type Body struct {
	world *World
	index int

	bodyType ropechain.BodyType

	position       mgl64.Vec3
	rotation       mgl64.Quat
	linearVelocity mgl64.Vec3
	force          mgl64.Vec3

	mass    float64
	invMass float64

	linearDamping float64
	gravityScale  float64

	userData interface{}
}

func MakeBody(def ropechain.BodyDef, world *World) *Body {
	res := &Body{
		world:          world,
		index:          -1,
		bodyType:       def.Type,
		position:       def.Position,
		rotation:       def.Rotation,
		linearVelocity: def.LinearVelocity,
		linearDamping:  def.LinearDamping,
		gravityScale:   def.GravityScale,
		userData:       def.UserData,
	}

	if res.rotation == (mgl64.Quat{}) {
		res.rotation = mgl64.QuatIdent()
	}

	if def.Type == ropechain.BodyTypes.Dynamic {
		res.mass = def.Mass
		if res.mass <= 0.0 {
			res.mass = 1.0
		}
		res.invMass = 1.0 / res.mass
	} else {
		res.mass = 0.0
		res.invMass = 0.0
	}

	if def.Type == ropechain.BodyTypes.Static {
		res.linearVelocity = mgl64.Vec3{}
	}

	return res
}

func (body Body) GetType() ropechain.BodyType {
	return body.bodyType
}

func (body Body) GetUserData() interface{} {
	return body.userData
}

func (body *Body) SetUserData(data interface{}) {
	body.userData = data
}

func (body Body) Position() mgl64.Vec3 {
	return body.position
}

func (body *Body) SetPosition(position mgl64.Vec3) {
	body.position = position
}

func (body Body) Rotation() mgl64.Quat {
	return body.rotation
}

func (body *Body) SetRotation(rotation mgl64.Quat) {
	body.rotation = rotation.Normalize()
}

func (body Body) LinearVelocity() mgl64.Vec3 {
	return body.linearVelocity
}

func (body *Body) SetLinearVelocity(velocity mgl64.Vec3) {
	if body.bodyType == ropechain.BodyTypes.Static {
		return
	}
	body.linearVelocity = velocity
}

/// Forces on static and kinematic bodies are ignored.
func (body *Body) ApplyForce(force mgl64.Vec3) {
	if body.bodyType != ropechain.BodyTypes.Dynamic {
		return
	}
	body.force = body.force.Add(force)
}

func (body *Body) ApplyVelocityChange(deltaVelocity mgl64.Vec3) {
	if body.bodyType != ropechain.BodyTypes.Dynamic {
		return
	}
	body.linearVelocity = body.linearVelocity.Add(deltaVelocity)
}

func (body Body) Mass() float64 {
	return body.mass
}

func (body Body) GetInvMass() float64 {
	return body.invMass
}

/// Get the force accumulated since the last step.
func (body Body) GetForce() mgl64.Vec3 {
	return body.force
}

func (body Body) GetWorldPoint(localPoint mgl64.Vec3) mgl64.Vec3 {
	return body.position.Add(body.rotation.Rotate(localPoint))
}

func (body Body) GetLocalPoint(worldPoint mgl64.Vec3) mgl64.Vec3 {
	return body.rotation.Inverse().Rotate(worldPoint.Sub(body.position))
}

/// Is the body still part of a world?
func (body Body) IsAlive() bool {
	return body.index >= 0
}
