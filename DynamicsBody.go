package ropechain

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyType uint8

var BodyTypes = struct {
	Static    BodyType
	Kinematic BodyType
	Dynamic   BodyType
}{
	Static:    0,
	Kinematic: 1,
	Dynamic:   2,
}

/// A rigid body owned by a physics engine. Positions are body origins in world
/// space; forces accumulate until the engine's next step.
type Body interface {
	Position() mgl64.Vec3
	SetPosition(position mgl64.Vec3)
	Rotation() mgl64.Quat
	SetRotation(rotation mgl64.Quat)
	LinearVelocity() mgl64.Vec3
	SetLinearVelocity(velocity mgl64.Vec3)
	/// Accumulates a force (N) applied at the body origin.
	ApplyForce(force mgl64.Vec3)
	/// Changes the velocity immediately, ignoring mass.
	ApplyVelocityChange(deltaVelocity mgl64.Vec3)
	Mass() float64
}

/// Get the world coordinates of a point given in the body's local frame.
func WorldPoint(body Body, localPoint mgl64.Vec3) mgl64.Vec3 {
	return body.Position().Add(body.Rotation().Rotate(localPoint))
}

/// Get the world coordinates of a vector given in the body's local frame.
func WorldVector(body Body, localVector mgl64.Vec3) mgl64.Vec3 {
	return body.Rotation().Rotate(localVector)
}

/// A body definition holds all the data needed to construct a rigid body.
type BodyDef struct {
	Type BodyType

	/// The world position of the body origin.
	Position mgl64.Vec3

	Rotation mgl64.Quat

	/// The linear velocity of the body's origin in world co-ordinates.
	LinearVelocity mgl64.Vec3

	/// Mass in kg. Ignored for static and kinematic bodies.
	Mass float64

	/// Linear damping is used to reduce the linear velocity.
	LinearDamping float64

	/// Scale the gravity applied to this body.
	GravityScale float64

	/// Use this to store application specific body data.
	UserData interface{}
}

func MakeBodyDef() BodyDef {
	return BodyDef{
		Type:           BodyTypes.Dynamic,
		Position:       mgl64.Vec3{},
		Rotation:       mgl64.QuatIdent(),
		LinearVelocity: mgl64.Vec3{},
		Mass:           1.0,
		LinearDamping:  0.0,
		GravityScale:   1.0,
		UserData:       nil,
	}
}

type Joint interface {
	GetBodyA() Body
	GetBodyB() Body
}

/// A length limiter keeps the distance between an anchor on body A and an
/// anchor on body B inside [min, max]. Anchors are expressed in each body's
/// local frame. Body B may be nil, in which case the limiter is inert.
type LengthLimiter interface {
	Joint

	/// Reconnect the far end to body, anchored at localAnchorB.
	Connect(body Body, localAnchorB mgl64.Vec3)

	GetLocalAnchorA() mgl64.Vec3
	GetLocalAnchorB() mgl64.Vec3

	GetMinDistance() float64
	GetMaxDistance() float64

	/// Set both limits at once.
	/// @returns the clamped limits: min >= 0 and max >= min
	SetDistanceRange(min, max float64) (float64, float64)

	GetStiffness() float64
	GetDamping() float64

	/// Get the current distance between the two anchors.
	GetCurrentLength() float64
}

/// Length limiter definition. The defaults describe the rigid configuration the
/// chain code relies on.
type LengthLimiterDef struct {
	BodyA Body
	BodyB Body

	/// Extra offset from body A's origin. Must be zero.
	LocalAnchorA mgl64.Vec3

	/// Extra offset from the connected hook's attachment point. Must be zero.
	LocalAnchorB mgl64.Vec3

	MinDistance float64
	MaxDistance float64

	/// The linear stiffness in N/m. Must be effectively infinite.
	Stiffness float64

	/// The linear damping in N*s/m. Must be zero.
	Damping float64
}

func MakeLengthLimiterDef() LengthLimiterDef {
	return LengthLimiterDef{
		LocalAnchorA: mgl64.Vec3{},
		LocalAnchorB: mgl64.Vec3{},
		MinDistance:  0.0,
		MaxDistance:  MaxFloat,
		Stiffness:    RigidStiffness,
		Damping:      0.0,
	}
}

var (
	ErrLimiterNotRigid     = errors.New("length limiter stiffness is below the maximum")
	ErrLimiterDamped       = errors.New("length limiter has non-zero damping")
	ErrLimiterAnchorOffset = errors.New("length limiter anchor is offset from the attachment point")
)

/// Validate reports every setting that would let the limiter drift from the
/// chain length. These do not crash anything; they show up as creep or jitter.
func (def LengthLimiterDef) Validate() error {
	var errs []error

	// 99% so that MaxFloat itself passes.
	if def.Stiffness < MaxFloat*0.99 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrLimiterNotRigid, def.Stiffness))
	}
	if def.Damping != 0.0 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrLimiterDamped, def.Damping))
	}
	if def.LocalAnchorA != (mgl64.Vec3{}) {
		errs = append(errs, fmt.Errorf("%w: anchor A %v", ErrLimiterAnchorOffset, def.LocalAnchorA))
	}
	if def.LocalAnchorB != (mgl64.Vec3{}) {
		errs = append(errs, fmt.Errorf("%w: anchor B %v", ErrLimiterAnchorOffset, def.LocalAnchorB))
	}

	return errors.Join(errs...)
}

/// A link joint pins a point on body A (a chain link) to a point on body B
/// (the hook the link is attached to).
type LinkJoint interface {
	Joint

	Connect(body Body, localAnchorB mgl64.Vec3)

	GetLocalAnchorA() mgl64.Vec3
	SetLocalAnchorA(localAnchorA mgl64.Vec3)

	GetLocalAnchorB() mgl64.Vec3
}

type LinkJointDef struct {
	BodyA        Body
	BodyB        Body
	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
}

func MakeLinkJointDef() LinkJointDef {
	return LinkJointDef{}
}

/// Engine is the physics engine the chain code configures. It creates and
/// destroys bodies and constraints; stepping the simulation is up to the
/// caller.
type Engine interface {
	CreateBody(def BodyDef) Body
	DestroyBody(body Body)
	CreateLengthLimiter(def LengthLimiterDef) LengthLimiter
	CreateLinkJoint(def LinkJointDef) LinkJoint
	DestroyJoint(joint Joint)
}
