package cpworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	ropechain "github.com/Alexander-r/ropechain.go"
)

type SpaceDef struct {
	/// Only X and Y are used.
	Gravity    mgl64.Vec3
	Iterations int

	/// Passes that pull the joints back together after chipmunk has stepped.
	PositionIterations int
}

func MakeSpaceDef() SpaceDef {
	return SpaceDef{
		Gravity:            mgl64.Vec3{0.0, -10.0, 0.0},
		Iterations:         30,
		PositionIterations: 20,
	}
}

type anchoredJoint interface {
	ropechain.Joint

	refreshAnchors()
	solvePosition() float64
	disconnect()
	constrains(body *Body) bool
	isRootedOn(body *Body) bool
}

/// Space runs chain links on chipmunk. Everything lives in the XY plane.
type Space struct {
	space *cp.Space

	positionIterations int

	bodies []*Body
	joints []anchoredJoint
}

func MakeSpace(def SpaceDef) *Space {
	res := &Space{
		space:              cp.NewSpace(),
		positionIterations: def.PositionIterations,
	}

	res.space.SetGravity(toVector(def.Gravity))
	if def.Iterations > 0 {
		res.space.Iterations = uint(def.Iterations)
	}

	return res
}

func (space *Space) asBody(body ropechain.Body) *Body {
	if body == nil {
		return nil
	}
	res, ok := body.(*Body)
	ropechain.Assert(ok, "body %T does not belong to this engine", body)
	if res == nil {
		return nil
	}
	ropechain.Assert(res.space == space, "body does not belong to this space")
	return res
}

func (space Space) GetCPSpace() *cp.Space {
	return space.space
}

func (space Space) GetBodyCount() int {
	return len(space.bodies)
}

func (space Space) GetJointCount() int {
	return len(space.joints)
}

func (space *Space) CreateBody(def ropechain.BodyDef) ropechain.Body {
	body := makeBody(space, def)
	space.space.AddBody(body.body)
	space.bodies = append(space.bodies, body)
	return body
}

/// Joints that hang off the body are disconnected, joints rooted on it are
/// destroyed.
func (space *Space) DestroyBody(b ropechain.Body) {
	body := space.asBody(b)
	ropechain.Assert(body != nil, "cannot destroy a nil body")

	kept := space.joints[:0]
	for _, joint := range space.joints {
		if joint.isRootedOn(body) {
			joint.disconnect()
			continue
		}
		if joint.constrains(body) {
			joint.disconnect()
		}
		kept = append(kept, joint)
	}
	for i := len(kept); i < len(space.joints); i++ {
		space.joints[i] = nil
	}
	space.joints = kept

	for i, other := range space.bodies {
		if other == body {
			space.bodies = append(space.bodies[:i], space.bodies[i+1:]...)
			break
		}
	}

	space.space.RemoveBody(body.body)
	body.space = nil
}

func (space *Space) CreateLengthLimiter(def ropechain.LengthLimiterDef) ropechain.LengthLimiter {
	joint := makeSlideLimiter(space, def)
	space.joints = append(space.joints, joint)
	return joint
}

func (space *Space) CreateLinkJoint(def ropechain.LinkJointDef) ropechain.LinkJoint {
	joint := makePivotLink(space, def)
	space.joints = append(space.joints, joint)
	return joint
}

func (space *Space) DestroyJoint(j ropechain.Joint) {
	for i, joint := range space.joints {
		if ropechain.Joint(joint) == j {
			joint.disconnect()
			space.joints = append(space.joints[:i], space.joints[i+1:]...)
			return
		}
	}
}

// Joint error below this is left to the velocity solver.
const positionTolerance = 1e-7

/// Step the space. Joint anchors are re-derived from the body rotations first.
/// Chipmunk only solves velocities, so the joints are then projected back onto
/// their limits.
func (space *Space) Step(dt float64) {
	if dt <= 0.0 {
		return
	}

	for _, joint := range space.joints {
		joint.refreshAnchors()
	}

	space.space.Step(dt)

	space.solvePositionConstraints()
}

/// @returns the largest joint error seen by the last pass
func (space *Space) solvePositionConstraints() float64 {
	maxError := 0.0
	for i := 0; i < space.positionIterations; i++ {
		maxError = 0.0
		for _, joint := range space.joints {
			maxError = math.Max(maxError, joint.solvePosition())
		}
		if maxError < positionTolerance {
			break
		}
	}
	return maxError
}
