package physics3d

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// A ball joint pins an anchor on body A onto an anchor on body B. Velocities
/// are solved with an impulse per step and positions are projected the way a
/// position based rope solves its stretch constraints.
type BallJoint struct {
	world *World

	bodyA *Body
	bodyB *Body

	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3

	/// Fraction of the position error removed per position iteration, in (0, 1].
	stretchStiffness float64

	// Solver shared
	impulse mgl64.Vec3

	// Solver temp
	invMassA float64
	invMassB float64
	mass     float64
}

func MakeBallJoint(def ropechain.LinkJointDef, world *World) *BallJoint {
	res := &BallJoint{
		world:            world,
		bodyA:            asBody(def.BodyA),
		bodyB:            asBody(def.BodyB),
		localAnchorA:     def.LocalAnchorA,
		localAnchorB:     def.LocalAnchorB,
		stretchStiffness: 1.0,
	}

	ropechain.Assert(res.bodyA != nil, "ball joint needs a body A")

	return res
}

func (joint BallJoint) GetBodyA() ropechain.Body {
	return joint.bodyA
}

func (joint BallJoint) GetBodyB() ropechain.Body {
	if joint.bodyB == nil {
		return nil
	}
	return joint.bodyB
}

func (joint BallJoint) GetLocalAnchorA() mgl64.Vec3 {
	return joint.localAnchorA
}

func (joint *BallJoint) SetLocalAnchorA(localAnchorA mgl64.Vec3) {
	joint.localAnchorA = localAnchorA
}

func (joint BallJoint) GetLocalAnchorB() mgl64.Vec3 {
	return joint.localAnchorB
}

func (joint *BallJoint) Connect(body ropechain.Body, localAnchorB mgl64.Vec3) {
	joint.bodyB = asBody(body)
	joint.localAnchorB = localAnchorB
	joint.impulse = mgl64.Vec3{}
}

func (joint BallJoint) GetStretchStiffness() float64 {
	return joint.stretchStiffness
}

func (joint *BallJoint) SetStretchStiffness(stiffness float64) {
	joint.stretchStiffness = ropechain.FloatClamp(stiffness, 0.0, 1.0)
}

func (joint BallJoint) GetAnchorA() mgl64.Vec3 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint BallJoint) GetAnchorB() mgl64.Vec3 {
	if joint.bodyB == nil {
		return joint.GetAnchorA()
	}
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

/// Distance between the two anchors.
func (joint BallJoint) GetSeparation() float64 {
	return joint.GetAnchorB().Sub(joint.GetAnchorA()).Len()
}

func (joint BallJoint) GetReactionForce(inv_dt float64) mgl64.Vec3 {
	return joint.impulse.Mul(inv_dt)
}

func (joint *BallJoint) referencesBody(body *Body) bool {
	return joint.bodyA == body || joint.bodyB == body
}

func (joint *BallJoint) detachBody(body *Body) bool {
	if joint.bodyA == body {
		return false
	}
	if joint.bodyB == body {
		joint.Connect(nil, mgl64.Vec3{})
	}
	return true
}

// Cdot = v2 - v1
// K = (invMass1 + invMass2) * I

func (joint *BallJoint) initVelocityConstraints(step TimeStep) {
	if joint.bodyB == nil {
		return
	}

	joint.invMassA = joint.bodyA.invMass
	joint.invMassB = joint.bodyB.invMass

	invMass := joint.invMassA + joint.invMassB
	if invMass != 0.0 {
		joint.mass = 1.0 / invMass
	} else {
		joint.mass = 0.0
	}

	if step.WarmStarting {
		joint.impulse = joint.impulse.Mul(step.DtRatio)
		joint.applyImpulse(joint.impulse)
	} else {
		joint.impulse = mgl64.Vec3{}
	}
}

func (joint *BallJoint) applyImpulse(P mgl64.Vec3) {
	joint.bodyA.linearVelocity = joint.bodyA.linearVelocity.Sub(P.Mul(joint.invMassA))
	joint.bodyB.linearVelocity = joint.bodyB.linearVelocity.Add(P.Mul(joint.invMassB))
}

func (joint *BallJoint) solveVelocityConstraints(step TimeStep) {
	if joint.bodyB == nil || joint.mass == 0.0 {
		return
	}

	Cdot := joint.bodyB.linearVelocity.Sub(joint.bodyA.linearVelocity)
	impulse := Cdot.Mul(-joint.mass)
	joint.impulse = joint.impulse.Add(impulse)

	joint.applyImpulse(impulse)
}

func (joint *BallJoint) solvePositionConstraints(step TimeStep) bool {
	if joint.bodyB == nil {
		return true
	}

	p1 := joint.GetAnchorA()
	p2 := joint.GetAnchorB()
	d := p2.Sub(p1)

	sum := joint.bodyA.invMass + joint.bodyB.invMass
	if sum == 0.0 {
		return true
	}

	s1 := joint.bodyA.invMass / sum
	s2 := joint.bodyB.invMass / sum

	joint.bodyA.position = joint.bodyA.position.Add(d.Mul(joint.stretchStiffness * s1))
	joint.bodyB.position = joint.bodyB.position.Sub(d.Mul(joint.stretchStiffness * s2))

	return d.Len() < ropechain.LinearSlop
}

func (joint BallJoint) Dump(w io.Writer) {
	indexB := -1
	if joint.bodyB != nil {
		indexB = joint.bodyB.index
	}

	fmt.Fprintf(w, "  ballJoint.bodyA = bodies[%d];\n", joint.bodyA.index)
	fmt.Fprintf(w, "  ballJoint.bodyB = bodies[%d];\n", indexB)
	fmt.Fprintf(w, "  ballJoint.localAnchorA.Set(%.15f, %.15f, %.15f);\n", joint.localAnchorA[0], joint.localAnchorA[1], joint.localAnchorA[2])
	fmt.Fprintf(w, "  ballJoint.localAnchorB.Set(%.15f, %.15f, %.15f);\n", joint.localAnchorB[0], joint.localAnchorB[1], joint.localAnchorB[2])
	fmt.Fprintf(w, "  ballJoint.stretchStiffness = %.15f;\n", joint.stretchStiffness)
}
