package cpworld

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	ropechain "github.com/Alexander-r/ropechain.go"
)

// Chipmunk corrects joint error softly by default. The chain needs the whole
// error gone within one step.
func makeRigid(constraint *cp.Constraint) {
	constraint.SetErrorBias(0.0)
	constraint.SetMaxBias(cp.INFINITY)
}

/// Length limiter on a chipmunk slide joint. Reconnecting replaces the
/// constraint; the limits reach the live joint when the space steps.
type SlideLimiter struct {
	space *Space

	bodyA *Body
	bodyB *Body

	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3

	min       float64
	max       float64
	stiffness float64
	damping   float64

	constraint *cp.Constraint
}

func makeSlideLimiter(space *Space, def ropechain.LengthLimiterDef) *SlideLimiter {
	res := &SlideLimiter{
		space:        space,
		bodyA:        space.asBody(def.BodyA),
		localAnchorA: def.LocalAnchorA,
		stiffness:    def.Stiffness,
		damping:      def.Damping,
	}
	ropechain.Assert(res.bodyA != nil, "slide limiter needs a body A")

	res.min = math.Max(0.0, def.MinDistance)
	res.max = math.Max(def.MaxDistance, res.min)
	res.Connect(def.BodyB, def.LocalAnchorB)

	return res
}

func (joint SlideLimiter) GetBodyA() ropechain.Body {
	return joint.bodyA
}

func (joint SlideLimiter) GetBodyB() ropechain.Body {
	if joint.bodyB == nil {
		return nil
	}
	return joint.bodyB
}

func (joint *SlideLimiter) Connect(body ropechain.Body, localAnchorB mgl64.Vec3) {
	joint.disconnect()

	joint.bodyB = joint.space.asBody(body)
	joint.localAnchorB = localAnchorB
	if joint.bodyB == nil {
		return
	}

	joint.constraint = joint.space.space.AddConstraint(cp.NewSlideJoint(
		joint.bodyA.body, joint.bodyB.body,
		joint.bodyA.planarOffset(joint.localAnchorA),
		joint.bodyB.planarOffset(joint.localAnchorB),
		joint.min, joint.max))
	makeRigid(joint.constraint)
}

func (joint *SlideLimiter) disconnect() {
	if joint.constraint != nil {
		joint.space.space.RemoveConstraint(joint.constraint)
		joint.constraint = nil
	}
	joint.bodyB = nil
}

func (joint *SlideLimiter) constrains(body *Body) bool {
	return joint.bodyB == body
}

func (joint *SlideLimiter) isRootedOn(body *Body) bool {
	return joint.bodyA == body
}

// Chipmunk only engages a slide joint once a limit is exceeded, so the limits
// are pulled in by limitTolerance. A locked limiter then pulls and pushes.
const limitTolerance = 1e-9

func (joint *SlideLimiter) refreshAnchors() {
	slide := joint.slideJoint()
	if slide == nil {
		return
	}

	slide.AnchorA = joint.bodyA.planarOffset(joint.localAnchorA)
	slide.AnchorB = joint.bodyB.planarOffset(joint.localAnchorB)

	slide.Max = math.Max(joint.max-limitTolerance, 0.0)
	slide.Min = math.Min(joint.min+limitTolerance, slide.Max)

	// No direction to push along.
	if joint.GetCurrentLength() < ropechain.LinearSlop {
		slide.Min = 0.0
	}
}

/// Moves the bodies back inside [min, max].
/// @returns the length error that was corrected
func (joint *SlideLimiter) solvePosition() float64 {
	if joint.constraint == nil {
		return 0.0
	}

	pA := joint.bodyA.planarPoint(joint.localAnchorA)
	pB := joint.bodyB.planarPoint(joint.localAnchorB)
	d := pB.Sub(pA)

	length := d.Length()
	if length <= ropechain.LengthEpsilon {
		return 0.0
	}

	var C float64
	if length > joint.max {
		C = length - joint.max
	} else if length < joint.min {
		C = length - joint.min
	} else {
		return 0.0
	}

	applyPositionCorrection(joint.bodyA, joint.bodyB, d.Mult(C/length))
	return math.Abs(C)
}

func (joint SlideLimiter) slideJoint() *cp.SlideJoint {
	if joint.constraint == nil {
		return nil
	}
	return joint.constraint.Class.(*cp.SlideJoint)
}

func (joint SlideLimiter) GetLocalAnchorA() mgl64.Vec3 {
	return joint.localAnchorA
}

func (joint SlideLimiter) GetLocalAnchorB() mgl64.Vec3 {
	return joint.localAnchorB
}

func (joint SlideLimiter) GetMinDistance() float64 {
	return joint.min
}

func (joint SlideLimiter) GetMaxDistance() float64 {
	return joint.max
}

func (joint *SlideLimiter) SetDistanceRange(min, max float64) (float64, float64) {
	joint.min = math.Max(0.0, min)
	joint.max = math.Max(max, joint.min)

	return joint.min, joint.max
}

func (joint SlideLimiter) GetStiffness() float64 {
	return joint.stiffness
}

func (joint SlideLimiter) GetDamping() float64 {
	return joint.damping
}

func (joint SlideLimiter) GetCurrentLength() float64 {
	if joint.bodyB == nil {
		return 0.0
	}
	pA := ropechain.WorldPoint(joint.bodyA, joint.localAnchorA)
	pB := ropechain.WorldPoint(joint.bodyB, joint.localAnchorB)
	return toVector(pB).Sub(toVector(pA)).Length()
}

/// Link joint on a chipmunk pivot joint.
type PivotLink struct {
	space *Space

	bodyA *Body
	bodyB *Body

	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3

	constraint *cp.Constraint
}

func makePivotLink(space *Space, def ropechain.LinkJointDef) *PivotLink {
	res := &PivotLink{
		space:        space,
		bodyA:        space.asBody(def.BodyA),
		localAnchorA: def.LocalAnchorA,
	}
	ropechain.Assert(res.bodyA != nil, "pivot link needs a body A")

	res.Connect(def.BodyB, def.LocalAnchorB)

	return res
}

func (joint PivotLink) GetBodyA() ropechain.Body {
	return joint.bodyA
}

func (joint PivotLink) GetBodyB() ropechain.Body {
	if joint.bodyB == nil {
		return nil
	}
	return joint.bodyB
}

func (joint *PivotLink) Connect(body ropechain.Body, localAnchorB mgl64.Vec3) {
	joint.disconnect()

	joint.bodyB = joint.space.asBody(body)
	joint.localAnchorB = localAnchorB
	if joint.bodyB == nil {
		return
	}

	joint.constraint = joint.space.space.AddConstraint(cp.NewPivotJoint2(
		joint.bodyA.body, joint.bodyB.body,
		joint.bodyA.planarOffset(joint.localAnchorA),
		joint.bodyB.planarOffset(joint.localAnchorB)))
	makeRigid(joint.constraint)
}

func (joint *PivotLink) disconnect() {
	if joint.constraint != nil {
		joint.space.space.RemoveConstraint(joint.constraint)
		joint.constraint = nil
	}
	joint.bodyB = nil
}

func (joint *PivotLink) constrains(body *Body) bool {
	return joint.bodyB == body
}

func (joint *PivotLink) isRootedOn(body *Body) bool {
	return joint.bodyA == body
}

/// @returns the anchor separation that was corrected
func (joint *PivotLink) solvePosition() float64 {
	if joint.constraint == nil {
		return 0.0
	}

	pA := joint.bodyA.planarPoint(joint.localAnchorA)
	pB := joint.bodyB.planarPoint(joint.localAnchorB)
	C := pB.Sub(pA)

	applyPositionCorrection(joint.bodyA, joint.bodyB, C)
	return C.Length()
}

// Splits the correction C (from A's anchor to B's) by inverse mass.
func applyPositionCorrection(bodyA, bodyB *Body, C cp.Vector) {
	invMassA := bodyA.invMass()
	invMassB := bodyB.invMass()
	invMass := invMassA + invMassB
	if invMass == 0.0 {
		return
	}

	if invMassA > 0.0 {
		bodyA.body.SetPosition(bodyA.body.Position().Add(C.Mult(invMassA / invMass)))
	}
	if invMassB > 0.0 {
		bodyB.body.SetPosition(bodyB.body.Position().Sub(C.Mult(invMassB / invMass)))
	}
}

func (joint *PivotLink) refreshAnchors() {
	if joint.constraint == nil {
		return
	}
	pivot := joint.constraint.Class.(*cp.PivotJoint)
	pivot.AnchorA = joint.bodyA.planarOffset(joint.localAnchorA)
	pivot.AnchorB = joint.bodyB.planarOffset(joint.localAnchorB)
}

func (joint PivotLink) GetLocalAnchorA() mgl64.Vec3 {
	return joint.localAnchorA
}

func (joint *PivotLink) SetLocalAnchorA(localAnchorA mgl64.Vec3) {
	joint.localAnchorA = localAnchorA
}

func (joint PivotLink) GetLocalAnchorB() mgl64.Vec3 {
	return joint.localAnchorB
}
