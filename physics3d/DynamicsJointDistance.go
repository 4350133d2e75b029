package physics3d

import (
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// A distance joint keeps an anchor on body B within [min, max] of an anchor on
/// body A. With equal limits it is a massless rigid rod; with a finite
/// stiffness it also springs towards its rest length. Body B may be nil, in
/// which case the joint does nothing.
type DistanceJoint struct {
	world *World

	bodyA *Body
	bodyB *Body

	stiffness float64
	damping   float64
	bias      float64
	length    float64
	minLength float64
	maxLength float64

	// Solver shared
	localAnchorA mgl64.Vec3
	localAnchorB mgl64.Vec3
	gamma        float64
	impulse      float64
	lowerImpulse float64
	upperImpulse float64

	// Solver temp
	u             mgl64.Vec3
	rA            mgl64.Vec3
	rB            mgl64.Vec3
	currentLength float64
	invMassA      float64
	invMassB      float64
	softMass      float64
	mass          float64
}

func MakeDistanceJoint(def ropechain.LengthLimiterDef, world *World) *DistanceJoint {
	res := &DistanceJoint{
		world:        world,
		bodyA:        asBody(def.BodyA),
		bodyB:        asBody(def.BodyB),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		stiffness:    def.Stiffness,
		damping:      def.Damping,
	}

	ropechain.Assert(res.bodyA != nil, "distance joint needs a body A")

	res.minLength = math.Max(def.MinDistance, 0.0)
	res.maxLength = math.Max(def.MaxDistance, res.minLength)
	res.length = res.maxLength

	return res
}

func (joint DistanceJoint) GetBodyA() ropechain.Body {
	return joint.bodyA
}

/// Returns a nil interface when the joint is not connected.
func (joint DistanceJoint) GetBodyB() ropechain.Body {
	if joint.bodyB == nil {
		return nil
	}
	return joint.bodyB
}

/// The local anchor point relative to bodyA's origin.
func (joint DistanceJoint) GetLocalAnchorA() mgl64.Vec3 {
	return joint.localAnchorA
}

/// The local anchor point relative to bodyB's origin.
func (joint DistanceJoint) GetLocalAnchorB() mgl64.Vec3 {
	return joint.localAnchorB
}

func (joint *DistanceJoint) Connect(body ropechain.Body, localAnchorB mgl64.Vec3) {
	joint.bodyB = asBody(body)
	joint.localAnchorB = localAnchorB
	joint.impulse = 0.0
	joint.lowerImpulse = 0.0
	joint.upperImpulse = 0.0
}

func (joint DistanceJoint) IsConnected() bool {
	return joint.bodyB != nil
}

/// Get the rest length
func (joint DistanceJoint) GetLength() float64 {
	return joint.length
}

/// Set the rest length
/// @returns clamped rest length
func (joint *DistanceJoint) SetLength(length float64) float64 {
	joint.impulse = 0.0
	joint.length = math.Max(0.0, length)
	return joint.length
}

func (joint DistanceJoint) GetMinDistance() float64 {
	return joint.minLength
}

func (joint DistanceJoint) GetMaxDistance() float64 {
	return joint.maxLength
}

/// Set both limits. Accumulated limit impulses are kept only for limits that
/// did not change.
/// @returns the clamped limits
func (joint *DistanceJoint) SetDistanceRange(min, max float64) (float64, float64) {
	min = math.Max(0.0, min)
	max = math.Max(max, min)

	if min != joint.minLength {
		joint.lowerImpulse = 0.0
	}
	if max != joint.maxLength {
		joint.upperImpulse = 0.0
	}

	joint.minLength = min
	joint.maxLength = max
	return min, max
}

/// Get the current length
func (joint DistanceJoint) GetCurrentLength() float64 {
	if joint.bodyB == nil {
		return 0.0
	}
	return joint.GetAnchorB().Sub(joint.GetAnchorA()).Len()
}

/// Set the linear stiffness in N/m
func (joint *DistanceJoint) SetStiffness(stiffness float64) {
	joint.stiffness = stiffness
}

/// Get the linear stiffness in N/m
func (joint DistanceJoint) GetStiffness() float64 {
	return joint.stiffness
}

/// Set linear damping in N*s/m
func (joint *DistanceJoint) SetDamping(damping float64) {
	joint.damping = damping
}

/// Get linear damping in N*s/m
func (joint DistanceJoint) GetDamping() float64 {
	return joint.damping
}

// An infinite (or MaxFloat) stiffness means no spring at all.
func (joint DistanceJoint) isSoft() bool {
	return joint.stiffness > 0.0 && joint.stiffness < ropechain.MaxFloat*0.99 && joint.minLength < joint.maxLength
}

// C = norm(p2 - p1) - L
// u = (p2 - p1) / norm(p2 - p1)
// Cdot = dot(u, v2 - v1)
// J = [-u u]
// K = J * invM * JT = invMass1 + invMass2

func (joint *DistanceJoint) referencesBody(body *Body) bool {
	return joint.bodyA == body || joint.bodyB == body
}

func (joint *DistanceJoint) detachBody(body *Body) bool {
	if joint.bodyA == body {
		return false
	}
	if joint.bodyB == body {
		joint.Connect(nil, mgl64.Vec3{})
	}
	return true
}

func (joint *DistanceJoint) initVelocityConstraints(step TimeStep) {
	if joint.bodyB == nil {
		return
	}

	joint.invMassA = joint.bodyA.invMass
	joint.invMassB = joint.bodyB.invMass

	joint.rA = joint.bodyA.rotation.Rotate(joint.localAnchorA)
	joint.rB = joint.bodyB.rotation.Rotate(joint.localAnchorB)
	joint.u = joint.bodyB.position.Add(joint.rB).Sub(joint.bodyA.position).Sub(joint.rA)

	// Handle singularity.
	joint.currentLength = joint.u.Len()
	if joint.currentLength > ropechain.LinearSlop {
		joint.u = joint.u.Mul(1.0 / joint.currentLength)
	} else {
		joint.u = mgl64.Vec3{}
		joint.impulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}

	invMass := joint.invMassA + joint.invMassB
	if invMass != 0.0 {
		joint.mass = 1.0 / invMass
	} else {
		joint.mass = 0.0
	}

	if joint.isSoft() {
		C := joint.currentLength - joint.length

		d := joint.damping
		k := joint.stiffness
		h := step.Dt

		// gamma = 1 / (h * (d + h * k))
		joint.gamma = h * (d + h*k)
		if joint.gamma != 0.0 {
			joint.gamma = 1.0 / joint.gamma
		}
		joint.bias = C * h * k * joint.gamma

		invMass += joint.gamma
		if invMass != 0.0 {
			joint.softMass = 1.0 / invMass
		} else {
			joint.softMass = 0.0
		}
	} else {
		joint.gamma = 0.0
		joint.bias = 0.0
		joint.softMass = joint.mass
	}

	if step.WarmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= step.DtRatio
		joint.lowerImpulse *= step.DtRatio
		joint.upperImpulse *= step.DtRatio

		joint.applyImpulse(joint.u.Mul(joint.impulse + joint.lowerImpulse - joint.upperImpulse))
	} else {
		joint.impulse = 0.0
		joint.lowerImpulse = 0.0
		joint.upperImpulse = 0.0
	}
}

func (joint *DistanceJoint) applyImpulse(P mgl64.Vec3) {
	joint.bodyA.linearVelocity = joint.bodyA.linearVelocity.Sub(P.Mul(joint.invMassA))
	joint.bodyB.linearVelocity = joint.bodyB.linearVelocity.Add(P.Mul(joint.invMassB))
}

func (joint *DistanceJoint) relativeVelocity() float64 {
	return joint.u.Dot(joint.bodyB.linearVelocity.Sub(joint.bodyA.linearVelocity))
}

func (joint *DistanceJoint) solveVelocityConstraints(step TimeStep) {
	if joint.bodyB == nil || joint.mass == 0.0 {
		return
	}

	if joint.minLength < joint.maxLength {
		if joint.isSoft() {
			Cdot := joint.relativeVelocity()

			impulse := -joint.softMass * (Cdot + joint.bias + joint.gamma*joint.impulse)
			joint.impulse += impulse

			joint.applyImpulse(joint.u.Mul(impulse))
		}

		// lower
		{
			C := joint.currentLength - joint.minLength
			bias := math.Max(0.0, C) * step.Inv_dt

			Cdot := joint.relativeVelocity()

			impulse := -joint.mass * (Cdot + bias)
			oldImpulse := joint.lowerImpulse
			joint.lowerImpulse = math.Max(0.0, joint.lowerImpulse+impulse)
			impulse = joint.lowerImpulse - oldImpulse

			joint.applyImpulse(joint.u.Mul(impulse))
		}

		// upper
		{
			C := joint.maxLength - joint.currentLength
			bias := math.Max(0.0, C) * step.Inv_dt

			Cdot := -joint.relativeVelocity()

			impulse := -joint.mass * (Cdot + bias)
			oldImpulse := joint.upperImpulse
			joint.upperImpulse = math.Max(0.0, joint.upperImpulse+impulse)
			impulse = joint.upperImpulse - oldImpulse

			joint.applyImpulse(joint.u.Mul(-impulse))
		}
	} else {
		// Equal limits
		Cdot := joint.relativeVelocity()

		impulse := -joint.mass * Cdot
		joint.impulse += impulse

		joint.applyImpulse(joint.u.Mul(impulse))
	}
}

func (joint *DistanceJoint) solvePositionConstraints(step TimeStep) bool {
	if joint.bodyB == nil || joint.mass == 0.0 {
		return true
	}

	rA := joint.bodyA.rotation.Rotate(joint.localAnchorA)
	rB := joint.bodyB.rotation.Rotate(joint.localAnchorB)
	u := joint.bodyB.position.Add(rB).Sub(joint.bodyA.position).Sub(rA)

	length := u.Len()
	if length > ropechain.LengthEpsilon {
		u = u.Mul(1.0 / length)
	} else {
		u = mgl64.Vec3{}
	}

	var C float64
	if joint.minLength == joint.maxLength {
		C = length - joint.minLength
	} else if length < joint.minLength {
		C = length - joint.minLength
	} else if joint.maxLength < length {
		C = length - joint.maxLength
	} else {
		return true
	}

	impulse := -joint.mass * C
	P := u.Mul(impulse)

	joint.bodyA.position = joint.bodyA.position.Sub(P.Mul(joint.invMassA))
	joint.bodyB.position = joint.bodyB.position.Add(P.Mul(joint.invMassB))

	return math.Abs(C) < ropechain.LinearSlop
}

func (joint DistanceJoint) GetAnchorA() mgl64.Vec3 {
	return joint.bodyA.GetWorldPoint(joint.localAnchorA)
}

func (joint DistanceJoint) GetAnchorB() mgl64.Vec3 {
	if joint.bodyB == nil {
		return joint.GetAnchorA()
	}
	return joint.bodyB.GetWorldPoint(joint.localAnchorB)
}

/// Get the reaction force on body B at the joint anchor in Newtons.
func (joint DistanceJoint) GetReactionForce(inv_dt float64) mgl64.Vec3 {
	return joint.u.Mul(inv_dt * (joint.impulse + joint.lowerImpulse - joint.upperImpulse))
}

func (joint DistanceJoint) Dump(w io.Writer) {
	indexA := joint.bodyA.index
	indexB := -1
	if joint.bodyB != nil {
		indexB = joint.bodyB.index
	}

	fmt.Fprintf(w, "  distanceJoint.bodyA = bodies[%d];\n", indexA)
	fmt.Fprintf(w, "  distanceJoint.bodyB = bodies[%d];\n", indexB)
	fmt.Fprintf(w, "  distanceJoint.localAnchorA.Set(%.15f, %.15f, %.15f);\n", joint.localAnchorA[0], joint.localAnchorA[1], joint.localAnchorA[2])
	fmt.Fprintf(w, "  distanceJoint.localAnchorB.Set(%.15f, %.15f, %.15f);\n", joint.localAnchorB[0], joint.localAnchorB[1], joint.localAnchorB[2])
	fmt.Fprintf(w, "  distanceJoint.length = %.15f;\n", joint.length)
	fmt.Fprintf(w, "  distanceJoint.minLength = %.15f;\n", joint.minLength)
	fmt.Fprintf(w, "  distanceJoint.maxLength = %.15f;\n", joint.maxLength)
	fmt.Fprintf(w, "  distanceJoint.stiffness = %.15f;\n", joint.stiffness)
	fmt.Fprintf(w, "  distanceJoint.damping = %.15f;\n", joint.damping)
}
