package physics3d

import (
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

/// This is an internal structure.
type TimeStep struct {
	Dt                 float64 // time step
	Inv_dt             float64 // inverse time step (0 if dt == 0).
	DtRatio            float64 // dt * inv_dt0
	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

type jointSolver interface {
	ropechain.Joint

	initVelocityConstraints(step TimeStep)
	solveVelocityConstraints(step TimeStep)
	solvePositionConstraints(step TimeStep) bool

	referencesBody(body *Body) bool

	// detachBody disconnects body from the joint. It returns false when the
	// joint cannot survive without the body.
	detachBody(body *Body) bool
}

type WorldDef struct {
	Gravity            mgl64.Vec3
	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

func MakeWorldDef() WorldDef {
	return WorldDef{
		Gravity:            mgl64.Vec3{0.0, -10.0, 0.0},
		VelocityIterations: 8,
		PositionIterations: 3,
		WarmStarting:       true,
	}
}

/// The world class manages all physics entities and the solver. It is a
/// particle solver: bodies have mass but no inertia.
type World struct {
	gravity mgl64.Vec3

	bodies []*Body
	joints []jointSolver

	velocityIterations int
	positionIterations int
	warmStarting       bool

	// This is used to compute the time step ratio to
	// support a variable time step.
	inv_dt0 float64

	stepCount uint64
}

func MakeWorld(def WorldDef) *World {
	res := &World{
		gravity:            def.Gravity,
		velocityIterations: def.VelocityIterations,
		positionIterations: def.PositionIterations,
		warmStarting:       def.WarmStarting,
	}

	if res.velocityIterations <= 0 {
		res.velocityIterations = 1
	}
	if res.positionIterations < 0 {
		res.positionIterations = 0
	}

	return res
}

func asBody(body ropechain.Body) *Body {
	if body == nil {
		return nil
	}
	res, ok := body.(*Body)
	ropechain.Assert(ok, "body %T does not belong to this engine", body)
	if res == nil {
		return nil
	}
	ropechain.Assert(res.IsAlive(), "body has been destroyed")
	return res
}

func (world World) GetGravity() mgl64.Vec3 {
	return world.gravity
}

func (world *World) SetGravity(gravity mgl64.Vec3) {
	world.gravity = gravity
}

func (world World) GetBodyCount() int {
	return len(world.bodies)
}

func (world World) GetJointCount() int {
	return len(world.joints)
}

func (world World) GetStepCount() uint64 {
	return world.stepCount
}

func (world *World) GetBodyList() []*Body {
	return world.bodies
}

func (world *World) CreateBody(def ropechain.BodyDef) ropechain.Body {
	body := MakeBody(def, world)
	body.index = len(world.bodies)
	world.bodies = append(world.bodies, body)
	return body
}

/// Destroy a rigid body. Joints that hang off the body are disconnected;
/// joints rooted on it are destroyed.
func (world *World) DestroyBody(b ropechain.Body) {
	body := asBody(b)
	ropechain.Assert(body != nil && body.world == world, "body does not belong to this world")

	kept := world.joints[:0]
	for _, joint := range world.joints {
		if joint.referencesBody(body) && !joint.detachBody(body) {
			continue
		}
		kept = append(kept, joint)
	}
	for i := len(kept); i < len(world.joints); i++ {
		world.joints[i] = nil
	}
	world.joints = kept

	last := len(world.bodies) - 1
	moved := world.bodies[last]
	world.bodies[body.index] = moved
	moved.index = body.index
	world.bodies[last] = nil
	world.bodies = world.bodies[:last]

	body.index = -1
	body.world = nil
}

func (world *World) CreateLengthLimiter(def ropechain.LengthLimiterDef) ropechain.LengthLimiter {
	joint := MakeDistanceJoint(def, world)
	world.joints = append(world.joints, joint)
	return joint
}

func (world *World) CreateLinkJoint(def ropechain.LinkJointDef) ropechain.LinkJoint {
	joint := MakeBallJoint(def, world)
	world.joints = append(world.joints, joint)
	return joint
}

/// Destroying a joint that is not in the world is a no-op.
func (world *World) DestroyJoint(j ropechain.Joint) {
	for i, joint := range world.joints {
		if ropechain.Joint(joint) == j {
			last := len(world.joints) - 1
			world.joints[i] = world.joints[last]
			world.joints[last] = nil
			world.joints = world.joints[:last]
			return
		}
	}
}

/// Take a time step. This performs integration and constraint solution.
/// @param dt the amount of time to simulate, this should not vary.
func (world *World) Step(dt float64) {
	if dt <= 0.0 {
		return
	}

	step := TimeStep{
		Dt:                 dt,
		Inv_dt:             1.0 / dt,
		DtRatio:            world.inv_dt0 * dt,
		VelocityIterations: world.velocityIterations,
		PositionIterations: world.positionIterations,
		WarmStarting:       world.warmStarting,
	}

	// Integrate velocities.
	for _, b := range world.bodies {
		if b.bodyType == ropechain.BodyTypes.Dynamic {
			v := b.linearVelocity
			v = v.Add(world.gravity.Mul(b.gravityScale * dt)).Add(b.force.Mul(b.invMass * dt))

			// Apply damping.
			// ODE: dv/dt + c * v = 0
			// Solution: v(t) = v0 * exp(-c * t)
			// Pade approximation:
			// v2 = v1 * 1 / (1 + c * dt)
			v = v.Mul(1.0 / (1.0 + dt*b.linearDamping))

			b.linearVelocity = v
		}
		b.force = mgl64.Vec3{}
	}

	for _, joint := range world.joints {
		joint.initVelocityConstraints(step)
	}

	for i := 0; i < step.VelocityIterations; i++ {
		for _, joint := range world.joints {
			joint.solveVelocityConstraints(step)
		}
	}

	// Integrate positions.
	for _, b := range world.bodies {
		if b.bodyType == ropechain.BodyTypes.Static {
			continue
		}
		b.position = b.position.Add(b.linearVelocity.Mul(dt))
	}

	for i := 0; i < step.PositionIterations; i++ {
		jointsOkay := true
		for _, joint := range world.joints {
			jointOkay := joint.solvePositionConstraints(step)
			jointsOkay = jointsOkay && jointOkay
		}

		if jointsOkay {
			// Exit early if the position errors are small.
			break
		}
	}

	world.inv_dt0 = step.Inv_dt
	world.stepCount++
}

/// Dump the world into the log file.
func (world World) Dump(w io.Writer) {
	fmt.Fprintf(w, "gravity.Set(%.15f, %.15f, %.15f);\n", world.gravity[0], world.gravity[1], world.gravity[2])
	fmt.Fprintf(w, "bodies = %d;\n", len(world.bodies))
	fmt.Fprintf(w, "joints = %d;\n", len(world.joints))

	for _, b := range world.bodies {
		fmt.Fprintf(w, "{\n")
		fmt.Fprintf(w, "  bd.type = %d;\n", b.bodyType)
		fmt.Fprintf(w, "  bd.position.Set(%.15f, %.15f, %.15f);\n", b.position[0], b.position[1], b.position[2])
		fmt.Fprintf(w, "  bd.linearVelocity.Set(%.15f, %.15f, %.15f);\n", b.linearVelocity[0], b.linearVelocity[1], b.linearVelocity[2])
		fmt.Fprintf(w, "  bd.mass = %.15f;\n", b.mass)
		fmt.Fprintf(w, "  bodies[%d] = m_world.CreateBody(&bd);\n", b.index)
		fmt.Fprintf(w, "}\n")
	}

	for _, joint := range world.joints {
		fmt.Fprintf(w, "{\n")
		if dumper, ok := joint.(interface{ Dump(w io.Writer) }); ok {
			dumper.Dump(w)
		}
		fmt.Fprintf(w, "}\n")
	}
}
