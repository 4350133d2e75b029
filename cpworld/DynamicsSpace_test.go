package cpworld_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	ropechain "github.com/Alexander-r/ropechain.go"
	"github.com/Alexander-r/ropechain.go/cpworld"
)

const dt = 1.0 / 60.0

func makePlanarChain(t *testing.T, gravity mgl64.Vec3, anchorRotation mgl64.Quat, hookPosition mgl64.Vec3) (*cpworld.Space, *ropechain.ChainLinkSource, *ropechain.TerminalHook) {
	t.Helper()

	spaceDef := cpworld.MakeSpaceDef()
	spaceDef.Gravity = gravity
	space := cpworld.MakeSpace(spaceDef)

	anchorDef := ropechain.MakeBodyDef()
	anchorDef.Type = ropechain.BodyTypes.Kinematic
	anchorDef.Rotation = anchorRotation
	anchor := space.CreateBody(anchorDef)

	hookDef := ropechain.MakeBodyDef()
	hookDef.Position = hookPosition
	hook := ropechain.MakeTerminalHook(space.CreateBody(hookDef), mgl64.Vec3{})

	def := ropechain.MakeChainLinkSourceDef()
	def.Anchor = anchor
	def.Hook = hook
	def.MaximumEffectiveLinkLength = 2.0

	source, err := ropechain.MakeChainLinkSource(space, def)
	if err != nil {
		t.Fatalf("MakeChainLinkSource: %v", err)
	}

	return space, source, hook
}

func TestBodyKeepsThirdDimension(t *testing.T) {
	space := cpworld.MakeSpace(cpworld.MakeSpaceDef())
	body := space.CreateBody(ropechain.MakeBodyDef())

	body.SetPosition(mgl64.Vec3{1.0, 2.0, 3.0})
	if body.Position() != (mgl64.Vec3{1.0, 2.0, 3.0}) {
		t.Fatalf("position %v", body.Position())
	}

	body.SetLinearVelocity(mgl64.Vec3{1.0, -1.0, 5.0})
	if body.LinearVelocity() != (mgl64.Vec3{1.0, -1.0, 0.0}) {
		t.Fatalf("velocity %v", body.LinearVelocity())
	}

	rotation := mgl64.QuatRotate(0.3, mgl64.Vec3{1.0, 0.0, 0.0})
	body.SetRotation(rotation)
	if !body.Rotation().ApproxEqual(rotation) {
		t.Fatalf("rotation %v, expected %v", body.Rotation(), rotation)
	}
}

func TestPlanarChainGrowsAndHolds(t *testing.T) {
	// Expel along +X.
	rotation := mgl64.QuatRotate(math.Pi/2.0, mgl64.Vec3{0.0, 1.0, 0.0})
	space, source, hook := makePlanarChain(t, mgl64.Vec3{}, rotation, mgl64.Vec3{5.0, 0.0, 0.0})

	source.UnlockLength()
	source.Step(dt)

	if source.GetLinkCount() != 3 {
		t.Fatalf("%d links, expected 3", source.GetLinkCount())
	}
	if total := source.GetTotalEffectiveLength(); math.Abs(total-5.0) > 1e-9 {
		t.Fatalf("total length %v, expected 5", total)
	}
	if space.GetJointCount() != 4 {
		t.Fatalf("%d joints, expected 4", space.GetJointCount())
	}

	source.LockLength()
	for i := 0; i < 60; i++ {
		source.Step(dt)
		space.Step(dt)
	}

	if total := source.GetTotalEffectiveLength(); math.Abs(total-5.0) > 1e-9 {
		t.Fatalf("total length %v after locking", total)
	}
	if d := hook.GetAttachmentPoint().Sub(mgl64.Vec3{5.0, 0.0, 0.0}).Len(); d > 0.01 {
		t.Fatalf("hook drifted by %v", d)
	}
}

func TestPlanarChainHangsUnderGravity(t *testing.T) {
	// Expel along -Y.
	rotation := mgl64.QuatRotate(math.Pi/2.0, mgl64.Vec3{1.0, 0.0, 0.0})
	space, source, hook := makePlanarChain(t, mgl64.Vec3{0.0, -10.0, 0.0}, rotation, mgl64.Vec3{0.0, -3.0, 0.0})

	source.UnlockLength()
	source.Step(dt)
	source.LockLength()

	for i := 0; i < 120; i++ {
		source.Step(dt)
		space.Step(dt)
	}

	if gap := hook.GetAttachmentPoint().Len(); gap > 3.01 {
		t.Fatalf("hook hangs %v from the anchor, chain is 3 long", gap)
	}
}

func TestPlanarLockedChainDoesNotCreep(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/2.0, mgl64.Vec3{1.0, 0.0, 0.0})
	space, source, hook := makePlanarChain(t, mgl64.Vec3{0.0, -10.0, 0.0}, rotation, mgl64.Vec3{0.0, -3.0, 0.0})

	source.UnlockLength()
	source.Step(dt)
	source.LockLength()

	// Swing the hook sideways so the chain is not at rest.
	hook.GetBody().SetLinearVelocity(mgl64.Vec3{4.0, 0.0, 0.0})

	var settled float64
	for i := 0; i < 1200; i++ {
		source.Step(dt)
		space.Step(dt)

		if i == 119 {
			settled = source.GetGapDistance()
		}
	}

	if source.GetLinkCount() != 2 {
		t.Fatalf("%d links, expected 2", source.GetLinkCount())
	}
	if gap := source.GetGapDistance(); math.Abs(gap-settled) > 0.01 {
		t.Fatalf("gap went from %v to %v while locked", settled, gap)
	}
	if d := hook.GetAttachmentPoint().Len(); d > 3.05 {
		t.Fatalf("hook is %v from the anchor, chain is 3 long", d)
	}
}

func TestPlanarLimiterLimitsStayOrdered(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/2.0, mgl64.Vec3{1.0, 0.0, 0.0})
	space, source, _ := makePlanarChain(t, mgl64.Vec3{0.0, -10.0, 0.0}, rotation, mgl64.Vec3{0.0, -3.0, 0.0})

	source.UnlockLength()
	source.Step(dt)
	source.LockLength()

	for i := 0; i < 10; i++ {
		source.Step(dt)
		space.Step(dt)

		slides := 0
		space.GetCPSpace().EachConstraint(func(constraint *cp.Constraint) {
			slide, ok := constraint.Class.(*cp.SlideJoint)
			if !ok {
				return
			}
			slides++
			if slide.Min > slide.Max {
				t.Fatalf("slide limits [%v, %v] are inverted", slide.Min, slide.Max)
			}
			// The nearest link sits on the anchor, the limiter still holds it.
			if math.IsInf(slide.Max, 1) {
				t.Fatalf("locked limiter is slack")
			}
		})
		if slides != 1 {
			t.Fatalf("%d slide joints, expected 1", slides)
		}
	}
}

func TestPlanarChainRetract(t *testing.T) {
	rotation := mgl64.QuatRotate(math.Pi/2.0, mgl64.Vec3{0.0, 1.0, 0.0})
	space, source, _ := makePlanarChain(t, mgl64.Vec3{}, rotation, mgl64.Vec3{5.0, 0.0, 0.0})

	source.UnlockLength()
	source.Step(dt)
	bodies := space.GetBodyCount()

	source.DestroyChainAndResetHookPosition()

	if source.GetLinkCount() != 0 {
		t.Fatalf("%d links left", source.GetLinkCount())
	}
	if space.GetBodyCount() != bodies-3 {
		t.Fatalf("%d bodies, expected %d", space.GetBodyCount(), bodies-3)
	}
	if space.GetJointCount() != 1 {
		t.Fatalf("%d joints, expected only the limiter", space.GetJointCount())
	}

	space.Step(dt)
}
