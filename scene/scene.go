package scene

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
	"github.com/Alexander-r/ropechain.go/config"
	"github.com/Alexander-r/ropechain.go/cpworld"
	"github.com/Alexander-r/ropechain.go/physics3d"
	"github.com/Alexander-r/ropechain.go/render"
	"github.com/Alexander-r/ropechain.go/rig"
)

/// An engine the scene can advance.
type Stepper interface {
	ropechain.Engine
	Step(dt float64)
}

var (
	MuzzlePosition = mgl64.Vec3{0.0, 1.5, 0.0}
	AimDirection   = mgl64.Vec3{1.0, 1.0, 0.0}
)

/// Everything drawn or sent after a step.
type Frame struct {
	rig.Snapshot
	RenderPoints []mgl64.Vec3 `json:"renderPoints"`
}

/// A grapple fired over flat ground. The projectile sticks when it reaches
/// the ground.
type Scene struct {
	settings config.Settings
	engine   Stepper
	grapple  *rig.Grapple
	strip    *render.LineStrip
	tube     render.Mesh

	groundHeight float64
	tick         uint64
	frame        Frame
}

func MakeEngine(settings config.Settings) (Stepper, error) {
	switch settings.Simulation.Engine {
	case "physics3d":
		def := physics3d.MakeWorldDef()
		def.Gravity = settings.Simulation.Gravity
		return physics3d.MakeWorld(def), nil
	case "cp":
		def := cpworld.MakeSpaceDef()
		def.Gravity = settings.Simulation.Gravity
		return cpworld.MakeSpace(def), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, settings.Simulation.Engine)
}

func MakeScene(settings config.Settings) (*Scene, error) {
	engine, err := MakeEngine(settings)
	if err != nil {
		return nil, err
	}

	easing, err := settings.Easing()
	if err != nil {
		return nil, err
	}

	def := settings.GrappleDef()
	def.MuzzlePosition = MuzzlePosition
	def.MuzzleRotation = ropechain.FromToRotation(ropechain.ForwardAxis, AimDirection)

	grapple, err := rig.MakeGrapple(engine, def)
	if err != nil {
		return nil, err
	}

	return &Scene{
		settings: settings,
		engine:   engine,
		grapple:  grapple,
		strip:    render.MakeLineStrip(ropechain.MakeCurveFitter(easing), settings.Render.PointSpacing),
	}, nil
}

func (scene Scene) GetSettings() config.Settings {
	return scene.settings
}

func (scene Scene) GetEngine() Stepper {
	return scene.engine
}

func (scene Scene) GetGrapple() *rig.Grapple {
	return scene.grapple
}

func (scene Scene) GetTick() uint64 {
	return scene.tick
}

func (scene Scene) GetGroundHeight() float64 {
	return scene.groundHeight
}

/// Advances the chain and the engine by one fixed step.
func (scene *Scene) Step() {
	dt := scene.settings.Dt()

	scene.grapple.Step(dt)
	scene.engine.Step(dt)
	scene.tick++

	if scene.grapple.GetState() == rig.GrappleStates.Shot {
		hook := scene.grapple.GetHook().GetAttachmentPoint()
		if hook.Y() <= scene.groundHeight && scene.grapple.Connect() {
			log.Printf("grapple connected at (%.2f, %.2f, %.2f) after %d ticks", hook.X(), hook.Y(), hook.Z(), scene.tick)
		}
	}
}

/// Builds the frame for the current state. The frame and its slices are reused
/// by the next call.
func (scene *Scene) Frame() (*Frame, error) {
	scene.grapple.Snapshot(scene.tick, &scene.frame.Snapshot)

	points, err := scene.strip.Update(scene.frame.Positions)
	if err != nil {
		return nil, fmt.Errorf("sampling chain: %w", err)
	}
	scene.frame.RenderPoints = points

	return &scene.frame, nil
}

/// Tube around the render points of the last frame.
func (scene *Scene) Tube() (*render.Mesh, error) {
	if err := scene.tube.BuildTube(scene.strip.Points(), scene.settings.Render.RingVertices, scene.settings.Render.TubeRadius); err != nil {
		return nil, err
	}
	return &scene.tube, nil
}

var ErrUnknownAction = errors.New("unknown action")

/// A button press or aim change sent by a viewer.
type Control struct {
	Action    string      `json:"action"`
	Position  *mgl64.Vec3 `json:"position,omitempty"`
	Direction *mgl64.Vec3 `json:"direction,omitempty"`
}

/// Apply runs a control against the grapple. It reports whether the grapple
/// accepted it.
func (scene *Scene) Apply(control Control) (bool, error) {
	grapple := scene.grapple

	switch control.Action {
	case "fire":
		return grapple.Fire(), nil
	case "connect":
		return grapple.Connect(), nil
	case "expel":
		return grapple.Expel(), nil
	case "takeUp":
		return grapple.TakeUp(), nil
	case "hold":
		return grapple.Hold(), nil
	case "lock":
		grapple.Lock()
		return true, nil
	case "unlock":
		grapple.Unlock()
		return true, nil
	case "reload":
		return grapple.Reload(), nil
	case "aim":
		position := grapple.GetMuzzle().Position()
		if control.Position != nil {
			position = *control.Position
		}
		rotation := grapple.GetMuzzle().Rotation()
		if control.Direction != nil {
			if ropechain.SafeNormalize(*control.Direction) == (mgl64.Vec3{}) {
				return false, fmt.Errorf("aim: zero direction")
			}
			rotation = ropechain.FromToRotation(ropechain.ForwardAxis, *control.Direction)
		}
		grapple.Aim(position, rotation)
		return true, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownAction, control.Action)
}
