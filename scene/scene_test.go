package scene_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alexander-r/ropechain.go/config"
	"github.com/Alexander-r/ropechain.go/render"
	"github.com/Alexander-r/ropechain.go/rig"
	"github.com/Alexander-r/ropechain.go/scene"
)

func testSettings(engine string) config.Settings {
	settings := config.Defaults()
	settings.Simulation.Engine = engine
	settings.Grapple.ProjectileVelocity = 5.0
	return settings
}

func TestSceneFiresAndSticks(t *testing.T) {
	for _, engine := range []string{"physics3d", "cp"} {
		t.Run(engine, func(t *testing.T) {
			s, err := scene.MakeScene(testSettings(engine))
			if err != nil {
				t.Fatalf("MakeScene: %v", err)
			}

			if accepted, err := s.Apply(scene.Control{Action: "fire"}); err != nil || !accepted {
				t.Fatalf("fire: %v, %v", accepted, err)
			}

			for i := 0; i < 600 && s.GetGrapple().GetState() != rig.GrappleStates.Connected; i++ {
				s.Step()
			}
			if s.GetGrapple().GetState() != rig.GrappleStates.Connected {
				t.Fatalf("projectile never reached the ground")
			}

			frame, err := s.Frame()
			if err != nil {
				t.Fatalf("Frame: %v", err)
			}
			if frame.State != "connected" || frame.LinkCount == 0 {
				t.Fatalf("frame in state %q with %d links", frame.State, frame.LinkCount)
			}
			if len(frame.RenderPoints) < len(frame.Positions) {
				t.Fatalf("%d render points for %d chain points", len(frame.RenderPoints), len(frame.Positions))
			}
			if frame.RenderPoints[0] != frame.Muzzle {
				t.Fatalf("render points start at %v, not at the muzzle %v", frame.RenderPoints[0], frame.Muzzle)
			}

			tube, err := s.Tube()
			if err != nil {
				t.Fatalf("Tube: %v", err)
			}
			ring := s.GetSettings().Render.RingVertices
			if len(tube.Vertices) != render.TubeVertexCount(len(frame.RenderPoints), ring) {
				t.Fatalf("tube has %d vertices for %d points", len(tube.Vertices), len(frame.RenderPoints))
			}

			if accepted, _ := s.Apply(scene.Control{Action: "reload"}); !accepted {
				t.Fatalf("reload refused")
			}
			if s.GetGrapple().GetSource().GetLinkCount() != 0 {
				t.Fatalf("reload kept links")
			}
		})
	}
}

func TestSceneControls(t *testing.T) {
	s, err := scene.MakeScene(testSettings("physics3d"))
	if err != nil {
		t.Fatalf("MakeScene: %v", err)
	}

	if _, err := s.Apply(scene.Control{Action: "jump"}); !errors.Is(err, scene.ErrUnknownAction) {
		t.Fatalf("unknown action: %v", err)
	}
	if accepted, _ := s.Apply(scene.Control{Action: "expel"}); accepted {
		t.Fatalf("loaded grapple accepted expel")
	}

	position := mgl64.Vec3{2.0, 3.0, 0.0}
	direction := mgl64.Vec3{1.0, 0.0, 0.0}
	if _, err := s.Apply(scene.Control{Action: "aim", Position: &position, Direction: &direction}); err != nil {
		t.Fatalf("aim: %v", err)
	}
	if s.GetGrapple().GetMuzzle().Position() != position {
		t.Fatalf("muzzle did not move")
	}
	if aim := s.GetGrapple().GetAimDirection(); aim.Sub(direction).Len() > 1e-9 {
		t.Fatalf("aim direction %v", aim)
	}

	zero := mgl64.Vec3{}
	if _, err := s.Apply(scene.Control{Action: "aim", Direction: &zero}); err == nil {
		t.Fatalf("zero aim direction accepted")
	}

	s.Step()
	frame, err := s.Frame()
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if frame.Tick != 1 || frame.Hook.Sub(position).Len() > 0.01 {
		t.Fatalf("loaded frame %+v", frame.Snapshot)
	}
}

func TestMakeEngine(t *testing.T) {
	settings := config.Defaults()
	settings.Simulation.Engine = "bullet"

	if _, err := scene.MakeEngine(settings); !errors.Is(err, config.ErrUnknownEngine) {
		t.Fatalf("MakeEngine(bullet): %v", err)
	}
}
