package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alexander-r/ropechain.go/config"
	"github.com/Alexander-r/ropechain.go/rig"
	"github.com/Alexander-r/ropechain.go/scene"
)

const aimSpeed = 1.5 // radians per second

var (
	chainColor      = rl.NewColor(90, 60, 30, 255)
	tubeColor       = rl.NewColor(150, 110, 60, 255)
	projectileColor = rl.Maroon
	muzzleColor     = rl.DarkGray
)

func toRL(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v[0]), float32(v[1]), float32(v[2]))
}

type viewer struct {
	scene    *scene.Scene
	aimAngle float64
	showTube bool
	showLink bool
	lag      float64
}

func (v *viewer) apply(action string) {
	if _, err := v.scene.Apply(scene.Control{Action: action}); err != nil {
		log.Printf("%s: %v", action, err)
	}
}

func (v *viewer) handleInput(frameTime float64) {
	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.apply("fire")
	case rl.IsKeyPressed(rl.KeyC):
		v.apply("connect")
	case rl.IsKeyPressed(rl.KeyR):
		v.apply("reload")
	case rl.IsKeyPressed(rl.KeyL):
		v.apply("lock")
	case rl.IsKeyPressed(rl.KeyU):
		v.apply("unlock")
	case rl.IsKeyPressed(rl.KeyTab):
		v.showTube = !v.showTube
	case rl.IsKeyPressed(rl.KeyK):
		v.showLink = !v.showLink
	}

	if rl.IsKeyPressed(rl.KeyE) {
		v.apply("expel")
	}
	if rl.IsKeyPressed(rl.KeyT) {
		v.apply("takeUp")
	}
	if rl.IsKeyReleased(rl.KeyE) || rl.IsKeyReleased(rl.KeyT) {
		v.apply("hold")
	}

	turn := 0.0
	if rl.IsKeyDown(rl.KeyLeft) {
		turn += aimSpeed * frameTime
	}
	if rl.IsKeyDown(rl.KeyRight) {
		turn -= aimSpeed * frameTime
	}
	if turn != 0.0 {
		v.aimAngle += turn
		direction := mgl64.Vec3{math.Cos(v.aimAngle), math.Sin(v.aimAngle), 0.0}
		if _, err := v.scene.Apply(scene.Control{Action: "aim", Direction: &direction}); err != nil {
			log.Printf("aim: %v", err)
		}
	}
}

/// Runs as many fixed steps as the frame time covers.
func (v *viewer) advance(frameTime float64) {
	dt := v.scene.GetSettings().Dt()

	v.lag += math.Min(frameTime, 0.25)
	for v.lag >= dt {
		v.scene.Step()
		v.lag -= dt
	}
}

func (v *viewer) draw() {
	frame, err := v.scene.Frame()
	if err != nil {
		log.Printf("frame: %v", err)
		return
	}

	if v.showTube {
		tube, err := v.scene.Tube()
		if err != nil {
			log.Printf("tube: %v", err)
		} else {
			for i := 0; i+2 < len(tube.Indices); i += 3 {
				rl.DrawTriangle3D(
					toRL(tube.Vertices[tube.Indices[i]]),
					toRL(tube.Vertices[tube.Indices[i+1]]),
					toRL(tube.Vertices[tube.Indices[i+2]]),
					tubeColor)
			}
		}
	} else {
		for i := 1; i < len(frame.RenderPoints); i++ {
			rl.DrawLine3D(toRL(frame.RenderPoints[i-1]), toRL(frame.RenderPoints[i]), chainColor)
		}
	}

	if v.showLink {
		for _, p := range frame.Positions {
			rl.DrawSphere(toRL(p), 0.04, rl.Orange)
		}
	}

	rl.DrawSphere(toRL(frame.Muzzle), 0.12, muzzleColor)
	rl.DrawLine3D(toRL(frame.Muzzle), toRL(frame.Muzzle.Add(frame.Aim)), rl.Gray)
	rl.DrawSphere(toRL(frame.Hook), 0.1, projectileColor)
}

func (v *viewer) drawHUD() {
	grapple := v.scene.GetGrapple()
	source := grapple.GetSource()

	rl.DrawText(fmt.Sprintf("state: %s   links: %d   length: %.2f", grapple.GetState(), source.GetLinkCount(), source.GetTotalEffectiveLength()), 10, 10, 20, rl.Black)
	rl.DrawText(fmt.Sprintf("expell %.1f  take up %.1f  push %.1f", source.GetMaximumExpellSpeed(), source.GetMaximumTakeUpSpeed(), source.GetPushOutForceAmount()), 10, 35, 20, rl.DarkGray)

	help := "space fire  c connect  e/t expel/take up  r reload  l/u lock/unlock  arrows aim  tab tube  k links"
	if grapple.GetState() == rig.GrappleStates.Loaded {
		help = "space fire  arrows aim  tab tube  k links"
	}
	rl.DrawText(help, 10, int32(rl.GetScreenHeight())-30, 18, rl.Gray)
	rl.DrawFPS(int32(rl.GetScreenWidth())-90, 10)
}

func main() {
	var (
		settingsPath = flag.String("settings", "", "Settings file (default $ROPE_SETTINGS or settings.json)")
		envFile      = flag.String("env", ".env", "Environment file")
		width        = flag.Int("width", 1280, "Window width")
		height       = flag.Int("height", 720, "Window height")
	)
	flag.Parse()

	settings, err := config.Load(*settingsPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	s, err := scene.MakeScene(settings)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}

	v := &viewer{
		scene:    s,
		aimAngle: math.Atan2(scene.AimDirection.Y(), scene.AimDirection.X()),
	}

	rl.InitWindow(int32(*width), int32(*height), "ropechain")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(settings.Simulation.TickHz))

	camera := rl.Camera3D{
		Position:   rl.NewVector3(6.0, 6.0, 18.0),
		Target:     rl.NewVector3(6.0, 1.0, 0.0),
		Up:         rl.NewVector3(0.0, 1.0, 0.0),
		Fovy:       45.0,
		Projection: rl.CameraPerspective,
	}

	for !rl.WindowShouldClose() {
		frameTime := float64(rl.GetFrameTime())

		v.handleInput(frameTime)
		v.advance(frameTime)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginMode3D(camera)
		rl.DrawGrid(40, 1.0)
		v.draw()
		rl.EndMode3D()

		v.drawHUD()
		rl.EndDrawing()
	}
}
