package render_test

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alexander-r/ropechain.go/render"
)

func checkTube(t *testing.T, mesh render.Mesh, points []mgl64.Vec3, ring int, radius float64) {
	t.Helper()

	if len(mesh.Vertices) != render.TubeVertexCount(len(points), ring) {
		t.Fatalf("%d vertices, expected %d", len(mesh.Vertices), render.TubeVertexCount(len(points), ring))
	}
	if mesh.TriangleCount() != render.TubeTriangleCount(len(points), ring) {
		t.Fatalf("%d triangles, expected %d", mesh.TriangleCount(), render.TubeTriangleCount(len(points), ring))
	}

	for i := 0; i < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		for _, index := range []uint32{a, b, c} {
			if int(index) >= len(mesh.Vertices) {
				t.Fatalf("triangle %d references vertex %d of %d", i/3, index, len(mesh.Vertices))
			}
		}
		if a == b || b == c || a == c {
			t.Fatalf("triangle %d is degenerate: %d %d %d", i/3, a, b, c)
		}
	}

	if mesh.Vertices[0] != points[0] || mesh.Vertices[len(mesh.Vertices)-1] != points[len(points)-1] {
		t.Fatalf("caps are not on the curve ends")
	}

	for k, center := range points {
		for i := 0; i < ring; i++ {
			v := mesh.Vertices[1+k*ring+i]
			for _, x := range v {
				if math.IsNaN(x) {
					t.Fatalf("ring %d vertex %d is NaN", k, i)
				}
			}
			if d := v.Sub(center).Len(); math.Abs(d-radius) > 1e-9 {
				t.Fatalf("ring %d vertex %d at distance %v, expected %v", k, i, d, radius)
			}
		}
	}
}

func TestTubeAlongForward(t *testing.T) {
	points := []mgl64.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}}
	var mesh render.Mesh

	if err := mesh.BuildTube(points, 4, 0.5); err != nil {
		t.Fatalf("BuildTube: %v", err)
	}
	if len(mesh.Vertices) != 14 || len(mesh.Indices) != 72 {
		t.Fatalf("%d vertices and %d indices, expected 14 and 72", len(mesh.Vertices), len(mesh.Indices))
	}
	checkTube(t, mesh, points, 4, 0.5)

	// Rings are perpendicular to a straight tube.
	for k := range points {
		for i := 0; i < 4; i++ {
			if z := mesh.Vertices[1+k*4+i].Z(); math.Abs(z-points[k].Z()) > 1e-9 {
				t.Fatalf("ring %d leaves its plane: z = %v", k, z)
			}
		}
	}
}

func TestTubeVertical(t *testing.T) {
	points := []mgl64.Vec3{{1, 0, 0}, {1, 2, 0}, {1, 5, 0}, {1, 6, 0}}
	var mesh render.Mesh

	if err := mesh.BuildTube(points, 6, 0.1); err != nil {
		t.Fatalf("BuildTube: %v", err)
	}
	checkTube(t, mesh, points, 6, 0.1)
}

func TestTubeBentAndDuplicated(t *testing.T) {
	// The sampler repeats the first point.
	points := []mgl64.Vec3{{0, 0, 0}, {0, 0, 0}, {1, 0, 1}, {2, -1, 1}, {2, -1, 1}}
	var mesh render.Mesh

	if err := mesh.BuildTube(points, 5, 0.25); err != nil {
		t.Fatalf("BuildTube: %v", err)
	}
	checkTube(t, mesh, points, 5, 0.25)

	vertices := &mesh.Vertices[0]
	if err := mesh.BuildTube(points, 5, 0.25); err != nil {
		t.Fatalf("BuildTube: %v", err)
	}
	if &mesh.Vertices[0] != vertices {
		t.Fatalf("BuildTube did not reuse its vertex buffer")
	}
}

func TestTubeDegenerateInput(t *testing.T) {
	var mesh render.Mesh

	if err := mesh.BuildTube([]mgl64.Vec3{{1, 2, 3}}, 8, 1.0); err != nil {
		t.Fatalf("single point: %v", err)
	}
	if len(mesh.Vertices) != 0 || len(mesh.Indices) != 0 {
		t.Fatalf("single point produced a mesh")
	}

	points := []mgl64.Vec3{{0, 0, 0}, {0, 0, 1}}
	if err := mesh.BuildTube(points, 2, 1.0); !errors.Is(err, render.ErrRingVertices) {
		t.Fatalf("two ring vertices: %v", err)
	}
	for _, radius := range []float64{0.0, -1.0, math.NaN(), math.Inf(1)} {
		if err := mesh.BuildTube(points, 8, radius); !errors.Is(err, render.ErrRingRadius) {
			t.Fatalf("radius %v: %v", radius, err)
		}
	}
}
