package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

var (
	ErrRingVertices = errors.New("a tube ring needs at least three vertices")
	ErrRingRadius   = errors.New("tube radius must be positive")
)

/// Indexed triangle mesh. Every three indices form one triangle.
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []uint32
}

func (mesh Mesh) TriangleCount() int {
	return len(mesh.Indices) / 3
}

func (mesh *Mesh) Clear() {
	mesh.Vertices = mesh.Vertices[:0]
	mesh.Indices = mesh.Indices[:0]
}

/// Number of vertices of a tube through pointCount points: one ring per point
/// and a cap vertex at each end.
func TubeVertexCount(pointCount, verticesPerRing int) int {
	if pointCount < 2 {
		return 0
	}
	return pointCount*verticesPerRing + 2
}

/// Two triangles per ring vertex and point: the segments between rings plus the
/// two caps.
func TubeTriangleCount(pointCount, verticesPerRing int) int {
	if pointCount < 2 {
		return 0
	}
	return pointCount * verticesPerRing * 2
}

/// BuildTube replaces the mesh with a tube of the given radius around points.
/// Fewer than two points give an empty mesh. Buffers are reused.
func (mesh *Mesh) BuildTube(points []mgl64.Vec3, verticesPerRing int, radius float64) error {
	mesh.Clear()

	if verticesPerRing < 3 {
		return fmt.Errorf("%w: %d", ErrRingVertices, verticesPerRing)
	}
	if !(radius > 0.0) || math.IsInf(radius, 1) {
		return fmt.Errorf("%w: %g", ErrRingRadius, radius)
	}

	count := len(points)
	if count < 2 {
		return nil
	}

	// Cap at the start of the curve.
	mesh.Vertices = append(mesh.Vertices, points[0])

	for i := range points {
		mesh.appendRing(points[i], tubeDirection(points, i), verticesPerRing, radius)
	}

	// Cap at the end of the curve.
	mesh.Vertices = append(mesh.Vertices, points[count-1])

	ring := uint32(verticesPerRing)
	last := uint32(len(mesh.Vertices) - 1)

	for i := uint32(0); i < ring; i++ {
		next := (i + 1) % ring
		mesh.Indices = append(mesh.Indices, 0, 1+i, 1+next)
	}

	for segment := 0; segment < count-1; segment++ {
		first := 1 + uint32(segment)*ring
		second := first + ring

		for i := uint32(0); i < ring; i++ {
			next := (i + 1) % ring
			mesh.Indices = append(mesh.Indices,
				first+i, second+i, first+next,
				second+i, second+next, first+next)
		}
	}

	lastRing := last - ring
	for i := uint32(0); i < ring; i++ {
		next := (i + 1) % ring
		mesh.Indices = append(mesh.Indices, last, lastRing+next, lastRing+i)
	}

	return nil
}

/// Direction of the tube at point i: central difference inside the curve, one
/// sided at the ends. Coincident neighbours widen the window.
func tubeDirection(points []mgl64.Vec3, i int) mgl64.Vec3 {
	last := len(points) - 1
	for reach := 1; reach <= last; reach++ {
		from := i - reach
		if from < 0 {
			from = 0
		}
		to := i + reach
		if to > last {
			to = last
		}

		direction := points[to].Sub(points[from])
		if direction.Len() > ropechain.LengthEpsilon {
			return direction
		}
	}
	return mgl64.Vec3{}
}

func (mesh *Mesh) appendRing(center, direction mgl64.Vec3, verticesPerRing int, radius float64) {
	axis := ropechain.SafeNormalize(direction)
	if axis == (mgl64.Vec3{}) {
		axis = ropechain.ForwardAxis
	}

	offset := ropechain.SafeNormalize(axis.Cross(ropechain.UpAxis))
	if offset == (mgl64.Vec3{}) {
		// Vertical segment.
		offset = ropechain.SafeNormalize(axis.Cross(ropechain.RightAxis))
	}
	offset = offset.Mul(radius)

	step := 2.0 * math.Pi / float64(verticesPerRing)
	for i := 0; i < verticesPerRing; i++ {
		rotation := mgl64.QuatRotate(step*float64(i), axis)
		mesh.Vertices = append(mesh.Vertices, center.Add(rotation.Rotate(offset)))
	}
}
