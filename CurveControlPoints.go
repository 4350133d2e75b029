package ropechain

import (
	"github.com/go-gl/mathgl/mgl64"
)

/// Identifies an external tick, e.g. a render frame. Cached values computed in
/// one tick are recomputed in the next.
type Tick uint64

/// An ordered list of positions a curve is fitted to. The polyline length is
/// cached per (tick, version); every mutation bumps the version.
type ControlPointSet struct {
	points  []mgl64.Vec3
	version uint64

	cacheValid    bool
	cachedTick    Tick
	cachedVersion uint64
	cachedLength  float64
}

func MakeControlPointSet(points ...mgl64.Vec3) *ControlPointSet {
	res := &ControlPointSet{}
	res.Reset(points)
	return res
}

func (set ControlPointSet) Len() int {
	return len(set.points)
}

func (set ControlPointSet) At(index int) mgl64.Vec3 {
	return set.points[index]
}

/// The points in order. The slice is owned by the set.
func (set ControlPointSet) Points() []mgl64.Vec3 {
	return set.points
}

func (set ControlPointSet) Version() uint64 {
	return set.version
}

func (set *ControlPointSet) Add(point mgl64.Vec3) {
	set.points = append(set.points, point)
	set.version++
}

func (set *ControlPointSet) Insert(index int, point mgl64.Vec3) {
	Assert(index >= 0 && index <= len(set.points), "insert index %d out of range", index)
	set.points = append(set.points, mgl64.Vec3{})
	copy(set.points[index+1:], set.points[index:])
	set.points[index] = point
	set.version++
}

func (set *ControlPointSet) Remove(index int) {
	Assert(index >= 0 && index < len(set.points), "remove index %d out of range", index)
	set.points = append(set.points[:index], set.points[index+1:]...)
	set.version++
}

func (set *ControlPointSet) Set(index int, point mgl64.Vec3) {
	set.points[index] = point
	set.version++
}

/// Replaces every point, reusing the backing array.
func (set *ControlPointSet) Reset(points []mgl64.Vec3) {
	set.points = append(set.points[:0], points...)
	set.version++
}

func (set *ControlPointSet) Clear() {
	set.points = set.points[:0]
	set.version++
}

/// Sum of the distances between consecutive points, recomputed lazily.
func (set *ControlPointSet) TotalLength(tick Tick) float64 {
	if set.cacheValid && set.cachedTick == tick && set.cachedVersion == set.version {
		return set.cachedLength
	}

	set.cachedLength = polylineLength(set.points)
	set.cachedTick = tick
	set.cachedVersion = set.version
	set.cacheValid = true

	return set.cachedLength
}

func polylineLength(points []mgl64.Vec3) float64 {
	length := 0.0
	for i := 0; i+1 < len(points); i++ {
		length += Vec3Distance(points[i], points[i+1])
	}
	return length
}
