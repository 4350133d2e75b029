package rig

import (
	"github.com/go-gl/mathgl/mgl64"
)

/// State of a grapple after a step, ready to be sent to viewers.
type Snapshot struct {
	Tick        uint64       `json:"tick"`
	State       string       `json:"state"`
	Muzzle      mgl64.Vec3   `json:"muzzle"`
	Aim         mgl64.Vec3   `json:"aim"`
	Hook        mgl64.Vec3   `json:"hook"`
	LinkCount   int          `json:"linkCount"`
	ChainLength float64      `json:"chainLength"`
	Gap         float64      `json:"gap"`
	Positions   []mgl64.Vec3 `json:"positions"`
}

/// Fills snapshot, reusing its positions buffer.
func (grapple Grapple) Snapshot(tick uint64, snapshot *Snapshot) {
	source := grapple.source

	snapshot.Tick = tick
	snapshot.State = grapple.state.String()
	snapshot.Muzzle = grapple.muzzle.Position()
	snapshot.Aim = grapple.GetAimDirection()
	snapshot.Hook = grapple.hook.GetAttachmentPoint()
	snapshot.LinkCount = source.GetLinkCount()
	snapshot.ChainLength = source.GetTotalEffectiveLength()
	snapshot.Gap = source.GetGapDistance()
	snapshot.Positions = source.GetPositions(snapshot.Positions[:0])
}
