package ropechain

import (
	"github.com/go-gl/mathgl/mgl64"
)

/// A hook is anything a chain segment can end on. It exposes an attachment
/// point fixed in its body's local frame.
type Hook interface {
	GetBody() Body

	/// The attachment point in the body's local frame.
	GetLocalAttachmentPoint() mgl64.Vec3

	/// The attachment point in world coordinates.
	GetAttachmentPoint() mgl64.Vec3

	/// Attachment point minus body origin, in world coordinates.
	GetAttachmentOffset() mgl64.Vec3
}

/// The payload at the far end of the chain: a projectile or grapple head.
type TerminalHook struct {
	body                 Body
	localAttachmentPoint mgl64.Vec3
}

func MakeTerminalHook(body Body, localAttachmentPoint mgl64.Vec3) *TerminalHook {
	Assert(body != nil, "terminal hook needs a body")

	return &TerminalHook{
		body:                 body,
		localAttachmentPoint: localAttachmentPoint,
	}
}

func (hook TerminalHook) GetBody() Body {
	return hook.body
}

func (hook TerminalHook) GetLocalAttachmentPoint() mgl64.Vec3 {
	return hook.localAttachmentPoint
}

func (hook TerminalHook) GetAttachmentPoint() mgl64.Vec3 {
	return WorldPoint(hook.body, hook.localAttachmentPoint)
}

func (hook TerminalHook) GetAttachmentOffset() mgl64.Vec3 {
	return WorldVector(hook.body, hook.localAttachmentPoint)
}

/// Moves the body so that its attachment point lands on position.
func (hook *TerminalHook) SetAttachmentPointPosition(position mgl64.Vec3) {
	hook.body.SetPosition(position.Sub(hook.GetAttachmentOffset()))
}
