package ropechain

import (
	"github.com/go-gl/mathgl/mgl64"
)

/// Index of a chain link inside its pool.
type LinkHandle int32

/// Refers to the terminal hook of the chain rather than to a link.
const NullLinkHandle LinkHandle = -1

/// A rigid link whose effective length can change. The body origin sits at the
/// centre of the link and the link runs along the local up axis: the link point
/// (joined to the hook this link is attached to) is at +up*length/2 and the
/// attachment point (where the next link or the source attaches) at
/// -up*length/2.
type ChainLink struct {
	pool   *LinkPool
	handle LinkHandle
	active bool

	body  Body
	joint LinkJoint

	attachedTo LinkHandle

	effectiveLength      float64
	maxEffectiveLength   float64
	localLinkPoint       mgl64.Vec3
	localAttachmentPoint mgl64.Vec3
}

func (link ChainLink) GetHandle() LinkHandle {
	return link.handle
}

func (link ChainLink) GetBody() Body {
	return link.body
}

func (link ChainLink) GetJoint() LinkJoint {
	return link.joint
}

func (link ChainLink) GetEffectiveLength() float64 {
	return link.effectiveLength
}

func (link ChainLink) GetMaxEffectiveLength() float64 {
	return link.maxEffectiveLength
}

/// Handle of the hook this link hangs from; NullLinkHandle for the terminal hook.
func (link ChainLink) GetAttachedToHandle() LinkHandle {
	return link.attachedTo
}

/// The hook this link hangs from. The link does not own it.
func (link ChainLink) GetAttachedTo() Hook {
	return link.pool.Resolve(link.attachedTo)
}

func (link ChainLink) GetLocalAttachmentPoint() mgl64.Vec3 {
	return link.localAttachmentPoint
}

func (link ChainLink) GetAttachmentPoint() mgl64.Vec3 {
	return WorldPoint(link.body, link.localAttachmentPoint)
}

func (link ChainLink) GetAttachmentOffset() mgl64.Vec3 {
	return WorldVector(link.body, link.localAttachmentPoint)
}

func (link ChainLink) GetLocalLinkPoint() mgl64.Vec3 {
	return link.localLinkPoint
}

func (link ChainLink) GetLinkPoint() mgl64.Vec3 {
	return WorldPoint(link.body, link.localLinkPoint)
}

func (link ChainLink) GetLinkPointOffset() mgl64.Vec3 {
	return WorldVector(link.body, link.localLinkPoint)
}

/// Unit vector pointing from the attachment point towards the link point,
/// i.e. away from whatever pulls on this link.
func (link ChainLink) GetOutwardAxis() mgl64.Vec3 {
	return SafeNormalize(WorldVector(link.body, UpAxis))
}

/// Sets the distance between the two attachment points. The link point stays
/// on the attached hook's attachment point.
func (link *ChainLink) SetEffectiveLength(length float64) {
	link.effectiveLength = FloatClamp(length, 0.0, link.maxEffectiveLength)

	half := link.effectiveLength / 2.0
	link.localLinkPoint = UpAxis.Mul(half)
	link.localAttachmentPoint = DownAxis.Mul(half)

	// The joint anchor is derived from the body transform, so move first.
	link.moveLinkPointOntoAttachedTo()

	link.joint.SetLocalAnchorA(link.localLinkPoint)
}

func (link *ChainLink) AddEffectiveLength(delta float64) {
	link.SetEffectiveLength(link.effectiveLength + delta)
}

func (link *ChainLink) SubtractEffectiveLength(delta float64) {
	link.SetEffectiveLength(link.effectiveLength - delta)
}

/// Rotates the link so its attachment point faces target. The rotation pivots
/// around the body origin, so the link is translated back onto its hook
/// afterwards.
func (link *ChainLink) OrientHookPositionTowards(target mgl64.Vec3) {
	pivot := link.GetLinkPoint()
	if attachedTo := link.GetAttachedTo(); attachedTo != nil {
		pivot = attachedTo.GetAttachmentPoint()
	}

	direction := target.Sub(pivot)
	if direction.Len() <= LengthEpsilon {
		return
	}

	rotation := FromToRotation(DownAxis, direction)
	link.body.SetRotation(rotation)
	link.body.SetPosition(pivot.Sub(rotation.Rotate(link.localLinkPoint)))
}

/// Hangs this link from the hook behind handle: same orientation, link point on
/// the hook's attachment point, joint connected to the hook's body.
func (link *ChainLink) AttachToHook(handle LinkHandle) {
	target := link.pool.Resolve(handle)
	Assert(target != nil, "cannot attach link %d to an empty hook", link.handle)

	link.attachedTo = handle

	link.body.SetRotation(target.GetBody().Rotation())
	link.moveLinkPointOntoAttachedTo()

	link.joint.Connect(target.GetBody(), target.GetLocalAttachmentPoint())
	link.joint.SetLocalAnchorA(link.localLinkPoint)
}

func (link *ChainLink) CopyVelocityOfAttachedToHook() {
	if attachedTo := link.GetAttachedTo(); attachedTo != nil {
		link.body.SetLinearVelocity(attachedTo.GetBody().LinearVelocity())
	}
}

func (link *ChainLink) moveLinkPointOntoAttachedTo() {
	attachedTo := link.GetAttachedTo()
	if attachedTo == nil {
		return
	}
	link.body.SetPosition(attachedTo.GetAttachmentPoint().Sub(link.GetLinkPointOffset()))
}

/// Definition used for every link a pool spawns.
type ChainLinkDef struct {
	Body               BodyDef
	MaxEffectiveLength float64
}

func MakeChainLinkDef() ChainLinkDef {
	res := ChainLinkDef{
		Body:               MakeBodyDef(),
		MaxEffectiveLength: 1.0,
	}
	res.Body.Mass = 0.1

	return res
}

/// Arena of chain links for a single chain. Destroyed links return their slot
/// to a free list and are reused by the next spawn.
type LinkPool struct {
	engine   Engine
	def      ChainLinkDef
	links    []*ChainLink
	free     []LinkHandle
	count    int
	terminal Hook
}

func MakeLinkPool(engine Engine, def ChainLinkDef) *LinkPool {
	return &LinkPool{
		engine: engine,
		def:    def,
	}
}

func (pool LinkPool) GetTerminal() Hook {
	return pool.terminal
}

func (pool *LinkPool) SetTerminal(hook Hook) {
	pool.terminal = hook
}

/// Number of live links.
func (pool LinkPool) GetCount() int {
	return pool.count
}

/// Number of slots, live or free.
func (pool LinkPool) GetCapacity() int {
	return len(pool.links)
}

func (pool *LinkPool) Get(handle LinkHandle) *ChainLink {
	Assert(handle >= 0 && int(handle) < len(pool.links), "link handle %d out of range", handle)
	link := pool.links[handle]
	Assert(link.active, "link handle %d is stale", handle)
	return link
}

/// Resolve a handle to a hook; NullLinkHandle resolves to the terminal hook,
/// which may be nil.
func (pool *LinkPool) Resolve(handle LinkHandle) Hook {
	if handle == NullLinkHandle {
		return pool.terminal
	}
	return pool.Get(handle)
}

/// Spawn a zero length link that is not attached to anything yet.
func (pool *LinkPool) Spawn() *ChainLink {
	var link *ChainLink
	if n := len(pool.free); n > 0 {
		handle := pool.free[n-1]
		pool.free = pool.free[:n-1]
		link = pool.links[handle]
	} else {
		link = &ChainLink{
			pool:   pool,
			handle: LinkHandle(len(pool.links)),
		}
		pool.links = append(pool.links, link)
	}

	bodyDef := pool.def.Body
	bodyDef.UserData = link.handle
	link.body = pool.engine.CreateBody(bodyDef)

	jointDef := MakeLinkJointDef()
	jointDef.BodyA = link.body
	link.joint = pool.engine.CreateLinkJoint(jointDef)

	link.active = true
	link.attachedTo = NullLinkHandle
	link.maxEffectiveLength = pool.def.MaxEffectiveLength
	link.effectiveLength = 0.0
	link.localLinkPoint = mgl64.Vec3{}
	link.localAttachmentPoint = mgl64.Vec3{}

	pool.count++

	return link
}

func (pool *LinkPool) Destroy(handle LinkHandle) {
	link := pool.Get(handle)

	pool.engine.DestroyJoint(link.joint)
	pool.engine.DestroyBody(link.body)

	link.joint = nil
	link.body = nil
	link.active = false
	link.attachedTo = NullLinkHandle

	pool.free = append(pool.free, handle)
	pool.count--
}
