package rig

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	ropechain "github.com/Alexander-r/ropechain.go"
)

type GrappleState uint8

var GrappleStates = struct {
	Loaded    GrappleState
	Shot      GrappleState
	Connected GrappleState
}{
	Loaded:    0,
	Shot:      1,
	Connected: 2,
}

func (state GrappleState) String() string {
	switch state {
	case GrappleStates.Loaded:
		return "loaded"
	case GrappleStates.Shot:
		return "shot"
	case GrappleStates.Connected:
		return "connected"
	}
	return fmt.Sprintf("GrappleState(%d)", uint8(state))
}

/// A grapple definition holds the tuning of a grappling gun. The muzzle is the
/// anchor of the chain; the projectile carries the terminal hook.
type GrappleDef struct {
	MuzzlePosition mgl64.Vec3
	MuzzleRotation mgl64.Quat

	/// Speed given to the projectile along the muzzle's forward axis.
	ProjectileVelocity float64

	/// Chain speed and push out force while expelling.
	MaximumExpellSpeed float64
	ExpellForce        float64

	/// Chain speed and pull in force while taking up.
	MaximumTakeUpSpeed float64
	TakeUpForce        float64

	Projectile ropechain.BodyDef

	/// Where the chain attaches to the projectile, in its local frame.
	ProjectileAttachmentPoint mgl64.Vec3

	/// Chain settings. Anchor and Hook are filled in by the grapple.
	Source ropechain.ChainLinkSourceDef
}

func MakeGrappleDef() GrappleDef {
	projectile := ropechain.MakeBodyDef()
	projectile.Mass = 0.5

	source := ropechain.MakeChainLinkSourceDef()
	source.MaximumEffectiveLinkLength = 0.5
	source.ChainLinkParent = "rope"

	return GrappleDef{
		MuzzlePosition:     mgl64.Vec3{},
		MuzzleRotation:     mgl64.QuatIdent(),
		ProjectileVelocity: 20.0,
		MaximumExpellSpeed: 4.0,
		ExpellForce:        2.0,
		MaximumTakeUpSpeed: 4.0,
		TakeUpForce:        2.0,
		Projectile:         projectile,
		Source:             source,
	}
}

var (
	ErrProjectileVelocity = errors.New("projectile velocity must be positive")
	ErrGrappleSpeed       = errors.New("grapple chain speeds must be non-negative")
	ErrProjectileBodyType = errors.New("projectile must be a dynamic body")
)

func (def GrappleDef) Validate() error {
	var errs []error

	if !(def.ProjectileVelocity > 0.0) {
		errs = append(errs, fmt.Errorf("%w: %g", ErrProjectileVelocity, def.ProjectileVelocity))
	}
	if !(def.MaximumExpellSpeed >= 0.0) || !(def.MaximumTakeUpSpeed >= 0.0) {
		errs = append(errs, fmt.Errorf("%w: expell %g, take up %g", ErrGrappleSpeed, def.MaximumExpellSpeed, def.MaximumTakeUpSpeed))
	}
	if def.Projectile.Type != ropechain.BodyTypes.Dynamic {
		errs = append(errs, ErrProjectileBodyType)
	}

	return errors.Join(errs...)
}

/// A grappling gun: a kinematic muzzle, a projectile on a chain and the
/// buttons that drive the chain. Loaded, the projectile rides on the muzzle.
/// Fired, the chain pays out freely until Connect sticks the projectile where
/// it is. Reload pulls everything back in one go.
type Grapple struct {
	engine ropechain.Engine
	def    GrappleDef
	state  GrappleState

	muzzle     ropechain.Body
	projectile ropechain.Body
	hook       *ropechain.TerminalHook
	source     *ropechain.ChainLinkSource

	// Holds the projectile in place while connected.
	surface ropechain.Body
	stick   ropechain.LinkJoint
}

func MakeGrapple(engine ropechain.Engine, def GrappleDef) (*Grapple, error) {
	if engine == nil {
		return nil, errors.New("grapple needs an engine")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grapple: %w", err)
	}

	muzzleDef := ropechain.MakeBodyDef()
	muzzleDef.Type = ropechain.BodyTypes.Kinematic
	muzzleDef.Position = def.MuzzlePosition
	muzzleDef.Rotation = def.MuzzleRotation
	muzzle := engine.CreateBody(muzzleDef)

	projectileDef := def.Projectile
	projectileDef.Position = def.MuzzlePosition.Sub(def.MuzzleRotation.Rotate(def.ProjectileAttachmentPoint))
	projectileDef.Rotation = def.MuzzleRotation
	projectile := engine.CreateBody(projectileDef)

	hook := ropechain.MakeTerminalHook(projectile, def.ProjectileAttachmentPoint)

	sourceDef := def.Source
	sourceDef.Anchor = muzzle
	sourceDef.Hook = hook

	source, err := ropechain.MakeChainLinkSource(engine, sourceDef)
	if err != nil {
		engine.DestroyBody(projectile)
		engine.DestroyBody(muzzle)
		return nil, fmt.Errorf("invalid grapple: %w", err)
	}

	res := &Grapple{
		engine:     engine,
		def:        def,
		muzzle:     muzzle,
		projectile: projectile,
		hook:       hook,
		source:     source,
	}
	res.load()

	return res, nil
}

func (grapple Grapple) GetState() GrappleState {
	return grapple.state
}

func (grapple Grapple) GetSource() *ropechain.ChainLinkSource {
	return grapple.source
}

func (grapple Grapple) GetMuzzle() ropechain.Body {
	return grapple.muzzle
}

func (grapple Grapple) GetProjectile() ropechain.Body {
	return grapple.projectile
}

func (grapple Grapple) GetHook() *ropechain.TerminalHook {
	return grapple.hook
}

/// Forward axis of the muzzle in world coordinates.
func (grapple Grapple) GetAimDirection() mgl64.Vec3 {
	return ropechain.WorldVector(grapple.muzzle, ropechain.ForwardAxis)
}

/// Moves the muzzle. The chain's anchor velocity is derived from these moves.
func (grapple *Grapple) Aim(position mgl64.Vec3, rotation mgl64.Quat) {
	grapple.muzzle.SetPosition(position)
	grapple.muzzle.SetRotation(rotation)
}

/// Shoots the projectile. Only a loaded grapple fires.
func (grapple *Grapple) Fire() bool {
	if grapple.state != GrappleStates.Loaded {
		return false
	}

	grapple.source.SetMaximumTakeUpSpeed(0.0)
	grapple.source.SetMaximumExpellSpeed(math.Inf(1))
	grapple.source.SetPushOutForceAmount(0.0)

	grapple.projectile.SetLinearVelocity(mgl64.Vec3{})
	grapple.projectile.ApplyVelocityChange(grapple.GetAimDirection().Mul(grapple.def.ProjectileVelocity))

	grapple.state = GrappleStates.Shot
	return true
}

/// Sticks the flying projectile where it is and freezes the chain length.
func (grapple *Grapple) Connect() bool {
	if grapple.state != GrappleStates.Shot {
		return false
	}

	grapple.source.LockLength()

	surfaceDef := ropechain.MakeBodyDef()
	surfaceDef.Type = ropechain.BodyTypes.Static
	surfaceDef.Position = grapple.projectile.Position()
	grapple.surface = grapple.engine.CreateBody(surfaceDef)

	stickDef := ropechain.MakeLinkJointDef()
	stickDef.BodyA = grapple.projectile
	stickDef.BodyB = grapple.surface
	grapple.stick = grapple.engine.CreateLinkJoint(stickDef)

	grapple.projectile.SetLinearVelocity(mgl64.Vec3{})

	grapple.state = GrappleStates.Connected
	return true
}

/// Lets chain out while connected.
func (grapple *Grapple) Expel() bool {
	if grapple.state != GrappleStates.Connected {
		return false
	}

	grapple.source.SetMaximumExpellSpeed(grapple.def.MaximumExpellSpeed)
	grapple.source.SetMaximumTakeUpSpeed(0.0)
	grapple.source.SetPushOutForceAmount(grapple.def.ExpellForce)
	return true
}

/// Reels chain in while connected.
func (grapple *Grapple) TakeUp() bool {
	if grapple.state != GrappleStates.Connected {
		return false
	}

	grapple.source.SetMaximumExpellSpeed(0.0)
	grapple.source.SetMaximumTakeUpSpeed(grapple.def.MaximumTakeUpSpeed)
	grapple.source.SetPushOutForceAmount(-grapple.def.TakeUpForce)
	return true
}

/// Releases the expel and take up buttons.
func (grapple *Grapple) Hold() bool {
	if grapple.state != GrappleStates.Connected {
		return false
	}

	grapple.source.LockLength()
	grapple.source.SetPushOutForceAmount(0.0)
	return true
}

func (grapple *Grapple) Lock() {
	grapple.source.LockLength()
}

func (grapple *Grapple) Unlock() {
	grapple.source.UnlockLength()
}

/// Pulls the chain in at once and puts the projectile back on the muzzle.
func (grapple *Grapple) Reload() bool {
	if grapple.state == GrappleStates.Loaded {
		return false
	}

	grapple.unstick()
	grapple.load()
	return true
}

/// Advances the chain by one step. The caller steps the engine afterwards.
func (grapple *Grapple) Step(dt float64) {
	if grapple.state == GrappleStates.Loaded {
		grapple.followMuzzle()
	}

	grapple.source.Step(dt)
}

/// Destroys every body and joint the grapple created.
func (grapple *Grapple) Destroy() {
	grapple.unstick()
	grapple.source.SetHook(nil)
	grapple.engine.DestroyJoint(grapple.source.GetLengthLimiter())
	grapple.engine.DestroyBody(grapple.projectile)
	grapple.engine.DestroyBody(grapple.muzzle)
}

func (grapple *Grapple) load() {
	grapple.source.DestroyChainAndResetHookPosition()
	grapple.source.LockLength()
	grapple.source.SetPushOutForceAmount(0.0)
	grapple.followMuzzle()

	grapple.state = GrappleStates.Loaded
}

func (grapple *Grapple) followMuzzle() {
	grapple.projectile.SetRotation(grapple.muzzle.Rotation())
	grapple.hook.SetAttachmentPointPosition(grapple.muzzle.Position())
	grapple.projectile.SetLinearVelocity(mgl64.Vec3{})
}

func (grapple *Grapple) unstick() {
	if grapple.stick != nil {
		grapple.engine.DestroyJoint(grapple.stick)
		grapple.stick = nil
	}
	if grapple.surface != nil {
		grapple.engine.DestroyBody(grapple.surface)
		grapple.surface = nil
	}
}
