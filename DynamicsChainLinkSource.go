package ropechain

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

/// Chain link source definition. The source acts like the hole in a ship's hull
/// that an anchor chain is pulled in through or let out of.
type ChainLinkSourceDef struct {
	/// The body the chain leaves from. Fixed or moved by the application.
	Anchor Body

	/// The hook at the far end of the chain. May be nil and set later.
	Hook Hook

	/// Longest distance a single link may span between its attachment points.
	MaximumEffectiveLinkLength float64

	/// Force pushing the chain outward. Negative values pull it in.
	PushOutForceAmount float64

	/// How quickly the chain may be let out, in length units per second.
	MaximumExpellSpeed float64

	/// How quickly the chain may be taken up, in length units per second.
	MaximumTakeUpSpeed float64

	/// Fraction of the hook's velocity removed every step, in [0,1].
	Friction float64

	/// Apply the opposite of the push out force to the anchor.
	ApplyReactionForce bool

	/// Template for the bodies of spawned links.
	LinkBody BodyDef

	/// Limiter configuration. Keep the defaults.
	Limiter LengthLimiterDef

	/// Label for bookkeeping, reported by Dump.
	ChainLinkParent string
}

func MakeChainLinkSourceDef() ChainLinkSourceDef {
	linkDef := MakeChainLinkDef()

	return ChainLinkSourceDef{
		Anchor:                     nil,
		Hook:                       nil,
		MaximumEffectiveLinkLength: 1.0,
		PushOutForceAmount:         0.0,
		MaximumExpellSpeed:         0.0,
		MaximumTakeUpSpeed:         0.0,
		Friction:                   0.0,
		ApplyReactionForce:         true,
		LinkBody:                   linkDef.Body,
		Limiter:                    MakeLengthLimiterDef(),
		ChainLinkParent:            "",
	}
}

var (
	ErrNoAnchor      = errors.New("chain link source has no anchor body")
	ErrLinkLength    = errors.New("maximum effective link length must be positive")
	ErrNegativeSpeed = errors.New("chain speed must be non-negative")
	ErrFriction      = errors.New("friction must lie in [0,1]")
	ErrLinkBodyType  = errors.New("chain links must be dynamic bodies")
)

func (def ChainLinkSourceDef) Validate() error {
	var errs []error

	if def.Anchor == nil {
		errs = append(errs, ErrNoAnchor)
	}
	if !(def.MaximumEffectiveLinkLength > 0.0) || math.IsInf(def.MaximumEffectiveLinkLength, 1) {
		errs = append(errs, fmt.Errorf("%w: %g", ErrLinkLength, def.MaximumEffectiveLinkLength))
	}
	if !(def.MaximumExpellSpeed >= 0.0) {
		errs = append(errs, fmt.Errorf("%w: expell %g", ErrNegativeSpeed, def.MaximumExpellSpeed))
	}
	if !(def.MaximumTakeUpSpeed >= 0.0) {
		errs = append(errs, fmt.Errorf("%w: take up %g", ErrNegativeSpeed, def.MaximumTakeUpSpeed))
	}
	if !(def.Friction >= 0.0 && def.Friction <= 1.0) {
		errs = append(errs, fmt.Errorf("%w: %g", ErrFriction, def.Friction))
	}
	if def.LinkBody.Type != BodyTypes.Dynamic {
		errs = append(errs, ErrLinkBodyType)
	}
	if err := def.Limiter.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

/// Spawns, removes and connects chain links so that the chain between the
/// anchor and the hook grows and shrinks within the configured speeds.
type ChainLinkSource struct {
	engine  Engine
	anchor  Body
	limiter LengthLimiter
	pool    *LinkPool

	/// The hook the next link will be attached to.
	distal LinkHandle

	maximumEffectiveLinkLength float64
	pushOutForceAmount         float64
	maximumExpellSpeed         float64
	maximumTakeUpSpeed         float64
	friction                   float64
	applyReactionForce         bool
	chainLinkParent            string

	positionAfterPreviousStep mgl64.Vec3
	previousDt                float64
}

func MakeChainLinkSource(engine Engine, def ChainLinkSourceDef) (*ChainLinkSource, error) {
	if engine == nil {
		return nil, errors.New("chain link source needs an engine")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain link source: %w", err)
	}

	linkDef := ChainLinkDef{
		Body:               def.LinkBody,
		MaxEffectiveLength: def.MaximumEffectiveLinkLength,
	}

	limiterDef := def.Limiter
	limiterDef.BodyA = def.Anchor
	limiterDef.BodyB = nil

	res := &ChainLinkSource{
		engine:                     engine,
		anchor:                     def.Anchor,
		limiter:                    engine.CreateLengthLimiter(limiterDef),
		pool:                       MakeLinkPool(engine, linkDef),
		distal:                     NullLinkHandle,
		maximumEffectiveLinkLength: def.MaximumEffectiveLinkLength,
		pushOutForceAmount:         def.PushOutForceAmount,
		maximumExpellSpeed:         def.MaximumExpellSpeed,
		maximumTakeUpSpeed:         def.MaximumTakeUpSpeed,
		friction:                   def.Friction,
		applyReactionForce:         def.ApplyReactionForce,
		chainLinkParent:            def.ChainLinkParent,
		positionAfterPreviousStep:  def.Anchor.Position(),
	}

	if def.Hook != nil {
		res.SetHook(def.Hook)
	}

	return res, nil
}

func (source ChainLinkSource) GetAnchor() Body {
	return source.anchor
}

func (source ChainLinkSource) GetLengthLimiter() LengthLimiter {
	return source.limiter
}

func (source ChainLinkSource) GetLinkPool() *LinkPool {
	return source.pool
}

/// The hook new links attach to: the link closest to the anchor, or the
/// terminal hook when the chain has no links. Nil when detached.
func (source ChainLinkSource) GetHook() Hook {
	return source.pool.Resolve(source.distal)
}

func (source ChainLinkSource) GetTerminalHook() Hook {
	return source.pool.GetTerminal()
}

/// Replaces the hook at the end of the chain. Links of the previous chain are
/// destroyed. A nil hook detaches the chain.
func (source *ChainLinkSource) SetHook(hook Hook) {
	source.destroyAllLinks()
	source.pool.SetTerminal(hook)
	source.distal = NullLinkHandle
	source.connectLimiterToHook()
}

func (source ChainLinkSource) GetMaximumEffectiveLinkLength() float64 {
	return source.maximumEffectiveLinkLength
}

func (source ChainLinkSource) GetPushOutForceAmount() float64 {
	return source.pushOutForceAmount
}

func (source *ChainLinkSource) SetPushOutForceAmount(amount float64) {
	source.pushOutForceAmount = amount
}

func (source ChainLinkSource) GetMaximumExpellSpeed() float64 {
	return source.maximumExpellSpeed
}

/// @returns the clamped speed
func (source *ChainLinkSource) SetMaximumExpellSpeed(speed float64) float64 {
	source.maximumExpellSpeed = math.Max(0.0, speed)
	return source.maximumExpellSpeed
}

func (source ChainLinkSource) GetMaximumTakeUpSpeed() float64 {
	return source.maximumTakeUpSpeed
}

/// @returns the clamped speed
func (source *ChainLinkSource) SetMaximumTakeUpSpeed(speed float64) float64 {
	source.maximumTakeUpSpeed = math.Max(0.0, speed)
	return source.maximumTakeUpSpeed
}

func (source ChainLinkSource) GetFriction() float64 {
	return source.friction
}

/// @returns the clamped friction
func (source *ChainLinkSource) SetFriction(friction float64) float64 {
	source.friction = FloatClamp(friction, 0.0, 1.0)
	return source.friction
}

func (source ChainLinkSource) GetApplyReactionForce() bool {
	return source.applyReactionForce
}

func (source *ChainLinkSource) SetApplyReactionForce(flag bool) {
	source.applyReactionForce = flag
}

func (source ChainLinkSource) GetChainLinkParent() string {
	return source.chainLinkParent
}

func (source *ChainLinkSource) SetChainLinkParent(parent string) {
	source.chainLinkParent = parent
}

/// Freezes the chain at its current length.
func (source *ChainLinkSource) LockLength() {
	source.maximumExpellSpeed = 0.0
	source.maximumTakeUpSpeed = 0.0
}

/// Lets the chain grow and shrink without a speed limit. The limiter then
/// leaves the hook free in both directions.
func (source *ChainLinkSource) UnlockLength() {
	source.maximumExpellSpeed = math.Inf(1)
	source.maximumTakeUpSpeed = math.Inf(1)
}

/// Removes every link at once and puts the hook back on the anchor.
func (source *ChainLinkSource) DestroyChainAndResetHookPosition() {
	source.destroyAllLinks()

	if terminal := source.pool.GetTerminal(); terminal != nil {
		body := terminal.GetBody()
		body.SetPosition(source.anchor.Position().Sub(terminal.GetAttachmentOffset()))
		body.SetLinearVelocity(mgl64.Vec3{})
	}

	source.connectLimiterToHook()
}

/// Advances the chain by one fixed physics step. Call before stepping the
/// engine.
func (source *ChainLinkSource) Step(dt float64) {
	if dt <= 0.0 {
		return
	}

	// Only adjust the chain if there is something to connect it to.
	if source.GetHook() != nil {
		if source.chainShouldBeLengthened() {
			source.lengthenChainBy(source.calculateLengthToAddToChain(dt))
		} else if source.chainShouldBeShortened() {
			source.shortenChainBy(source.calculateLengthToRemoveFromChain(dt))
		}

		source.applyFrictionToHook(dt)
		source.applyPushOutForce()

		source.rotateNearestLinkTowardsAnchor()

		// The limiter must describe this step's chain before the engine runs.
		source.updateLengthLimiter(dt)
	}

	source.positionAfterPreviousStep = source.anchor.Position()
	source.previousDt = dt
}

/// Distance between the anchor and the attachment point of the hook.
func (source ChainLinkSource) GetGapDistance() float64 {
	hook := source.GetHook()
	if hook == nil {
		return 0.0
	}
	return Vec3Distance(source.anchor.Position(), hook.GetAttachmentPoint())
}

/// Estimated anchor velocity over the last step.
func (source ChainLinkSource) GetAnchorVelocity() mgl64.Vec3 {
	if source.previousDt <= 0.0 {
		return mgl64.Vec3{}
	}
	return source.anchor.Position().Sub(source.positionAfterPreviousStep).Mul(1.0 / source.previousDt)
}

/// Speed at which the hook currently moves away from the anchor.
func (source ChainLinkSource) GetPushOutSpeed() float64 {
	hook := source.GetHook()
	if hook == nil {
		return 0.0
	}
	direction := hook.GetAttachmentPoint().Sub(source.anchor.Position())
	relativeVelocity := hook.GetBody().LinearVelocity().Sub(source.GetAnchorVelocity())
	return ProjectionFactor(direction, relativeVelocity)
}

/// Links ordered from the anchor towards the terminal hook.
func (source ChainLinkSource) GetLinks() []*ChainLink {
	links := make([]*ChainLink, 0, source.pool.GetCount())
	for handle := source.distal; handle != NullLinkHandle; {
		link := source.pool.Get(handle)
		links = append(links, link)
		handle = link.attachedTo
	}
	return links
}

func (source ChainLinkSource) GetLinkCount() int {
	return source.pool.GetCount()
}

func (source ChainLinkSource) GetTotalEffectiveLength() float64 {
	total := 0.0
	for handle := source.distal; handle != NullLinkHandle; {
		link := source.pool.Get(handle)
		total += link.effectiveLength
		handle = link.attachedTo
	}
	return total
}

/// Appends the chain's points to dst: the anchor, then the link point of every
/// link from the anchor outward. The last link point sits on the terminal hook.
/// Without links the terminal attachment point follows the anchor.
func (source ChainLinkSource) GetPositions(dst []mgl64.Vec3) []mgl64.Vec3 {
	dst = append(dst, source.anchor.Position())

	if source.distal == NullLinkHandle {
		if terminal := source.pool.GetTerminal(); terminal != nil {
			dst = append(dst, terminal.GetAttachmentPoint())
		}
		return dst
	}

	for handle := source.distal; handle != NullLinkHandle; {
		link := source.pool.Get(handle)
		dst = append(dst, link.GetLinkPoint())
		handle = link.attachedTo
	}
	return dst
}

func (source ChainLinkSource) nearestLink() *ChainLink {
	if source.distal == NullLinkHandle {
		return nil
	}
	return source.pool.Get(source.distal)
}

/// Direction the chain leaves the source in.
func (source ChainLinkSource) getOutwardAxis() mgl64.Vec3 {
	if link := source.nearestLink(); link != nil {
		return link.GetOutwardAxis()
	}
	return SafeNormalize(WorldVector(source.anchor, ForwardAxis))
}

/// Is the hook in front of the source?
func (source ChainLinkSource) hookIsInFront() bool {
	frontPlane := MakePlane(source.getOutwardAxis(), source.anchor.Position())
	return frontPlane.GetSide(source.GetHook().GetAttachmentPoint())
}

func (source ChainLinkSource) chainShouldBeLengthened() bool {
	if !(source.maximumExpellSpeed > 0.0) {
		return false
	}
	return source.hookIsInFront() && source.GetGapDistance() > LinearSlop
}

func (source ChainLinkSource) chainShouldBeShortened() bool {
	// Without links there is nothing to take up.
	if !(source.maximumTakeUpSpeed > 0.0) || source.nearestLink() == nil {
		return false
	}
	return !source.hookIsInFront()
}

func (source ChainLinkSource) calculateLengthToAddToChain(dt float64) float64 {
	return math.Min(source.maximumExpellSpeed*dt, source.GetGapDistance())
}

func (source ChainLinkSource) calculateLengthToRemoveFromChain(dt float64) float64 {
	return math.Min(source.maximumTakeUpSpeed*dt, source.GetGapDistance())
}

func (source *ChainLinkSource) lengthenChainBy(amount float64) {
	amount = source.tryLengtheningNearestLinkBy(amount)

	for amount > LengthEpsilon {
		link := source.addChainLink()

		amount = source.tryLengtheningNearestLinkBy(amount)

		// Velocity copy rather than force transfer; forces accumulate badly
		// when several links spawn in one step.
		link.CopyVelocityOfAttachedToHook()
	}
}

/// Lengthens the nearest link up to its capacity.
/// @returns the part of amount that did not fit
func (source *ChainLinkSource) tryLengtheningNearestLinkBy(amount float64) float64 {
	link := source.nearestLink()
	if link == nil {
		return amount
	}

	lengthToAdd := math.Min(source.maximumEffectiveLinkLength-link.effectiveLength, amount)
	if lengthToAdd > 0.0 {
		link.AddEffectiveLength(lengthToAdd)
		amount -= lengthToAdd
	}

	// A grown link must come out of the source.
	link.OrientHookPositionTowards(source.anchor.Position())

	return amount
}

func (source *ChainLinkSource) shortenChainBy(amount float64) {
	for amount > LengthEpsilon {
		link := source.nearestLink()
		if link == nil {
			return
		}

		if link.effectiveLength <= amount {
			amount -= link.effectiveLength
			source.removeNearestLink()
		} else {
			link.SubtractEffectiveLength(amount)
			amount = 0.0
		}
	}
}

/// Spawns a link, hangs it from the current hook and makes it the new hook.
func (source *ChainLinkSource) addChainLink() *ChainLink {
	link := source.pool.Spawn()
	link.AttachToHook(source.distal)
	link.SetEffectiveLength(0.0)

	source.distal = link.handle
	source.connectLimiterToHook()

	return link
}

func (source *ChainLinkSource) removeNearestLink() {
	link := source.nearestLink()
	if link == nil {
		return
	}

	source.distal = link.attachedTo
	source.pool.Destroy(link.handle)
	source.connectLimiterToHook()
}

func (source *ChainLinkSource) destroyAllLinks() {
	for source.distal != NullLinkHandle {
		source.removeNearestLink()
	}
}

/// Keeps the nearest link pointing at the anchor and sitting on its hook.
func (source *ChainLinkSource) rotateNearestLinkTowardsAnchor() {
	if link := source.nearestLink(); link != nil {
		link.OrientHookPositionTowards(source.anchor.Position())
	}
}

func (source *ChainLinkSource) applyFrictionToHook(dt float64) {
	if source.friction == 0.0 {
		return
	}

	// Even at friction 1 the hook creeps slightly; the two velocity changes
	// below are kept as they are.
	body := source.GetHook().GetBody()
	currentHookVelocity := body.LinearVelocity()
	body.ApplyVelocityChange(currentHookVelocity.Mul(-source.friction))

	// The hook is dragged along with the source.
	anchorVelocity := source.positionAfterStepVelocity(dt)
	body.ApplyVelocityChange(anchorVelocity.Mul(source.friction))
}

func (source ChainLinkSource) positionAfterStepVelocity(dt float64) mgl64.Vec3 {
	return source.anchor.Position().Sub(source.positionAfterPreviousStep).Mul(1.0 / dt)
}

func (source *ChainLinkSource) applyPushOutForce() {
	if source.pushOutForceAmount == 0.0 {
		return
	}

	force := source.getOutwardAxis().Mul(source.pushOutForceAmount)
	source.GetHook().GetBody().ApplyForce(force)

	if source.applyReactionForce {
		source.anchor.ApplyForce(force.Mul(-1.0))
	}
}

func (source *ChainLinkSource) connectLimiterToHook() {
	hook := source.GetHook()
	if hook == nil {
		source.limiter.Connect(nil, mgl64.Vec3{})
		return
	}
	source.limiter.Connect(hook.GetBody(), hook.GetLocalAttachmentPoint())
}

func (source *ChainLinkSource) updateLengthLimiter(dt float64) {
	// The hook's attachment point moves whenever the nearest link changes length.
	source.connectLimiterToHook()

	gap := source.GetGapDistance()
	minDistance := math.Max(0.0, gap-source.maximumTakeUpSpeed*dt)
	maxDistance := gap + source.maximumExpellSpeed*dt

	source.limiter.SetDistanceRange(minDistance, maxDistance)
}

/// Writes the source and its links in a stable text form.
func (source ChainLinkSource) Dump(w io.Writer) {
	fmt.Fprintf(w, "  chainLinkSource parent = %q;\n", source.chainLinkParent)
	fmt.Fprintf(w, "  source.maximumEffectiveLinkLength = %.15f;\n", source.maximumEffectiveLinkLength)
	fmt.Fprintf(w, "  source.pushOutForceAmount = %.15f;\n", source.pushOutForceAmount)
	fmt.Fprintf(w, "  source.maximumExpellSpeed = %.15f;\n", source.maximumExpellSpeed)
	fmt.Fprintf(w, "  source.maximumTakeUpSpeed = %.15f;\n", source.maximumTakeUpSpeed)
	fmt.Fprintf(w, "  source.friction = %.15f;\n", source.friction)
	fmt.Fprintf(w, "  source.anchor.Set(%s);\n", dumpVec3(source.anchor.Position()))
	fmt.Fprintf(w, "  source.limiter.Set(%.6f, %.6f);\n", dumpFloat(source.limiter.GetMinDistance()), dumpFloat(source.limiter.GetMaxDistance()))

	for i, link := range source.GetLinks() {
		fmt.Fprintf(w, "  links[%d].handle = %d;\n", i, link.handle)
		fmt.Fprintf(w, "  links[%d].attachedTo = %d;\n", i, link.attachedTo)
		fmt.Fprintf(w, "  links[%d].effectiveLength = %.15f;\n", i, link.effectiveLength)
		fmt.Fprintf(w, "  links[%d].linkPoint.Set(%s);\n", i, dumpVec3(link.GetLinkPoint()))
		fmt.Fprintf(w, "  links[%d].attachmentPoint.Set(%s);\n", i, dumpVec3(link.GetAttachmentPoint()))
	}

	if terminal := source.pool.GetTerminal(); terminal != nil {
		fmt.Fprintf(w, "  terminal.attachmentPoint.Set(%s);\n", dumpVec3(terminal.GetAttachmentPoint()))
	}
}

// Rounded to the printed precision so that -0 and float noise print alike.
func dumpFloat(x float64) float64 {
	if math.IsInf(x, 0) {
		return x
	}
	r := math.Round(x*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}

func dumpVec3(v mgl64.Vec3) string {
	return fmt.Sprintf("%.6f, %.6f, %.6f", dumpFloat(v[0]), dumpFloat(v[1]), dumpFloat(v[2]))
}
