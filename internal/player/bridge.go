package player

import (
	"math"

	"go.uber.org/zap"

	"github.com/dart-bird/opensurge/internal/entity"
	"github.com/dart-bird/opensurge/internal/geom"
)

// Collider is the scripted-side collision box: dimensions plus an anchor
// in box-relative coordinates ((0.5, 0.5) = centered on the hot spot).
type Collider struct {
	Width   int
	Height  int
	AnchorX float64
	AnchorY float64
}

// Proxy is the scripted-side view of the player: a transform in the
// script coordinate convention (Y-down, angle in degrees), the collider
// box and the current animation name. Scripts read it freely; writes to
// the transform go through SetTransform so the push phase fires.
type Proxy struct {
	Position  geom.Vector2
	Angle     float64 // degrees, [0, 360)
	Scale     geom.Vector2
	Collider  Collider
	Animation string

	bridge *Bridge
}

// SetTransform is the script-facing transform writer. It triggers the
// push phase: the new transform is written back into the native body.
func (p *Proxy) SetTransform(pos geom.Vector2, angleDeg float64, scale geom.Vector2) {
	p.Position = pos
	p.Angle = normalizeDegrees(angleDeg)
	p.Scale = scale
	p.bridge.OnTransformChange()
}

// Bridge synchronizes a native player with its scripted proxy, one
// direction per phase: the pull phase mirrors native state onto the proxy
// every script-update step; the push phase writes a script-modified
// transform back. Script-driven movement goes through a deferred-move
// accumulator applied exactly once, after the physics step.
type Bridge struct {
	log    *zap.Logger
	player *Player
	mgr    *entity.Manager
	reg    *entity.Registry
	proxy  *Proxy

	moveDX float64
	moveDY float64

	companions []entity.Handle

	// LegacySpawn, when set, is tried for companion names that have no
	// registered class.
	LegacySpawn func(name string) bool
}

func NewBridge(p *Player, mgr *entity.Manager, reg *entity.Registry, log *zap.Logger) *Bridge {
	b := &Bridge{
		log:    log,
		player: p,
		mgr:    mgr,
		reg:    reg,
	}
	b.proxy = &Proxy{bridge: b, Scale: geom.V2(1, 1)}
	return b
}

func (b *Bridge) Player() *Player { return b.player }
func (b *Bridge) Proxy() *Proxy   { return b.proxy }

// Init runs once after construction: the first pull plus the companion
// spawn pass.
func (b *Bridge) Init() {
	b.Pull()
	b.SpawnCompanions()
}

// Pull mirrors the native body onto the scripted proxy. Native
// coordinates are Y-up; the scripted convention is Y-down, so Y negates
// and the angle flips from counterclockwise radians to clockwise degrees
// normalized to [0, 360).
func (b *Bridge) Pull() {
	body := b.player.Body()

	pos := body.Position()
	b.proxy.Position = geom.V2(pos.X, -pos.Y)
	b.proxy.Angle = normalizeDegrees(-body.Angle() * 180 / math.Pi)
	b.proxy.Scale = body.Scale()

	w, h, center := body.BoundingBox()
	off := center.Sub(pos)
	b.proxy.Collider = Collider{
		Width:   w,
		Height:  h,
		AnchorX: 0.5 - off.X/float64(w),
		AnchorY: 0.5 + off.Y/float64(h), // Y flips with the coordinate convention
	}

	b.proxy.Animation = body.Animation()
}

// OnTransformChange is the push phase: invoked whenever a script writes
// the proxy transform, it writes position/angle/scale back into the
// native body.
func (b *Bridge) OnTransformChange() {
	body := b.player.Body()
	body.SetPosition(geom.V2(b.proxy.Position.X, -b.proxy.Position.Y))
	body.SetAngle(-b.proxy.Angle * math.Pi / 180)
	body.SetScale(b.proxy.Scale)
}

// MoveBy accumulates a script-requested offset, in scripted (Y-down)
// coordinates. All calls within one frame add up; the resulting vector is
// applied once, at late update, strictly after the physics step. Applying
// it earlier would let the integrator overwrite it or move the player
// before collision resolution.
func (b *Bridge) MoveBy(dx, dy float64) {
	b.moveDX += dx
	b.moveDY += dy
}

// Move is MoveBy with a vector argument.
func (b *Bridge) Move(offset geom.Vector2) {
	b.MoveBy(offset.X, offset.Y)
}

// PendingMove exposes the accumulated offset (scripted coordinates).
func (b *Bridge) PendingMove() (dx, dy float64) {
	return b.moveDX, b.moveDY
}

// LateUpdate applies the deferred move exactly once and resets the
// accumulator, then ticks the frame-bound timers.
func (b *Bridge) LateUpdate(dt float64) {
	if b.moveDX != 0 || b.moveDY != 0 {
		body := b.player.Body()
		pos := body.Position()
		body.SetPosition(geom.V2(pos.X+b.moveDX, pos.Y-b.moveDY))
		b.moveDX = 0
		b.moveDY = 0
	}
	b.player.TickHlock(dt)
}

// SpawnCompanions spawns the companion objects configured for the
// player's character, one per slot. Slots holding a live companion are
// left alone, so the pass is idempotent; stale or killed leftovers are
// replaced (the case after TransformInto).
func (b *Bridge) SpawnCompanions() {
	names := b.player.Companions()
	for len(b.companions) < len(names) {
		b.companions = append(b.companions, 0)
	}

	for i, name := range names {
		class := b.reg.Lookup(name)
		if class == nil {
			if b.LegacySpawn != nil && b.LegacySpawn(name) {
				b.log.Warn("companion has no scripted class, using the legacy object",
					zap.String("companion", name), zap.String("player", b.player.Name()))
				b.companions[i] = 0
				continue
			}
			b.log.Warn("can't find companion",
				zap.String("companion", name), zap.String("player", b.player.Name()))
			b.companions[i] = 0
			continue
		}

		if !class.Flags.Has(entity.FlagCompanion) {
			b.log.Warn("companion class isn't tagged \"companion\"",
				zap.String("companion", name))
			b.reg.AddFlags(name, entity.FlagCompanion)
		}
		// Companions must abide by the entity rules.
		if !class.Flags.Has(entity.FlagEntity) {
			b.reg.AddFlags(name, entity.FlagEntity|entity.FlagPrivate)
		}

		if h := b.companions[i]; !h.IsZero() {
			if e := b.mgr.Pool().Resolve(h); e != nil && !e.Killed() {
				continue // don't accept repeated companions
			}
		}

		e, err := b.mgr.SpawnEntity(name, b.player.Body().Position())
		if err != nil {
			b.log.Warn("failed to spawn companion",
				zap.String("companion", name), zap.Error(err))
			b.companions[i] = 0
			continue
		}
		b.companions[i] = e.Handle()
	}
}

// DestroyCompanions kills every companion and clears the slots. Safe to
// call repeatedly; destroyed companions resolve to nil and are skipped.
func (b *Bridge) DestroyCompanions() {
	for i, h := range b.companions {
		if !h.IsZero() {
			b.mgr.Kill(h)
		}
		b.companions[i] = 0
	}
}

// Companion returns the live entity in a companion slot, or nil.
func (b *Bridge) Companion(slot int) *entity.Entity {
	if slot < 0 || slot >= len(b.companions) {
		return nil
	}
	h := b.companions[slot]
	if h.IsZero() {
		return nil
	}
	e := b.mgr.Pool().Resolve(h)
	if e == nil || e.Killed() {
		return nil
	}
	return e
}

// TransformInto switches the player to another character and rebuilds the
// companion set. Reports success.
func (b *Bridge) TransformInto(character string, companions []string) bool {
	if character == "" {
		return false
	}
	b.DestroyCompanions()
	b.player.TransformInto(character, companions)
	b.SpawnCompanions()
	return true
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
