package player

import "github.com/dart-bird/opensurge/internal/geom"

// State is the player activity: a finite set of mutually exclusive states
// driven by the external physics/movement integrator and merely observed
// here. Exactly one state is active at a time.
type State int

const (
	Stopped State = iota
	Walking
	Running
	Jumping
	Springing
	Rolling
	Charging
	Pushing
	GettingHit
	Dead
	Braking
	LedgeBalancing
	Drowned
	Breathing
	Ducking
	LookingUp
	Waiting
	Winning
)

// activityNames is the legacy aggregate string accessor's vocabulary.
var activityNames = [...]string{
	Stopped:        "stopped",
	Walking:        "walking",
	Running:        "running",
	Jumping:        "jumping",
	Springing:      "springing",
	Rolling:        "rolling",
	Charging:       "charging",
	Pushing:        "pushing",
	GettingHit:     "gettinghit",
	Dead:           "dead",
	Braking:        "braking",
	LedgeBalancing: "balancing",
	Drowned:        "drowning",
	Breathing:      "breathing",
	Ducking:        "ducking",
	LookingUp:      "lookingup",
	Waiting:        "waiting",
	Winning:        "winning",
}

func (s State) String() string {
	if int(s) < len(activityNames) {
		return activityNames[s]
	}
	return "stopped"
}

// Shield is the name of the shield the player carries, if any.
type Shield int

const (
	ShieldNone Shield = iota
	ShieldNormal
	ShieldFire
	ShieldThunder
	ShieldWater
	ShieldAcid
	ShieldWind
)

var shieldNames = [...]string{
	ShieldNone:    "",
	ShieldNormal:  "shield",
	ShieldFire:    "fire",
	ShieldThunder: "thunder",
	ShieldWater:   "water",
	ShieldAcid:    "acid",
	ShieldWind:    "wind",
}

func (s Shield) String() string {
	if int(s) < len(shieldNames) {
		return shieldNames[s]
	}
	return ""
}

// ShieldByName maps the scripting-facing shield name back to a Shield.
// Unknown names yield ShieldNone.
func ShieldByName(name string) Shield {
	for s, n := range shieldNames {
		if n == name && n != "" {
			return Shield(s)
		}
	}
	return ShieldNone
}

// Physics is the narrow surface of the native movement integrator. The
// integrator itself lives outside this core; the bridge only reads and
// writes state through this interface. Native coordinates are Y-up; the
// scripted side is Y-down.
type Physics interface {
	Position() geom.Vector2
	SetPosition(geom.Vector2)
	Angle() float64 // radians, counterclockwise
	SetAngle(float64)
	Scale() geom.Vector2
	SetScale(geom.Vector2)
	Speed() float64
	GroundSpeed() float64
	// BoundingBox returns the collision box dimensions and its center in
	// native coordinates.
	BoundingBox() (width, height int, center geom.Vector2)
	State() State
	SetState(State)
	Animation() string
}

// Session holds the per-game-session stats shared between all players.
// Explicit struct with a single owner (the level), not process-wide
// globals.
type Session struct {
	collectibles int
	lives        int
	score        int
}

func NewSession(lives int) *Session {
	return &Session{lives: lives}
}

func (s *Session) Collectibles() int { return s.collectibles }
func (s *Session) Lives() int        { return s.lives }
func (s *Session) Score() int        { return s.score }

func (s *Session) SetCollectibles(n int) { s.collectibles = clampNonNegative(n) }
func (s *Session) SetLives(n int)        { s.lives = clampNonNegative(n) }
func (s *Session) SetScore(n int)        { s.score = clampNonNegative(n) }

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Player is the native-side player record: the physics body plus the
// gameplay flags scripts can toggle. The character name decides which
// companions spawn.
type Player struct {
	name       string
	body       Physics
	session    *Session
	companions []string

	visible    bool
	frozen     bool
	aggressive bool
	inoffensive bool
	invulnerable bool
	invincible   bool
	immortal     bool
	secondary    bool
	focusable    bool
	turbo        bool

	underwater          bool
	forciblyUnderwater  bool
	forciblyOutOfWater  bool
	breathTime          float64

	shield    Shield
	hlockTime float64
}

func New(name string, body Physics, session *Session, companions []string) *Player {
	return &Player{
		name:       name,
		body:       body,
		session:    session,
		companions: companions,
		visible:    true,
		focusable:  true,
		breathTime: 30.0,
	}
}

func (p *Player) Name() string         { return p.name }
func (p *Player) Body() Physics        { return p.body }
func (p *Player) Session() *Session    { return p.session }
func (p *Player) Companions() []string { return p.companions }

// TransformInto switches the player to another character: the name and
// companion set change; the physics body stays.
func (p *Player) TransformInto(name string, companions []string) {
	p.name = name
	p.companions = companions
}

func (p *Player) Visible() bool      { return p.visible }
func (p *Player) SetVisible(on bool) { p.visible = on }

func (p *Player) Frozen() bool      { return p.frozen }
func (p *Player) SetFrozen(on bool) { p.frozen = on }

func (p *Player) Aggressive() bool      { return p.aggressive }
func (p *Player) SetAggressive(on bool) { p.aggressive = on }

func (p *Player) Inoffensive() bool      { return p.inoffensive }
func (p *Player) SetInoffensive(on bool) { p.inoffensive = on }

func (p *Player) Invulnerable() bool      { return p.invulnerable }
func (p *Player) SetInvulnerable(on bool) { p.invulnerable = on }

func (p *Player) Invincible() bool      { return p.invincible }
func (p *Player) SetInvincible(on bool) { p.invincible = on }

func (p *Player) Immortal() bool      { return p.immortal }
func (p *Player) SetImmortal(on bool) { p.immortal = on }

func (p *Player) Secondary() bool      { return p.secondary }
func (p *Player) SetSecondary(on bool) { p.secondary = on }

func (p *Player) Focusable() bool      { return p.focusable }
func (p *Player) SetFocusable(on bool) { p.focusable = on }

func (p *Player) Turbo() bool      { return p.turbo }
func (p *Player) SetTurbo(on bool) { p.turbo = on }

// Underwater reports the effective underwater status, honoring the
// forcibly-underwater and forcibly-out-of-water overrides.
func (p *Player) Underwater() bool {
	if p.forciblyUnderwater {
		return true
	}
	if p.forciblyOutOfWater {
		return false
	}
	return p.underwater
}

func (p *Player) SetBelowWaterLevel(on bool)    { p.underwater = on }
func (p *Player) ForciblyUnderwater() bool      { return p.forciblyUnderwater }
func (p *Player) SetForciblyUnderwater(on bool) { p.forciblyUnderwater = on }
func (p *Player) ForciblyOutOfWater() bool      { return p.forciblyOutOfWater }
func (p *Player) SetForciblyOutOfWater(on bool) { p.forciblyOutOfWater = on }

func (p *Player) BreathTime() float64           { return p.breathTime }
func (p *Player) SetBreathTime(seconds float64) { p.breathTime = seconds }

func (p *Player) Shield() Shield       { return p.shield }
func (p *Player) GrantShield(s Shield) { p.shield = s }

// Hlock locks horizontal input for a number of seconds. Non-positive
// durations are ignored.
func (p *Player) Hlock(seconds float64) {
	if seconds > 0 {
		p.hlockTime = seconds
	}
}

func (p *Player) HlockRemaining() float64 { return p.hlockTime }

// TickHlock counts the input lock down; called once per frame.
func (p *Player) TickHlock(dt float64) {
	p.hlockTime -= dt
	if p.hlockTime < 0 {
		p.hlockTime = 0
	}
}

// Activity is the legacy aggregate accessor: the current state's name.
func (p *Player) Activity() string { return p.body.State().String() }

// The boolean state projection: one query per state, mutually exclusive.
func (p *Player) Stopped() bool    { return p.body.State() == Stopped }
func (p *Player) Walking() bool    { return p.body.State() == Walking }
func (p *Player) Running() bool    { return p.body.State() == Running }
func (p *Player) Jumping() bool    { return p.body.State() == Jumping }
func (p *Player) Springing() bool  { return p.body.State() == Springing }
func (p *Player) Rolling() bool    { return p.body.State() == Rolling }
func (p *Player) Charging() bool   { return p.body.State() == Charging }
func (p *Player) Pushing() bool    { return p.body.State() == Pushing }
func (p *Player) GettingHit() bool { return p.body.State() == GettingHit }
func (p *Player) Dying() bool      { return p.body.State() == Dead || p.body.State() == Drowned }
func (p *Player) Braking() bool    { return p.body.State() == Braking }
func (p *Player) Balancing() bool  { return p.body.State() == LedgeBalancing }
func (p *Player) Drowning() bool   { return p.body.State() == Drowned }
func (p *Player) Breathing() bool  { return p.body.State() == Breathing }
func (p *Player) Ducking() bool    { return p.body.State() == Ducking }
func (p *Player) LookingUp() bool  { return p.body.State() == LookingUp }
func (p *Player) Waiting() bool    { return p.body.State() == Waiting }
func (p *Player) Winning() bool    { return p.body.State() == Winning }

// Attacking reports whether contact with the player hurts enemies. The
// aggressive flag forces it, the inoffensive flag suppresses it unless
// the player is also aggressive or invincible.
func (p *Player) Attacking() bool {
	if p.aggressive {
		return true
	}
	attacking := p.invincible ||
		p.body.State() == Jumping || p.body.State() == Rolling || p.body.State() == Charging
	if p.inoffensive && !p.invincible {
		return false
	}
	return attacking
}

// Actions. The real physics reactions belong to the integrator; here they
// show up as observed state transitions.

// Bounce rebounds the player upwards off a hazard.
func (p *Player) Bounce() { p.body.SetState(Springing) }

// GetHit puts the player in the hit state unless protected.
func (p *Player) GetHit() {
	if p.invulnerable || p.invincible {
		return
	}
	if p.shield != ShieldNone {
		p.shield = ShieldNone
		p.body.SetState(GettingHit)
		return
	}
	p.body.SetState(GettingHit)
}

// Kill kills the player; underwater it drowns instead.
func (p *Player) Kill() {
	if p.Underwater() {
		p.body.SetState(Drowned)
		return
	}
	p.body.SetState(Dead)
}

// Breathe resets the breath countdown (underwater).
func (p *Player) Breathe() { p.body.SetState(Breathing) }

// Restore brings the player back to a vulnerable, neutral state.
func (p *Player) Restore() { p.body.SetState(Stopped) }

// Springify throws the player into the springing state.
func (p *Player) Springify() { p.body.SetState(Springing) }

// Roll makes the player roll.
func (p *Player) Roll() { p.body.SetState(Rolling) }
