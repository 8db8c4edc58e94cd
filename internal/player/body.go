package player

import "github.com/dart-bird/opensurge/internal/geom"

// KinematicBody is a plain state record implementing Physics. The real
// movement integrator lives outside this core; the headless runner and
// the tests drive this record directly.
type KinematicBody struct {
	pos    geom.Vector2
	angle  float64
	scale  geom.Vector2
	speed  float64
	gsp    float64
	boxW   int
	boxH   int
	boxOff geom.Vector2 // box center offset from position
	state  State
	anim   string
}

func NewKinematicBody(pos geom.Vector2) *KinematicBody {
	return &KinematicBody{
		pos:   pos,
		scale: geom.V2(1, 1),
		boxW:  20,
		boxH:  40,
		anim:  "stopped",
	}
}

func (b *KinematicBody) Position() geom.Vector2     { return b.pos }
func (b *KinematicBody) SetPosition(p geom.Vector2) { b.pos = p }
func (b *KinematicBody) Angle() float64             { return b.angle }
func (b *KinematicBody) SetAngle(a float64)         { b.angle = a }
func (b *KinematicBody) Scale() geom.Vector2        { return b.scale }
func (b *KinematicBody) SetScale(s geom.Vector2)    { b.scale = s }
func (b *KinematicBody) Speed() float64             { return b.speed }
func (b *KinematicBody) SetSpeed(v float64)         { b.speed = v }
func (b *KinematicBody) GroundSpeed() float64       { return b.gsp }
func (b *KinematicBody) SetGroundSpeed(v float64)   { b.gsp = v }
func (b *KinematicBody) State() State               { return b.state }
func (b *KinematicBody) SetState(s State)           { b.state = s }
func (b *KinematicBody) Animation() string          { return b.anim }
func (b *KinematicBody) SetAnimation(name string)   { b.anim = name }

func (b *KinematicBody) BoundingBox() (int, int, geom.Vector2) {
	return b.boxW, b.boxH, b.pos.Add(b.boxOff)
}

// SetBoundingBox configures the collision box size and its center offset.
func (b *KinematicBody) SetBoundingBox(width, height int, offset geom.Vector2) {
	b.boxW = width
	b.boxH = height
	b.boxOff = offset
}
