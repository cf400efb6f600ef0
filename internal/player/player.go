package player

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"isoterra/internal/input"
	"isoterra/internal/physics"
)

const maxPitch = 89.0 * math.Pi / 180.0

// Player couples the character controller with a first-person camera. The
// camera eye sits at the controller's body center, matching the field
// samples the controller takes for eye clearance.
type Player struct {
	Controller *physics.Controller

	Yaw   float32 // radians, 0 looks down -Z
	Pitch float32

	mouseSens    float32
	flySpeedMult float32
}

// New creates a player at a starting body-center position.
func New(field physics.Field, start mgl32.Vec3, mouseSens, flySpeedMult float32) *Player {
	return &Player{
		Controller:   physics.NewController(field, start, physics.DefaultParams()),
		Yaw:          -math.Pi / 2,
		mouseSens:    mouseSens,
		flySpeedMult: flySpeedMult,
	}
}

// Look applies a mouse delta to the view angles, pitch clamped short of the
// poles.
func (p *Player) Look(dx, dy float64) {
	p.Yaw += float32(dx) * p.mouseSens
	p.Pitch += float32(dy) * p.mouseSens
	if p.Pitch > maxPitch {
		p.Pitch = maxPitch
	}
	if p.Pitch < -maxPitch {
		p.Pitch = -maxPitch
	}
}

// Forward returns the view direction.
func (p *Player) Forward() mgl32.Vec3 {
	cy := float32(math.Cos(float64(p.Yaw)))
	sy := float32(math.Sin(float64(p.Yaw)))
	cp := float32(math.Cos(float64(p.Pitch)))
	sp := float32(math.Sin(float64(p.Pitch)))
	return mgl32.Vec3{cy * cp, sp, sy * cp}
}

// Right returns the strafe direction, horizontal regardless of pitch.
func (p *Player) Right() mgl32.Vec3 {
	f := p.Forward()
	r := mgl32.Vec3{-f.Z(), 0, f.X()}
	if r.Len() < 0.001 {
		return mgl32.Vec3{1, 0, 0}
	}
	return r.Normalize()
}

// Eye returns the camera position.
func (p *Player) Eye() mgl32.Vec3 {
	return p.Controller.Position
}

// ViewMatrix returns the camera view transform.
func (p *Player) ViewMatrix() mgl32.Mat4 {
	eye := p.Eye()
	return mgl32.LookAtV(eye, eye.Add(p.Forward()), mgl32.Vec3{0, 1, 0})
}

// Update reads input, advances the controller one tick, and handles the
// noclip fly path.
func (p *Player) Update(dt float32, in *input.Manager) {
	p.Look(in.ConsumeMouseDelta())

	if in.JustPressed(input.ActionToggleNoclip) {
		p.Controller.ToggleNoclip()
	}

	if p.Controller.Noclip {
		p.updateNoclip(dt, in)
		return
	}

	moveDir := p.moveIntent(in)
	if in.JustPressed(input.ActionJump) {
		p.Controller.Jump()
	}
	p.Controller.Step(dt, moveDir)
}

// moveIntent builds the horizontal desired direction from held keys,
// relative to the view yaw.
func (p *Player) moveIntent(in *input.Manager) mgl32.Vec3 {
	forward := p.Forward()
	forward[1] = 0
	if forward.Len() > 0.001 {
		forward = forward.Normalize()
	}
	right := p.Right()

	var dir mgl32.Vec3
	if in.IsActive(input.ActionMoveForward) {
		dir = dir.Add(forward)
	}
	if in.IsActive(input.ActionMoveBackward) {
		dir = dir.Sub(forward)
	}
	if in.IsActive(input.ActionMoveRight) {
		dir = dir.Add(right)
	}
	if in.IsActive(input.ActionMoveLeft) {
		dir = dir.Sub(right)
	}
	return dir
}

// updateNoclip flies along the full view direction, vertical movement on
// jump/descend, no gravity or collision.
func (p *Player) updateNoclip(dt float32, in *input.Manager) {
	speed := p.Controller.Params().MoveSpeed * p.flySpeedMult * dt

	var delta mgl32.Vec3
	forward := p.Forward()
	right := p.Right()
	if in.IsActive(input.ActionMoveForward) {
		delta = delta.Add(forward.Mul(speed))
	}
	if in.IsActive(input.ActionMoveBackward) {
		delta = delta.Sub(forward.Mul(speed))
	}
	if in.IsActive(input.ActionMoveRight) {
		delta = delta.Add(right.Mul(speed))
	}
	if in.IsActive(input.ActionMoveLeft) {
		delta = delta.Sub(right.Mul(speed))
	}
	if in.IsActive(input.ActionJump) {
		delta[1] += speed
	}
	if in.IsActive(input.ActionDescend) {
		delta[1] -= speed
	}
	p.Controller.MoveNoclip(delta)
}
