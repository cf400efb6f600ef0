package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Field is the scalar terrain the controller collides against. Positive
// inside solid, negative in open space. Gradient points into solid and is
// normalized.
type Field interface {
	Sample(p mgl32.Vec3) float32
	Gradient(p mgl32.Vec3) mgl32.Vec3
}

// Params are the tuning constants of the controller. Distances in meters,
// speeds in meters per second, angles in degrees.
type Params struct {
	Gravity      float32 // downward acceleration magnitude
	MaxFallSpeed float32
	MoveSpeed    float32
	JumpSpeed    float32
	Height       float32 // feet and head sit at +-Height/2 from center

	MaxWalkableSlope float32 // degrees from horizontal
	MaxJumpCharges   int

	AirControl     float32 // fraction of MoveSpeed applied per second airborne
	AirSpeedCap    float32 // airborne horizontal cap as multiple of MoveSpeed
	GroundFriction float32 // per-second decay with no input

	GroundDetectRange float32 // feet sample above -this counts as near ground
	GroundEmbedMin    float32 // feet sample above this gets pushed out
	GroundEmbedFrac   float32 // fraction of embed depth corrected per tick
	GroundSnapBand    float32 // feet sample above -this snaps toward surface
	GroundSnapFrac    float32

	SlideAccelFrac float32 // fraction of gravity fed down steep slopes
	SlopePenalty   float32 // max uphill speed reduction at the slope limit

	WallThreshold float32 // center sample above this counts as wall contact
	WallPushFrac  float32

	EyeClearance float32 // minimum field distance kept at the eye
	EyePushFrac  float32

	EmbedThreshold float32 // center sample above this is deeply embedded
	EmbedEscape    float32 // meters recovered per unit of excess penetration
	EmbedDamping   float32 // velocity multiplier after an escape tick
}

// DefaultParams returns the tuning the game ships with.
func DefaultParams() Params {
	return Params{
		Gravity:      20,
		MaxFallSpeed: 50,
		MoveSpeed:    8,
		JumpSpeed:    8,
		Height:       1.8,

		MaxWalkableSlope: 50,
		MaxJumpCharges:   2,

		AirControl:     0.3,
		AirSpeedCap:    1.2,
		GroundFriction: 15,

		GroundDetectRange: 0.5,
		GroundEmbedMin:    0.05,
		GroundEmbedFrac:   0.5,
		GroundSnapBand:    0.1,
		GroundSnapFrac:    0.3,

		SlideAccelFrac: 0.3,
		SlopePenalty:   0.5,

		WallThreshold: 0.05,
		WallPushFrac:  0.7,

		EyeClearance: 0.2,
		EyePushFrac:  0.3,

		EmbedThreshold: 0.8,
		EmbedEscape:    2.0,
		EmbedDamping:   0.5,
	}
}

// Controller is a scalar-field character controller. It has no collision
// shape: it samples the field at feet, head, and center offsets and steers
// with gradient-derived normals. States are recomputed every tick from the
// sampled values, never latched across ticks.
type Controller struct {
	Position mgl32.Vec3 // body center
	Velocity mgl32.Vec3

	Grounded bool
	Sliding  bool // on a slope steeper than walkable
	Noclip   bool

	JumpCharges  int
	GroundNormal mgl32.Vec3

	params Params
	field  Field
}

// NewController creates a controller at a starting center position.
func NewController(field Field, start mgl32.Vec3, params Params) *Controller {
	return &Controller{
		Position:     start,
		GroundNormal: worldUp,
		JumpCharges:  params.MaxJumpCharges,
		params:       params,
		field:        field,
	}
}

// Params returns the controller's tuning.
func (c *Controller) Params() Params {
	return c.params
}

// Jump spends one jump charge if any remain. Charges refill only when the
// controller lands, so a mid-air press grants the double jump.
func (c *Controller) Jump() bool {
	if c.Noclip || c.JumpCharges <= 0 {
		return false
	}
	c.JumpCharges--
	c.Velocity[1] = c.params.JumpSpeed
	c.Grounded = false
	return true
}

// ToggleNoclip flips free-flight mode. Entering noclip discards velocity so
// leaving it does not resume an old fall.
func (c *Controller) ToggleNoclip() {
	c.Noclip = !c.Noclip
	if c.Noclip {
		c.Velocity = mgl32.Vec3{}
		c.Grounded = false
		c.Sliding = false
	}
}

// MoveNoclip translates the controller directly, collision-free. Only
// meaningful while Noclip is set.
func (c *Controller) MoveNoclip(delta mgl32.Vec3) {
	c.Position = c.Position.Add(delta)
}

// Step advances one physics tick. moveDir is the desired horizontal travel
// direction in world space; its Y component is ignored and a zero vector
// means no input.
func (c *Controller) Step(dt float32, moveDir mgl32.Vec3) {
	if c.Noclip {
		return
	}

	c.applyMoveInput(dt, moveDir)

	p := &c.params

	// Integrate gravity, capped fall speed.
	c.Velocity[1] -= p.Gravity * dt
	if c.Velocity[1] < -p.MaxFallSpeed {
		c.Velocity[1] = -p.MaxFallSpeed
	}

	newPos := c.Position.Add(c.Velocity.Mul(dt))

	wasGrounded := c.Grounded
	c.Grounded = false
	c.Sliding = false

	// Ground detection at the feet of the candidate position.
	feet := newPos.Sub(mgl32.Vec3{0, p.Height * 0.5, 0})
	atFeet := c.field.Sample(feet)
	if atFeet > -p.GroundDetectRange && c.Velocity.Y() <= 0.5 {
		c.GroundNormal = c.field.Gradient(feet).Mul(-1)
		slope := slopeDegrees(c.GroundNormal)

		if slope <= p.MaxWalkableSlope {
			c.Grounded = true
			c.Velocity[1] = 0
			// Charges refill on the landing transition, not every tick.
			if !wasGrounded {
				c.JumpCharges = p.MaxJumpCharges
			}

			// Proportional correction, never an instant snap: push out of a
			// shallow embed; in the band just above the surface a small lift
			// offsets the per-tick gravity drop so the feet settle at a
			// hover equilibrium instead of oscillating through the surface.
			if atFeet > p.GroundEmbedMin {
				newPos[1] += atFeet * p.GroundEmbedFrac
			} else if atFeet > -p.GroundSnapBand {
				newPos[1] -= atFeet * p.GroundSnapFrac
			}
		} else {
			c.Sliding = true
			downSlope := c.GroundNormal.Sub(worldUp.Mul(c.GroundNormal.Dot(worldUp)))
			if downSlope.Len() > 0.001 {
				c.Velocity = c.Velocity.Add(downSlope.Normalize().Mul(p.Gravity * dt * p.SlideAccelFrac))
			}
		}
	}

	// Uphill movement penalty while grounded.
	if c.Grounded {
		c.modulateSlopeSpeed()
	}

	// Head collision cancels upward displacement.
	head := newPos.Add(mgl32.Vec3{0, p.Height * 0.5, 0})
	if c.field.Sample(head) > 0 {
		newPos[1] = c.Position.Y()
		if c.Velocity.Y() > 0 {
			c.Velocity[1] = 0
		}
	}

	// Wall contact: push out a fraction of the penetration and slide the
	// horizontal velocity along the tangent plane.
	atCenter := c.field.Sample(newPos)
	if atCenter > p.WallThreshold {
		wallNormal := c.field.Gradient(newPos).Mul(-1)
		newPos = newPos.Add(wallNormal.Mul(atCenter * p.WallPushFrac))

		slide := c.Velocity.Sub(wallNormal.Mul(c.Velocity.Dot(wallNormal)))
		c.Velocity[0] = slide.X()
		c.Velocity[2] = slide.Z()
	}

	c.Position = newPos

	// Eye clearance, cosmetic only: keep the camera out of the near band of
	// the surface without disturbing the collision response above.
	atEye := c.field.Sample(c.Position)
	if atEye > -p.EyeClearance && atEye < p.EyeClearance*0.5 {
		eyeNormal := c.field.Gradient(c.Position).Mul(-1)
		c.Position = c.Position.Add(eyeNormal.Mul((p.EyeClearance - atEye) * p.EyePushFrac))
	}

	// Deep-embedding escape, gradual so a bad spawn walks out over a few
	// ticks instead of teleporting.
	if atCenter > p.EmbedThreshold {
		escapeNormal := c.field.Gradient(c.Position).Mul(-1)
		c.Position = c.Position.Add(escapeNormal.Mul((atCenter - p.EmbedThreshold) * p.EmbedEscape))
		c.Velocity = c.Velocity.Mul(p.EmbedDamping)
	}
}

// applyMoveInput implements the arcade movement model: instant horizontal
// velocity on the ground, fractional steering in the air, exponential
// friction when idle on the ground.
func (c *Controller) applyMoveInput(dt float32, moveDir mgl32.Vec3) {
	p := &c.params

	dir := mgl32.Vec3{moveDir.X(), 0, moveDir.Z()}
	if dir.Len() > 0.001 {
		dir = dir.Normalize()
		if c.Grounded {
			c.Velocity[0] = dir.X() * p.MoveSpeed
			c.Velocity[2] = dir.Z() * p.MoveSpeed
		} else {
			c.Velocity[0] += dir.X() * p.MoveSpeed * p.AirControl * dt
			c.Velocity[2] += dir.Z() * p.MoveSpeed * p.AirControl * dt

			limit := p.MoveSpeed * p.AirSpeedCap
			speed := hypot32(c.Velocity.X(), c.Velocity.Z())
			if speed > limit {
				scale := limit / speed
				c.Velocity[0] *= scale
				c.Velocity[2] *= scale
			}
		}
		return
	}

	if c.Grounded {
		speed := hypot32(c.Velocity.X(), c.Velocity.Z())
		if speed > 0.001 {
			drop := speed * p.GroundFriction * dt
			newSpeed := speed - drop
			if newSpeed < 0 {
				newSpeed = 0
			}
			scale := newSpeed / speed
			c.Velocity[0] *= scale
			c.Velocity[2] *= scale
		} else {
			c.Velocity[0] = 0
			c.Velocity[2] = 0
		}
	}
}

// modulateSlopeSpeed slows uphill travel in proportion to the slope angle,
// up to SlopePenalty at the walkable limit. Downhill and flat travel keep
// full speed.
func (c *Controller) modulateSlopeSpeed() {
	p := &c.params

	horiz := mgl32.Vec3{c.Velocity.X(), 0, c.Velocity.Z()}
	if horiz.Len() <= 0.1 {
		return
	}

	right := c.GroundNormal.Cross(worldUp)
	if right.Len() < 0.001 {
		return // flat ground, nothing to modulate
	}
	right = right.Normalize()
	uphill := right.Cross(c.GroundNormal).Normalize()

	if horiz.Normalize().Dot(uphill) > 0.1 {
		slope := slopeDegrees(c.GroundNormal)
		factor := 1 - (slope/p.MaxWalkableSlope)*p.SlopePenalty
		c.Velocity[0] *= factor
		c.Velocity[2] *= factor
	}
}

// slopeDegrees returns the angle between a surface normal and world up.
func slopeDegrees(normal mgl32.Vec3) float32 {
	d := clamp32(normal.Dot(worldUp), -1, 1)
	return mgl32.RadToDeg(float32(math.Acos(float64(d))))
}

func hypot32(x, z float32) float32 {
	return float32(math.Hypot(float64(x), float64(z)))
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
