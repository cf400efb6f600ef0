package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// analyticField adapts a closed-form scalar function to the Field interface,
// with the same central-difference gradient the live sampler uses.
type analyticField struct {
	f func(mgl32.Vec3) float32
}

func (a analyticField) Sample(p mgl32.Vec3) float32 { return a.f(p) }

func (a analyticField) Gradient(p mgl32.Vec3) mgl32.Vec3 {
	const step = 0.1
	g := mgl32.Vec3{
		a.f(mgl32.Vec3{p.X() + step, p.Y(), p.Z()}) - a.f(mgl32.Vec3{p.X() - step, p.Y(), p.Z()}),
		a.f(mgl32.Vec3{p.X(), p.Y() + step, p.Z()}) - a.f(mgl32.Vec3{p.X(), p.Y() - step, p.Z()}),
		a.f(mgl32.Vec3{p.X(), p.Y(), p.Z() + step}) - a.f(mgl32.Vec3{p.X(), p.Y(), p.Z() - step}),
	}
	if g.LenSqr() < 1e-12 {
		return mgl32.Vec3{0, 1, 0}
	}
	return g.Normalize()
}

// flatGround is solid below y=0.
func flatGround() Field {
	return analyticField{f: func(p mgl32.Vec3) float32 { return -p.Y() }}
}

// tiltedGround is a planar surface through the origin whose normal leans
// angleDeg from vertical toward +X. Solid on the far side of the plane.
func tiltedGround(angleDeg float64) Field {
	rad := angleDeg * math.Pi / 180
	n := mgl32.Vec3{float32(math.Sin(rad)), float32(math.Cos(rad)), 0}
	return analyticField{f: func(p mgl32.Vec3) float32 { return -p.Dot(n) }}
}

const tickDt = float32(1.0 / 60.0)

func settle(c *Controller, ticks int) {
	for i := 0; i < ticks; i++ {
		c.Step(tickDt, mgl32.Vec3{})
	}
}

func TestSettlesOnFlatGround(t *testing.T) {
	c := NewController(flatGround(), mgl32.Vec3{0, 5, 0}, DefaultParams())

	settle(c, 600)

	if !c.Grounded {
		t.Fatal("controller never grounded above flat terrain")
	}
	if c.Velocity.Y() != 0 {
		t.Errorf("vertical velocity %v after settling, want 0", c.Velocity.Y())
	}
	// Feet should rest at the surface, center at half height.
	if got := c.Position.Y(); math.Abs(float64(got-0.9)) > 0.3 {
		t.Errorf("settled center height %v, want about 0.9", got)
	}
}

func TestSteepSlopeNeverGrounds(t *testing.T) {
	params := DefaultParams()
	field := tiltedGround(70) // well past the walkable threshold
	c := NewController(field, mgl32.Vec3{0, params.Height / 2, 0}, params)

	prevSlide := float32(0)
	for i := 0; i < 45; i++ {
		c.Step(tickDt, mgl32.Vec3{})
		if c.Grounded {
			t.Fatalf("grounded on a 70 degree slope at tick %d", i)
		}
		slide := float32(math.Hypot(float64(c.Velocity.X()), float64(c.Velocity.Z())))
		if slide < prevSlide-1e-4 {
			t.Fatalf("slide speed decreased at tick %d: %v -> %v", i, prevSlide, slide)
		}
		prevSlide = slide
	}
	if prevSlide == 0 {
		t.Error("no slide velocity accumulated on a steep slope")
	}
}

func TestSlideAcceleratesDownhill(t *testing.T) {
	params := DefaultParams()
	c := NewController(tiltedGround(70), mgl32.Vec3{0, params.Height / 2, 0}, params)

	settle(c, 30)

	// The plane normal leans toward +X, so downhill is +X.
	if c.Velocity.X() <= 0 {
		t.Errorf("slide velocity %v should point downhill (+X)", c.Velocity)
	}
}

func TestJumpCharges(t *testing.T) {
	params := DefaultParams()
	c := NewController(flatGround(), mgl32.Vec3{0, 5, 0}, params)
	settle(c, 600)
	if !c.Grounded {
		t.Fatal("setup: controller must start grounded")
	}
	if c.JumpCharges != params.MaxJumpCharges {
		t.Fatalf("setup: charges = %d, want %d", c.JumpCharges, params.MaxJumpCharges)
	}

	if !c.Jump() {
		t.Fatal("first jump refused while grounded")
	}
	if c.JumpCharges != params.MaxJumpCharges-1 {
		t.Errorf("charges after first jump = %d, want %d", c.JumpCharges, params.MaxJumpCharges-1)
	}
	if c.Velocity.Y() != params.JumpSpeed {
		t.Errorf("jump velocity %v, want %v", c.Velocity.Y(), params.JumpSpeed)
	}
	if c.Grounded {
		t.Error("still grounded immediately after jump")
	}

	// A few airborne ticks, then the double jump.
	settle(c, 10)
	if !c.Jump() {
		t.Fatal("double jump refused with one charge left")
	}
	if c.JumpCharges != 0 {
		t.Errorf("charges after double jump = %d, want 0", c.JumpCharges)
	}

	velBefore := c.Velocity
	if c.Jump() {
		t.Error("third jump succeeded with zero charges")
	}
	if c.Velocity != velBefore {
		t.Error("failed jump changed velocity")
	}

	// Land again: charges refill exactly on the grounded transition.
	settle(c, 600)
	if !c.Grounded {
		t.Fatal("controller never landed after jumping")
	}
	if c.JumpCharges != params.MaxJumpCharges {
		t.Errorf("charges after landing = %d, want %d", c.JumpCharges, params.MaxJumpCharges)
	}
}

func TestDeepEmbedEscape(t *testing.T) {
	params := DefaultParams()
	// Gentle vertical falloff keeps the whole neighborhood deeply embedded
	// so escape progress is attributable to the correction alone.
	field := analyticField{f: func(p mgl32.Vec3) float32 { return 1.2 - 0.05*p.Y() }}
	c := NewController(field, mgl32.Vec3{0, 0, 0}, params)
	c.Velocity = mgl32.Vec3{1, 0, 0}

	prevSample := field.Sample(c.Position)
	if prevSample <= params.EmbedThreshold {
		t.Fatalf("setup: start sample %v must exceed threshold %v", prevSample, params.EmbedThreshold)
	}
	prevSpeed := c.Velocity.Len()

	for i := 0; i < 200; i++ {
		c.Step(tickDt, mgl32.Vec3{})
		sample := field.Sample(c.Position)
		speed := c.Velocity.Len()

		if prevSample > params.EmbedThreshold {
			if sample >= prevSample {
				t.Fatalf("embedding sample did not decrease at tick %d: %v -> %v", i, prevSample, sample)
			}
			if speed >= prevSpeed && prevSpeed > 1e-5 {
				t.Fatalf("speed did not decrease during escape at tick %d: %v -> %v", i, prevSpeed, speed)
			}
		}

		prevSample = sample
		prevSpeed = speed
		if sample <= params.EmbedThreshold {
			return // escaped
		}
	}
	t.Fatalf("still embedded after 200 ticks, sample %v", prevSample)
}

func TestHeadCollisionStopsAscent(t *testing.T) {
	params := DefaultParams()
	// Ceiling: solid above y=3, floor solid below y=0.
	field := analyticField{f: func(p mgl32.Vec3) float32 {
		floor := -p.Y()
		ceiling := p.Y() - 3
		if floor > ceiling {
			return floor
		}
		return ceiling
	}}
	c := NewController(field, mgl32.Vec3{0, 5, 0}, params)
	settle(c, 600)
	if !c.Grounded {
		t.Fatal("setup: did not land on the floor")
	}

	c.Jump()
	peak := c.Position.Y()
	for i := 0; i < 120; i++ {
		c.Step(tickDt, mgl32.Vec3{})
		if y := c.Position.Y(); y > peak {
			peak = y
		}
	}

	// Head is at center + height/2; the ceiling surface is y=3.
	if peak+params.Height/2 > 3.3 {
		t.Errorf("head reached %v, ceiling at 3", peak+params.Height/2)
	}
}

func TestWallSlidePreservesTangentMotion(t *testing.T) {
	params := DefaultParams()
	// Wall: solid beyond x=2, flat floor below y=0.
	field := analyticField{f: func(p mgl32.Vec3) float32 {
		floor := -p.Y()
		wall := p.X() - 2
		if floor > wall {
			return floor
		}
		return wall
	}}
	c := NewController(field, mgl32.Vec3{0, 5, 0}, params)
	settle(c, 600)
	if !c.Grounded {
		t.Fatal("setup: did not land")
	}

	// Run diagonally into the wall.
	dir := mgl32.Vec3{1, 0, 1}
	for i := 0; i < 300; i++ {
		c.Step(tickDt, dir)
	}

	if c.Position.X() > 2.3 {
		t.Errorf("pushed through the wall to x=%v", c.Position.X())
	}
	if c.Velocity.Z() <= 0 {
		t.Errorf("tangent velocity lost against the wall: %v", c.Velocity)
	}
	if c.Position.Z() < 1 {
		t.Errorf("no slide progress along the wall: z=%v", c.Position.Z())
	}
}

func TestNoclipSkipsPhysics(t *testing.T) {
	c := NewController(flatGround(), mgl32.Vec3{0, 5, 0}, DefaultParams())
	c.ToggleNoclip()

	c.Step(tickDt, mgl32.Vec3{1, 0, 0})
	if c.Velocity != (mgl32.Vec3{}) {
		t.Errorf("noclip tick changed velocity: %v", c.Velocity)
	}
	if c.Position != (mgl32.Vec3{0, 5, 0}) {
		t.Errorf("noclip tick moved the controller: %v", c.Position)
	}

	c.MoveNoclip(mgl32.Vec3{0, -10, 0})
	if c.Position.Y() != -5 {
		t.Errorf("MoveNoclip ignored: %v", c.Position)
	}
	if c.Jump() {
		t.Error("jump succeeded in noclip")
	}
}

func TestGroundFrictionStopsMotion(t *testing.T) {
	c := NewController(flatGround(), mgl32.Vec3{0, 5, 0}, DefaultParams())
	settle(c, 600)

	// Get moving, then release input.
	for i := 0; i < 30; i++ {
		c.Step(tickDt, mgl32.Vec3{1, 0, 0})
	}
	if c.Velocity.X() <= 0 {
		t.Fatal("setup: no horizontal speed built up")
	}

	settle(c, 120)
	if speed := math.Hypot(float64(c.Velocity.X()), float64(c.Velocity.Z())); speed > 0.01 {
		t.Errorf("residual speed %v after releasing input, want ~0", speed)
	}
}

func TestAirborneSpeedCapped(t *testing.T) {
	params := DefaultParams()
	c := NewController(flatGround(), mgl32.Vec3{0, 50, 0}, params)

	// High above the floor, hold a direction: air control accelerates but
	// never past the cap.
	limit := params.MoveSpeed * params.AirSpeedCap
	for i := 0; i < 120; i++ {
		c.Step(tickDt, mgl32.Vec3{1, 0, 0})
		speed := float32(math.Hypot(float64(c.Velocity.X()), float64(c.Velocity.Z())))
		if speed > limit+1e-3 {
			t.Fatalf("airborne speed %v exceeds cap %v at tick %d", speed, limit, i)
		}
	}
}
