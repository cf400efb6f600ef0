package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// gradientStep is the central-difference half-width for Gradient, in meters.
const gradientStep = 0.1

// Sampler reads the scalar field through resident chunks. Positions outside
// any resident chunk report MissingSample, which callers treat as far open
// space. A Sampler itself also satisfies ScalarField.
type Sampler struct {
	store *ChunkStore
}

// NewSampler creates a sampler over the store.
func NewSampler(store *ChunkStore) *Sampler {
	return &Sampler{store: store}
}

// Sample trilinearly interpolates the field at a world position, or returns
// MissingSample when the containing chunk is not resident. Chunks still being
// filled by a generation worker count as missing so the read never touches a
// grid under construction.
func (s *Sampler) Sample(p mgl32.Vec3) float32 {
	coord := WorldToChunkCoord(p)
	chunk := s.store.GetReady(coord)
	if chunk == nil {
		return MissingSample
	}
	return chunk.Sample(p.Sub(chunk.WorldMin))
}

// Gradient estimates the normalized field gradient at a world position by
// central differences. The gradient points from open space into solid, so
// its negation is the outward surface normal. Falls back to world up when
// the difference degenerates, which happens deep inside uniform regions or
// across missing chunks.
func (s *Sampler) Gradient(p mgl32.Vec3) mgl32.Vec3 {
	g := mgl32.Vec3{
		s.Sample(mgl32.Vec3{p.X() + gradientStep, p.Y(), p.Z()}) - s.Sample(mgl32.Vec3{p.X() - gradientStep, p.Y(), p.Z()}),
		s.Sample(mgl32.Vec3{p.X(), p.Y() + gradientStep, p.Z()}) - s.Sample(mgl32.Vec3{p.X(), p.Y() - gradientStep, p.Z()}),
		s.Sample(mgl32.Vec3{p.X(), p.Y(), p.Z() + gradientStep}) - s.Sample(mgl32.Vec3{p.X(), p.Y(), p.Z() - gradientStep}),
	}
	if g.LenSqr() < 1e-12 {
		return mgl32.Vec3{0, 1, 0}
	}
	return g.Normalize()
}

// SurfaceNormal returns the outward surface normal at a world position,
// pointing from solid into open space.
func (s *Sampler) SurfaceNormal(p mgl32.Vec3) mgl32.Vec3 {
	return s.Gradient(p).Mul(-1)
}
