package volume

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSamplerMissingChunkSentinel(t *testing.T) {
	store := NewChunkStore(constantField(1))
	s := NewSampler(store)

	if got := s.Sample(mgl32.Vec3{100, 100, 100}); got != MissingSample {
		t.Errorf("Sample over empty store = %v, want sentinel %v", got, float32(MissingSample))
	}
}

func TestSamplerReadsResidentChunk(t *testing.T) {
	store := NewChunkStore(planeField{})
	store.GetOrCreate(ChunkCoord{0, 0, 0})
	store.GetOrCreate(ChunkCoord{0, -1, 0})
	s := NewSampler(store)

	// planeField is -y: open above the surface, solid below.
	if got := s.Sample(mgl32.Vec3{8, 4, 8}); math.Abs(float64(got+4)) > 1e-4 {
		t.Errorf("Sample above surface = %v, want -4", got)
	}
	if got := s.Sample(mgl32.Vec3{8, -4, 8}); math.Abs(float64(got-4)) > 1e-4 {
		t.Errorf("Sample below surface = %v, want 4", got)
	}
}

func TestSamplerTreatsGeneratingChunkAsMissing(t *testing.T) {
	store := NewChunkStore(constantField(1))
	s := NewSampler(store)

	coord := ChunkCoord{0, 0, 0}
	store.AddShell(coord)
	p := mgl32.Vec3{8, 8, 8}

	// A queued shell must read as absent, not as its unfilled grid.
	if got := s.Sample(p); got != MissingSample {
		t.Fatalf("Sample over queued shell = %v, want sentinel %v", got, float32(MissingSample))
	}

	store.SetState(coord, StateGenerating)
	if got := s.Sample(p); got != MissingSample {
		t.Fatalf("Sample over generating chunk = %v, want sentinel %v", got, float32(MissingSample))
	}

	// Once the worker's fill completes and the flags clear, reads see the
	// generated data.
	store.GetExisting(coord).Populate(constantField(1))
	store.ClearState(coord, StateGenQueued|StateGenerating)
	if got := s.Sample(p); got != 1 {
		t.Errorf("Sample after generation = %v, want 1", got)
	}
}

func TestSamplerGradientPointsIntoSolid(t *testing.T) {
	store := NewChunkStore(planeField{})
	store.GetOrCreate(ChunkCoord{0, 0, 0})
	s := NewSampler(store)

	g := s.Gradient(mgl32.Vec3{8, 4, 8})
	if g.Y() >= 0 {
		t.Errorf("gradient %v should point down toward solid", g)
	}
	if math.Abs(float64(g.Len()-1)) > 1e-4 {
		t.Errorf("gradient not normalized: |g| = %v", g.Len())
	}

	n := s.SurfaceNormal(mgl32.Vec3{8, 4, 8})
	if n.Y() <= 0 {
		t.Errorf("surface normal %v should point up into open space", n)
	}
}

func TestSamplerGradientDegenerateFallsBackToUp(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	store.GetOrCreate(ChunkCoord{0, 0, 0})
	s := NewSampler(store)

	g := s.Gradient(mgl32.Vec3{8, 8, 8})
	if g != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("degenerate gradient = %v, want up fallback", g)
	}
}
