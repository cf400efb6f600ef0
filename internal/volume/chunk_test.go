package volume

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// constantField returns the same scalar everywhere.
type constantField float32

func (c constantField) Sample(mgl32.Vec3) float32 { return float32(c) }

// planeField is solid below y=0: f(p) = -p.Y.
type planeField struct{}

func (planeField) Sample(p mgl32.Vec3) float32 { return -p.Y() }

func TestWorldToChunkCoordRoundTrip(t *testing.T) {
	coords := []ChunkCoord{
		{0, 0, 0},
		{3, 1, -2},
		{-1, -1, -1},
		{-7, 4, 100},
	}
	offsets := []float32{0, 0.5, ChunkWorldSize / 2, ChunkWorldSize - 0.001}

	for _, c := range coords {
		origin := ChunkToWorldOrigin(c)
		for _, off := range offsets {
			p := origin.Add(mgl32.Vec3{off, off, off})
			if got := WorldToChunkCoord(p); got != c {
				t.Errorf("WorldToChunkCoord(%v + %v) = %v, want %v", origin, off, got, c)
			}
		}
	}
}

func TestWorldToChunkCoordNeighbor(t *testing.T) {
	origin := ChunkToWorldOrigin(ChunkCoord{-2, 0, 5})

	p := origin.Add(mgl32.Vec3{ChunkWorldSize, 0.5, 0.5})
	if got := WorldToChunkCoord(p); got != (ChunkCoord{-1, 0, 5}) {
		t.Errorf("offset past +X edge: got %v, want {-1 0 5}", got)
	}

	p = origin.Add(mgl32.Vec3{-0.001, 0.5, 0.5})
	if got := WorldToChunkCoord(p); got != (ChunkCoord{-3, 0, 5}) {
		t.Errorf("offset past -X edge: got %v, want {-3 0 5}", got)
	}
}

func TestChunkAtSetAtBounds(t *testing.T) {
	c := NewVolumeChunk(ChunkCoord{0, 0, 0})

	c.SetAt(5, 6, 7, 2.5)
	if got := c.At(5, 6, 7); got != 2.5 {
		t.Errorf("At(5,6,7) = %v, want 2.5", got)
	}

	if got := c.At(-1, 0, 0); got != MissingSample {
		t.Errorf("out-of-range At = %v, want sentinel %v", got, float32(MissingSample))
	}
	if got := c.At(0, GridSize, 0); got != MissingSample {
		t.Errorf("out-of-range At = %v, want sentinel %v", got, float32(MissingSample))
	}

	// Out-of-range writes must be dropped, not panic.
	c.SetAt(GridSize, 0, 0, 99)
}

func TestTrilinearLatticeExactness(t *testing.T) {
	c := NewVolumeChunk(ChunkCoord{0, 0, 0})
	c.Populate(NewTerrainField(42))

	points := [][3]int{{0, 0, 0}, {1, 2, 3}, {16, 16, 16}, {32, 32, 32}, {32, 0, 7}}
	for _, pt := range points {
		stored := c.At(pt[0], pt[1], pt[2])
		local := mgl32.Vec3{
			float32(pt[0]) * VoxelSize,
			float32(pt[1]) * VoxelSize,
			float32(pt[2]) * VoxelSize,
		}
		got := c.Sample(local)
		if math.Abs(float64(got-stored)) > 1e-4 {
			t.Errorf("Sample at lattice %v = %v, stored %v", pt, got, stored)
		}
	}
}

func TestTrilinearMidpoint(t *testing.T) {
	c := NewVolumeChunk(ChunkCoord{0, 0, 0})
	c.SetAt(0, 0, 0, 1)
	c.SetAt(1, 0, 0, 3)

	got := c.Sample(mgl32.Vec3{VoxelSize * 0.5, 0, 0})
	if math.Abs(float64(got-2)) > 1e-5 {
		t.Errorf("midpoint sample = %v, want 2", got)
	}
}

func TestSampleClampsOutOfRange(t *testing.T) {
	c := NewVolumeChunk(ChunkCoord{0, 0, 0})
	c.Populate(constantField(3))

	if got := c.Sample(mgl32.Vec3{-5, -5, -5}); math.Abs(float64(got-3)) > 1e-4 {
		t.Errorf("clamped sample below range = %v, want 3", got)
	}
	if got := c.Sample(mgl32.Vec3{100, 100, 100}); math.Abs(float64(got-3)) > 1e-4 {
		t.Errorf("clamped sample above range = %v, want 3", got)
	}
}

func hashGrid(c *VolumeChunk) [32]byte {
	h := sha256.New()
	var buf [4]byte
	for z := 0; z < GridSize; z++ {
		for y := 0; y < GridSize; y++ {
			for x := 0; x < GridSize; x++ {
				binary.LittleEndian.PutUint32(buf[:], math.Float32bits(c.At(x, y, z)))
				h.Write(buf[:])
			}
		}
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func TestPopulateDeterminism(t *testing.T) {
	coords := []ChunkCoord{{0, 0, 0}, {2, -1, 3}, {-4, 0, -4}}
	for _, coord := range coords {
		c1 := NewVolumeChunk(coord)
		c1.Populate(NewTerrainField(12345))
		c2 := NewVolumeChunk(coord)
		c2.Populate(NewTerrainField(12345))
		if hashGrid(c1) != hashGrid(c2) {
			t.Errorf("chunk %v not deterministic for same seed", coord)
		}

		c3 := NewVolumeChunk(coord)
		c3.Populate(NewTerrainField(54321))
		if hashGrid(c1) == hashGrid(c3) {
			t.Errorf("chunk %v identical across different seeds", coord)
		}
	}
}

func TestChunkStateBusy(t *testing.T) {
	var s ChunkState
	if s.Busy() {
		t.Error("zero state reported busy")
	}
	for _, flag := range []ChunkState{StateGenQueued, StateGenerating, StateUploading} {
		if !flag.Busy() {
			t.Errorf("flag %b not reported busy", flag)
		}
	}
	combined := StateGenQueued | StateUploading
	if !combined.Busy() {
		t.Error("combined flags not reported busy")
	}
}
