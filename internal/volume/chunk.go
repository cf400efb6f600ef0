package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ChunkCubes is the number of marching-cubes cells per chunk edge.
	ChunkCubes = 32

	// GridSize is the number of scalar samples per chunk edge. One more than
	// ChunkCubes so cube corners on the positive boundary coincide with the
	// neighbor chunk's first lattice plane.
	GridSize = ChunkCubes + 1

	// ChunkWorldSize is the world-space edge length of a chunk in meters.
	ChunkWorldSize = 16.0

	// VoxelSize is the world-space edge length of one cube cell.
	VoxelSize = ChunkWorldSize / ChunkCubes

	// MissingSample is returned when sampling outside any resident chunk:
	// far open space, so callers degrade to "no surface here".
	MissingSample = -10.0
)

// ChunkCoord identifies a chunk in the uniform 3D grid of chunks.
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkState is a per-chunk busy bitmask. It only defers eviction, it never
// blocks reads. Read and written via ChunkStore accessors while the store
// lock is held.
type ChunkState uint8

const (
	StateGenQueued ChunkState = 1 << iota // queued for async generation
	StateGenerating                       // a worker is filling the grid
	StateUploading                        // mesh build/upload in flight
)

// Busy reports whether any lifecycle flag is set.
func (s ChunkState) Busy() bool {
	return s != 0
}

// VolumeChunk owns a dense GridSize³ scalar grid plus its world placement.
// Sign convention: value > 0 inside solid, < 0 in open space, 0 on the
// surface. The grid dimension is constant for the lifetime of the program.
type VolumeChunk struct {
	Coord    ChunkCoord
	WorldMin mgl32.Vec3
	WorldMax mgl32.Vec3

	grid  []float32 // flat GridSize³ buffer, see gridIndex
	state ChunkState
}

// NewVolumeChunk allocates a chunk at the given coordinate with its grid
// initialized to open space.
func NewVolumeChunk(coord ChunkCoord) *VolumeChunk {
	c := &VolumeChunk{
		Coord: coord,
		grid:  make([]float32, GridSize*GridSize*GridSize),
	}
	c.WorldMin = ChunkToWorldOrigin(coord)
	c.WorldMax = c.WorldMin.Add(mgl32.Vec3{ChunkWorldSize, ChunkWorldSize, ChunkWorldSize})
	for i := range c.grid {
		c.grid[i] = -1
	}
	return c
}

// gridIndex converts lattice coordinates to a flat buffer index.
func gridIndex(x, y, z int) int {
	return x + GridSize*(y+GridSize*z)
}

// At returns the stored scalar at a lattice point. Out-of-range coordinates
// return the open-space sentinel.
func (c *VolumeChunk) At(x, y, z int) float32 {
	if x < 0 || x >= GridSize || y < 0 || y >= GridSize || z < 0 || z >= GridSize {
		return MissingSample
	}
	return c.grid[gridIndex(x, y, z)]
}

// SetAt stores a scalar at a lattice point. Out-of-range writes are dropped.
func (c *VolumeChunk) SetAt(x, y, z int, v float32) {
	if x < 0 || x >= GridSize || y < 0 || y >= GridSize || z < 0 || z >= GridSize {
		return
	}
	c.grid[gridIndex(x, y, z)] = v
}

// Populate fills the whole grid by sampling the field at every lattice
// point. This is the only path that writes bulk grid data.
func (c *VolumeChunk) Populate(f ScalarField) {
	origin := c.WorldMin
	for z := 0; z < GridSize; z++ {
		for y := 0; y < GridSize; y++ {
			for x := 0; x < GridSize; x++ {
				p := mgl32.Vec3{
					origin.X() + float32(x)*VoxelSize,
					origin.Y() + float32(y)*VoxelSize,
					origin.Z() + float32(z)*VoxelSize,
				}
				c.grid[gridIndex(x, y, z)] = f.Sample(p)
			}
		}
	}
}

// Sample trilinearly interpolates the grid at a chunk-local position
// (meters from WorldMin). Coordinates are clamped into the valid lattice
// range, so sampling at an exact lattice point returns the stored value.
func (c *VolumeChunk) Sample(local mgl32.Vec3) float32 {
	vx := clampf(float64(local.X())/VoxelSize, 0, GridSize-1.001)
	vy := clampf(float64(local.Y())/VoxelSize, 0, GridSize-1.001)
	vz := clampf(float64(local.Z())/VoxelSize, 0, GridSize-1.001)

	x0 := int(vx)
	y0 := int(vy)
	z0 := int(vz)
	x1 := minInt(x0+1, GridSize-1)
	y1 := minInt(y0+1, GridSize-1)
	z1 := minInt(z0+1, GridSize-1)

	fx := float32(vx - float64(x0))
	fy := float32(vy - float64(y0))
	fz := float32(vz - float64(z0))

	// Interpolate along x, then y, then z.
	c00 := c.grid[gridIndex(x0, y0, z0)]*(1-fx) + c.grid[gridIndex(x1, y0, z0)]*fx
	c01 := c.grid[gridIndex(x0, y0, z1)]*(1-fx) + c.grid[gridIndex(x1, y0, z1)]*fx
	c10 := c.grid[gridIndex(x0, y1, z0)]*(1-fx) + c.grid[gridIndex(x1, y1, z0)]*fx
	c11 := c.grid[gridIndex(x0, y1, z1)]*(1-fx) + c.grid[gridIndex(x1, y1, z1)]*fx

	i0 := c00*(1-fy) + c10*fy
	i1 := c01*(1-fy) + c11*fy

	return i0*(1-fz) + i1*fz
}

// WorldToChunkCoord returns the coordinate of the chunk containing a world
// position. Floor, not truncation, so negative positions map correctly.
func WorldToChunkCoord(p mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(float64(p.X()) / ChunkWorldSize)),
		Y: int(math.Floor(float64(p.Y()) / ChunkWorldSize)),
		Z: int(math.Floor(float64(p.Z()) / ChunkWorldSize)),
	}
}

// ChunkToWorldOrigin returns the world-space minimum corner of a chunk.
func ChunkToWorldOrigin(coord ChunkCoord) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(coord.X) * ChunkWorldSize,
		float32(coord.Y) * ChunkWorldSize,
		float32(coord.Z) * ChunkWorldSize,
	}
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
