package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"isoterra/internal/profiling"
	"isoterra/internal/volume"
)

const (
	// isoLevel is the surface threshold: the field crosses zero there.
	isoLevel = 0.0

	// interpEpsilon guards edge interpolation against near-zero spans.
	interpEpsilon = 1e-5

	// normalStep is the central-difference half-width for vertex normals,
	// half a voxel so the stencil stays inside the cell neighborhood.
	normalStep = volume.VoxelSize * 0.5

	// VertexStride is floats per vertex: position xyz then encoded normal rgb.
	VertexStride = 6
)

// BuildChunkMesh runs marching cubes over every cell of the chunk and
// returns a flat triangle soup, VertexStride floats per vertex, positions in
// world space. Vertices are not shared between triangles. The normal is
// packed into the color channel as n*0.5+0.5 for the shader to decode.
//
// The grid is read-only here, so meshing may run concurrently with sampling
// as long as the chunk is not evicted; callers hold the uploading flag for
// that.
func BuildChunkMesh(chunk *volume.VolumeChunk) []float32 {
	defer profiling.Track("mesh.BuildChunkMesh")()

	var out []float32

	var corners [8]mgl32.Vec3
	var values [8]float32
	var verts [12]mgl32.Vec3

	origin := chunk.WorldMin
	for z := 0; z < volume.ChunkCubes; z++ {
		for y := 0; y < volume.ChunkCubes; y++ {
			for x := 0; x < volume.ChunkCubes; x++ {
				cubeIndex := 0
				for i, off := range cornerOffsets {
					cx, cy, cz := x+off[0], y+off[1], z+off[2]
					values[i] = chunk.At(cx, cy, cz)
					corners[i] = mgl32.Vec3{
						origin.X() + float32(cx)*volume.VoxelSize,
						origin.Y() + float32(cy)*volume.VoxelSize,
						origin.Z() + float32(cz)*volume.VoxelSize,
					}
					if values[i] < isoLevel {
						cubeIndex |= 1 << i
					}
				}

				edges := edgeTable[cubeIndex]
				if edges == 0 {
					continue
				}

				for e := 0; e < 12; e++ {
					if edges&(1<<e) == 0 {
						continue
					}
					a, b := cornerEdges[e][0], cornerEdges[e][1]
					verts[e] = interpVertex(corners[a], corners[b], values[a], values[b])
				}

				tri := &triTable[cubeIndex]
				for t := 0; tri[t] != -1; t += 3 {
					out = appendVertex(out, chunk, verts[tri[t]])
					out = appendVertex(out, chunk, verts[tri[t+1]])
					out = appendVertex(out, chunk, verts[tri[t+2]])
				}
			}
		}
	}

	return out
}

// interpVertex places a vertex on the zero crossing of the edge from p1 to
// p2. Degenerate spans snap to an endpoint instead of dividing by ~0.
func interpVertex(p1, p2 mgl32.Vec3, v1, v2 float32) mgl32.Vec3 {
	if abs32(isoLevel-v1) < interpEpsilon {
		return p1
	}
	if abs32(isoLevel-v2) < interpEpsilon {
		return p2
	}
	if abs32(v1-v2) < interpEpsilon {
		return p1
	}
	t := (isoLevel - v1) / (v2 - v1)
	return p1.Add(p2.Sub(p1).Mul(t))
}

// appendVertex emits position plus the encoded surface normal at a world
// position. The normal comes from the chunk-local trilinear field, which
// clamps at chunk borders; adjacent chunks share boundary lattice planes so
// seams stay closed even though border normals are one-sided.
func appendVertex(dst []float32, chunk *volume.VolumeChunk, p mgl32.Vec3) []float32 {
	local := p.Sub(chunk.WorldMin)

	g := mgl32.Vec3{
		chunk.Sample(mgl32.Vec3{local.X() + normalStep, local.Y(), local.Z()}) - chunk.Sample(mgl32.Vec3{local.X() - normalStep, local.Y(), local.Z()}),
		chunk.Sample(mgl32.Vec3{local.X(), local.Y() + normalStep, local.Z()}) - chunk.Sample(mgl32.Vec3{local.X(), local.Y() - normalStep, local.Z()}),
		chunk.Sample(mgl32.Vec3{local.X(), local.Y(), local.Z() + normalStep}) - chunk.Sample(mgl32.Vec3{local.X(), local.Y(), local.Z() - normalStep}),
	}

	var n mgl32.Vec3
	if g.LenSqr() < 1e-12 {
		n = mgl32.Vec3{0, 1, 0}
	} else {
		// Field increases into solid, so the outward normal is -gradient.
		n = g.Normalize().Mul(-1)
	}

	return append(dst,
		p.X(), p.Y(), p.Z(),
		n.X()*0.5+0.5, n.Y()*0.5+0.5, n.Z()*0.5+0.5,
	)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
