package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ScalarField maps a world position to a signed scalar: positive inside
// solid, negative in open space, zero exactly on the surface. Implementations
// must be deterministic and free of per-call mutable state so chunk filling
// can run from any goroutine.
type ScalarField interface {
	Sample(p mgl32.Vec3) float32
}

// TerrainField is the default field: 2D octave noise shapes the surface
// height, 3D noise carves caves below ground level, and a smaller 3D octave
// adds fine surface detail.
type TerrainField struct {
	seed int64

	heightScale float64 // frequency of the surface heightmap
	heightAmp   float64 // vertical amplitude of the surface

	caveScale     float64
	caveThreshold float64 // carve where 3D noise exceeds this, below y=0
	caveValue     float32 // scalar assigned to carved space

	detailScale float64
	detailAmp   float64

	octaves     int
	persistence float64
	lacunarity  float64
}

// NewTerrainField creates the default terrain field for a seed.
func NewTerrainField(seed int64) *TerrainField {
	return &TerrainField{
		seed:          seed,
		heightScale:   1.0 / 48.0,
		heightAmp:     10.0,
		caveScale:     1.0 / 24.0,
		caveThreshold: 0.62,
		caveValue:     -5.0,
		detailScale:   1.0 / 6.0,
		detailAmp:     0.35,
		octaves:       3,
		persistence:   0.5,
		lacunarity:    2.0,
	}
}

// SurfaceHeightAt returns the large-scale terrain height at world X,Z,
// ignoring caves and detail. Used to pick a safe spawn altitude.
func (f *TerrainField) SurfaceHeightAt(x, z float32) float32 {
	n := octaveNoise2D(float64(x)*f.heightScale, float64(z)*f.heightScale,
		f.seed, f.octaves, f.persistence, f.lacunarity)
	return float32((n*2 - 1) * f.heightAmp)
}

// Sample implements ScalarField. The value is roughly the signed depth
// below the surface, so it behaves like a distance field near the
// iso-level without being an exact one.
func (f *TerrainField) Sample(p mgl32.Vec3) float32 {
	d := f.SurfaceHeightAt(p.X(), p.Z()) - p.Y()

	detail := octaveNoise3D(float64(p.X())*f.detailScale, float64(p.Y())*f.detailScale,
		float64(p.Z())*f.detailScale, f.seed+7919, f.octaves, f.persistence, f.lacunarity)
	d += float32((detail*2 - 1) * f.detailAmp)

	// Carve caves only underground so the open sky stays untouched.
	if p.Y() < 0 {
		cave := octaveNoise3D(float64(p.X())*f.caveScale, float64(p.Y())*f.caveScale,
			float64(p.Z())*f.caveScale, f.seed+104729, f.octaves, f.persistence, f.lacunarity)
		if cave > f.caveThreshold {
			return f.caveValue
		}
	}

	return d
}
