package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestTerrainFieldSignConvention(t *testing.T) {
	f := NewTerrainField(1337)

	// Far above the surface must be open, far below (outside the cave carve
	// zone margin) must be solid at most columns. Probe several columns.
	for _, x := range []float32{-50, 0, 50, 123} {
		h := f.SurfaceHeightAt(x, x)

		above := f.Sample(mgl32.Vec3{x, h + 20, x})
		if above >= 0 {
			t.Errorf("column %v: sample far above surface = %v, want negative", x, above)
		}
	}
}

func TestTerrainFieldDeterministic(t *testing.T) {
	a := NewTerrainField(99)
	b := NewTerrainField(99)
	probes := []mgl32.Vec3{{0, 0, 0}, {13.5, -7.25, 101}, {-400, 12, 3}}
	for _, p := range probes {
		if a.Sample(p) != b.Sample(p) {
			t.Errorf("same seed diverged at %v", p)
		}
	}

	c := NewTerrainField(100)
	different := false
	for _, p := range probes {
		if a.Sample(p) != c.Sample(p) {
			different = true
		}
	}
	if !different {
		t.Error("different seeds produced identical samples at every probe")
	}
}

func TestTerrainFieldSurfaceHeightBounded(t *testing.T) {
	f := NewTerrainField(7)
	for _, x := range []float32{-1000, -3, 0, 17, 512} {
		h := f.SurfaceHeightAt(x, -x)
		if h < -10 || h > 10 {
			t.Errorf("surface height %v at %v outside amplitude bounds", h, x)
		}
	}
}

func TestTerrainFieldCrossesZeroNearSurface(t *testing.T) {
	f := NewTerrainField(1337)

	// Walking down a column must transition from open to solid somewhere
	// around the reported surface height.
	h := f.SurfaceHeightAt(10, 10)
	sawOpen, sawSolid := false, false
	for y := h + 5; y >= h-5; y -= 0.25 {
		v := f.Sample(mgl32.Vec3{10, y, 10})
		if v < 0 {
			sawOpen = true
		}
		if v > 0 {
			sawSolid = true
		}
	}
	if !sawOpen || !sawSolid {
		t.Errorf("column did not cross the surface: open=%v solid=%v", sawOpen, sawSolid)
	}
}
