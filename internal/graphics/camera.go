package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	fovDegrees = 70.0
	nearPlane  = 0.1
	farPlane   = 1000.0
)

// ProjectionMatrix returns the perspective projection for a viewport.
func ProjectionMatrix(width, height int) mgl32.Mat4 {
	aspect := float32(width) / float32(height)
	return mgl32.Perspective(mgl32.DegToRad(fovDegrees), aspect, nearPlane, farPlane)
}
