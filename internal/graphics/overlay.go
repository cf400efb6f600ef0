package graphics

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const overlayVertShader = `
#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aUV;

out vec2 vUV;

void main() {
    vUV = aUV;
    gl_Position = vec4(aPos, 0.0, 1.0);
}
`

const overlayFragShader = `
#version 410 core
in vec2 vUV;

uniform sampler2D tex;

out vec4 FragColor;

void main() {
    FragColor = texture(tex, vUV);
}
`

const (
	overlayLineHeight = 14 // basicfont.Face7x13 ascent+descent plus a little air
	overlayPadding    = 4
)

// Overlay draws debug text lines in the top-left corner. Text is rasterized
// on the CPU with a fixed 7x13 bitmap face into a texture that only
// re-uploads when the content changes. GL thread only.
type Overlay struct {
	shader *Shader
	vao    uint32
	vbo    uint32
	tex    uint32

	img      *image.RGBA
	screenW  int
	screenH  int
	lastText string

	Visible bool
}

// NewOverlay creates the overlay for a screen size in pixels.
func NewOverlay(screenW, screenH int) (*Overlay, error) {
	shader, err := NewShaderFromSource(overlayVertShader, overlayFragShader)
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		shader:  shader,
		screenW: screenW,
		screenH: screenH,
		Visible: true,
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	gl.GenTextures(1, &o.tex)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	return o, nil
}

// SetLines rasterizes the given lines and uploads the texture if the text
// changed since the last call.
func (o *Overlay) SetLines(lines []string) {
	joined := ""
	maxW := 0
	for _, line := range lines {
		joined += line + "\n"
		if w := len(line) * 7; w > maxW {
			maxW = w
		}
	}
	if joined == o.lastText {
		return
	}
	o.lastText = joined

	w := maxW + 2*overlayPadding
	h := len(lines)*overlayLineHeight + 2*overlayPadding
	if w <= 2*overlayPadding || h <= 2*overlayPadding {
		o.img = nil
		return
	}

	if o.img == nil || o.img.Bounds().Dx() != w || o.img.Bounds().Dy() != h {
		o.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.Draw(o.img, o.img.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 140}), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  o.img,
		Src:  image.White,
		Face: basicfont.Face7x13,
	}
	y := overlayPadding + basicfont.Face7x13.Ascent
	for _, line := range lines {
		d.Dot = fixed.P(overlayPadding, y)
		d.DrawString(line)
		y += overlayLineHeight
	}

	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(o.img.Pix))

	o.uploadQuad(w, h)
}

// uploadQuad places the text panel in the top-left corner in clip space.
func (o *Overlay) uploadQuad(w, h int) {
	x0 := float32(-1)
	y0 := float32(1)
	x1 := x0 + 2*float32(w)/float32(o.screenW)
	y1 := y0 - 2*float32(h)/float32(o.screenH)

	verts := []float32{
		x0, y0, 0, 0,
		x0, y1, 0, 1,
		x1, y1, 1, 1,
		x0, y0, 0, 0,
		x1, y1, 1, 1,
		x1, y0, 1, 0,
	}
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.DYNAMIC_DRAW)
	gl.BindVertexArray(0)
}

// Render draws the panel over the scene.
func (o *Overlay) Render() {
	if !o.Visible || o.img == nil {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	o.shader.Use()
	o.shader.SetInt("tex", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.tex)
	gl.BindVertexArray(o.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
}

// Dispose releases GPU resources.
func (o *Overlay) Dispose() {
	gl.DeleteVertexArrays(1, &o.vao)
	gl.DeleteBuffers(1, &o.vbo)
	gl.DeleteTextures(1, &o.tex)
	o.shader.Delete()
}
