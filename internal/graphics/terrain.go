package graphics

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"isoterra/internal/mesh"
	"isoterra/internal/profiling"
	"isoterra/internal/volume"
)

const terrainVertShader = `
#version 410 core
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;

uniform mat4 projection;
uniform mat4 view;

out vec3 vColor;
out vec3 vWorldPos;

void main() {
    vColor = aColor;
    vWorldPos = aPos;
    gl_Position = projection * view * vec4(aPos, 1.0);
}
`

const terrainFragShader = `
#version 410 core
in vec3 vColor;
in vec3 vWorldPos;

uniform vec3 sunDir;
uniform vec3 eyePos;
uniform vec3 fogColor;
uniform float fogDensity;

out vec4 FragColor;

void main() {
    // The mesher packs the surface normal into the color channel.
    vec3 normal = normalize(vColor * 2.0 - 1.0);
    float diffuse = max(dot(normal, -sunDir), 0.0);
    float light = 0.35 + 0.65 * diffuse;

    // Shade by altitude so cliffs and valleys read at a distance.
    vec3 base = mix(vec3(0.36, 0.30, 0.24), vec3(0.42, 0.62, 0.32),
                    clamp(vWorldPos.y * 0.08 + 0.5, 0.0, 1.0));
    vec3 color = base * light;

    float dist = length(vWorldPos - eyePos);
    float fog = 1.0 - exp(-fogDensity * dist);
    FragColor = vec4(mix(color, fogColor, fog), 1.0);
}
`

// chunkMesh is one uploaded chunk surface.
type chunkMesh struct {
	vao         uint32
	vbo         uint32
	vertexCount int32
}

// TerrainRenderer owns one VAO/VBO pair per meshed chunk and draws them all
// with a single shader. All methods must run on the GL thread.
type TerrainRenderer struct {
	shader *Shader
	meshes map[volume.ChunkCoord]*chunkMesh

	Wireframe bool

	sunDir     mgl32.Vec3
	fogColor   mgl32.Vec3
	fogDensity float32
}

// NewTerrainRenderer compiles the terrain shader.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	shader, err := NewShaderFromSource(terrainVertShader, terrainFragShader)
	if err != nil {
		return nil, err
	}
	return &TerrainRenderer{
		shader:     shader,
		meshes:     make(map[volume.ChunkCoord]*chunkMesh),
		sunDir:     mgl32.Vec3{-0.4, -0.8, -0.3}.Normalize(),
		fogColor:   mgl32.Vec3{0.53, 0.71, 0.88},
		fogDensity: 0.004,
	}, nil
}

// Upload replaces the GPU mesh for a chunk. Empty vertex data removes any
// existing mesh, keeping fully-open and fully-solid chunks free.
func (t *TerrainRenderer) Upload(coord volume.ChunkCoord, vertices []float32) {
	defer profiling.Track("graphics.Upload")()

	if len(vertices) == 0 {
		t.Remove(coord)
		return
	}

	m, ok := t.meshes[coord]
	if !ok {
		m = &chunkMesh{}
		gl.GenVertexArrays(1, &m.vao)
		gl.GenBuffers(1, &m.vbo)

		gl.BindVertexArray(m.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)

		stride := int32(mesh.VertexStride * 4)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
		gl.EnableVertexAttribArray(1)

		t.meshes[coord] = m
	} else {
		gl.BindVertexArray(m.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	}

	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
	m.vertexCount = int32(len(vertices) / mesh.VertexStride)

	gl.BindVertexArray(0)
}

// Remove drops the GPU mesh for a chunk, if present.
func (t *TerrainRenderer) Remove(coord volume.ChunkCoord) {
	m, ok := t.meshes[coord]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &m.vao)
	gl.DeleteBuffers(1, &m.vbo)
	delete(t.meshes, coord)
}

// Prune removes meshes outside the keep box around center, mirroring chunk
// eviction so GPU memory tracks the resident set.
func (t *TerrainRenderer) Prune(center volume.ChunkCoord, radiusXZ, radiusY int) {
	for coord := range t.meshes {
		dx := coord.X - center.X
		dy := coord.Y - center.Y
		dz := coord.Z - center.Z
		if dx < -radiusXZ || dx > radiusXZ || dz < -radiusXZ || dz > radiusXZ || dy < -radiusY || dy > radiusY {
			t.Remove(coord)
		}
	}
}

// MeshCount returns the number of chunks currently uploaded.
func (t *TerrainRenderer) MeshCount() int {
	return len(t.meshes)
}

// Render draws every uploaded chunk.
func (t *TerrainRenderer) Render(projection, view mgl32.Mat4, eye mgl32.Vec3) {
	defer profiling.Track("graphics.Render")()

	if t.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	t.shader.Use()
	t.shader.SetMatrix4("projection", &projection[0])
	t.shader.SetMatrix4("view", &view[0])
	t.shader.SetVector3("sunDir", t.sunDir.X(), t.sunDir.Y(), t.sunDir.Z())
	t.shader.SetVector3("eyePos", eye.X(), eye.Y(), eye.Z())
	t.shader.SetVector3("fogColor", t.fogColor.X(), t.fogColor.Y(), t.fogColor.Z())
	t.shader.SetFloat("fogDensity", t.fogDensity)

	for _, m := range t.meshes {
		gl.BindVertexArray(m.vao)
		gl.DrawArrays(gl.TRIANGLES, 0, m.vertexCount)
	}
	gl.BindVertexArray(0)
}

// ClearColor returns the sky color used for glClearColor, matching the fog.
func (t *TerrainRenderer) ClearColor() mgl32.Vec3 {
	return t.fogColor
}

// Dispose releases every GPU resource.
func (t *TerrainRenderer) Dispose() {
	for coord := range t.meshes {
		t.Remove(coord)
	}
	t.shader.Delete()
}
