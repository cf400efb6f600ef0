package main

import (
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"isoterra/internal/config"
	"isoterra/internal/graphics"
	"isoterra/internal/input"
	"isoterra/internal/mesh"
	"isoterra/internal/physics"
	"isoterra/internal/player"
	"isoterra/internal/profiling"
	"isoterra/internal/volume"
)

const settingsPath = "isoterra.yaml"

func init() {
	runtime.LockOSThread()
}

func main() {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	settings.Apply()

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow(settings)
	if err != nil {
		panic(err)
	}
	if err := gl.Init(); err != nil {
		panic(err)
	}

	// Terrain pipeline: field -> store -> streamer, with an optional disk
	// cache for revisited chunks.
	field := volume.NewTerrainField(settings.Seed)
	store := volume.NewChunkStore(field)

	var cache *volume.GridCache
	if settings.CacheDir != "" {
		cache, err = volume.NewGridCache(settings.CacheDir, settings.Seed)
		if err != nil {
			log.Printf("grid cache disabled: %v", err)
		}
	}

	streamer := volume.NewChunkStreamer(store, cache)
	defer streamer.Close()

	sampler := volume.NewSampler(store)

	pool := mesh.NewWorkerPool(max(runtime.NumCPU()-1, 1), 512)
	defer pool.Shutdown()

	terrain, err := graphics.NewTerrainRenderer()
	if err != nil {
		panic(err)
	}
	defer terrain.Dispose()

	overlay, err := graphics.NewOverlay(settings.WindowWidth, settings.WindowHeight)
	if err != nil {
		panic(err)
	}
	defer overlay.Dispose()

	// Spawn a body height above the surface at the origin, with the chunks
	// under the spawn loaded synchronously so the first tick has ground.
	params := physics.DefaultParams()
	spawn := mgl32.Vec3{0, field.SurfaceHeightAt(0, 0) + params.Height, 0}
	for _, coord := range streamer.Update(spawn, 2, 2) {
		submitMesh(store, pool, coord)
	}

	in := input.NewManager()
	in.Attach(window)

	p := player.New(sampler, spawn, float32(settings.MouseSens), float32(settings.FlySpeedMult))

	runGameLoop(window, settings, in, p, store, streamer, pool, terrain, overlay)
}

func setupWindow(settings config.Settings) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(settings.WindowWidth, settings.WindowHeight, settings.WindowTitle, nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	glfw.SwapInterval(1)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}

// submitMesh queues a chunk for meshing with the uploading flag held so
// eviction cannot free the grid under the worker. Returns false when the
// pool is saturated; the caller retries next frame. GetReady guards against
// a backlogged coordinate that was evicted and re-queued as an unfilled
// shell in the meantime.
func submitMesh(store *volume.ChunkStore, pool *mesh.WorkerPool, coord volume.ChunkCoord) bool {
	chunk := store.GetReady(coord)
	if chunk == nil {
		return true // evicted or regenerating, nothing to mesh yet
	}
	store.SetState(coord, volume.StateUploading)
	if !pool.Submit(mesh.Job{Chunk: chunk, Coord: coord}) {
		store.ClearState(coord, volume.StateUploading)
		return false
	}
	return true
}

func runGameLoop(
	window *glfw.Window,
	settings config.Settings,
	in *input.Manager,
	p *player.Player,
	store *volume.ChunkStore,
	streamer *volume.ChunkStreamer,
	pool *mesh.WorkerPool,
	terrain *graphics.TerrainRenderer,
	overlay *graphics.Overlay,
) {
	projection := graphics.ProjectionMatrix(settings.WindowWidth, settings.WindowHeight)
	sky := terrain.ClearColor()

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(sky.X(), sky.Y(), sky.Z(), 1)

	paused := false
	frames := 0
	fps := 0
	lastFPSCheck := time.Now()
	lastTime := time.Now()
	lastPrune := time.Now()

	// Chunks whose mesh submission did not fit in the queue this frame.
	var meshBacklog []volume.ChunkCoord

	for !window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now
		if dt > 0.1 {
			dt = 0.1 // clamp hitches so physics stays stable
		}

		if in.JustPressed(input.ActionPause) {
			paused = !paused
			if paused {
				window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			} else {
				window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			}
		}
		if in.JustPressed(input.ActionToggleWireframe) {
			terrain.Wireframe = !terrain.Wireframe
		}
		if in.JustPressed(input.ActionToggleOverlay) {
			overlay.Visible = !overlay.Visible
		}

		if !paused {
			func() { defer profiling.Track("player.Update")(); p.Update(dt, in) }()

			pos := p.Controller.Position
			removed := streamer.UpdateAsync(pos,
				config.GetLoadRadius(), config.GetLoadRadiusY(),
				config.GetEvictRadius(), config.GetEvictRadiusY())
			for _, coord := range removed {
				terrain.Remove(coord)
			}
		}

		// Retry mesh submissions the pool rejected earlier.
		retry := meshBacklog
		meshBacklog = meshBacklog[:0]
		for _, coord := range retry {
			if !submitMesh(store, pool, coord) {
				meshBacklog = append(meshBacklog, coord)
			}
		}

		// Freshly generated chunks go to the mesh workers.
	drainGenerated:
		for {
			select {
			case coord := <-streamer.Generated():
				if !submitMesh(store, pool, coord) {
					meshBacklog = append(meshBacklog, coord)
				}
			default:
				break drainGenerated
			}
		}

		// Finished meshes upload on this thread, then release the chunk.
	drainResults:
		for {
			select {
			case result := <-pool.Results():
				terrain.Upload(result.Coord, result.Vertices)
				store.ClearState(result.Coord, volume.StateUploading)
			default:
				break drainResults
			}
		}

		if !paused && time.Since(lastPrune) > 750*time.Millisecond {
			center := volume.WorldToChunkCoord(p.Controller.Position)
			terrain.Prune(center, config.GetEvictRadius(), config.GetEvictRadiusY())
			lastPrune = time.Now()
		}

		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
		terrain.Render(projection, p.ViewMatrix(), p.Eye())

		overlay.SetLines(overlayLines(p, store, streamer, terrain, fps))
		overlay.Render()

		window.SwapBuffers()
		glfw.PollEvents()
		in.PostUpdate()

		frames++
		if time.Since(lastFPSCheck) >= time.Second {
			fps = frames
			frames = 0
			lastFPSCheck = time.Now()
			log.Printf("fps=%d chunks=%d meshes=%d pending=%d", fps, store.Count(), terrain.MeshCount(), streamer.PendingCount())
		}
	}
}

func overlayLines(p *player.Player, store *volume.ChunkStore, streamer *volume.ChunkStreamer, terrain *graphics.TerrainRenderer, fps int) []string {
	pos := p.Controller.Position
	state := "airborne"
	switch {
	case p.Controller.Noclip:
		state = "noclip"
	case p.Controller.Grounded:
		state = "grounded"
	case p.Controller.Sliding:
		state = "sliding"
	}
	return []string{
		fmt.Sprintf("fps %d", fps),
		fmt.Sprintf("pos %.1f %.1f %.1f (%s)", pos.X(), pos.Y(), pos.Z(), state),
		fmt.Sprintf("vel %.1f jumps %d", p.Controller.Velocity.Len(), p.Controller.JumpCharges),
		fmt.Sprintf("chunks %d meshes %d pending %d", store.Count(), terrain.MeshCount(), streamer.PendingCount()),
		profiling.TopN(3),
	}
}
