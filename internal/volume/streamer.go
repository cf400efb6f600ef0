package volume

import (
	"log"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"isoterra/internal/profiling"
)

// ChunkStreamer keeps a moving box of chunks resident around a reference
// position. It supports a fully synchronous update, used by tests and by the
// physics warm-up, and an asynchronous path that queues fills onto background
// workers so the frame loop never blocks on noise evaluation.
type ChunkStreamer struct {
	jobs       chan ChunkCoord
	pending    map[ChunkCoord]struct{}
	pendingMu  sync.Mutex
	maxPending int

	generated chan ChunkCoord

	store *ChunkStore
	cache *GridCache // optional, nil disables disk caching
}

// NewChunkStreamer creates a streamer over the store and starts one fill
// worker per CPU. cache may be nil.
func NewChunkStreamer(store *ChunkStore, cache *GridCache) *ChunkStreamer {
	cs := &ChunkStreamer{
		jobs:       make(chan ChunkCoord, 4096),
		pending:    make(map[ChunkCoord]struct{}),
		maxPending: 8192,
		generated:  make(chan ChunkCoord, 4096),
		store:      store,
		cache:      cache,
	}

	workers := max(runtime.NumCPU(), 1)
	for i := 0; i < workers; i++ {
		go cs.worker()
	}

	return cs
}

// Close stops the background fill workers.
func (cs *ChunkStreamer) Close() {
	close(cs.jobs)
}

// Generated yields coordinates of chunks whose grids finished filling on a
// background worker. Drain it once per frame to trigger remeshing.
func (cs *ChunkStreamer) Generated() <-chan ChunkCoord {
	return cs.generated
}

func (cs *ChunkStreamer) worker() {
	for coord := range cs.jobs {
		cs.fillChunk(coord)

		cs.pendingMu.Lock()
		delete(cs.pending, coord)
		cs.pendingMu.Unlock()

		select {
		case cs.generated <- coord:
		default:
			// Consumer is behind; the chunk is resident either way and a
			// later update pass will pick it up.
		}
	}
}

// fillChunk populates the shell inserted at enqueue time, preferring the
// disk cache over fresh field evaluation.
func (cs *ChunkStreamer) fillChunk(coord ChunkCoord) {
	chunk := cs.store.GetExisting(coord)
	if chunk == nil {
		// Evicted before the worker got to it; nothing to fill.
		return
	}

	cs.store.SetState(coord, StateGenerating)
	defer cs.store.ClearState(coord, StateGenQueued|StateGenerating)

	if cs.cache != nil && cs.cache.Load(coord, chunk.grid) {
		return
	}
	chunk.Populate(cs.store.field)
	if cs.cache != nil {
		if err := cs.cache.Store(coord, chunk.grid); err != nil {
			log.Printf("volume: cache store for %v: %v", coord, err)
		}
	}
}

// Update synchronously loads every chunk within loadRadius (Chebyshev
// distance, all three axes) of the chunk containing ref, then evicts chunks
// beyond unloadRadius. unloadRadius must be >= loadRadius so chunks at the
// boundary do not thrash as the reference crosses chunk borders. Returns the
// coordinates that became newly resident, for meshing.
func (cs *ChunkStreamer) Update(ref mgl32.Vec3, loadRadius, unloadRadius int) []ChunkCoord {
	return cs.UpdateAsym(ref, loadRadius, loadRadius, unloadRadius, unloadRadius)
}

// UpdateAsym is Update with independent vertical radii. Terrain varies much
// less along Y than along the horizontal axes, so a shallower vertical box
// keeps memory down without visible pop-in.
func (cs *ChunkStreamer) UpdateAsym(ref mgl32.Vec3, loadRadius, loadRadiusY, unloadRadius, unloadRadiusY int) []ChunkCoord {
	defer profiling.Track("volume.Update")()

	if unloadRadius < loadRadius {
		unloadRadius = loadRadius
	}
	if unloadRadiusY < loadRadiusY {
		unloadRadiusY = loadRadiusY
	}

	center := WorldToChunkCoord(ref)

	var loaded []ChunkCoord
	for dz := -loadRadius; dz <= loadRadius; dz++ {
		for dy := -loadRadiusY; dy <= loadRadiusY; dy++ {
			for dx := -loadRadius; dx <= loadRadius; dx++ {
				coord := ChunkCoord{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz}
				if cs.store.Has(coord) {
					continue
				}
				cs.store.GetOrCreate(coord)
				loaded = append(loaded, coord)
			}
		}
	}

	cs.store.EvictOutside(center, unloadRadius, unloadRadiusY)

	return loaded
}

// UpdateAsync queues missing chunks within the load box for background
// generation, nearest ring first, and evicts beyond the unload box. Newly
// finished chunks are reported on Generated rather than returned here.
func (cs *ChunkStreamer) UpdateAsync(ref mgl32.Vec3, loadRadius, loadRadiusY, unloadRadius, unloadRadiusY int) []ChunkCoord {
	defer profiling.Track("volume.UpdateAsync")()

	if unloadRadius < loadRadius {
		unloadRadius = loadRadius
	}
	if unloadRadiusY < loadRadiusY {
		unloadRadiusY = loadRadiusY
	}

	center := WorldToChunkCoord(ref)

	// Walk rings outward so the chunks under the player fill first.
	for r := 0; r <= loadRadius; r++ {
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dz) != r {
					continue // interior of the ring, already visited
				}
				for dy := -loadRadiusY; dy <= loadRadiusY; dy++ {
					cs.requestChunk(ChunkCoord{X: center.X + dx, Y: center.Y + dy, Z: center.Z + dz})
				}
			}
		}
	}

	return cs.store.EvictOutside(center, unloadRadius, unloadRadiusY)
}

// requestChunk inserts a shell and queues its fill, respecting the pending
// cap. Returns true if the chunk was enqueued by this call.
func (cs *ChunkStreamer) requestChunk(coord ChunkCoord) bool {
	if cs.store.Has(coord) {
		return false
	}

	cs.pendingMu.Lock()
	if _, ok := cs.pending[coord]; ok {
		cs.pendingMu.Unlock()
		return false
	}
	if cs.maxPending > 0 && len(cs.pending) >= cs.maxPending {
		cs.pendingMu.Unlock()
		return false
	}
	cs.pending[coord] = struct{}{}
	cs.pendingMu.Unlock()

	if _, inserted := cs.store.AddShell(coord); !inserted {
		cs.pendingMu.Lock()
		delete(cs.pending, coord)
		cs.pendingMu.Unlock()
		return false
	}

	select {
	case cs.jobs <- coord:
		return true
	default:
		// Queue full: roll back the shell so a later pass can retry.
		cs.store.Remove(coord)
		cs.pendingMu.Lock()
		delete(cs.pending, coord)
		cs.pendingMu.Unlock()
		return false
	}
}

// PendingCount returns the number of fills queued or in flight.
func (cs *ChunkStreamer) PendingCount() int {
	cs.pendingMu.Lock()
	defer cs.pendingMu.Unlock()
	return len(cs.pending)
}
