package volume

import (
	"sync"
)

// ChunkStore owns every resident VolumeChunk, indexed by coordinate. It is
// the sole owner of chunk memory: references handed out by lookups stay valid
// until the chunk is evicted. The store lock guards the index and the
// per-chunk busy flags; grid reads are never blocked.
type ChunkStore struct {
	mu       sync.RWMutex
	chunks   map[ChunkCoord]*VolumeChunk
	modCount uint64 // increases on any insert/remove

	field ScalarField
}

// NewChunkStore creates an empty store backed by the given field.
func NewChunkStore(field ScalarField) *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*VolumeChunk),
		field:  field,
	}
}

// GetOrCreate returns the chunk at coord, creating and fully populating it
// from the field if missing. This is the only path that populates grid data
// synchronously.
func (cs *ChunkStore) GetOrCreate(coord ChunkCoord) *VolumeChunk {
	cs.mu.RLock()
	chunk, exists := cs.chunks[coord]
	cs.mu.RUnlock()
	if exists {
		return chunk
	}

	// Fill outside the lock; generation is the expensive part.
	fresh := NewVolumeChunk(coord)
	fresh.Populate(cs.field)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	// Double-check: another goroutine may have won the race.
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	cs.chunks[coord] = fresh
	cs.modCount++
	return fresh
}

// GetExisting returns the chunk at coord, or nil without creating one. The
// result may be a shell whose grid a worker is still filling; callers that
// read grid data want GetReady instead.
func (cs *ChunkStore) GetExisting(coord ChunkCoord) *VolumeChunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// GetReady returns the chunk at coord only once its grid is fully generated.
// Shells that are queued or mid-fill report nil, same as absent chunks. The
// generation worker clears the flags under the store lock after its last grid
// write, so a non-nil result's grid is safe to read without further
// synchronization.
func (cs *ChunkStore) GetReady(coord ChunkCoord) *VolumeChunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	chunk, ok := cs.chunks[coord]
	if !ok || chunk.state&(StateGenQueued|StateGenerating) != 0 {
		return nil
	}
	return chunk
}

// Has reports whether a chunk is resident.
func (cs *ChunkStore) Has(coord ChunkCoord) bool {
	cs.mu.RLock()
	_, ok := cs.chunks[coord]
	cs.mu.RUnlock()
	return ok
}

// AddShell inserts an empty chunk with the queued flag already set, for the
// async fill path. Returns the resident chunk and whether this call inserted
// it; when the chunk already existed its flags are left untouched.
func (cs *ChunkStore) AddShell(coord ChunkCoord) (*VolumeChunk, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if existing, ok := cs.chunks[coord]; ok {
		return existing, false
	}
	chunk := NewVolumeChunk(coord)
	chunk.state = StateGenQueued
	cs.chunks[coord] = chunk
	cs.modCount++
	return chunk, true
}

// SetState sets busy flags on a resident chunk.
func (cs *ChunkStore) SetState(coord ChunkCoord, flags ChunkState) {
	cs.mu.Lock()
	if chunk, ok := cs.chunks[coord]; ok {
		chunk.state |= flags
	}
	cs.mu.Unlock()
}

// ClearState clears busy flags on a resident chunk.
func (cs *ChunkStore) ClearState(coord ChunkCoord, flags ChunkState) {
	cs.mu.Lock()
	if chunk, ok := cs.chunks[coord]; ok {
		chunk.state &^= flags
	}
	cs.mu.Unlock()
}

// StateOf returns the busy flags of a resident chunk, zero if absent.
func (cs *ChunkStore) StateOf(coord ChunkCoord) ChunkState {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if chunk, ok := cs.chunks[coord]; ok {
		return chunk.state
	}
	return 0
}

// Count returns the number of resident chunks.
func (cs *ChunkStore) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// ModCount returns the current modification count of the chunk index.
func (cs *ChunkStore) ModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// Coords returns a snapshot of all resident coordinates.
func (cs *ChunkStore) Coords() []ChunkCoord {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	out := make([]ChunkCoord, 0, len(cs.chunks))
	for coord := range cs.chunks {
		out = append(out, coord)
	}
	return out
}

// Remove deletes a single chunk regardless of busy flags. Callers must know
// no worker still references it.
func (cs *ChunkStore) Remove(coord ChunkCoord) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.chunks[coord]; !ok {
		return false
	}
	delete(cs.chunks, coord)
	cs.modCount++
	return true
}

// EvictOutside removes every chunk whose offset from center exceeds radiusXZ
// on the X or Z axis, or radiusY on the Y axis. Chunks with any busy flag
// set are skipped and retried on a later pass. Returns the removed
// coordinates so mesh consumers can drop their GPU copies.
func (cs *ChunkStore) EvictOutside(center ChunkCoord, radiusXZ, radiusY int) []ChunkCoord {
	var removed []ChunkCoord
	cs.mu.Lock()
	for coord, chunk := range cs.chunks {
		dx := absInt(coord.X - center.X)
		dy := absInt(coord.Y - center.Y)
		dz := absInt(coord.Z - center.Z)
		if dx <= radiusXZ && dz <= radiusXZ && dy <= radiusY {
			continue
		}
		if chunk.state.Busy() {
			continue
		}
		delete(cs.chunks, coord)
		cs.modCount++
		removed = append(removed, coord)
	}
	cs.mu.Unlock()
	return removed
}

// Clear drops every chunk unconditionally. Shutdown/reset only.
func (cs *ChunkStore) Clear() {
	cs.mu.Lock()
	if len(cs.chunks) > 0 {
		cs.chunks = make(map[ChunkCoord]*VolumeChunk)
		cs.modCount++
	}
	cs.mu.Unlock()
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
