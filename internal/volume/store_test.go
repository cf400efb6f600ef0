package volume

import (
	"sync"
	"testing"
)

func TestGetOrCreatePopulates(t *testing.T) {
	store := NewChunkStore(constantField(2))

	chunk := store.GetOrCreate(ChunkCoord{1, 0, -1})
	if chunk == nil {
		t.Fatal("GetOrCreate returned nil")
	}
	if got := chunk.At(5, 5, 5); got != 2 {
		t.Errorf("created chunk not populated: At = %v, want 2", got)
	}
	if store.Count() != 1 {
		t.Errorf("Count = %d, want 1", store.Count())
	}

	again := store.GetOrCreate(ChunkCoord{1, 0, -1})
	if again != chunk {
		t.Error("second GetOrCreate returned a different chunk")
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	coord := ChunkCoord{0, 0, 0}

	results := make([]*VolumeChunk, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.GetOrCreate(coord)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent GetOrCreate produced distinct chunks for one coord")
		}
	}
	if store.Count() != 1 {
		t.Errorf("Count = %d, want 1", store.Count())
	}
}

func TestGetExistingDoesNotCreate(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	if store.GetExisting(ChunkCoord{3, 3, 3}) != nil {
		t.Error("GetExisting returned a chunk from an empty store")
	}
	if store.Count() != 0 {
		t.Errorf("Count = %d after GetExisting, want 0", store.Count())
	}
}

func TestEvictOutside(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	for x := -2; x <= 2; x++ {
		store.GetOrCreate(ChunkCoord{x, 0, 0})
	}

	removed := store.EvictOutside(ChunkCoord{0, 0, 0}, 1, 1)
	if len(removed) != 2 {
		t.Fatalf("removed %d chunks, want 2", len(removed))
	}
	for _, coord := range removed {
		if coord.X != -2 && coord.X != 2 {
			t.Errorf("unexpected eviction of %v", coord)
		}
	}
	if store.Count() != 3 {
		t.Errorf("Count = %d after eviction, want 3", store.Count())
	}
}

func TestEvictOutsideSkipsBusy(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	far := ChunkCoord{10, 0, 0}
	store.GetOrCreate(far)
	store.SetState(far, StateUploading)

	removed := store.EvictOutside(ChunkCoord{0, 0, 0}, 1, 1)
	if len(removed) != 0 {
		t.Fatalf("busy chunk evicted: %v", removed)
	}
	if !store.Has(far) {
		t.Fatal("busy chunk no longer resident")
	}

	store.ClearState(far, StateUploading)
	removed = store.EvictOutside(ChunkCoord{0, 0, 0}, 1, 1)
	if len(removed) != 1 || removed[0] != far {
		t.Errorf("chunk not evicted after flags cleared: %v", removed)
	}
}

func TestEvictOutsideAsymmetricY(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	store.GetOrCreate(ChunkCoord{0, 3, 0})
	store.GetOrCreate(ChunkCoord{3, 0, 0})

	// Vertical radius tighter than horizontal.
	removed := store.EvictOutside(ChunkCoord{0, 0, 0}, 3, 1)
	if len(removed) != 1 || removed[0] != (ChunkCoord{0, 3, 0}) {
		t.Errorf("removed %v, want only {0 3 0}", removed)
	}
}

func TestStateAccessors(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	coord := ChunkCoord{0, 0, 0}
	store.GetOrCreate(coord)

	if s := store.StateOf(coord); s != 0 {
		t.Errorf("fresh chunk state = %b, want 0", s)
	}

	store.SetState(coord, StateGenQueued|StateGenerating)
	if s := store.StateOf(coord); s != StateGenQueued|StateGenerating {
		t.Errorf("state = %b after set", s)
	}

	store.ClearState(coord, StateGenQueued)
	if s := store.StateOf(coord); s != StateGenerating {
		t.Errorf("state = %b after partial clear, want generating only", s)
	}

	// Absent chunks read as idle and ignore writes.
	if s := store.StateOf(ChunkCoord{9, 9, 9}); s != 0 {
		t.Errorf("absent chunk state = %b, want 0", s)
	}
	store.SetState(ChunkCoord{9, 9, 9}, StateUploading)
	if store.Has(ChunkCoord{9, 9, 9}) {
		t.Error("SetState materialized an absent chunk")
	}
}

func TestAddShell(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	coord := ChunkCoord{1, 1, 1}

	shell, inserted := store.AddShell(coord)
	if !inserted || shell == nil {
		t.Fatal("AddShell did not insert")
	}
	if s := store.StateOf(coord); s != StateGenQueued {
		t.Errorf("shell state = %b, want queued", s)
	}

	same, inserted := store.AddShell(coord)
	if inserted {
		t.Error("second AddShell claimed insertion")
	}
	if same != shell {
		t.Error("second AddShell returned a different chunk")
	}
}

func TestGetReadyHidesUnfilledShells(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	coord := ChunkCoord{2, 0, 2}

	store.AddShell(coord)
	if store.GetReady(coord) != nil {
		t.Fatal("GetReady returned a queued shell")
	}
	if store.GetExisting(coord) == nil {
		t.Fatal("shell not resident")
	}

	store.SetState(coord, StateGenerating)
	if store.GetReady(coord) != nil {
		t.Fatal("GetReady returned a chunk mid-generation")
	}

	store.ClearState(coord, StateGenQueued|StateGenerating)
	if store.GetReady(coord) == nil {
		t.Fatal("GetReady hid a fully generated chunk")
	}

	// The uploading flag marks read-only meshing, not construction.
	store.SetState(coord, StateUploading)
	if store.GetReady(coord) == nil {
		t.Error("GetReady hid a chunk that is only being meshed")
	}

	if store.GetReady(ChunkCoord{9, 9, 9}) != nil {
		t.Error("GetReady returned an absent chunk")
	}
}

func TestModCountTracksMutations(t *testing.T) {
	store := NewChunkStore(constantField(-1))
	before := store.ModCount()

	store.GetOrCreate(ChunkCoord{0, 0, 0})
	afterInsert := store.ModCount()
	if afterInsert <= before {
		t.Error("ModCount did not increase on insert")
	}

	store.GetExisting(ChunkCoord{0, 0, 0})
	if store.ModCount() != afterInsert {
		t.Error("ModCount changed on read")
	}

	store.Remove(ChunkCoord{0, 0, 0})
	if store.ModCount() <= afterInsert {
		t.Error("ModCount did not increase on remove")
	}
}
