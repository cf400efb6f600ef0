package volume

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// GridCache persists populated chunk grids to disk so revisited terrain
// loads without re-evaluating the field. Files are gob records behind zstd,
// one per chunk, under a per-seed directory so different worlds never mix.
type GridCache struct {
	dir string
}

type gridRecord struct {
	Coord ChunkCoord
	Grid  []float32
}

// NewGridCache opens (creating if needed) a cache rooted at dir for the
// given field seed.
func NewGridCache(dir string, seed int64) (*GridCache, error) {
	root := filepath.Join(dir, fmt.Sprintf("seed-%d", seed))
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create grid cache dir: %w", err)
	}
	return &GridCache{dir: root}, nil
}

func (gc *GridCache) path(coord ChunkCoord) string {
	return filepath.Join(gc.dir, fmt.Sprintf("c_%d_%d_%d.zst", coord.X, coord.Y, coord.Z))
}

// Load reads a cached grid into the provided buffer. Returns false when the
// chunk is not cached or the record is unusable; corrupt files are removed
// so the chunk regenerates cleanly.
func (gc *GridCache) Load(coord ChunkCoord, into []float32) bool {
	f, err := os.Open(gc.path(coord))
	if err != nil {
		return false
	}
	defer f.Close()

	zr, err := zstd.NewReader(bufio.NewReader(f))
	if err != nil {
		os.Remove(gc.path(coord))
		return false
	}
	defer zr.Close()

	var rec gridRecord
	if err := gob.NewDecoder(zr).Decode(&rec); err != nil || rec.Coord != coord || len(rec.Grid) != len(into) {
		log.Printf("volume: discarding bad cache entry for %v: %v", coord, err)
		os.Remove(gc.path(coord))
		return false
	}
	copy(into, rec.Grid)
	return true
}

// Store writes a populated grid to the cache. The file lands via rename so a
// crash mid-write never leaves a truncated record behind.
func (gc *GridCache) Store(coord ChunkCoord, grid []float32) error {
	tmp, err := os.CreateTemp(gc.dir, "grid-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("create zstd writer: %w", err)
	}

	rec := gridRecord{Coord: coord, Grid: grid}
	if err := gob.NewEncoder(zw).Encode(&rec); err != nil {
		zw.Close()
		tmp.Close()
		return fmt.Errorf("encode grid record: %w", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finish zstd stream: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), gc.path(coord)); err != nil {
		return fmt.Errorf("publish cache file: %w", err)
	}
	return nil
}
