package config

import "sync"

// StreamSettings holds the chunk streaming radii, in chunks. Guarded so the
// debug overlay or a future console can change them while workers read.
type StreamSettings struct {
	mu           sync.RWMutex
	loadRadius   int
	loadRadiusY  int
	evictMargin  int // eviction radius = load radius + margin, per axis
	evictMarginY int
}

var globalStreamSettings = &StreamSettings{
	loadRadius:   4,
	loadRadiusY:  2,
	evictMargin:  1,
	evictMarginY: 1,
}

// GetLoadRadius returns the horizontal load radius in chunks.
func GetLoadRadius() int {
	globalStreamSettings.mu.RLock()
	defer globalStreamSettings.mu.RUnlock()
	return globalStreamSettings.loadRadius
}

// GetLoadRadiusY returns the vertical load radius in chunks.
func GetLoadRadiusY() int {
	globalStreamSettings.mu.RLock()
	defer globalStreamSettings.mu.RUnlock()
	return globalStreamSettings.loadRadiusY
}

// SetLoadRadius sets the horizontal and vertical load radii.
func SetLoadRadius(r, rY int) {
	globalStreamSettings.mu.Lock()
	defer globalStreamSettings.mu.Unlock()
	globalStreamSettings.loadRadius = clampInt(r, 1, 16)
	globalStreamSettings.loadRadiusY = clampInt(rY, 1, 8)
}

// GetEvictRadius returns the horizontal eviction radius. Always at least the
// load radius so boundary chunks do not thrash.
func GetEvictRadius() int {
	globalStreamSettings.mu.RLock()
	defer globalStreamSettings.mu.RUnlock()
	return globalStreamSettings.loadRadius + globalStreamSettings.evictMargin
}

// GetEvictRadiusY returns the vertical eviction radius.
func GetEvictRadiusY() int {
	globalStreamSettings.mu.RLock()
	defer globalStreamSettings.mu.RUnlock()
	return globalStreamSettings.loadRadiusY + globalStreamSettings.evictMarginY
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
