package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timers for the main loop. Cheap enough to leave on.

type bucket struct {
	total time.Duration
	calls int
}

var (
	mu      sync.Mutex
	buckets = make(map[string]bucket)
)

// Track returns a stop function that adds the elapsed time under name.
// Usage: defer profiling.Track("volume.Update")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		b := buckets[name]
		b.total += d
		b.calls++
		buckets[name] = b
		mu.Unlock()
	}
}

// ResetFrame clears the current totals. Call at the start of each frame.
func ResetFrame() {
	mu.Lock()
	for k := range buckets {
		delete(buckets, k)
	}
	mu.Unlock()
}

// Snapshot returns a copy of the current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(buckets))
	for k, b := range buckets {
		out[k] = b.total
	}
	return out
}

// TopN formats the n largest totals of the current frame, e.g.
// "mesh.Build:4.2ms(x8), volume.Update:1.3ms".
func TopN(n int) string {
	mu.Lock()
	type pair struct {
		name string
		b    bucket
	}
	list := make([]pair, 0, len(buckets))
	for k, b := range buckets {
		list = append(list, pair{name: k, b: b})
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].b.total > list[j].b.total })
	if n > len(list) {
		n = len(list)
	}

	parts := make([]string, 0, n)
	for _, p := range list[:n] {
		ms := float64(p.b.total.Microseconds()) / 1000.0
		s := p.name + ":" + strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
		if p.b.calls > 1 {
			s += "(x" + strconv.Itoa(p.b.calls) + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
