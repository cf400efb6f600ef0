package mesh

import (
	"context"
	"sync"

	"isoterra/internal/volume"
)

// Job asks the pool to mesh one chunk. The chunk pointer must stay valid
// until the result is delivered; callers pin it by setting the chunk's
// uploading flag before submitting.
type Job struct {
	Chunk *volume.VolumeChunk
	Coord volume.ChunkCoord
}

// Result is one finished mesh. Empty Vertices means the chunk surface does
// not cross the iso-level anywhere.
type Result struct {
	Coord    volume.ChunkCoord
	Vertices []float32
}

// WorkerPool meshes chunks on background goroutines. Results come back on a
// single shared channel drained by the render thread.
type WorkerPool struct {
	jobs    chan Job
	results chan Result
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorkerPool starts workers goroutines with the given queue capacity.
func NewWorkerPool(workers, queueSize int) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		jobs:    make(chan Job, queueSize),
		results: make(chan Result, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues a job without blocking. Returns false when the queue is
// full; the caller retries on a later frame.
func (p *WorkerPool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Results yields finished meshes. Drain once per frame on the GL thread.
func (p *WorkerPool) Results() <-chan Result {
	return p.results
}

// QueueLength returns the number of jobs waiting for a worker.
func (p *WorkerPool) QueueLength() int {
	return len(p.jobs)
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			vertices := BuildChunkMesh(job.Chunk)
			select {
			case p.results <- Result{Coord: job.Coord, Vertices: vertices}:
			case <-p.ctx.Done():
				return
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// Shutdown stops the workers and waits for them to exit. Queued jobs that no
// worker picked up are dropped.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
