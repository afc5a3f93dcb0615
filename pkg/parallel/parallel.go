// Package parallel implements the fork-join reduction used by every
// computation: reference particles are split into contiguous ranges, one per
// worker, each worker accumulates into its own buffer, and the buffers are
// merged in a fixed order once all workers are done.
package parallel

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var numWorkers atomic.Int64

func init() {
	numWorkers.Store(int64(runtime.NumCPU()))
}

// NumWorkers returns the default number of workers.
func NumWorkers() int {
	return int(numWorkers.Load())
}

// SetNumWorkers sets the default number of workers and returns a function
// restoring the previous value. A non-positive n selects runtime.NumCPU().
func SetNumWorkers(n int) (restore func()) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	old := numWorkers.Swap(int64(n))
	return func() { numWorkers.Store(old) }
}

func workersFor(n, workers int) int {
	if workers <= 0 {
		workers = NumWorkers()
	}
	return max(1, min(workers, n))
}

// Ranges splits [0, n) into at most workers contiguous ranges of nearly equal
// length. The first ranges get the remainder.
func Ranges(n, workers int) [][2]int {
	if n <= 0 {
		return nil
	}
	workers = workersFor(n, workers)

	ranges := make([][2]int, workers)
	size, rem := n/workers, n%workers
	begin := 0
	for w := range ranges {
		end := begin + size
		if w < rem {
			end++
		}
		ranges[w] = [2]int{begin, end}
		begin = end
	}
	return ranges
}

// ForEach calls fn on contiguous ranges of [0, n) from several goroutines
// and returns once all of them have finished. fn must only write to memory
// indexed by its own range. The first error returned by fn is returned.
// A non-positive workers selects NumWorkers().
func ForEach(n, workers int, fn func(begin, end int) error) error {
	ranges := Ranges(n, workers)
	switch len(ranges) {
	case 0:
		return nil
	case 1:
		return fn(ranges[0][0], ranges[0][1])
	}

	var g errgroup.Group
	g.SetLimit(len(ranges))
	for _, r := range ranges {
		g.Go(func() error {
			return fn(r[0], r[1])
		})
	}
	return g.Wait()
}

// Accumulate runs kernel on contiguous ranges of [0, n). Each worker gets its
// own buffer created by newBuf, which is the only memory kernel may write
// to. The buffers are returned in worker order after every worker has
// finished, ready to be merged.
func Accumulate[B any](n, workers int, newBuf func() B, kernel func(buf B, begin, end int) error) ([]B, error) {
	ranges := Ranges(n, workers)
	bufs := make([]B, len(ranges))
	for w := range bufs {
		bufs[w] = newBuf()
	}

	var g errgroup.Group
	g.SetLimit(max(1, len(ranges)))
	for w, r := range ranges {
		g.Go(func() error {
			return kernel(bufs[w], r[0], r[1])
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	return bufs, nil
}

// Number is the element type of mergeable buffers.
type Number interface {
	~int | ~int32 | ~int64 | ~uint32 | ~uint64 | ~float32 | ~float64 | ~complex64 | ~complex128
}

// SumInto adds every buffer to dst. Slots are visited in ascending order and,
// for each slot, buffers in worker order, so that the result does not depend
// on scheduling. Integer results do not depend on the number of workers
// either.
func SumInto[T Number](dst []T, bufs [][]T) {
	for k := range dst {
		for _, b := range bufs {
			dst[k] += b[k]
		}
	}
}
