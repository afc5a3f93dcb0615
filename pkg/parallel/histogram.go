package parallel

import "fmt"

// Histogram is an N-dimensional grid of counters stored in row-major order
// (the last axis varies fastest). It persists across calls to Accumulate
// until Reset.
type Histogram struct {
	shape   []int
	strides []int
	bins    []uint32
}

// NewHistogram returns a zeroed histogram with the given number of bins per
// axis. It panics if an axis has no bins.
func NewHistogram(shape ...int) *Histogram {
	h := &Histogram{
		shape:   append([]int(nil), shape...),
		strides: make([]int, len(shape)),
	}

	size := 1
	for k := len(shape) - 1; k >= 0; k-- {
		if shape[k] <= 0 {
			panic(fmt.Sprintf("parallel: histogram axis %d has %d bins", k, shape[k]))
		}
		h.strides[k] = size
		size *= shape[k]
	}
	h.bins = make([]uint32, size)
	return h
}

// Shape returns the number of bins per axis.
func (h *Histogram) Shape() []int {
	return append([]int(nil), h.shape...)
}

// Len returns the total number of bins.
func (h *Histogram) Len() int {
	return len(h.bins)
}

// Index returns the flat index of a bin.
func (h *Histogram) Index(idx ...int) int {
	var flat int
	for k, i := range idx {
		flat += i * h.strides[k]
	}
	return flat
}

// At returns the count of a bin.
func (h *Histogram) At(idx ...int) uint32 {
	return h.bins[h.Index(idx...)]
}

// Bins returns the flat counts. The slice is owned by the histogram and must
// not be modified.
func (h *Histogram) Bins() []uint32 {
	return h.bins
}

// Total returns the sum of every bin.
func (h *Histogram) Total() uint64 {
	var total uint64
	for _, c := range h.bins {
		total += uint64(c)
	}
	return total
}

// Reset clears every bin without deallocating.
func (h *Histogram) Reset() {
	clear(h.bins)
}

// Accumulate runs kernel on contiguous ranges of [0, n). Each worker
// increments a private flat buffer shaped like the histogram; the buffers are
// added to the histogram once every worker has finished. On error, the
// histogram is left untouched.
func (h *Histogram) Accumulate(n, workers int, kernel func(local []uint32, begin, end int) error) error {
	bufs, err := Accumulate(n, workers,
		func() []uint32 { return make([]uint32, len(h.bins)) },
		kernel,
	)
	if err != nil {
		return err
	}

	SumInto(h.bins, bufs)
	return nil
}
