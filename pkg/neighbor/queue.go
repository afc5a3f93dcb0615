package neighbor

// candidate is an entry of the bounded nearest neighbor heap.
type candidate struct {
	J   int
	Rsq float32
}

// worse reports whether a ranks after b. Ties on distance are broken by
// ascending index so that results are deterministic.
func worse(a, b candidate) bool {
	if a.Rsq != b.Rsq {
		return a.Rsq > b.Rsq
	}
	return a.J > b.J
}

// queue is a bounded binary max-heap keeping the capacity best candidates.
// The top is the worst kept candidate. It does NOT implement container/heap
// to avoid interface overhead.
type queue struct {
	items    []candidate
	capacity int
}

func newQueue(capacity int) *queue {
	return &queue{
		items:    make([]candidate, 0, min(capacity, 64)),
		capacity: capacity,
	}
}

// Len returns the number of kept candidates.
func (q *queue) Len() int {
	return len(q.items)
}

// Full returns true if the queue holds capacity candidates.
func (q *queue) Full() bool {
	return len(q.items) >= q.capacity
}

// Top returns the worst kept candidate.
func (q *queue) Top() (candidate, bool) {
	if len(q.items) == 0 {
		return candidate{}, false
	}
	return q.items[0], true
}

// Push inserts c. If the queue is full, c replaces the top only if it is
// better.
func (q *queue) Push(c candidate) {
	if len(q.items) < q.capacity {
		q.items = append(q.items, c)
		q.siftUp(len(q.items) - 1)
		return
	}

	if worse(q.items[0], c) {
		q.items[0] = c
		q.siftDown(0)
	}
}

// Pop removes and returns the worst kept candidate.
func (q *queue) Pop() (candidate, bool) {
	n := len(q.items)
	if n == 0 {
		return candidate{}, false
	}

	item := q.items[0]
	q.items[0] = q.items[n-1]
	q.items = q.items[:n-1]
	if len(q.items) > 0 {
		q.siftDown(0)
	}
	return item, true
}

// Sorted drains the queue and returns the candidates from best to worst.
func (q *queue) Sorted() []candidate {
	out := make([]candidate, len(q.items))
	for k := len(out) - 1; k >= 0; k-- {
		out[k], _ = q.Pop()
	}
	return out
}

func (q *queue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(q.items[i], q.items[parent]) {
			break
		}
		q.items[i], q.items[parent] = q.items[parent], q.items[i]
		i = parent
	}
}

func (q *queue) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && worse(q.items[right], q.items[left]) {
			child = right
		}
		if !worse(q.items[child], q.items[i]) {
			break
		}
		q.items[i], q.items[child] = q.items[child], q.items[i]
		i = child
	}
}
