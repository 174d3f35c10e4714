package capture

import "sync"

// queue is an unbounded FIFO. push never waits on the consumer; a pump
// goroutine buffers items between in and out. close lets the consumer drain
// what was already pushed before out is closed. abandon drops everything.
type queue[T any] struct {
	mu     sync.Mutex
	closed bool
	in     chan T
	out    chan T
	quit   chan struct{}
	once   sync.Once
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{in: make(chan T), out: make(chan T), quit: make(chan struct{})}
	go q.pump()
	return q
}

func (q *queue[T]) push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.in <- v:
		return nil
	case <-q.quit:
		return ErrClosed
	}
}

// close is idempotent.
func (q *queue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

// abandon stops the pump without delivering pending items.
func (q *queue[T]) abandon() { q.once.Do(func() { close(q.quit) }) }

func (q *queue[T]) recv() <-chan T { return q.out }

func (q *queue[T]) pump() {
	defer close(q.out)
	var pending []T
	in := q.in
	for in != nil || len(pending) > 0 {
		var out chan T
		var head T
		if len(pending) > 0 {
			out = q.out
			head = pending[0]
		}
		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, v)
		case out <- head:
			var zero T
			pending[0] = zero
			pending = pending[1:]
		case <-q.quit:
			return
		}
	}
}
