package queue

import "errors"

type Queue[E any] struct {
	elements []E
}

func (q *Queue[E]) Push(e E) {
	q.elements = append(q.elements, e)
}

func (q *Queue[E]) Empty() bool {
	return len(q.elements) == 0
}

func (q *Queue[E]) Len() int {
	return len(q.elements)
}

var ErrEmpty = errors.New("Queue is empty")

func (q *Queue[E]) Pop() E {
	if q.Empty() {
		panic(ErrEmpty)
	}

	e := q.elements[0]
	q.elements = q.elements[1:]
	return e
}

// Worklist is a FIFO queue that holds each element at most once. An element
// may be pushed again once it has been popped.
type Worklist[E comparable] struct {
	queue   Queue[E]
	pending map[E]struct{}
}

func NewWorklist[E comparable]() *Worklist[E] {
	return &Worklist[E]{pending: make(map[E]struct{})}
}

// Push enqueues e unless it is already pending and reports whether it did.
func (w *Worklist[E]) Push(e E) bool {
	if _, ok := w.pending[e]; ok {
		return false
	}
	w.pending[e] = struct{}{}
	w.queue.Push(e)
	return true
}

func (w *Worklist[E]) Pop() E {
	e := w.queue.Pop()
	delete(w.pending, e)
	return e
}

func (w *Worklist[E]) Empty() bool { return w.queue.Empty() }

func (w *Worklist[E]) Len() int { return w.queue.Len() }

// Pending reports whether e is waiting in the worklist.
func (w *Worklist[E]) Pending(e E) bool {
	_, ok := w.pending[e]
	return ok
}
