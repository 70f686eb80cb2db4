package pqueue

import (
	"sort"
)

// WithCap bounds the queue, the highest priority values are dropped on overflow.
func WithCap[T any](size uint) Option[T] {
	return func(q *Queue[T]) {
		q.cap = int(size)
	}
}

type Option[T any] func(*Queue[T])

type item[T any] struct {
	value T
	prior float64
}

func New[T any](opts ...Option[T]) *Queue[T] {
	p := &Queue[T]{cap: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Queue keeps its items sorted by ascending priority. Equal priorities keep
// insertion order.
type Queue[T any] struct {
	cap   int
	items []item[T]
}

func (q *Queue[T]) Push(val T, priority float64) {
	q.items = append(q.items, item[T]{value: val, prior: priority})
	sort.Stable(q)
	if q.cap < 0 {
		return
	}
	if q.cap < len(q.items) {
		q.items = q.items[:q.cap]
	}
}

func (q *Queue[T]) Len() int { return len(q.items) }

func (q *Queue[T]) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *Queue[T]) Less(i, j int) bool {
	return q.items[i].prior < q.items[j].prior
}

// Seek returns the value and priority at position idx without removing it.
func (q *Queue[T]) Seek(idx int) (T, float64) {
	item := q.items[idx]
	return item.value, item.prior
}
