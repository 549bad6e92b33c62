package api

import "sync"

// Queue is a mutex-guarded FIFO of pending requests. Any goroutine may push.
type Queue struct {
	mu    sync.Mutex
	items []*Request
}

func NewQueue() *Queue {
	return &Queue{items: make([]*Request, 0, 32)}
}

func (q *Queue) Push(r *Request) {
	q.mu.Lock()
	q.items = append(q.items, r)
	q.mu.Unlock()
}

// PushFront returns a popped request to the head so FIFO order survives a
// failed hand-off.
func (q *Queue) PushFront(r *Request) {
	q.mu.Lock()
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = r
	q.mu.Unlock()
}

// Pop removes the oldest request, or returns nil when empty.
func (q *Queue) Pop() *Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	r := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return r
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
