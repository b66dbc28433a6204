package framework

import (
	"sort"
	"sync"
)

// MessageSortingQueue delivers lines on C in counter order, starting from 1, regardless of
// the order in which Accept is called. A line whose predecessors have not all arrived yet is
// held back until they do.
type MessageSortingQueue struct {
	C           chan string
	lastCounter int
	deferred    []deferredMessage
	closed      bool
	lock        sync.Mutex
}

type deferredMessage struct {
	counter int
	message string
}

func NewMessageSortingQueue(channelSize int) *MessageSortingQueue {
	return &MessageSortingQueue{C: make(chan string, channelSize)}
}

func (q *MessageSortingQueue) Accept(counter int, message string) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	if counter > q.lastCounter+1 {
		q.deferred = append(q.deferred, deferredMessage{counter: counter, message: message})
		sort.Slice(q.deferred, func(i, j int) bool { return q.deferred[i].counter < q.deferred[j].counter })
		return
	}
	q.lastCounter = counter
	q.C <- message
	for len(q.deferred) > 0 {
		next := q.deferred[0]
		if next.counter != q.lastCounter+1 {
			break
		}
		q.deferred = q.deferred[1:]
		q.lastCounter++
		q.C <- next.message
	}
}

// Close closes C. Any lines still held back are delivered first, in counter order, since
// their missing predecessors can no longer arrive.
func (q *MessageSortingQueue) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for _, d := range q.deferred {
		q.C <- d.message
	}
	q.deferred = nil
	close(q.C)
}
