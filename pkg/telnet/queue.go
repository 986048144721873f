package telnet

import "sync"

// eventKind discriminates bridge queue payloads.
type eventKind int

const (
	eventLine eventKind = iota
	eventError
	eventEOF
)

// event is one unit delivered from the reader goroutine to the session
// loop: a completed logical line, a terminal error, or the end-of-stream
// sentinel.
type event struct {
	kind eventKind
	line string
	err  error
}

// eventQueue bridges the push-driven transport side and the sequential
// session loop. It is FIFO and unbounded: producers never block, and a
// value pushed while no consumer is waiting is buffered until the next
// pop. No backpressure is applied to the transport, so a remote that
// floods data faster than the loop drains it grows memory without bound.
//
// At most one consumer may call pop at a time; that is a precondition, not
// an enforced property.
type eventQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []event
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends an event. Callable from any goroutine.
func (q *eventQueue) push(ev event) {
	q.mu.Lock()
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until an event is available and removes it. Termination is
// guaranteed because every session ends with an error or EOF event.
func (q *eventQueue) pop() event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	ev := q.items[0]
	q.items = q.items[1:]
	return ev
}

// size reports the number of buffered events.
func (q *eventQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
