package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueFIFO(t *testing.T) {
	q := newEventQueue()

	q.push(event{kind: eventLine, line: "first"})
	q.push(event{kind: eventLine, line: "second"})
	q.push(event{kind: eventEOF})

	assert.Equal(t, "first", q.pop().line)
	assert.Equal(t, "second", q.pop().line)
	assert.Equal(t, eventEOF, q.pop().kind)
}

func TestQueueBuffersWithoutConsumer(t *testing.T) {
	q := newEventQueue()

	for i := 0; i < 100; i++ {
		q.push(event{kind: eventLine, line: "line"})
	}

	assert.Equal(t, 100, q.size())
}

func TestQueueBlockingPop(t *testing.T) {
	q := newEventQueue()
	got := make(chan event, 1)

	go func() { got <- q.pop() }()
	q.push(event{kind: eventError, err: ErrSessionIdleTimeout})

	ev := <-got
	assert.Equal(t, eventError, ev.kind)
	assert.ErrorIs(t, ev.err, ErrSessionIdleTimeout)
}
