package telnet

import (
	"bufio"
	"context"
	"net"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCommand(br *bufio.Reader) string {
	line, err := br.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

func TestSessionScriptedExchange(t *testing.T) {
	client, server := net.Pipe()
	script := []Step{
		Expect("login: ", "root"),
		ExpectPattern(regexp.MustCompile(`(?i)pass.*: `), "guest"),
	}

	var received []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		br := bufio.NewReader(server)
		server.Write([]byte("login: \r\n"))
		received = append(received, readCommand(br))
		server.Write([]byte("password: \r\n"))
		received = append(received, readCommand(br))
		server.Close()
	}()

	sess := NewSession(Config{Conn: client}, script, nil)
	err := sess.Run(context.Background())
	<-done

	require.NoError(t, err)
	assert.Equal(t, []string{"root", "guest"}, received)
	assert.Equal(t, 2, sess.Cursor())
}

func TestSessionIdleTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go server.Write([]byte("banner\r\n"))

	cfg := Config{Conn: client, SessionTimeout: 100 * time.Millisecond}
	start := time.Now()
	err := NewSession(cfg, nil, nil).Run(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrSessionIdleTimeout)
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
}

func TestSessionConsumerStop(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go server.Write([]byte("one\r\nstop here\r\nthree\r\n"))

	script := []Step{Expect("never matched: ", "x")}
	var seen []string
	sess := NewSession(Config{Conn: client}, script, func(line string) bool {
		seen = append(seen, line)
		return strings.Contains(line, "stop")
	})

	err := sess.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "stop here"}, seen)
	assert.Equal(t, 0, sess.Cursor(), "unconsumed steps are not an error")
}

func TestSessionStreamEndIsSuccess(t *testing.T) {
	client, server := net.Pipe()

	go func() {
		server.Write([]byte("goodbye\r\n"))
		server.Close()
	}()

	script := []Step{Expect("login: ", "root")}
	err := NewSession(Config{Conn: client}, script, nil).Run(context.Background())

	assert.NoError(t, err)
}

func TestSessionLeadingImmediateSend(t *testing.T) {
	client, server := net.Pipe()
	script := []Step{
		SendNow("hello"),
		Expect("ok: ", "done"),
	}

	var received []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		br := bufio.NewReader(server)
		// The leading step arrives before the server has said anything.
		received = append(received, readCommand(br))
		server.Write([]byte("ok: \r\n"))
		received = append(received, readCommand(br))
		server.Close()
	}()

	sess := NewSession(Config{Conn: client}, script, nil)
	err := sess.Run(context.Background())
	<-done

	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "done"}, received)
	assert.Equal(t, 2, sess.Cursor())
}

func TestSessionSkipsNoopSteps(t *testing.T) {
	client, server := net.Pipe()
	script := []Step{
		Expect("a: ", "1"),
		{}, // reserved no-op marker
		Expect("b: ", "2"),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		br := bufio.NewReader(server)
		server.Write([]byte("a: \r\n"))
		readCommand(br)
		server.Write([]byte("b: \r\n"))
		readCommand(br)
		server.Close()
	}()

	sess := NewSession(Config{Conn: client}, script, nil)
	err := sess.Run(context.Background())
	<-done

	require.NoError(t, err)
	assert.Equal(t, 3, sess.Cursor())
}

func TestSessionExhaustedScriptKeepsForwarding(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go server.Write([]byte("one\r\ntwo\r\nthree\r\n"))

	var seen []string
	err := Run(context.Background(), Config{Conn: client}, nil, func(line string) bool {
		seen = append(seen, line)
		return len(seen) == 3
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, seen)
}

func TestSessionContextCancel(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go server.Write([]byte("banner\r\n"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, Config{Conn: client, SessionTimeout: 5 * time.Second}, nil, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
