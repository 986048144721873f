package telnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Defaults applied by Dial when the corresponding Config field is zero.
const (
	DefaultConnectTimeout  = 30 * time.Second
	DefaultSessionTimeout  = 2 * time.Minute
	DefaultSendTimeout     = 5 * time.Second
	DefaultRecordSeparator = "\r\n"
	DefaultMaxResponseSize = 64 * 1024
)

// Config describes one telnet session. It is owned by the caller and
// read-only to the engine once Dial has been called.
type Config struct {
	Host string
	Port int

	// LocalAddr optionally binds the outbound connection to a local
	// address.
	LocalAddr string

	// Conn, when non-nil, is an already-open duplex stream adopted in
	// place of dialing Host:Port.
	Conn io.ReadWriteCloser

	// ConnectTimeout covers everything up to the first inbound data.
	ConnectTimeout time.Duration

	// SessionTimeout is the rolling idle timeout, rearmed on every inbound
	// chunk once the session is established.
	SessionTimeout time.Duration

	// SendTimeout is the default window SendAndWait waits for a response.
	SendTimeout time.Duration

	// RecordSeparator is appended to every Send payload. Defaults to CRLF.
	RecordSeparator string

	// InitialBytes are written immediately after the transport opens, e.g.
	// an interrupt byte or a bare CRLF to provoke a banner.
	InitialBytes []byte

	// StripControls drops non-printable control bytes and extracted escape
	// sequences from text before line assembly.
	StripControls bool

	// Echo, when non-nil, receives every filtered inbound chunk.
	Echo io.Writer

	// OnEscape is invoked for each completed ANSI escape sequence; a
	// non-empty return value is written back to the transport.
	OnEscape EscapeFunc

	// MaxResponseSize caps the response accumulator used by SendAndWait.
	MaxResponseSize int
}

// phase tracks whether transport events belong to the pending connect
// handshake or to an already-established session. The timeout and read
// paths consult it to pick between failing the connect and emitting a
// session event.
type phase int

const (
	phaseHandshaking phase = iota
	phaseEstablished
	phaseClosed
)

// pendingWrite tracks one in-flight SendAndWait: the accumulated response
// text and the pattern, if any, that resolves it early. The session layer
// serializes sends, so at most one is active per connection.
type pendingWrite struct {
	waitFor *regexp.Regexp
	buf     []byte
	done    chan string // buffered; receives the response on pattern match
}

// Conn owns the transport. It answers option negotiation inline, filters
// escape and control noise, and feeds line-assembled text into the bridge
// queue consumed by Session. The filter and assembler are touched only by
// the reader goroutine; everything shared with timers and Send calls is
// guarded by mu.
type Conn struct {
	cfg    Config
	sock   io.ReadWriteCloser
	logger zerolog.Logger

	queue  *eventQueue
	filter escapeFilter
	asm    lineAssembler

	mu           sync.Mutex
	phase        phase
	pending      *pendingWrite
	idleTimer    *time.Timer
	connectTimer *time.Timer

	ready chan error
}

// Dial opens a new outbound connection, or adopts cfg.Conn when supplied,
// and returns once the remote side has produced its first data (an adopted
// stream is considered ready immediately). The connect timeout covers
// everything up to that point.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultSessionTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.RecordSeparator == "" {
		cfg.RecordSeparator = DefaultRecordSeparator
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}

	c := &Conn{
		cfg:    cfg,
		queue:  newEventQueue(),
		filter: escapeFilter{strip: cfg.StripControls, onEscape: cfg.OnEscape},
		logger: log.With().Str("component", "telnet").Logger(),
		ready:  make(chan error, 1),
	}

	adopted := cfg.Conn != nil
	if adopted {
		if err := validateHandle(cfg.Conn); err != nil {
			return nil, err
		}
		c.sock = cfg.Conn
	} else {
		sock, err := dial(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.sock = sock
	}

	if len(cfg.InitialBytes) > 0 {
		if _, err := c.sock.Write(cfg.InitialBytes); err != nil {
			c.sock.Close()
			return nil, &WriteError{Err: err}
		}
	}

	c.connectTimer = time.AfterFunc(cfg.ConnectTimeout, c.onConnectTimeout)
	go c.readLoop()

	if adopted {
		c.establish()
		return c, nil
	}

	select {
	case err := <-c.ready:
		if err != nil {
			return nil, err
		}
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}
}

func dial(ctx context.Context, cfg Config) (net.Conn, error) {
	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	if cfg.LocalAddr != "" {
		addr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(cfg.LocalAddr, "0"))
		if err != nil {
			return nil, fmt.Errorf("telnet: invalid local address %q: %w", cfg.LocalAddr, err)
		}
		d.LocalAddr = addr
	}

	sock, err := d.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrConnectTimeout
		}
		return nil, &TransportError{Op: "connect", Err: err}
	}
	return sock, nil
}

// validateHandle checks that an externally supplied transport actually
// presents usable read and write halves. A typed nil hiding inside the
// interface is the usual failure mode.
func validateHandle(h io.ReadWriteCloser) error {
	if h == nil {
		return ErrInvalidExternalHandle
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		if v.IsNil() {
			return ErrInvalidExternalHandle
		}
	}
	return nil
}

// establish moves the connection out of the handshake phase. Idempotent;
// only the first call has any effect.
func (c *Conn) establish() {
	c.mu.Lock()
	if c.phase != phaseHandshaking {
		c.mu.Unlock()
		return
	}
	c.phase = phaseEstablished
	c.connectTimer.Stop()
	c.idleTimer = time.AfterFunc(c.cfg.SessionTimeout, c.onIdleTimeout)
	c.mu.Unlock()

	select {
	case c.ready <- nil:
	default:
	}
}

// onConnectTimeout fires at most once. Before the handshake settles it
// tears the transport down and fails Dial; if the handshake settled while
// the firing was in flight, it is surfaced as a session timeout event
// instead.
func (c *Conn) onConnectTimeout() {
	c.mu.Lock()
	if c.phase == phaseHandshaking {
		c.phase = phaseClosed
		c.mu.Unlock()
		c.sock.Close()
		select {
		case c.ready <- ErrConnectTimeout:
		default:
		}
		return
	}
	c.mu.Unlock()
	c.queue.push(event{kind: eventError, err: ErrSessionIdleTimeout})
}

func (c *Conn) onIdleTimeout() {
	c.queue.push(event{kind: eventError, err: ErrSessionIdleTimeout})
}

// readLoop is the single producer feeding the bridge queue.
func (c *Conn) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := c.sock.Read(buf)
		if n > 0 {
			c.handleChunk(buf[:n])
		}
		if err != nil {
			c.finish(err)
			return
		}
	}
}

// handleChunk runs one inbound chunk through the pipeline: negotiation
// intercept, escape/control filter, pending-send accumulation, observer
// echo, then line assembly into the queue.
func (c *Conn) handleChunk(chunk []byte) {
	c.establish()

	c.mu.Lock()
	if c.idleTimer != nil {
		c.idleTimer.Reset(c.cfg.SessionTimeout)
	}
	c.mu.Unlock()

	if isNegotiation(chunk) {
		reply, rest := negotiate(chunk)
		if len(reply) > 0 {
			if err := c.Write(reply); err != nil {
				c.logger.Debug().Err(err).Msg("negotiation reply failed")
			}
		}
		chunk = rest
	}
	if len(chunk) == 0 {
		return
	}

	text, replies := c.filter.process(string(chunk))
	for _, reply := range replies {
		if err := c.Write([]byte(reply)); err != nil {
			c.logger.Debug().Err(err).Msg("escape reply failed")
		}
	}
	if text == "" {
		return
	}

	c.mu.Lock()
	if p := c.pending; p != nil {
		p.buf = append(p.buf, text...)
		if len(p.buf) > c.cfg.MaxResponseSize {
			p.buf = p.buf[len(p.buf)-c.cfg.MaxResponseSize:]
		}
		if p.waitFor != nil && p.waitFor.Match(p.buf) {
			c.pending = nil
			p.done <- string(p.buf)
		}
	}
	c.mu.Unlock()

	if c.cfg.Echo != nil {
		_, _ = io.WriteString(c.cfg.Echo, text)
	}

	for _, line := range c.asm.feed(text) {
		c.queue.push(event{kind: eventLine, line: line})
	}
}

// finish resolves a read-loop exit. During the handshake it rejects the
// in-flight connect; afterwards it is re-emitted through the queue, with
// end/close treated as normal termination rather than failure.
func (c *Conn) finish(err error) {
	c.mu.Lock()
	handshaking := c.phase == phaseHandshaking
	closedLocally := c.phase == phaseClosed
	c.phase = phaseClosed
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if c.connectTimer != nil {
		c.connectTimer.Stop()
	}
	c.mu.Unlock()

	ended := errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)

	if handshaking {
		reason := err
		if ended {
			reason = ErrStreamEnded
		}
		select {
		case c.ready <- &TransportError{Op: "handshake", Err: reason}:
		default:
		}
		return
	}

	if ended || closedLocally {
		c.queue.push(event{kind: eventEOF})
		return
	}
	c.queue.push(event{kind: eventError, err: &TransportError{Op: "read", Err: err}})
}

// Write sends raw bytes on the transport.
func (c *Conn) Write(p []byte) error {
	c.mu.Lock()
	writable := c.phase != phaseClosed
	c.mu.Unlock()
	if !writable {
		return ErrNotWritable
	}
	if _, err := c.sock.Write(p); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Send writes text followed by the configured record separator.
func (c *Conn) Send(text string) error {
	return c.Write([]byte(text + c.cfg.RecordSeparator))
}

// SendAndWait writes text and accumulates the inbound response. With a
// non-nil waitFor it resolves as soon as the pattern matches the
// accumulated text. On timeout (cfg.SendTimeout when timeout is zero) it
// returns whatever arrived, or ErrNoResponse when nothing did.
func (c *Conn) SendAndWait(text string, waitFor *regexp.Regexp, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.cfg.SendTimeout
	}

	p := &pendingWrite{waitFor: waitFor, done: make(chan string, 1)}
	c.mu.Lock()
	c.pending = p
	c.mu.Unlock()

	if err := c.Send(text); err != nil {
		c.clearPending(p)
		return "", err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-p.done:
		return resp, nil
	case <-timer.C:
		c.clearPending(p)
		c.mu.Lock()
		resp := string(p.buf)
		c.mu.Unlock()
		if resp == "" {
			return "", ErrNoResponse
		}
		return resp, nil
	}
}

func (c *Conn) clearPending(p *pendingWrite) {
	c.mu.Lock()
	if c.pending == p {
		c.pending = nil
	}
	c.mu.Unlock()
}

// Close tears down the transport. The reader goroutine observes the closed
// socket and pushes the end-of-stream sentinel through the normal path, so
// closing is also the only way to hard-cancel a running session. Safe to
// call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.phase == phaseClosed {
		c.mu.Unlock()
		return nil
	}
	c.phase = phaseClosed
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	if c.connectTimer != nil {
		c.connectTimer.Stop()
	}
	c.mu.Unlock()
	return c.sock.Close()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
