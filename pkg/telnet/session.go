package telnet

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LineFunc consumes one unmatched logical line. Returning true stops the
// session loop; the run then completes without error even if script steps
// remain unconsumed.
type LineFunc func(line string) bool

// Session walks an ordered script of prompt/response steps against the
// line stream of one connection. The cursor into the script only ever
// moves forward; once the script is exhausted every subsequent line goes
// to the consumer until it signals stop or the stream ends.
type Session struct {
	cfg      Config
	script   []Step
	consumer LineFunc
	cursor   int
	logger   zerolog.Logger
}

// NewSession creates a session for the given connection config, script,
// and consumer. A nil consumer discards unmatched lines.
func NewSession(cfg Config, script []Step, consumer LineFunc) *Session {
	return &Session{
		cfg:      cfg,
		script:   script,
		consumer: consumer,
		logger:   log.With().Str("component", "session").Logger(),
	}
}

// Cursor returns the index of the next unconsumed script step. Read it
// only after Run has returned.
func (s *Session) Cursor() int { return s.cursor }

// Run connects (adopting cfg.Conn when supplied) and drives the script to
// completion. It returns nil when the consumer signals stop or the remote
// side ends the stream, and the underlying error for transport failures
// and timeouts. Cancelling ctx closes the transport.
func (s *Session) Run(ctx context.Context) error {
	conn, err := Dial(ctx, s.cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return s.RunConn(ctx, conn)
}

// RunConn drives the script over an established connection. The
// connection's event queue is single-consumer, so only one RunConn may be
// active per connection.
func (s *Session) RunConn(ctx context.Context, conn *Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	s.advance(conn)

	for {
		ev := conn.queue.pop()
		switch ev.kind {
		case eventEOF:
			// The remote side ending the stream is an expected way for a
			// scripted exchange to finish.
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		case eventError:
			return ev.err
		case eventLine:
			if s.handleLine(conn, ev.line) {
				return nil
			}
		}
	}
}

// handleLine matches one logical line against the current step, or hands
// it to the consumer. It reports whether the consumer asked to stop.
func (s *Session) handleLine(conn *Conn, line string) bool {
	if s.cursor < len(s.script) {
		step := s.script[s.cursor]
		if step.matches(line) {
			s.logger.Debug().Int("step", s.cursor).Str("line", line).Msg("prompt matched")
			if err := conn.Send(step.Response); err != nil {
				s.logger.Warn().Err(err).Int("step", s.cursor).Msg("scripted response failed")
			}
			s.cursor++
			s.advance(conn)
			return false
		}
	}
	return s.consumer != nil && s.consumer(line)
}

// advance moves the cursor past no-op markers and fires any matcherless
// sends it lands on, so a leading promptless step goes out before any data
// is awaited.
func (s *Session) advance(conn *Conn) {
	for s.cursor < len(s.script) {
		step := s.script[s.cursor]
		switch {
		case step.isNoop():
			s.cursor++
		case step.isImmediate():
			if err := conn.Send(step.Response); err != nil {
				s.logger.Warn().Err(err).Int("step", s.cursor).Msg("immediate send failed")
			}
			s.cursor++
		default:
			return
		}
	}
}

// Run connects and executes script with consumer in one call; see
// Session.Run.
func Run(ctx context.Context, cfg Config, script []Step, consumer LineFunc) error {
	return NewSession(cfg, script, consumer).Run(ctx)
}
