package horizons

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kshetline/asteroid-comet-data-generator/pkg/telnet"
)

// Config describes how the client reaches the Horizons telnet service.
type Config struct {
	Host           string
	Port           int
	LocalAddr      string
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	SendTimeout    time.Duration

	// MaxAttempts bounds the per-body retry loop. Zero means one attempt.
	MaxAttempts int

	// Conn, when non-nil, is adopted instead of dialing Host:Port. Used by
	// tests and by callers that bring their own transport.
	Conn io.ReadWriteCloser

	// OnLine, when non-nil, observes every unmatched session line before
	// the parser consumes it.
	OnLine func(line string)

	// Observer, when non-nil, receives the raw filtered session text.
	Observer io.Writer
}

// Client fetches osculating elements over the Horizons telnet interface.
// Each fetch runs one scripted session; retry and refinement live here,
// outside the session engine.
type Client struct {
	cfg    Config
	logger zerolog.Logger
}

// NewClient creates a Horizons client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:    cfg,
		logger: log.With().Str("component", "horizons").Logger(),
	}
}

// FetchElements retrieves the osculating elements for one body across a
// span, retrying failed sessions up to cfg.MaxAttempts times.
func (c *Client) FetchElements(ctx context.Context, bodyID string, span Span) (*ElementSet, error) {
	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		set, err := c.fetchOnce(ctx, bodyID, span)
		if err == nil {
			return set, nil
		}
		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("body", bodyID).
			Int("attempt", attempt).
			Msg("Fetch attempt failed")
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, bodyID string, span Span) (*ElementSet, error) {
	parser := NewParser(bodyID)
	consumer := parser.Feed
	if tap := c.cfg.OnLine; tap != nil {
		consumer = func(line string) bool {
			tap(line)
			return parser.Feed(line)
		}
	}

	cfg := telnet.Config{
		Host:           c.cfg.Host,
		Port:           c.cfg.Port,
		LocalAddr:      c.cfg.LocalAddr,
		Conn:           c.cfg.Conn,
		ConnectTimeout: c.cfg.ConnectTimeout,
		SessionTimeout: c.cfg.IdleTimeout,
		SendTimeout:    c.cfg.SendTimeout,
		StripControls:  true,
		Echo:           c.cfg.Observer,
		OnEscape:       AnswerEscape,
	}

	c.logger.Debug().
		Str("body", bodyID).
		Time("start", span.Start).
		Time("stop", span.Stop).
		Str("step", FormatStep(span.Step)).
		Msg("Starting Horizons session")

	if err := telnet.Run(ctx, cfg, BuildScript(bodyID, span), consumer); err != nil {
		return nil, fmt.Errorf("horizons session for %s: %w", bodyID, err)
	}

	set, err := parser.Result()
	if err != nil {
		return nil, err
	}
	c.logger.Info().
		Str("body", bodyID).
		Str("name", set.Body.Name).
		Int("records", len(set.Records)).
		Msg("Elements fetched")
	return set, nil
}
