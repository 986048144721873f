package console

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/kshetline/asteroid-comet-data-generator/pkg/telnet"
)

const (
	// exitByte1 is Ctrl+], the telnet convention for dropping out of a
	// remote session.
	exitByte1 = 0x1D

	// exitByte2 completes the exit sequence after Ctrl+].
	exitByte2 = 'q'
)

// Console bridges the local terminal to a raw Horizons telnet session for
// manual exploration. Remote output is echoed to stdout with negotiation
// handled underneath but escape sequences left intact, so the interactive
// menus render exactly as Horizons draws them.
//
// The terminal runs in raw mode while the session is up; Ctrl+] then 'q'
// ends it, as does Ctrl+C or the remote side hanging up.
type Console struct {
	cfg    telnet.Config
	stdin  *os.File
	stdout *os.File
	logger zerolog.Logger

	oldState *term.State

	mu          sync.Mutex
	done        chan struct{}
	exitPressed bool
}

// New creates a console for the given session configuration.
func New(cfg telnet.Config) *Console {
	return &Console{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		logger: log.With().Str("component", "console").Logger(),
		done:   make(chan struct{}),
	}
}

// Run connects and relays until the user exits or the session ends. The
// terminal state is restored before returning, errors included.
func (c *Console) Run(ctx context.Context) error {
	cfg := c.cfg
	cfg.StripControls = false
	cfg.Echo = c.stdout

	conn, err := telnet.Dial(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(c.stdout, "Connected to %s:%d. Press Ctrl+] then 'q' to exit.\r\n", cfg.Host, cfg.Port)

	if err := c.setRawMode(); err != nil {
		return err
	}
	defer c.restore()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go c.pumpInput(conn)
	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		case <-c.done:
		}
		conn.Close()
	}()

	// An empty script with a swallow-everything consumer drains the line
	// queue; the echo writer has already shown the user everything.
	session := telnet.NewSession(cfg, nil, func(string) bool { return false })
	err = session.RunConn(ctx, conn)

	c.close()
	fmt.Fprintf(c.stdout, "\r\nConsole closed.\r\n")
	return err
}

// pumpInput forwards keystrokes to the remote side, watching for the exit
// sequence. Raw mode delivers bytes unbuffered, so the sequence can split
// across reads.
func (c *Console) pumpInput(conn *telnet.Conn) {
	buf := make([]byte, 1024)
	for {
		n, err := c.stdin.Read(buf)
		if err != nil {
			c.close()
			return
		}
		if n == 0 {
			continue
		}
		data := buf[:n]
		if c.sawExitSequence(data) {
			c.close()
			return
		}
		if err := conn.Write(data); err != nil {
			c.logger.Debug().Err(err).Msg("Input write after session end")
			return
		}
	}
}

func (c *Console) sawExitSequence(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range data {
		if c.exitPressed {
			if b == exitByte2 {
				return true
			}
			c.exitPressed = false
		} else if b == exitByte1 {
			c.exitPressed = true
		}
	}
	return false
}

func (c *Console) setRawMode() error {
	fd := int(c.stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("console: stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("console: raw mode: %w", err)
	}
	c.oldState = state
	return nil
}

func (c *Console) restore() {
	if c.oldState != nil {
		_ = term.Restore(int(c.stdin.Fd()), c.oldState)
	}
}

func (c *Console) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
