package telnet

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the session engine. Post-connect transport
// failures are wrapped in TransportError; use errors.Is / errors.As to
// classify.
var (
	// ErrConnectTimeout indicates the connect handshake did not settle
	// within Config.ConnectTimeout.
	ErrConnectTimeout = errors.New("telnet: connect timeout")

	// ErrInvalidExternalHandle indicates a caller-supplied transport does
	// not present usable read and write halves.
	ErrInvalidExternalHandle = errors.New("telnet: external handle is not a usable duplex stream")

	// ErrSessionIdleTimeout indicates no inbound data arrived within
	// Config.SessionTimeout after the session was established.
	ErrSessionIdleTimeout = errors.New("telnet: session idle timeout")

	// ErrNotWritable indicates a write was attempted on a closed connection.
	ErrNotWritable = errors.New("telnet: connection is not writable")

	// ErrNoResponse indicates SendAndWait observed no response bytes within
	// its timeout window.
	ErrNoResponse = errors.New("telnet: no response within timeout")

	// ErrStreamEnded indicates the remote side ended the stream. The
	// session loop treats this as normal completion; it only surfaces as an
	// error when the stream ends before the connect handshake settles.
	ErrStreamEnded = errors.New("telnet: stream ended")
)

// TransportError wraps an underlying socket-level I/O error.
type TransportError struct {
	Op  string // "connect", "read", "handshake"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("telnet: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError checks if an error is a TransportError.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// WriteError indicates a synchronous failure while writing to the
// transport. It is local to the Write or Send call that produced it and
// does not tear down the session.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("telnet: write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
