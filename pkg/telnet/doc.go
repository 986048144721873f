// Package telnet implements a scripted terminal session engine for
// line-oriented telnet services.
//
// It covers three tightly coupled pieces:
//
//   - A transport and negotiation layer (Conn) that dials or adopts a
//     duplex stream, answers option-negotiation triplets inline (terminal
//     type and window size affirmatively, everything else passively), and
//     exposes line-terminator-normalized writes plus a write-and-wait
//     request/response primitive.
//   - An escape and control filter that extracts ANSI escape sequences for
//     separate handling (a callback may synthesize a reply that is written
//     straight back to the transport) and optionally strips non-printable
//     control bytes.
//   - A session automaton (Session) that reassembles filtered text into
//     logical lines, walks an ordered script of prompt/response steps, and
//     hands unmatched lines to a caller-supplied consumer.
//
// # DATA FLOW
//
//	transport → negotiation intercept → escape/control filter →
//	line assembler → bridge queue → session loop → scripted replies
//
// Transport events are produced by a single reader goroutine and consumed
// one at a time by the session loop through an unbounded FIFO queue, so
// events are always observed in arrival order. The queue is strictly
// single-consumer.
//
// # TIMEOUTS
//
// Two independent timers run alongside the loop: a one-shot connect timer
// covering everything up to the first inbound data (ErrConnectTimeout),
// and a rolling idle timer rearmed on every chunk afterwards
// (ErrSessionIdleTimeout). The remote side ending the stream is normal
// completion, not an error.
//
// # USAGE
//
//	script := []telnet.Step{
//	    telnet.Expect("login: ", "root"),
//	    telnet.ExpectPattern(regexp.MustCompile(`(?i)pass.*: `), "guest"),
//	}
//	err := telnet.Run(ctx, telnet.Config{
//	    Host:           "example.net",
//	    Port:           23,
//	    SessionTimeout: time.Minute,
//	    StripControls:  true,
//	}, script, func(line string) bool {
//	    fmt.Println(line)
//	    return false // keep going
//	})
//
// There is no cancel call beyond closing the transport: cancelling the
// context passed to Run closes it, which surfaces through the normal
// end-of-stream path.
package telnet
