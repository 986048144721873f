package telnet

import "strings"

// EscapeFunc is invoked once per completed ANSI escape sequence with the
// literal sequence text. A non-empty return value is written back to the
// transport verbatim, which is how cursor-position queries and
// "press any key" pauses are answered.
type EscapeFunc func(seq string) string

const escByte = 0x1B

// escapeFilter extracts ANSI escape sequences from decoded text and
// optionally strips non-printable control bytes before the text reaches
// the line assembler.
//
// Two sequence forms are recognized: ESC followed by a single non-'['
// byte, and CSI sequences (ESC '[' ... terminated by the first alphabetic
// byte). The partial-sequence accumulator is carried across chunk
// boundaries, so a sequence split by network fragmentation is still
// reassembled.
type escapeFilter struct {
	strip    bool
	onEscape EscapeFunc

	inSequence bool
	csi        bool
	seq        strings.Builder
}

// process scans one decoded chunk and returns the text to forward plus any
// escape-callback replies that must be written back to the transport, in
// the order the sequences completed.
func (f *escapeFilter) process(chunk string) (out string, replies []string) {
	var b strings.Builder
	b.Grow(len(chunk))

	for i := 0; i < len(chunk); i++ {
		ch := chunk[i]

		if f.inSequence {
			f.seq.WriteByte(ch)
			if f.csi {
				if isAlpha(ch) {
					replies = f.finishSequence(&b, replies)
				}
			} else if f.seq.Len() == 2 {
				if ch == '[' {
					f.csi = true
				} else {
					replies = f.finishSequence(&b, replies)
				}
			}
			continue
		}

		if ch == escByte {
			f.inSequence = true
			f.csi = false
			f.seq.Reset()
			f.seq.WriteByte(ch)
			continue
		}

		if f.strip && ch < 0x20 && ch != '\t' && ch != '\r' && ch != '\n' {
			continue
		}
		b.WriteByte(ch)
	}

	return b.String(), replies
}

// finishSequence closes out the accumulated sequence, forwards it when
// stripping is off, and collects any callback reply.
func (f *escapeFilter) finishSequence(b *strings.Builder, replies []string) []string {
	seq := f.seq.String()
	f.inSequence = false
	f.csi = false
	f.seq.Reset()

	if !f.strip {
		b.WriteString(seq)
	}
	if f.onEscape != nil {
		if reply := f.onEscape(seq); reply != "" {
			replies = append(replies, reply)
		}
	}
	return replies
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
