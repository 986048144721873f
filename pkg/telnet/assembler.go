package telnet

import "strings"

// lineAssembler reassembles filtered text into logical lines, however many
// transport chunks they spanned. The terminators \r\r\n, \r\n, and a bare
// \r are all normalized to a single line break.
//
// After every feed the buffer holds either nothing or one trailing partial
// line with no embedded terminator. Trailing carriage returns are held
// back until the next chunk disambiguates them, since they may be the head
// of a \r\n or \r\r\n pair.
type lineAssembler struct {
	partial string
}

// feed appends text and returns the logical lines completed by it.
func (a *lineAssembler) feed(text string) []string {
	data := a.partial + text
	var lines []string
	start, i := 0, 0

scan:
	for i < len(data) {
		switch data[i] {
		case '\n':
			lines = append(lines, data[start:i])
			i++
			start = i
		case '\r':
			rest := data[i:]
			switch {
			case strings.HasPrefix(rest, "\r\r\n"):
				lines = append(lines, data[start:i])
				i += 3
				start = i
			case strings.HasPrefix(rest, "\r\n"):
				lines = append(lines, data[start:i])
				i += 2
				start = i
			case rest == "\r" || rest == "\r\r":
				// Possibly the start of a longer terminator; wait for the
				// next chunk.
				break scan
			default:
				// Lone carriage return acts as a terminator.
				lines = append(lines, data[start:i])
				i++
				start = i
			}
		default:
			i++
		}
	}

	a.partial = data[start:]
	return lines
}

// pending returns the unterminated tail, if any.
func (a *lineAssembler) pending() string { return a.partial }
