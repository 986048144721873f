package telnet

// Telnet command bytes (RFC 854/855 subset).
const (
	cmdSE   byte = 0xF0 // subnegotiation end
	cmdSB   byte = 0xFA // subnegotiation begin
	cmdWILL byte = 0xFB // sender will enable option
	cmdWONT byte = 0xFC // sender won't enable option
	cmdDO   byte = 0xFD // sender asks peer to enable option
	cmdDONT byte = 0xFE // sender asks peer to disable option
	cmdIAC  byte = 0xFF // interpret as command
)

// Options we answer affirmatively. Everything else gets the blanket reply.
const (
	optTerminalType byte = 0x18
	optWindowSize   byte = 0x1F
)

// nawsReply affirms the window-size option and immediately subnegotiates a
// 9999x9999 terminal, so the remote side's paging logic never truncates
// output.
var nawsReply = []byte{
	cmdIAC, cmdWILL, optWindowSize,
	cmdIAC, cmdSB, optWindowSize, 0x27, 0x0F, 0x27, 0x0F, cmdIAC, cmdSE,
}

// isNegotiation reports whether a chunk opens with an option-negotiation
// sequence rather than data. A doubled IAC is escaped data, not a command.
func isNegotiation(chunk []byte) bool {
	return len(chunk) >= 2 && chunk[0] == cmdIAC && chunk[1] != cmdIAC
}

// negotiate consumes the leading run of (IAC, command, option) triplets
// from chunk and returns the reply bytes to write back plus the remaining
// ordinary payload (possibly empty). Scanning stops at the first byte that
// breaks the triplet pattern.
func negotiate(chunk []byte) (reply, rest []byte) {
	i := 0
	for i+3 <= len(chunk) && chunk[i] == cmdIAC && chunk[i+1] != cmdIAC {
		reply = append(reply, replyFor(chunk[i+1], chunk[i+2])...)
		i += 3
	}
	return reply, chunk[i:]
}

// replyFor computes the answer to one negotiation triplet. Terminal type
// and window size are accepted; for anything else the peer's request is
// structurally swapped into a passive reply: DO becomes WONT (we won't
// enable features on demand) and WILL becomes DO (the peer may enable
// whatever it likes on its side).
func replyFor(command, option byte) []byte {
	switch {
	case command == cmdDO && option == optTerminalType:
		return []byte{cmdIAC, cmdWILL, optTerminalType}
	case command == cmdDO && option == optWindowSize:
		return nawsReply
	case command == cmdDO:
		return []byte{cmdIAC, cmdWONT, option}
	case command == cmdWILL:
		return []byte{cmdIAC, cmdDO, option}
	}
	return nil
}
