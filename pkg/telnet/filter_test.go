package telnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterIdempotentOnCleanText(t *testing.T) {
	f := &escapeFilter{strip: true}
	text := "MJD, Epoch, e, q, i\n2460000.5, 0.0758, 2.5488, 10.588\n"

	out, replies := f.process(text)

	assert.Equal(t, text, out)
	assert.Empty(t, replies)
}

func TestFilterStripsControlBytes(t *testing.T) {
	f := &escapeFilter{strip: true}

	out, _ := f.process("a\x07b\x00c\td\re\nf")

	assert.Equal(t, "abc\td\re\nf", out)
}

func TestFilterExtractsCSISequence(t *testing.T) {
	var seen []string
	f := &escapeFilter{
		strip:    true,
		onEscape: func(seq string) string { seen = append(seen, seq); return "" },
	}

	out, replies := f.process("before\x1b[2Jafter")

	assert.Equal(t, "beforeafter", out)
	assert.Equal(t, []string{"\x1b[2J"}, seen)
	assert.Empty(t, replies)
}

func TestFilterRetainsSequencesWhenNotStripping(t *testing.T) {
	f := &escapeFilter{}

	out, _ := f.process("a\x1b[1mb")

	assert.Equal(t, "a\x1b[1mb", out)
}

func TestFilterSingleCharEscape(t *testing.T) {
	var seen []string
	f := &escapeFilter{
		strip:    true,
		onEscape: func(seq string) string { seen = append(seen, seq); return "" },
	}

	out, _ := f.process("x\x1b7y")

	assert.Equal(t, "xy", out)
	assert.Equal(t, []string{"\x1b7"}, seen)
}

func TestFilterCallbackReplyIsCollected(t *testing.T) {
	f := &escapeFilter{
		strip: true,
		onEscape: func(seq string) string {
			if seq == "\x1b[6n" {
				return "\x1b[24;80R"
			}
			return ""
		},
	}

	out, replies := f.process("query\x1b[6n")

	assert.Equal(t, "query", out)
	assert.Equal(t, []string{"\x1b[24;80R"}, replies)
}

func TestFilterSequenceSplitAcrossChunks(t *testing.T) {
	var seen []string
	f := &escapeFilter{
		strip:    true,
		onEscape: func(seq string) string { seen = append(seen, seq); return "" },
	}

	out1, _ := f.process("abc\x1b[")
	out2, _ := f.process("0;7mdef")

	assert.Equal(t, "abc", out1)
	assert.Equal(t, "def", out2)
	assert.Equal(t, []string{"\x1b[0;7m"}, seen)
}

func TestFilterEscAtChunkBoundary(t *testing.T) {
	var seen []string
	f := &escapeFilter{
		strip:    true,
		onEscape: func(seq string) string { seen = append(seen, seq); return "" },
	}

	out1, _ := f.process("tail\x1b")
	out2, _ := f.process("=rest")

	assert.Equal(t, "tail", out1)
	assert.Equal(t, "rest", out2)
	assert.Equal(t, []string{"\x1b="}, seen)
}
