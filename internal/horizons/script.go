package horizons

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kshetline/asteroid-comet-data-generator/pkg/telnet"
)

// Span is the requested ephemeris window.
type Span struct {
	Start time.Time
	Stop  time.Time
	Step  time.Duration
}

// Menu prompts along the path from the main Horizons prompt to a completed
// osculating-elements table. Patterns are unanchored so a prompt embedded
// in a longer line still matches.
var (
	mainPrompt     = "Horizons> "
	selectPrompt   = regexp.MustCompile(`\[E\]phemeris`)
	typePrompt     = regexp.MustCompile(`\[o,e,v,\?\]`)
	centerPrompt   = regexp.MustCompile(`Coordinate center`)
	planePrompt    = regexp.MustCompile(`Reference plane`)
	startPrompt    = regexp.MustCompile(`Starting\s+(TDB|CT|UT)`)
	stopPrompt     = regexp.MustCompile(`Ending\s+(TDB|CT|UT)`)
	intervalPrompt = regexp.MustCompile(`Output interval`)
	acceptPrompt   = regexp.MustCompile(`Accept default output`)
)

const dateLayout = "2006-Jan-02 15:04"

// BuildScript produces the prompt/response exchange that walks the
// Horizons menus for one body: select the object, request osculating
// elements heliocentric on the ecliptic, set the span, and accept the
// default output settings. The leading promptless step sends a bare line
// break to provoke the main prompt.
func BuildScript(bodyID string, span Span) []telnet.Step {
	return []telnet.Step{
		telnet.SendNow(""),
		telnet.Expect(mainPrompt, bodyID),
		telnet.ExpectPattern(selectPrompt, "E"),
		telnet.ExpectPattern(typePrompt, "e"),
		telnet.ExpectPattern(centerPrompt, "@sun"),
		telnet.ExpectPattern(planePrompt, "eclip"),
		telnet.ExpectPattern(startPrompt, span.Start.UTC().Format(dateLayout)),
		telnet.ExpectPattern(stopPrompt, span.Stop.UTC().Format(dateLayout)),
		telnet.ExpectPattern(intervalPrompt, FormatStep(span.Step)),
		telnet.ExpectPattern(acceptPrompt, "y"),
	}
}

// FormatStep renders a duration in the interval syntax Horizons expects:
// whole days, else hours, else minutes (the finest it accepts).
func FormatStep(d time.Duration) string {
	if d <= 0 {
		return "1d"
	}
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		m := d / time.Minute
		if m < 1 {
			m = 1
		}
		return fmt.Sprintf("%dm", m)
	}
}

// AnswerEscape replies to the terminal probes Horizons emits while sizing
// its output: a cursor-position query gets a fixed report, everything else
// is ignored.
func AnswerEscape(seq string) string {
	if len(seq) >= 2 && seq[len(seq)-1] == 'n' && seq[len(seq)-2] == '6' {
		return "\x1b[24;80R"
	}
	return ""
}
