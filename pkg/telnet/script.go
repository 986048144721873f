package telnet

import (
	"regexp"
	"strings"
)

// Step is one prompt/response pair in a session script.
//
// A non-nil Pattern is tested unanchored against each whole logical line;
// otherwise a non-empty Prompt matches by line-suffix equality. A step
// with neither matcher is sent without waiting for a prompt (the usual
// leading step), except that a matcherless step with an empty response and
// Immediate unset is a reserved no-op marker the automaton skips over.
type Step struct {
	Prompt   string
	Pattern  *regexp.Regexp
	Response string

	// Immediate forces a matcherless step with an empty response to be
	// sent (as a bare record separator) rather than treated as a no-op.
	Immediate bool
}

// Expect builds a suffix-matching step.
func Expect(prompt, response string) Step {
	return Step{Prompt: prompt, Response: response}
}

// ExpectPattern builds a pattern-matching step.
func ExpectPattern(pattern *regexp.Regexp, response string) Step {
	return Step{Pattern: pattern, Response: response}
}

// SendNow builds a step whose response is sent without waiting for any
// prompt.
func SendNow(response string) Step {
	return Step{Response: response, Immediate: true}
}

func (s Step) hasMatcher() bool {
	return s.Pattern != nil || s.Prompt != ""
}

func (s Step) isNoop() bool {
	return !s.hasMatcher() && !s.Immediate && s.Response == ""
}

func (s Step) isImmediate() bool {
	return !s.hasMatcher() && !s.isNoop()
}

// matches reports whether line satisfies the step's prompt.
func (s Step) matches(line string) bool {
	if s.Pattern != nil {
		return s.Pattern.MatchString(line)
	}
	return s.Prompt != "" && strings.HasSuffix(line, s.Prompt)
}
