package horizons

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Field-extraction patterns for the osculating-element table. These belong
// to the ephemeris parser, not the protocol engine: the session layer only
// ever sees opaque lines.
var (
	// epochPattern matches the row header, e.g.
	// "2460000.500000000 = A.D. 2023-Feb-25 00:00:00.0000 TDB".
	epochPattern = regexp.MustCompile(`^\s*(\d+\.\d+)\s*=\s*A\.D\.`)

	// fieldPattern matches "EC= 7.579E-02", "W = 73.42", "Tp= 2459921.6".
	fieldPattern = regexp.MustCompile(`([A-Z][A-Za-z]?)\s*=\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:E[-+]?\d+)?)`)
)

const (
	startMarker = "$$SOE"
	endMarker   = "$$EOE"
	headerTag   = "JPL/HORIZONS"
)

// ErrNoElements indicates the session produced no element records, which
// usually means the body was not found or the menu walk went off script.
var ErrNoElements = errors.New("horizons: ephemeris output contained no element records")

// Parser accumulates ephemeris output lines and extracts element records.
// Records appear between the $$SOE and $$EOE markers; the object header
// and physical parameters (H, G) precede them.
//
// Feed has the session consumer signature: it returns true once the end
// marker has been seen, which stops the session loop.
type Parser struct {
	body    Body
	records []ElementRecord
	current *ElementRecord
	inData  bool
	done    bool
}

// NewParser creates a parser for one body's ephemeris output.
func NewParser(bodyID string) *Parser {
	return &Parser{body: Body{ID: bodyID}}
}

// Feed consumes one session line.
func (p *Parser) Feed(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, startMarker):
		p.inData = true
		return false
	case strings.HasPrefix(trimmed, endMarker):
		p.flush()
		p.inData = false
		p.done = true
		return true
	}

	if p.inData {
		p.feedData(line)
	} else if !p.done {
		p.feedHeader(line)
	}
	return false
}

// Result returns the parsed element set.
func (p *Parser) Result() (*ElementSet, error) {
	p.flush()
	if len(p.records) == 0 {
		return nil, ErrNoElements
	}
	return &ElementSet{Body: p.body, Records: p.records}, nil
}

func (p *Parser) feedData(line string) {
	if m := epochPattern.FindStringSubmatch(line); m != nil {
		p.flush()
		epoch, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		p.current = &ElementRecord{Epoch: epoch}
		return
	}
	if p.current == nil {
		return
	}
	for _, m := range fieldPattern.FindAllStringSubmatch(line, -1) {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		p.assign(m[1], value)
	}
}

func (p *Parser) assign(key string, value float64) {
	switch key {
	case "EC":
		p.current.Eccentricity = value
	case "QR":
		p.current.PerihelionDist = value
	case "IN":
		p.current.Inclination = value
	case "OM":
		p.current.AscendingNode = value
	case "W":
		p.current.ArgPerihelion = value
	case "Tp":
		p.current.PerihelionTime = value
	case "N":
		p.current.MeanMotion = value
	case "MA":
		p.current.MeanAnomaly = value
	case "TA":
		p.current.TrueAnomaly = value
	case "A":
		p.current.SemiMajorAxis = value
	case "AD":
		p.current.ApoapsisDist = value
	case "PR":
		p.current.SiderealPeriod = value
	}
}

func (p *Parser) flush() {
	if p.current != nil {
		p.records = append(p.records, *p.current)
		p.current = nil
	}
}

// feedHeader captures the object name and the H/G physical parameters from
// the preamble above the data section.
func (p *Parser) feedHeader(line string) {
	if strings.HasPrefix(line, headerTag) {
		rest := strings.TrimSpace(strings.TrimPrefix(line, headerTag))
		// The name column is separated from the run date by at least two
		// spaces.
		if i := strings.Index(rest, "  "); i > 0 {
			rest = rest[:i]
		}
		if rest != "" {
			p.body.Name = rest
		}
		return
	}

	for _, m := range fieldPattern.FindAllStringSubmatch(line, -1) {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch m[1] {
		case "H":
			p.body.AbsoluteMag = value
		case "G":
			p.body.MagSlope = value
		}
	}
}
