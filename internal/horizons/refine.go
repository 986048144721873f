package horizons

import (
	"context"
	"math"
	"time"
)

// Discontinuity thresholds between adjacent records. Osculating elements
// drift smoothly except across close planetary encounters; jumps larger
// than these bracket a span worth re-sampling.
const (
	maxEccJump    = 0.05 // eccentricity
	maxIncJump    = 1.0  // degrees
	maxAxisJumpPc = 0.05 // relative semi-major axis change
)

// minRefineStep is the finest interval Horizons accepts.
const minRefineStep = time.Minute

// Refine re-queries the spans around detected discontinuities at a finer
// time resolution and merges the results into set. Each level divides the
// step by four; depth bounds the recursion.
func (c *Client) Refine(ctx context.Context, set *ElementSet, span Span, depth int) (*ElementSet, error) {
	if depth <= 0 || set == nil {
		return set, nil
	}

	gaps := findDiscontinuities(set.Records)
	if len(gaps) == 0 {
		return set, nil
	}

	finer := span.Step / 4
	if finer < minRefineStep {
		return set, nil
	}

	c.logger.Info().
		Str("body", set.Body.ID).
		Int("discontinuities", len(gaps)).
		Str("step", FormatStep(finer)).
		Msg("Refining around discontinuities")

	// Cut every sub-span before merging anything: each merge re-sorts the
	// records, and the gap indexes refer to the pre-merge slice.
	for _, sub := range refineSpans(set.Records, gaps, finer) {
		fine, err := c.FetchElements(ctx, set.Body.ID, sub)
		if err != nil {
			return nil, err
		}
		fine, err = c.Refine(ctx, fine, sub, depth-1)
		if err != nil {
			return nil, err
		}
		set = Merge(set, fine)
	}
	return set, nil
}

// refineSpans converts gap indexes into the epoch windows bracketing each
// discontinuity.
func refineSpans(records []ElementRecord, gaps []int, step time.Duration) []Span {
	spans := make([]Span, 0, len(gaps))
	for _, i := range gaps {
		spans = append(spans, Span{
			Start: TimeFromJulian(records[i].Epoch),
			Stop:  TimeFromJulian(records[i+1].Epoch),
			Step:  step,
		})
	}
	return spans
}

// findDiscontinuities returns the indexes i where records i and i+1 differ
// by more than the jump thresholds.
func findDiscontinuities(records []ElementRecord) []int {
	var gaps []int
	for i := 0; i+1 < len(records); i++ {
		a, b := records[i], records[i+1]
		if math.Abs(b.Eccentricity-a.Eccentricity) > maxEccJump ||
			math.Abs(b.Inclination-a.Inclination) > maxIncJump ||
			relativeJump(a.SemiMajorAxis, b.SemiMajorAxis) > maxAxisJumpPc {
			gaps = append(gaps, i)
		}
	}
	return gaps
}

func relativeJump(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return math.Abs(b-a) / math.Abs(a)
}
