package horizons

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDiscontinuities(t *testing.T) {
	smooth := []ElementRecord{
		{Epoch: 1, Eccentricity: 0.10, Inclination: 10.0, SemiMajorAxis: 2.75},
		{Epoch: 2, Eccentricity: 0.11, Inclination: 10.2, SemiMajorAxis: 2.76},
		{Epoch: 3, Eccentricity: 0.12, Inclination: 10.4, SemiMajorAxis: 2.77},
	}
	assert.Empty(t, findDiscontinuities(smooth))

	encounter := []ElementRecord{
		{Epoch: 1, Eccentricity: 0.10, Inclination: 10.0, SemiMajorAxis: 2.75},
		{Epoch: 2, Eccentricity: 0.30, Inclination: 10.1, SemiMajorAxis: 2.76},
		{Epoch: 3, Eccentricity: 0.31, Inclination: 14.0, SemiMajorAxis: 2.77},
	}
	assert.Equal(t, []int{0, 1}, findDiscontinuities(encounter))
}

// With more than one discontinuity, every sub-span must bracket the epochs
// the gap was detected between, regardless of what later merges insert
// into the record slice.
func TestRefineSpansBracketEachGap(t *testing.T) {
	records := make([]ElementRecord, 10)
	for i := range records {
		records[i] = ElementRecord{Epoch: 2460000.5 + float64(i), Eccentricity: 0.10, Inclination: 10.0, SemiMajorAxis: 2.75}
	}
	// Jumps between records 2-3 and 7-8.
	for i := 3; i < 8; i++ {
		records[i].Eccentricity = 0.30
	}

	gaps := findDiscontinuities(records)
	require.Equal(t, []int{2, 7}, gaps)

	spans := refineSpans(records, gaps, time.Hour)
	require.Len(t, spans, 2)

	assert.InDelta(t, 2460002.5, JulianDate(spans[0].Start), 1e-6)
	assert.InDelta(t, 2460003.5, JulianDate(spans[0].Stop), 1e-6)
	assert.InDelta(t, 2460007.5, JulianDate(spans[1].Start), 1e-6)
	assert.InDelta(t, 2460008.5, JulianDate(spans[1].Stop), 1e-6)
	assert.Equal(t, time.Hour, spans[0].Step)

	// A merge of finer records into the first gap reorders everything
	// after index 2; the second span is unaffected because it was cut
	// from the records as they stood at detection time.
	fine := &ElementSet{Records: []ElementRecord{
		{Epoch: 2460002.75, Eccentricity: 0.15},
		{Epoch: 2460003.0, Eccentricity: 0.20},
		{Epoch: 2460003.25, Eccentricity: 0.25},
	}}
	merged := Merge(&ElementSet{Records: records}, fine)
	require.Len(t, merged.Records, 13)
	assert.InDelta(t, 2460008.5, JulianDate(spans[1].Stop), 1e-6)
}
