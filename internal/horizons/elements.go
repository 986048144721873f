package horizons

import (
	"sort"
	"time"
)

// ElementRecord is one osculating-element row from a Horizons ephemeris.
// Angles are in degrees, distances in au, and epochs are Julian dates on
// the TDB scale, exactly as Horizons reports them.
type ElementRecord struct {
	Epoch          float64 `json:"epoch"`
	Eccentricity   float64 `json:"ec"`
	PerihelionDist float64 `json:"qr"`
	Inclination    float64 `json:"in"`
	AscendingNode  float64 `json:"om"`
	ArgPerihelion  float64 `json:"w"`
	PerihelionTime float64 `json:"tp"`
	MeanMotion     float64 `json:"n"`
	MeanAnomaly    float64 `json:"ma"`
	TrueAnomaly    float64 `json:"ta"`
	SemiMajorAxis  float64 `json:"a"`
	ApoapsisDist   float64 `json:"ad"`
	SiderealPeriod float64 `json:"pr"`
}

// Body identifies the object an element set belongs to, with the physical
// parameters Horizons prints ahead of the ephemeris.
type Body struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	AbsoluteMag float64 `json:"h,omitempty"`
	MagSlope    float64 `json:"g,omitempty"`
}

// ElementSet ties a body to its fetched records, ordered by epoch.
type ElementSet struct {
	Body    Body            `json:"body"`
	Records []ElementRecord `json:"records"`
}

// epochTolerance treats two epochs closer than about a tenth of a second
// as the same instant when merging.
const epochTolerance = 1e-6

// Merge combines two element sets for the same body into one, ordered by
// epoch with duplicates removed. Records from b win on epoch collisions,
// since refinement passes fetch at finer resolution.
func Merge(a, b *ElementSet) *ElementSet {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	merged := make([]ElementRecord, 0, len(a.Records)+len(b.Records))
	merged = append(merged, b.Records...)
	for _, rec := range a.Records {
		dup := false
		for _, have := range b.Records {
			if diff := rec.Epoch - have.Epoch; diff < epochTolerance && diff > -epochTolerance {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, rec)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Epoch < merged[j].Epoch })

	out := &ElementSet{Body: a.Body, Records: merged}
	if out.Body.Name == "" {
		out.Body.Name = b.Body.Name
	}
	return out
}

// jdEpoch is the Julian date of the Unix epoch.
const jdEpoch = 2440587.5

// JulianDate converts a time to a Julian date.
func JulianDate(t time.Time) float64 {
	return jdEpoch + float64(t.UnixMilli())/86400000.0
}

// TimeFromJulian converts a Julian date to a time (UTC; the difference
// between TDB and UTC is irrelevant at the resolution spans are cut at).
func TimeFromJulian(jd float64) time.Time {
	ms := (jd - jdEpoch) * 86400000.0
	return time.UnixMilli(int64(ms)).UTC()
}
