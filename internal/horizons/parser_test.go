package horizons

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEphemeris = `JPL/HORIZONS                  1 Ceres (A801 AA)            2026-Aug-30 11:22:33
Rec #:       1 (+COV) Soln.date: 2021-Apr-13_11:04:44   # obs: 1075 (1995-2021)

IAU76/J2000 helio. ecliptic osc. elements (au, days, deg., period=Julian yrs):

  EPOCH=  2458849.5 ! 2020-Jan-01.00 (TDB)         Residual RMS= .24563
   EC= .07687465013145245  QR= 2.556401358291304   TP= 2458240.1791309435
   OM= 80.3011901917491    W=  73.80896808746482   IN= 10.59127767086216

Asteroid physical parameters (km, seconds, rotational period in hours):
   GM= 62.6284             RAD= 469.7              ROTPER= 9.07417
   H= 3.34                 G= .12                  B-V= .713

$$SOE
2460000.500000000 = A.D. 2023-Feb-25 00:00:00.0000 TDB
 EC= 7.579902088047019E-02 QR= 2.548847914228786E+00 IN= 1.058698874045722E+01
 OM= 8.026893793747614E+01 W = 7.342031410722677E+01 Tp=  2459921.619213371836
 N = 2.140176167237308E-01 MA= 1.688103871493563E+01 TA= 1.946775557184482E+01
 A = 2.757904359698720E+00 AD= 2.966960805168654E+00 PR= 1.682105572287879E+03
2460001.500000000 = A.D. 2023-Feb-26 00:00:00.0000 TDB
 EC= 7.579888217504933E-02 QR= 2.548848637875283E+00 IN= 1.058698653880489E+01
 OM= 8.026892905387284E+01 W = 7.342043630851788E+01 Tp=  2459921.619264716934
 N = 2.140176085580253E-01 MA= 1.709505168633520E+01 TA= 1.971114895227682E+01
 A = 2.757904429847925E+00 AD= 2.966960221820567E+00 PR= 1.682105636468070E+03
$$EOE

>>> Select... [A]gain, [N]ew-case, [F]tp, [M]ail, [R]edisplay, ? : `

func TestParserExtractsRecords(t *testing.T) {
	p := NewParser("1")
	stopped := false
	for _, line := range strings.Split(sampleEphemeris, "\n") {
		if p.Feed(line) {
			stopped = true
			break
		}
	}

	assert.True(t, stopped, "parser should stop the session at the end marker")

	set, err := p.Result()
	require.NoError(t, err)
	require.Len(t, set.Records, 2)

	first := set.Records[0]
	assert.InDelta(t, 2460000.5, first.Epoch, 1e-9)
	assert.InDelta(t, 7.579902088047019e-02, first.Eccentricity, 1e-15)
	assert.InDelta(t, 2.548847914228786, first.PerihelionDist, 1e-12)
	assert.InDelta(t, 10.58698874045722, first.Inclination, 1e-10)
	assert.InDelta(t, 80.26893793747614, first.AscendingNode, 1e-10)
	assert.InDelta(t, 73.42031410722677, first.ArgPerihelion, 1e-10)
	assert.InDelta(t, 2459921.619213371836, first.PerihelionTime, 1e-6)
	assert.InDelta(t, 2.757904359698720, first.SemiMajorAxis, 1e-12)

	second := set.Records[1]
	assert.InDelta(t, 2460001.5, second.Epoch, 1e-9)
}

func TestParserCapturesBodyMetadata(t *testing.T) {
	p := NewParser("1")
	for _, line := range strings.Split(sampleEphemeris, "\n") {
		if p.Feed(line) {
			break
		}
	}

	set, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, "1", set.Body.ID)
	assert.Equal(t, "1 Ceres (A801 AA)", set.Body.Name)
	assert.InDelta(t, 3.34, set.Body.AbsoluteMag, 1e-9)
	assert.InDelta(t, 0.12, set.Body.MagSlope, 1e-9)
}

func TestParserNoElements(t *testing.T) {
	p := NewParser("9999999")
	p.Feed("Horizons> ")
	p.Feed("No matches found.")

	_, err := p.Result()
	assert.ErrorIs(t, err, ErrNoElements)
}

func TestParserIgnoresProseBetweenMarkers(t *testing.T) {
	p := NewParser("1")
	p.Feed("$$SOE")
	p.Feed("2460000.500000000 = A.D. 2023-Feb-25 00:00:00.0000 TDB")
	p.Feed(" EC= 1.0E-01 QR= 2.5E+00")
	p.Feed("some stray unparseable line")
	p.Feed("$$EOE")

	set, err := p.Result()
	require.NoError(t, err)
	require.Len(t, set.Records, 1)
	assert.InDelta(t, 0.1, set.Records[0].Eccentricity, 1e-12)
}
