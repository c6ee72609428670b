package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionsAreWellFormed(t *testing.T) {
	defs := Definitions()
	require.NotEmpty(t, defs)
	for _, d := range defs {
		require.NoError(t, d.validate())
		assert.True(t, IsECU(d.ECU), "unknown ecu %q", d.ECU)
	}
}

func TestIsAnomalousBoundsInclusive(t *testing.T) {
	d, ok := Lookup(BrakeECU, BrakePressure)
	require.True(t, ok)

	assert.False(t, d.IsAnomalous(d.NormalMin))
	assert.False(t, d.IsAnomalous(d.NormalMax))
	assert.True(t, d.IsAnomalous(d.NormalMax+0.001))
	assert.True(t, d.IsAnomalous(d.NormalMin-0.001))
}

func TestFormatPrecisionByUnit(t *testing.T) {
	cases := []struct {
		unit string
		v    float64
		want string
	}{
		{"km/h", 88.26, "88.3"},
		{"rpm", 3120.6, "3121"},
		{"m/s²", -1.23456, "-1.235"},
		{"bar", 61, "61.000"},
		{"deg/s", 90, "90.0"},
		{"V", 12.04, "12.0"},
	}
	for _, tc := range cases {
		d := Definition{Unit: tc.unit}
		assert.Equal(t, tc.want, d.Format(tc.v), "unit %s", tc.unit)
	}
}

func TestLookupAndECUNames(t *testing.T) {
	names := ECUNames()
	require.Len(t, names, 6)
	assert.Equal(t, EngineECU, names[0])

	names[0] = "mutated"
	assert.Equal(t, EngineECU, ECUNames()[0], "ECUNames must return a copy")

	_, ok := Lookup(EngineECU, "Nonexistent")
	assert.False(t, ok)

	d, ok := Lookup(ADASECU, FrontObjectDistance)
	require.True(t, ok)
	assert.Equal(t, "0x5E1", d.CANIDHex())
	assert.False(t, IsECU("attacker"))
}

func TestPerturbationTargetsExist(t *testing.T) {
	for _, key := range [][2]string{
		{EngineECU, VehicleSpeed},
		{BrakeECU, BrakePressure},
		{BrakeECU, ABSSlipRatio},
		{SteeringECU, YawRate},
		{Infotainment, GPSLatitude},
		{Infotainment, GPSLongitude},
		{ADASECU, LaneOffset},
		{ADASECU, FrontObjectDistance},
		{ADASECU, LongitudinalAccel},
		{ADASECU, LateralAccel},
	} {
		_, ok := Lookup(key[0], key[1])
		assert.True(t, ok, "missing %s/%s", key[0], key[1])
	}
}
