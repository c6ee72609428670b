package attack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleids/internal/catalog"
	"vehicleids/pkg/models"
)

func TestParseMode(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMode("off")
	require.NoError(t, err)
	assert.Equal(t, None, got)

	for _, raw := range []string{"", " flood", "flood\n", "Off"} {
		_, err = ParseMode(raw)
		assert.ErrorIs(t, err, ErrInvalidMode, "%q", raw)
	}

	_, err = ParseMode("FLOOD")
	assert.True(t, errors.Is(err, ErrInvalidMode))
	_, err = ParseMode("teleport")
	assert.True(t, errors.Is(err, ErrInvalidMode))
}

func TestControllerInvalidKeepsMode(t *testing.T) {
	c := NewController()
	_, err := c.Set("gps_spoof")
	require.NoError(t, err)

	m, err := c.Set("bogus")
	require.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, GPSSpoof, m)
	assert.Equal(t, GPSSpoof, c.Get())
}

func TestControllerTransitions(t *testing.T) {
	c := NewController()
	assert.Equal(t, None, c.Get())

	for _, m := range Modes() {
		got, err := c.Set(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
		got, err = c.Set(string(m))
		require.NoError(t, err)
		assert.Equal(t, m, got, "reselecting is idempotent")
	}

	_, err := c.Set("off")
	require.NoError(t, err)
	assert.Equal(t, None, c.Get())
	assert.Nil(t, c.Get().Ptr())
}

func TestSignatureForEveryMode(t *testing.T) {
	for _, m := range Modes() {
		sig, ok := SignatureFor(m)
		require.True(t, ok, "mode %s", m)
		assert.True(t, sig.Level.IsCritical())
		assert.True(t, catalog.IsECU(sig.Source))
		assert.NotEmpty(t, sig.AttackType)
	}
	_, ok := SignatureFor(None)
	assert.False(t, ok)

	sig, _ := SignatureFor(BrakeSpoof)
	assert.Equal(t, models.LevelCritical, sig.Level)
	assert.Equal(t, catalog.BrakeECU, sig.Source)
	assert.Equal(t, "Brake Spoofing", sig.AttackType)

	sig, _ = SignatureFor(Flood)
	assert.Equal(t, catalog.Telematics, sig.Source)
}
