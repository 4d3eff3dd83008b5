package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 0.6, cfg.Verification.BiometricThreshold)
	assert.Equal(t, 100, cfg.Verification.DefaultRadiusMeters)
	assert.Equal(t, 5*time.Second, cfg.Verification.NetworkProbeTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ATTENDLY_ADDR", ":9090")
	t.Setenv("ATTENDLY_VERIFICATION__BIOMETRIC_THRESHOLD", "0.72")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 0.72, cfg.Verification.BiometricThreshold)
}

func TestLoad_RejectsBadThreshold(t *testing.T) {
	t.Setenv("ATTENDLY_VERIFICATION__BIOMETRIC_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
}
