package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENDOOR_ACCESS__NEW_OBSERVED_STATUS_ID", "3f6c1f3e-8b7a-4f0e-9f2a-1c2d3e4f5a6b")
	t.Setenv("OPENDOOR_ACCESS__ACCESS_DENIED_STATUS_ID", "7a1b2c3d-4e5f-4a6b-8c9d-0e1f2a3b4c5d")
	t.Setenv("OPENDOOR_ACCESS__ZONE_ID", "9c8b7a6d-5e4f-4d3c-8b2a-1f0e9d8c7b6a")
}

func TestLoad_Defaults(t *testing.T) {
	validEnv(t)

	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.15, cfg.Access.UserMatchThreshold)
	assert.Equal(t, 0.08, cfg.Access.ObservedMatchThreshold)
	assert.Equal(t, 7*24*time.Hour, cfg.Access.ObservedValidity)
	assert.Equal(t, 3, cfg.Access.DeniedStreakThreshold)
	assert.Equal(t, "opendoor/relay", cfg.Relay.Channel)
	assert.Equal(t, "ON", cfg.Relay.OpenPayload)
	assert.Equal(t, 5*time.Second, cfg.Capture.Cooldown)
	assert.True(t, cfg.Capture.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	validEnv(t)
	t.Setenv("OPENDOOR_SERVER__PORT", "9090")
	t.Setenv("OPENDOOR_ACCESS__USER_MATCH_THRESHOLD", "0.2")
	t.Setenv("OPENDOOR_RELAY__CHANNEL", "lab/door")

	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.2, cfg.Access.UserMatchThreshold)
	assert.Equal(t, "lab/door", cfg.Relay.Channel)
}

func TestLoad_ValidatesIdentifiers(t *testing.T) {
	validEnv(t)
	t.Setenv("OPENDOOR_ACCESS__ZONE_ID", "not-a-uuid")

	_, err := Load("nonexistent.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating config")
}

func TestLoad_RequiresZoneID(t *testing.T) {
	t.Setenv("OPENDOOR_ACCESS__NEW_OBSERVED_STATUS_ID", "3f6c1f3e-8b7a-4f0e-9f2a-1c2d3e4f5a6b")
	t.Setenv("OPENDOOR_ACCESS__ACCESS_DENIED_STATUS_ID", "7a1b2c3d-4e5f-4a6b-8c9d-0e1f2a3b4c5d")

	_, err := Load("nonexistent.yaml")
	require.Error(t, err)
}
