package config

import (
	"testing"
	"time"

	"github.com/mempush/mempush/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, log.EnvironmentDevelopment, cfg.Log.Environment)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout.Duration)
	assert.Equal(t, "mempush_db", cfg.DB.Name)
	assert.Equal(t, 30*time.Second, cfg.Broadcaster.RequestTimeout.Duration)
	assert.Equal(t, uint16(5), cfg.Reconciler.Workers)
	assert.Equal(t, 60*time.Second, cfg.Reconciler.SweepInterval.Duration)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Empty(t, cfg.Networks)
}
