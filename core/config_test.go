/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/boss-server-ops/Minindn/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsWithoutFile(t *testing.T) {
	core.ResetConfig()
	assert.Equal(t, "INFO", core.GetConfigStringDefault("core.log_level", "INFO"))
	assert.Equal(t, 7, core.GetConfigIntDefault("forwarder.report_interval_ms", 7))
	assert.True(t, core.GetConfigBoolDefault("missing", true))
	assert.Nil(t, core.GetConfigArrayString("client.resolutions"))
}

func TestConfigFromFile(t *testing.T) {
	defer core.ResetConfig()

	path := filepath.Join(t.TempDir(), "avs.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[core]
log_level = "DEBUG"

[forwarder]
id = "edge-b"
report_interval_ms = 150
poll_interval_ms = 0

[client]
resolutions = ["2K", "4K"]
`), 0644))
	require.NoError(t, core.LoadConfig(path))

	assert.Equal(t, "DEBUG", core.GetConfigStringDefault("core.log_level", "INFO"))
	assert.Equal(t, "edge-b", core.GetConfigStringDefault("forwarder.id", "x"))
	assert.Equal(t, 150*time.Millisecond, core.GetConfigDurationMsDefault("forwarder.report_interval_ms", time.Second))
	assert.Equal(t, time.Second, core.GetConfigDurationMsDefault("forwarder.poll_interval_ms", time.Second))
	assert.Equal(t, []string{"2K", "4K"}, core.GetConfigArrayString("client.resolutions"))

	// wrong type falls back to default
	assert.Equal(t, 3, core.GetConfigIntDefault("forwarder.id", 3))
}

func TestConfigLoadErrors(t *testing.T) {
	defer core.ResetConfig()

	err := core.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	err = core.LoadConfigString("[core\nlog_level=")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
