package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, "GPIO17", cfg.Blink.Pin)
	assert.Equal(t, 500*time.Millisecond, cfg.Blink.Interval)
	assert.Equal(t, 100*time.Millisecond, cfg.Verify.Tolerance)
	assert.Equal(t, 10, cfg.Verify.MinTransitions)
	assert.Equal(t, 15*time.Second, cfg.Verify.Duration)
	assert.Equal(t, 2*time.Second, cfg.Verify.StallTimeout)
	assert.Equal(t, "GPIO8", cfg.Mock.Pin)
	assert.Equal(t, 0, cfg.Mock.FailAfter)
	assert.False(t, cfg.Mock.Reboot)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "COM5"
  baud_rate: 921600

blink:
  pin: GPIO27
  interval: 250ms

verify:
  tolerance: 40ms
  min_transitions: 20
  duration: 30s
  stall_timeout: 1s

mock:
  pin: GPIO2
  interval: 100ms
  fail_after: 12
  reboot: true

log:
  level: debug
  format: json
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "COM5", cfg.Serial.Port)
	assert.Equal(t, 921600, cfg.Serial.BaudRate)
	assert.Equal(t, "GPIO27", cfg.Blink.Pin)
	assert.Equal(t, 250*time.Millisecond, cfg.Blink.Interval)
	assert.Equal(t, 40*time.Millisecond, cfg.Verify.Tolerance)
	assert.Equal(t, 20, cfg.Verify.MinTransitions)
	assert.Equal(t, 30*time.Second, cfg.Verify.Duration)
	assert.Equal(t, time.Second, cfg.Verify.StallTimeout)
	assert.Equal(t, "GPIO2", cfg.Mock.Pin)
	assert.Equal(t, 100*time.Millisecond, cfg.Mock.Interval)
	assert.Equal(t, 12, cfg.Mock.FailAfter)
	assert.True(t, cfg.Mock.Reboot)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyUSB0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)              // default
	assert.Equal(t, 500*time.Millisecond, cfg.Blink.Interval) // default
	assert.Equal(t, 10, cfg.Verify.MinTransitions)            // default
}

func TestLoad_InvalidTiming(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("blink:\n  interval: 50ms\nverify:\n  tolerance: 80ms\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_FastMockBelowTolerance(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("mock:\n  interval: 50ms\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock interval")
	assert.Nil(t, cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative blink interval", func(c *Config) { c.Blink.Interval = -time.Second }, true},
		{"zero mock interval", func(c *Config) { c.Mock.Interval = 0 }, true},
		{"negative tolerance", func(c *Config) { c.Verify.Tolerance = -time.Millisecond }, true},
		{"tolerance equals interval", func(c *Config) { c.Verify.Tolerance = c.Blink.Interval }, true},
		{"tolerance exceeds mock interval", func(c *Config) { c.Mock.Interval = 50 * time.Millisecond }, true},
		{"tolerance equals mock interval", func(c *Config) { c.Mock.Interval = c.Verify.Tolerance }, true},
		{"zero tolerance", func(c *Config) { c.Verify.Tolerance = 0 }, false},
		{"negative fail_after", func(c *Config) { c.Mock.FailAfter = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Blink.Interval = 750 * time.Millisecond
	cfg.Mock.Reboot = true

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 750*time.Millisecond, loaded.Blink.Interval)
	assert.True(t, loaded.Mock.Reboot)
}
