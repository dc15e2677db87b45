package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the host tooling configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	Blink  BlinkConfig  `yaml:"blink"`
	Verify VerifyConfig `yaml:"verify"`
	Mock   MockConfig   `yaml:"mock"`
	Log    LogConfig    `yaml:"log"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// BlinkConfig configures the blinker when it runs on host GPIO.
type BlinkConfig struct {
	Pin      string        `yaml:"pin"`
	Interval time.Duration `yaml:"interval"` // Time spent in each LED state
}

// VerifyConfig contains the acceptance parameters for a blink run.
type VerifyConfig struct {
	Tolerance      time.Duration `yaml:"tolerance"`       // Allowed deviation of each transition interval
	MinTransitions int           `yaml:"min_transitions"` // Transitions required for a pass
	Duration       time.Duration `yaml:"duration"`        // How long to observe the device
	StallTimeout   time.Duration `yaml:"stall_timeout"`   // Grace period past the interval before a stall is reported
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	Pin       string        `yaml:"pin"`
	Interval  time.Duration `yaml:"interval"`
	FailAfter int           `yaml:"fail_after"` // Pin writes before an injected failure (0 = never)
	Reboot    bool          `yaml:"reboot"`     // Reboot after a failure, like a watchdog reset
}

// LogConfig contains host logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // ESP32-C3 USB-Serial-JTAG; "COM3" on Windows
			BaudRate: 115200,
		},
		Blink: BlinkConfig{
			Pin:      "GPIO17",
			Interval: 500 * time.Millisecond,
		},
		Verify: VerifyConfig{
			Tolerance:      100 * time.Millisecond,
			MinTransitions: 10,
			Duration:       15 * time.Second,
			StallTimeout:   2 * time.Second,
		},
		Mock: MockConfig{
			Pin:       "GPIO8",
			Interval:  500 * time.Millisecond,
			FailAfter: 0,
			Reboot:    false,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the timing parameters are consistent.
func (c *Config) Validate() error {
	if c.Blink.Interval <= 0 {
		return fmt.Errorf("blink interval must be positive, got %s", c.Blink.Interval)
	}
	if c.Mock.Interval <= 0 {
		return fmt.Errorf("mock interval must be positive, got %s", c.Mock.Interval)
	}
	if c.Verify.Tolerance < 0 {
		return fmt.Errorf("verify tolerance must not be negative, got %s", c.Verify.Tolerance)
	}
	if c.Verify.Tolerance >= c.Blink.Interval {
		return fmt.Errorf("verify tolerance %s must be smaller than the blink interval %s", c.Verify.Tolerance, c.Blink.Interval)
	}
	if c.Verify.Tolerance >= c.Mock.Interval {
		return fmt.Errorf("verify tolerance %s must be smaller than the mock interval %s", c.Verify.Tolerance, c.Mock.Interval)
	}
	if c.Mock.FailAfter < 0 {
		return fmt.Errorf("mock fail_after must not be negative, got %d", c.Mock.FailAfter)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Blink.Pin == "" {
		c.Blink.Pin = def.Blink.Pin
	}
	if c.Blink.Interval == 0 {
		c.Blink.Interval = def.Blink.Interval
	}

	if c.Verify.Tolerance == 0 {
		c.Verify.Tolerance = def.Verify.Tolerance
	}
	if c.Verify.MinTransitions == 0 {
		c.Verify.MinTransitions = def.Verify.MinTransitions
	}
	if c.Verify.Duration == 0 {
		c.Verify.Duration = def.Verify.Duration
	}
	if c.Verify.StallTimeout == 0 {
		c.Verify.StallTimeout = def.Verify.StallTimeout
	}

	if c.Mock.Pin == "" {
		c.Mock.Pin = def.Mock.Pin
	}
	if c.Mock.Interval == 0 {
		c.Mock.Interval = def.Mock.Interval
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}
