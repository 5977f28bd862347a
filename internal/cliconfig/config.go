package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/halport/pkg/posix"
)

// DefaultMetricsAddr is where halctl serve exposes Prometheus metrics.
const DefaultMetricsAddr = "127.0.0.1:9464"

// Config holds CLI configuration for halctl.
type Config struct {
	DataDir     string
	LogLevel    string
	MetricsAddr string

	FlushInterval time.Duration
	KeyMaxLen     int
	ValueMaxLen   int
	Watch         bool

	MaxHandles        int
	SemaphoreMax      int
	ThreadDeleteGrace time.Duration
	HeapLimit         int
	AbortOnExhaustion bool

	WifiIface string
	Cellular  posix.CellularInfo
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	pc := posix.DefaultConfig()
	return Config{
		DataDir:           pc.DataDir,
		LogLevel:          "info",
		MetricsAddr:       DefaultMetricsAddr,
		FlushInterval:     pc.KV.FlushInterval,
		KeyMaxLen:         pc.KV.KeyMaxLen,
		ValueMaxLen:       pc.KV.ValueMaxLen,
		MaxHandles:        pc.MaxHandles,
		SemaphoreMax:      pc.SemaphoreMax,
		ThreadDeleteGrace: pc.ThreadDeleteGrace,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data-dir is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log-level: %w", err)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if c.HeapLimit < 0 {
		return fmt.Errorf("heap limit must not be negative")
	}
	return c.PosixConfig().Validate()
}

// PosixConfig converts the CLI configuration into the backend configuration.
func (c *Config) PosixConfig() posix.Config {
	pc := posix.DefaultConfig()
	pc.DataDir = c.DataDir
	pc.KV.FlushInterval = c.FlushInterval
	pc.KV.KeyMaxLen = c.KeyMaxLen
	pc.KV.ValueMaxLen = c.ValueMaxLen
	pc.KV.Watch = c.Watch
	pc.MaxHandles = c.MaxHandles
	pc.SemaphoreMax = c.SemaphoreMax
	pc.ThreadDeleteGrace = c.ThreadDeleteGrace
	pc.HeapLimit = uint64(c.HeapLimit)
	pc.AbortOnExhaustion = c.AbortOnExhaustion
	pc.WifiInterface = c.WifiIface
	pc.Cellular = c.Cellular
	return pc
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
