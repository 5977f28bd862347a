package kvstore

import (
	"fmt"
	"time"
)

// Config bounds keys and values and sets the buffered-write flush interval.
type Config struct {
	// KeyMaxLen is the maximum key length in bytes. Default: 128
	KeyMaxLen int

	// ValueMaxLen is the maximum value length in bytes. Default: 4096
	ValueMaxLen int

	// FlushInterval bounds how long a buffered Set stays memory-only.
	// Default: 1 second
	FlushInterval time.Duration

	// Watch enables picking up records that external tooling writes into
	// or removes from the record directory. Default: false
	Watch bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		KeyMaxLen:     128,
		ValueMaxLen:   4096,
		FlushInterval: time.Second,
	}
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.KeyMaxLen <= 0 {
		c.KeyMaxLen = d.KeyMaxLen
	}
	if c.ValueMaxLen <= 0 {
		c.ValueMaxLen = d.ValueMaxLen
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.KeyMaxLen <= 0 || c.KeyMaxLen > MaxKeyLen {
		return fmt.Errorf("kv key max length must be in 1..%d", MaxKeyLen)
	}
	if c.ValueMaxLen < 0 {
		return fmt.Errorf("kv value max length must not be negative")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("kv flush interval must be positive")
	}
	return nil
}
