package posix

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/halport/pkg/hal"
	"github.com/bft-labs/halport/pkg/kvstore"
)

// CellularInfo identifies the cellular modem in NetifInfo. Empty fields are
// reported as empty values.
type CellularInfo struct {
	IMEI   string `toml:"imei"`
	ICCID  string `toml:"iccid"`
	IMSI   string `toml:"imsi"`
	MSISDN string `toml:"msisdn"`
}

// Config holds the configuration of the reference backend.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// DataDir holds the key-value record files.
	// Default: $HOME/.halport/kv
	DataDir string

	// KV bounds keys and values and sets the buffered-write flush interval.
	KV kvstore.Config

	// MaxHandles caps live handles per kind (mutexes, semaphores, threads,
	// timers). Creates beyond it fail with AllocationFailure. Default: 4096
	MaxHandles int

	// SemaphoreMax is the maximum semaphore count. Default: 255
	SemaphoreMax int

	// ThreadDeleteGrace is how long ThreadDelete waits for a cancelled
	// thread to return. Default: 100 milliseconds
	ThreadDeleteGrace time.Duration

	// HeapLimit bounds live bytes handed out by the memory facade.
	// Zero means unlimited.
	HeapLimit uint64

	// AbortOnExhaustion calls the fatal handler instead of returning
	// AllocationFailure when HeapLimit is hit.
	AbortOnExhaustion bool

	// RandomSeed seeds the PRNG at creation. Zero seeds from the clock.
	RandomSeed uint32

	// WifiInterface names the Wi-Fi interface. Empty means autodetect.
	WifiInterface string

	// Cellular is reported by NetifInfo.
	Cellular CellularInfo
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:           DefaultDataDir(),
		KV:                kvstore.DefaultConfig(),
		MaxHandles:        4096,
		SemaphoreMax:      hal.SemaphoreMaxCount,
		ThreadDeleteGrace: 100 * time.Millisecond,
	}
}

// DefaultDataDir returns $HOME/.halport/kv, or a directory below the system
// temp dir when no home is available.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), "halport", "kv")
	}
	return filepath.Join(home, ".halport", "kv")
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	c.KV.SetDefaults()
	if c.MaxHandles <= 0 {
		c.MaxHandles = d.MaxHandles
	}
	if c.SemaphoreMax <= 0 {
		c.SemaphoreMax = d.SemaphoreMax
	}
	if c.ThreadDeleteGrace <= 0 {
		c.ThreadDeleteGrace = d.ThreadDeleteGrace
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}
	if err := c.KV.Validate(); err != nil {
		return err
	}
	if c.MaxHandles <= 0 {
		return fmt.Errorf("max handles must be positive")
	}
	if c.SemaphoreMax <= 0 {
		return fmt.Errorf("semaphore max must be positive")
	}
	if c.ThreadDeleteGrace <= 0 {
		return fmt.Errorf("thread delete grace must be positive")
	}
	return nil
}
