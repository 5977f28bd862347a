package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DataDir           string       `toml:"data_dir"`
	LogLevel          string       `toml:"log_level"`
	MetricsAddr       string       `toml:"metrics_addr"`
	FlushInterval     string       `toml:"flush_interval"`
	KeyMaxLen         int          `toml:"key_max_len"`
	ValueMaxLen       int          `toml:"value_max_len"`
	Watch             *bool        `toml:"watch"`
	MaxHandles        int          `toml:"max_handles"`
	SemaphoreMax      int          `toml:"semaphore_max"`
	ThreadDeleteGrace string       `toml:"thread_delete_grace"`
	HeapLimit         int          `toml:"heap_limit"`
	AbortOnExhaustion *bool        `toml:"abort_on_exhaustion"`
	WifiIface         string       `toml:"wifi_iface"`
	Cellular          FileCellular `toml:"cellular"`
}

// FileCellular is the [cellular] table.
type FileCellular struct {
	IMEI   string `toml:"imei"`
	ICCID  string `toml:"iccid"`
	IMSI   string `toml:"imsi"`
	MSISDN string `toml:"msisdn"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.halport/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".halport", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", fc.DataDir, &cfg.DataDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("wifi-iface", fc.WifiIface, &cfg.WifiIface)
	s.setString("imei", fc.Cellular.IMEI, &cfg.Cellular.IMEI)
	s.setString("iccid", fc.Cellular.ICCID, &cfg.Cellular.ICCID)
	s.setString("imsi", fc.Cellular.IMSI, &cfg.Cellular.IMSI)
	s.setString("msisdn", fc.Cellular.MSISDN, &cfg.Cellular.MSISDN)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("thread-delete-grace", fc.ThreadDeleteGrace, &cfg.ThreadDeleteGrace); err != nil {
		return err
	}

	s.setInt("key-max-len", fc.KeyMaxLen, &cfg.KeyMaxLen)
	s.setInt("value-max-len", fc.ValueMaxLen, &cfg.ValueMaxLen)
	s.setInt("max-handles", fc.MaxHandles, &cfg.MaxHandles)
	s.setInt("semaphore-max", fc.SemaphoreMax, &cfg.SemaphoreMax)
	s.setInt("heap-limit", fc.HeapLimit, &cfg.HeapLimit)

	s.setBool("watch", fc.Watch, &cfg.Watch)
	s.setBool("abort-on-exhaustion", fc.AbortOnExhaustion, &cfg.AbortOnExhaustion)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
