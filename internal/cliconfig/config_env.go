package cliconfig

import (
	"fmt"
	"os"
)

// ApplyEnvConfig applies configuration from environment variables (HALPORT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("data-dir", os.Getenv("HALPORT_DATA_DIR"), &cfg.DataDir)
	s.setString("log-level", os.Getenv("HALPORT_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("HALPORT_METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("wifi-iface", os.Getenv("HALPORT_WIFI_IFACE"), &cfg.WifiIface)
	s.setString("imei", os.Getenv("HALPORT_IMEI"), &cfg.Cellular.IMEI)
	s.setString("iccid", os.Getenv("HALPORT_ICCID"), &cfg.Cellular.ICCID)
	s.setString("imsi", os.Getenv("HALPORT_IMSI"), &cfg.Cellular.IMSI)
	s.setString("msisdn", os.Getenv("HALPORT_MSISDN"), &cfg.Cellular.MSISDN)

	if err := s.setDuration("flush-interval", os.Getenv("HALPORT_FLUSH_INTERVAL"), &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("thread-delete-grace", os.Getenv("HALPORT_THREAD_DELETE_GRACE"), &cfg.ThreadDeleteGrace); err != nil {
		return err
	}

	if err := s.setIntFromString("key-max-len", os.Getenv("HALPORT_KEY_MAX_LEN"), &cfg.KeyMaxLen); err != nil {
		return err
	}
	if err := s.setIntFromString("value-max-len", os.Getenv("HALPORT_VALUE_MAX_LEN"), &cfg.ValueMaxLen); err != nil {
		return err
	}
	if err := s.setIntFromString("max-handles", os.Getenv("HALPORT_MAX_HANDLES"), &cfg.MaxHandles); err != nil {
		return err
	}
	if err := s.setIntFromString("semaphore-max", os.Getenv("HALPORT_SEMAPHORE_MAX"), &cfg.SemaphoreMax); err != nil {
		return err
	}
	if err := s.setIntFromString("heap-limit", os.Getenv("HALPORT_HEAP_LIMIT"), &cfg.HeapLimit); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("HALPORT_WATCH"), &cfg.Watch)
	s.setBoolFromString("abort-on-exhaustion", os.Getenv("HALPORT_ABORT_ON_EXHAUSTION"), &cfg.AbortOnExhaustion)

	return nil
}

// Resolve layers the config file at path (if it exists) and HALPORT_*
// variables over cfg, leaving explicitly set flags alone, then validates.
func Resolve(cfg *Config, path string, changed map[string]bool) error {
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}
