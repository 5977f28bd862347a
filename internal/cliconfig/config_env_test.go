package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"HALPORT_DATA_DIR":       "/env/kv",
				"HALPORT_LOG_LEVEL":      "warn",
				"HALPORT_FLUSH_INTERVAL": "10s",
				"HALPORT_MAX_HANDLES":    "32",
				"HALPORT_WATCH":          "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DataDir:       "/env/kv",
				LogLevel:      "warn",
				FlushInterval: 10 * time.Second,
				MaxHandles:    32,
				Watch:         true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"HALPORT_DATA_DIR":  "/env/kv",
				"HALPORT_LOG_LEVEL": "warn",
			},
			changed: map[string]bool{"data-dir": true},
			initial: Config{LogLevel: "info"},
			expected: Config{
				LogLevel: "warn",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"HALPORT_FLUSH_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"HALPORT_SEMAPHORE_MAX": "lots",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"HALPORT_ABORT_ON_EXHAUSTION": "1",
			},
			changed:  map[string]bool{},
			expected: Config{AbortOnExhaustion: true},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"HALPORT_WATCH": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{Watch: true},
			expected: Config{Watch: false},
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"HALPORT_DATA_DIR":            "/kv",
				"HALPORT_LOG_LEVEL":           "debug",
				"HALPORT_METRICS_ADDR":        ":9100",
				"HALPORT_FLUSH_INTERVAL":      "2s",
				"HALPORT_KEY_MAX_LEN":         "32",
				"HALPORT_VALUE_MAX_LEN":       "512",
				"HALPORT_MAX_HANDLES":         "8",
				"HALPORT_SEMAPHORE_MAX":       "4",
				"HALPORT_THREAD_DELETE_GRACE": "1s",
				"HALPORT_HEAP_LIMIT":          "65536",
				"HALPORT_WIFI_IFACE":          "wlan0",
				"HALPORT_IMEI":                "imei",
				"HALPORT_MSISDN":              "msisdn",
			},
			changed: map[string]bool{},
			expected: Config{
				DataDir:           "/kv",
				LogLevel:          "debug",
				MetricsAddr:       ":9100",
				FlushInterval:     2 * time.Second,
				KeyMaxLen:         32,
				ValueMaxLen:       512,
				MaxHandles:        8,
				SemaphoreMax:      4,
				ThreadDeleteGrace: time.Second,
				HeapLimit:         65536,
				WifiIface:         "wlan0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}
			if tt.wantErr {
				return
			}

			if cfg.DataDir != tt.expected.DataDir {
				t.Errorf("DataDir = %v, want %v", cfg.DataDir, tt.expected.DataDir)
			}
			if cfg.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expected.LogLevel)
			}
			if cfg.MetricsAddr != tt.expected.MetricsAddr {
				t.Errorf("MetricsAddr = %v, want %v", cfg.MetricsAddr, tt.expected.MetricsAddr)
			}
			if cfg.FlushInterval != tt.expected.FlushInterval {
				t.Errorf("FlushInterval = %v, want %v", cfg.FlushInterval, tt.expected.FlushInterval)
			}
			if cfg.ThreadDeleteGrace != tt.expected.ThreadDeleteGrace {
				t.Errorf("ThreadDeleteGrace = %v, want %v", cfg.ThreadDeleteGrace, tt.expected.ThreadDeleteGrace)
			}
			if cfg.KeyMaxLen != tt.expected.KeyMaxLen {
				t.Errorf("KeyMaxLen = %v, want %v", cfg.KeyMaxLen, tt.expected.KeyMaxLen)
			}
			if cfg.ValueMaxLen != tt.expected.ValueMaxLen {
				t.Errorf("ValueMaxLen = %v, want %v", cfg.ValueMaxLen, tt.expected.ValueMaxLen)
			}
			if cfg.MaxHandles != tt.expected.MaxHandles {
				t.Errorf("MaxHandles = %v, want %v", cfg.MaxHandles, tt.expected.MaxHandles)
			}
			if cfg.SemaphoreMax != tt.expected.SemaphoreMax {
				t.Errorf("SemaphoreMax = %v, want %v", cfg.SemaphoreMax, tt.expected.SemaphoreMax)
			}
			if cfg.HeapLimit != tt.expected.HeapLimit {
				t.Errorf("HeapLimit = %v, want %v", cfg.HeapLimit, tt.expected.HeapLimit)
			}
			if cfg.WifiIface != tt.expected.WifiIface {
				t.Errorf("WifiIface = %v, want %v", cfg.WifiIface, tt.expected.WifiIface)
			}
			if cfg.Watch != tt.expected.Watch {
				t.Errorf("Watch = %v, want %v", cfg.Watch, tt.expected.Watch)
			}
			if cfg.AbortOnExhaustion != tt.expected.AbortOnExhaustion {
				t.Errorf("AbortOnExhaustion = %v, want %v", cfg.AbortOnExhaustion, tt.expected.AbortOnExhaustion)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		DataDir:  "/file/kv",
		LogLevel: "error",
		Watch:    &trueVal,
	}

	t.Setenv("HALPORT_DATA_DIR", "/env/kv")
	t.Setenv("HALPORT_LOG_LEVEL", "debug")
	t.Setenv("HALPORT_WIFI_IFACE", "wlan9")

	changed := map[string]bool{
		"data-dir": true,
	}

	cfg := Config{
		DataDir: "/cli/kv",
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.DataDir != "/cli/kv" {
		t.Errorf("DataDir = %v, want /cli/kv (CLI should win)", cfg.DataDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug (env should override file)", cfg.LogLevel)
	}
	if cfg.WifiIface != "wlan9" {
		t.Errorf("WifiIface = %v, want wlan9 (env should set)", cfg.WifiIface)
	}
	if cfg.Watch != true {
		t.Errorf("Watch = %v, want true (file should set)", cfg.Watch)
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(path, []byte("data_dir = \"/file/kv\"\nlog_level = \"warn\"\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HALPORT_LOG_LEVEL", "")

	cfg := DefaultConfig()
	if err := Resolve(&cfg, path, map[string]bool{}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if cfg.DataDir != "/file/kv" || cfg.LogLevel != "warn" {
		t.Errorf("cfg = %s/%s, want /file/kv/warn", cfg.DataDir, cfg.LogLevel)
	}

	cfg = DefaultConfig()
	if err := Resolve(&cfg, filepath.Join(tmpDir, "missing.toml"), nil); err != nil {
		t.Errorf("Resolve() with missing file error = %v", err)
	}

	cfg = DefaultConfig()
	t.Setenv("HALPORT_LOG_LEVEL", "shouty")
	if err := Resolve(&cfg, "", nil); err == nil {
		t.Error("Resolve() expected validation error for bad log level")
	}
}
