package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				DataDir:       "/test/kv",
				LogLevel:      "debug",
				FlushInterval: "5s",
				ValueMaxLen:   8192,
				Watch:         &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DataDir:       "/test/kv",
				LogLevel:      "debug",
				FlushInterval: 5 * time.Second,
				ValueMaxLen:   8192,
				Watch:         true,
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				DataDir:  "/config/kv",
				LogLevel: "warn",
			},
			changed: map[string]bool{"data-dir": true},
			initial: Config{
				DataDir:  "/flag/kv",
				LogLevel: "info",
			},
			expected: Config{
				DataDir:  "/flag/kv", // unchanged because flag was set
				LogLevel: "warn",
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{ThreadDeleteGrace: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				DataDir:           "/kv",
				LogLevel:          "error",
				MetricsAddr:       ":9000",
				FlushInterval:     "2s",
				KeyMaxLen:         64,
				ValueMaxLen:       1024,
				Watch:             &falseVal,
				MaxHandles:        16,
				SemaphoreMax:      10,
				ThreadDeleteGrace: "250ms",
				HeapLimit:         4096,
				AbortOnExhaustion: &trueVal,
				WifiIface:         "wlan0",
				Cellular: FileCellular{
					IMEI:   "imei",
					ICCID:  "iccid",
					IMSI:   "imsi",
					MSISDN: "msisdn",
				},
			},
			changed: map[string]bool{},
			initial: Config{Watch: true},
			expected: Config{
				DataDir:           "/kv",
				LogLevel:          "error",
				MetricsAddr:       ":9000",
				FlushInterval:     2 * time.Second,
				KeyMaxLen:         64,
				ValueMaxLen:       1024,
				Watch:             false,
				MaxHandles:        16,
				SemaphoreMax:      10,
				ThreadDeleteGrace: 250 * time.Millisecond,
				HeapLimit:         4096,
				AbortOnExhaustion: true,
				WifiIface:         "wlan0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
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
			if cfg.HeapLimit != tt.expected.HeapLimit {
				t.Errorf("HeapLimit = %v, want %v", cfg.HeapLimit, tt.expected.HeapLimit)
			}
			if cfg.Watch != tt.expected.Watch {
				t.Errorf("Watch = %v, want %v", cfg.Watch, tt.expected.Watch)
			}
			if cfg.AbortOnExhaustion != tt.expected.AbortOnExhaustion {
				t.Errorf("AbortOnExhaustion = %v, want %v", cfg.AbortOnExhaustion, tt.expected.AbortOnExhaustion)
			}
			if cfg.WifiIface != tt.expected.WifiIface {
				t.Errorf("WifiIface = %v, want %v", cfg.WifiIface, tt.expected.WifiIface)
			}
		})
	}
}

func TestApplyFileConfig_Cellular(t *testing.T) {
	cfg := Config{}
	fc := FileConfig{Cellular: FileCellular{IMEI: "1", ICCID: "2", IMSI: "3", MSISDN: "4"}}
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{"msisdn": true}); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}
	if cfg.Cellular.IMEI != "1" || cfg.Cellular.ICCID != "2" || cfg.Cellular.IMSI != "3" {
		t.Errorf("Cellular = %+v", cfg.Cellular)
	}
	if cfg.Cellular.MSISDN != "" {
		t.Errorf("MSISDN = %v, want empty (flag set)", cfg.Cellular.MSISDN)
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
data_dir = "/tmp/kv"
log_level = "debug"
flush_interval = "500ms"
value_max_len = 2048
watch = true

[cellular]
imei = "490154203237518"
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.DataDir != "/tmp/kv" {
		t.Errorf("DataDir = %v, want /tmp/kv", fc.DataDir)
	}
	if fc.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", fc.LogLevel)
	}
	if fc.FlushInterval != "500ms" {
		t.Errorf("FlushInterval = %v, want 500ms", fc.FlushInterval)
	}
	if fc.ValueMaxLen != 2048 {
		t.Errorf("ValueMaxLen = %v, want 2048", fc.ValueMaxLen)
	}
	if fc.Watch == nil || *fc.Watch != true {
		t.Errorf("Watch = %v, want true", fc.Watch)
	}
	if fc.Cellular.IMEI != "490154203237518" {
		t.Errorf("Cellular.IMEI = %v", fc.Cellular.IMEI)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
data_dir = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	if path != "" && !strings.Contains(path, ".halport") {
		t.Errorf("DefaultConfigPath() = %v, should contain .halport", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
