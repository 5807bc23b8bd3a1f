// Package config loads and saves toolchain settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds settings shared by the vm, asm and flipc tools.
type Config struct {
	Execution struct {
		MaxSteps      int    `toml:"max_steps"`
		RAMSize       uint32 `toml:"ram_size"`
		RAMStart      uint32 `toml:"ram_start"`
		StackPointer  uint32 `toml:"stack_pointer"`
		TraceState    bool   `toml:"trace_state"`
		ProgramOffset uint32 `toml:"program_offset"`
	} `toml:"execution"`

	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
		ShowMemory    bool `toml:"show_memory"`
		MemoryWindow  int  `toml:"memory_window"`
	} `toml:"debugger"`

	Display struct {
		ColorOutput  bool `toml:"color_output"`
		BytesPerLine int  `toml:"bytes_per_line"`
	} `toml:"display"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 1000000
	cfg.Execution.RAMSize = 0x8000
	cfg.Execution.RAMStart = 0x1000
	cfg.Execution.StackPointer = 0x1000
	cfg.Execution.TraceState = false
	cfg.Execution.ProgramOffset = 0

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowMemory = true
	cfg.Debugger.MemoryWindow = 64

	cfg.Display.ColorOutput = true
	cfg.Display.BytesPerLine = 16

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "flip")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "flip")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "config.toml")
}

// Load reads the default config file, falling back to defaults when it
// does not exist.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes the configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
