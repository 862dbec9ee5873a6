package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	DefaultBaudRate  = 115200
	DefaultChunkSize = 64

	// Chunk sizes outside this window either waste the pacing delay or
	// overrun small receive buffers.
	MinChunkSize = 16
	MaxChunkSize = 512
)

// Config holds all uplink configuration.
type Config struct {
	SerialPort     string `json:"serial_port,omitempty"`
	SerialBaudRate int    `json:"serial_baud_rate,omitempty"`
	ChunkSize      int    `json:"chunk_size,omitempty"`
	Handshake      *bool  `json:"handshake,omitempty"`
	FirmwarePath   string `json:"firmware_path,omitempty"`
	LogFile        string `json:"log_file,omitempty"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		SerialBaudRate: DefaultBaudRate,
		ChunkSize:      DefaultChunkSize,
	}
}

// HandshakeEnabled reports whether detection should verify candidates
// with the PING/PONG handshake. Enabled unless explicitly turned off.
func (c Config) HandshakeEnabled() bool {
	return c.Handshake == nil || *c.Handshake
}

// ClampedChunkSize returns the configured chunk size bounded to the
// supported window.
func (c Config) ClampedChunkSize() int {
	n := c.ChunkSize
	if n == 0 {
		n = DefaultChunkSize
	}
	if n < MinChunkSize {
		n = MinChunkSize
	}
	if n > MaxChunkSize {
		n = MaxChunkSize
	}
	return n
}

// Load reads and merges global and local configs.
// Order: defaults → global (~/.config/uplink/config.json) → local (.uplink/config.json).
func Load(workDir string) Config {
	cfg := Defaults()

	if home, err := os.UserHomeDir(); err == nil {
		globalPath := filepath.Join(home, ".config", "uplink", "config.json")
		mergeFromFile(&cfg, globalPath)
	}

	if workDir != "" {
		localPath := filepath.Join(workDir, ".uplink", "config.json")
		mergeFromFile(&cfg, localPath)
	}

	return cfg
}

// Save writes the config to the local .uplink/config.json by default,
// or to the global config if global is true.
func Save(cfg Config, workDir string, global bool) error {
	var dir string
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".config", "uplink")
	} else {
		dir = filepath.Join(workDir, ".uplink")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return
	}

	if fileCfg.SerialPort != "" {
		cfg.SerialPort = fileCfg.SerialPort
	}
	if fileCfg.SerialBaudRate != 0 {
		cfg.SerialBaudRate = fileCfg.SerialBaudRate
	}
	if fileCfg.ChunkSize != 0 {
		cfg.ChunkSize = fileCfg.ChunkSize
	}
	if fileCfg.Handshake != nil {
		cfg.Handshake = fileCfg.Handshake
	}
	if fileCfg.FirmwarePath != "" {
		cfg.FirmwarePath = fileCfg.FirmwarePath
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = fileCfg.LogFile
	}
}
