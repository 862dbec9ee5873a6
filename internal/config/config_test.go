package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.SerialBaudRate != 115200 {
		t.Errorf("expected SerialBaudRate=115200, got=%d", cfg.SerialBaudRate)
	}
	if cfg.ChunkSize != 64 {
		t.Errorf("expected ChunkSize=64, got=%d", cfg.ChunkSize)
	}
	if !cfg.HandshakeEnabled() {
		t.Error("expected handshake enabled by default")
	}
}

func TestLoadMerge(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmp := t.TempDir()
	dir := filepath.Join(tmp, ".uplink")
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"serial_port": "/dev/ttyUSB0",
		"serial_baud_rate": 9600,
		"handshake": false
	}`), 0o644)

	cfg := Load(tmp)

	if cfg.SerialPort != "/dev/ttyUSB0" {
		t.Errorf("expected serial_port from local config, got=%s", cfg.SerialPort)
	}
	if cfg.SerialBaudRate != 9600 {
		t.Errorf("expected baud rate 9600 from local config, got=%d", cfg.SerialBaudRate)
	}
	if cfg.HandshakeEnabled() {
		t.Error("expected handshake disabled by local config")
	}
	// ChunkSize not overridden, default survives.
	if cfg.ChunkSize != 64 {
		t.Errorf("expected default chunk size, got=%d", cfg.ChunkSize)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tmp := t.TempDir()
	off := false
	cfg := Defaults()
	cfg.SerialPort = "/dev/ttyACM3"
	cfg.ChunkSize = 128
	cfg.Handshake = &off

	if err := Save(cfg, tmp, false); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load(tmp)
	if loaded.SerialPort != "/dev/ttyACM3" {
		t.Errorf("expected saved port, got=%s", loaded.SerialPort)
	}
	if loaded.ChunkSize != 128 {
		t.Errorf("expected saved chunk size, got=%d", loaded.ChunkSize)
	}
	if loaded.HandshakeEnabled() {
		t.Error("expected handshake to stay disabled")
	}
}

func TestClampedChunkSize(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 64},
		{8, 16},
		{64, 64},
		{4096, 512},
	}
	for _, c := range cases {
		cfg := Config{ChunkSize: c.in}
		if got := cfg.ClampedChunkSize(); got != c.want {
			t.Errorf("ClampedChunkSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
