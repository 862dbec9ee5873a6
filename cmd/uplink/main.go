package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/config"
	"github.com/akeeley/uplink/internal/pages"
	"github.com/akeeley/uplink/internal/serial"
	"github.com/akeeley/uplink/internal/store"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(cwd)
	st := store.New(filepath.Join(cwd, ".uplink"))
	logger, closeLog := openLogger(cfg, cwd)
	defer closeLog()

	detector := serial.NewDetector(cfg.SerialBaudRate, logger)
	factory := func(portName string, baudRate int) pages.FirmwareUploader {
		return serial.NewUploader(portName, baudRate, logger)
	}

	pageMap := map[app.PageID]app.Page{
		app.DetectPage:   pages.NewDetectPage(st, &cfg, detector),
		app.UploadPage:   pages.NewUploadPage(st, &cfg, cwd, factory),
		app.PortsPage:    pages.NewPortsPage(serial.ListAllDevices),
		app.HistoryPage:  pages.NewHistoryPage(st),
		app.SettingsPage: pages.NewSettingsPage(&cfg, cwd),
	}

	model := app.New(pageMap, &cfg, cwd)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger appends diagnostics to a file; the terminal belongs to the
// UI. Logging failures fall back to a silent logger rather than
// breaking the program.
func openLogger(cfg config.Config, cwd string) (*slog.Logger, func()) {
	path := cfg.LogFile
	if path == "" {
		dir := filepath.Join(cwd, ".uplink")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
		}
		path = filepath.Join(dir, "uplink.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }
}
