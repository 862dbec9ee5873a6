package pages

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/serial"
)

func TestPortsPageListsDevices(t *testing.T) {
	devices := []serial.Device{
		{Port: "/dev/ttyACM0", DeviceType: "Arduino Uno", VID: "0x2341", PID: "0x0043"},
		{Port: "/dev/ttyS0", DeviceType: "Unknown", VID: "N/A", PID: "N/A", Description: "onboard UART"},
	}
	p := NewPortsPage(func() ([]serial.Device, error) { return devices, nil })

	cmd := p.Init()
	if cmd == nil {
		t.Fatal("expected initial load command")
	}
	page, _ := p.Update(cmd())
	updated := page.(*PortsPage)

	view := updated.View()
	for _, want := range []string{"Found 2", "/dev/ttyACM0", "Arduino Uno", "N/A", "onboard UART"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestPortsPageRefreshKey(t *testing.T) {
	calls := 0
	p := NewPortsPage(func() ([]serial.Device, error) {
		calls++
		return nil, nil
	})

	page, _ := p.Update(p.Init()())
	page, cmd := page.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("expected refresh command")
	}
	page, _ = page.Update(cmd())

	if calls != 2 {
		t.Fatalf("expected 2 list calls, got %d", calls)
	}
	if !strings.Contains(page.View(), "No serial ports found") {
		t.Fatal("expected empty state message")
	}
}

func TestPortsPageShowsEnumerationError(t *testing.T) {
	p := NewPortsPage(func() ([]serial.Device, error) {
		return nil, errors.New("udev unavailable")
	})

	page, _ := p.Update(p.Init()())
	if !strings.Contains(page.View(), "udev unavailable") {
		t.Fatal("expected error shown")
	}
}
