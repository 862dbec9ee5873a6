package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/serial"
)

// DevicesLoadedMsg is sent when the labeled port list has been loaded
// for the picker.
type DevicesLoadedMsg struct {
	Devices []serial.Device
	Err     error
}

// LoadDevices enumerates all attached ports with their registry labels.
func LoadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := serial.ListAllDevices()
		return DevicesLoadedMsg{Devices: devices, Err: err}
	}
}
