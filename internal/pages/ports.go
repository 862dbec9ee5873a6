package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/serial"
	"github.com/akeeley/uplink/internal/ui"
)

// DeviceLister enumerates labeled ports; serial.ListAllDevices in
// production, a fake in tests.
type DeviceLister func() ([]serial.Device, error)

type portsLoadedMsg struct {
	devices []serial.Device
	err     error
}

type PortsPage struct {
	list DeviceLister

	devices []serial.Device
	err     error
	loaded  bool

	width, height int
}

func NewPortsPage(list DeviceLister) *PortsPage {
	return &PortsPage{list: list}
}

func (p *PortsPage) Init() tea.Cmd {
	return p.refresh()
}

func (p *PortsPage) refresh() tea.Cmd {
	return func() tea.Msg {
		devices, err := p.list()
		return portsLoadedMsg{devices: devices, err: err}
	}
}

func (p *PortsPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case portsLoadedMsg:
		p.loaded = true
		p.devices = msg.devices
		p.err = msg.err
		return p, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p *PortsPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("All Serial Ports"))
	b.WriteString("\n")

	switch {
	case !p.loaded:
		b.WriteString(ui.DimStyle.Render("Loading ports..."))

	case p.err != nil:
		b.WriteString(ui.ErrorStyle.Render(fmt.Sprintf("Port enumeration failed: %v", p.err)))

	case len(p.devices) == 0:
		b.WriteString(ui.DimStyle.Render("No serial ports found. Connect a device and press r."))

	default:
		b.WriteString(fmt.Sprintf("Found %d serial port(s)\n\n", len(p.devices)))
		header := fmt.Sprintf("%-18s %-14s %-8s %-8s %s", "PORT", "DEVICE TYPE", "VID", "PID", "DESCRIPTION")
		b.WriteString(ui.BoldStyle.Render(header) + "\n")
		for _, d := range p.devices {
			deviceType := d.DeviceType
			if deviceType == serial.UnknownDevice {
				deviceType = ui.DimStyle.Render(fmt.Sprintf("%-14s", deviceType))
			} else {
				deviceType = fmt.Sprintf("%-14s", deviceType)
			}
			b.WriteString(fmt.Sprintf("%-18s %s %-8s %-8s %s\n",
				d.Port, deviceType, d.VID, d.PID, d.Description))
		}
	}

	return b.String()
}

func (p *PortsPage) Name() string { return "Ports" }

func (p *PortsPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (p *PortsPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
