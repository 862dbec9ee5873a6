package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/config"
	"github.com/akeeley/uplink/internal/serial"
	"github.com/akeeley/uplink/internal/store"
	"github.com/akeeley/uplink/internal/ui"
)

// DeviceDetector is the detection dependency of the detect page.
// *serial.Detector satisfies it; tests substitute a fake.
type DeviceDetector interface {
	Detect(verifyHandshake bool) *serial.Candidate
}

type detectState int

const (
	detectStateIdle detectState = iota
	detectStateScanning
	detectStateDone
)

type detectResultMsg struct {
	candidate *serial.Candidate
	handshake bool
}

type DetectPage struct {
	detector DeviceDetector
	store    *store.Store
	cfg      *config.Config

	state     detectState
	spinner   spinner.Model
	candidate *serial.Candidate
	handshake bool

	width, height int
}

func NewDetectPage(s *store.Store, cfg *config.Config, detector DeviceDetector) *DetectPage {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &DetectPage{
		detector: detector,
		store:    s,
		cfg:      cfg,
		spinner:  sp,
	}
}

func (p *DetectPage) Init() tea.Cmd { return nil }

func (p *DetectPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "s" && p.state != detectStateScanning {
			return p, p.startScan()
		}
		return p, nil

	case spinner.TickMsg:
		if p.state != detectStateScanning {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case detectResultMsg:
		if p.state != detectStateScanning {
			return p, nil
		}
		p.state = detectStateDone
		p.candidate = msg.candidate
		p.handshake = msg.handshake

		if msg.candidate == nil {
			return p, nil
		}

		if p.store != nil {
			p.store.AddDetect(store.DetectRecord{
				Port:       msg.candidate.PortName,
				DeviceType: msg.candidate.DeviceType,
				Verified:   msg.candidate.Verified,
				Handshake:  msg.handshake,
				Timestamp:  time.Now(),
			})
		}

		// Make the detected port the app-wide target.
		c := msg.candidate
		return p, func() tea.Msg {
			return app.PortSelectedMsg{Port: c.PortName, DeviceType: c.DeviceType}
		}
	}
	return p, nil
}

func (p *DetectPage) startScan() tea.Cmd {
	p.state = detectStateScanning
	p.candidate = nil
	handshake := p.cfg.HandshakeEnabled()

	scan := func() tea.Msg {
		return detectResultMsg{
			candidate: p.detector.Detect(handshake),
			handshake: handshake,
		}
	}
	return tea.Batch(p.spinner.Tick, scan)
}

func (p *DetectPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("Detect Device"))
	b.WriteString("\n")

	switch p.state {
	case detectStateIdle:
		b.WriteString(ui.DimStyle.Render("Press s to scan for connected microcontrollers."))
		b.WriteString("\n\n")
		b.WriteString(p.handshakeHint())

	case detectStateScanning:
		b.WriteString(p.spinner.View())
		b.WriteString(" Scanning serial ports...")

	case detectStateDone:
		if p.candidate == nil {
			b.WriteString(ui.ErrorStyle.Render("No compatible device found."))
			b.WriteString("\n\n")
			b.WriteString(ui.DimStyle.Render("Check the connection and scan again with s."))
			break
		}
		b.WriteString(p.candidateCard())
	}

	return b.String()
}

func (p *DetectPage) candidateCard() string {
	c := p.candidate

	status := ui.WarningBadge("UNVERIFIED")
	if c.Verified {
		status = ui.SuccessBadge("VERIFIED")
	}

	var inner strings.Builder
	inner.WriteString(ui.Field("Port", c.PortName) + "\n")
	inner.WriteString(ui.Field("Device Type", c.DeviceType) + "\n")
	if c.Description != "" {
		inner.WriteString(ui.Field("Description", c.Description) + "\n")
	}
	if c.DeviceType != serial.UnknownDevice {
		inner.WriteString(ui.Field("VID/PID", fmt.Sprintf("0x%04X / 0x%04X", c.VID, c.PID)) + "\n")
	}
	inner.WriteString(ui.Field("Status", status) + "\n")
	inner.WriteString("\n" + p.handshakeHint())

	width := p.width - 4
	if width > 60 {
		width = 60
	}
	return ui.Panel("Device Detected", inner.String(), width, 0, true)
}

func (p *DetectPage) handshakeHint() string {
	if p.cfg.HandshakeEnabled() {
		return ui.DimStyle.Render("Handshake verification on: devices must answer PING with PONG.")
	}
	return ui.DimStyle.Render("Handshake verification off: first known device wins.")
}

func (p *DetectPage) Name() string { return "Detect" }

func (p *DetectPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
	}
}

func (p *DetectPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
