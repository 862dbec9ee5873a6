package pages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wrap"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/config"
	"github.com/akeeley/uplink/internal/serial"
	"github.com/akeeley/uplink/internal/store"
	"github.com/akeeley/uplink/internal/ui"
)

// FirmwareUploader is the transfer dependency of the upload page.
// *serial.Uploader satisfies it; tests substitute a fake.
type FirmwareUploader interface {
	OpenConnection() bool
	CloseConnection()
	Upload(path string, chunkSize int, progress serial.ProgressFunc) serial.Result
}

// UploaderFactory builds an uploader bound to a port and baud rate.
type UploaderFactory func(portName string, baudRate int) FirmwareUploader

type uploadField int

const (
	uploadFieldFile uploadField = iota
	uploadFieldPort
	uploadFieldChunk
	uploadFieldCount
)

type uploadState int

const (
	uploadStateIdle uploadState = iota
	uploadStateRunning
	uploadStateDone
)

const uploadLabelWidth = 11

type uploadProgressMsg struct {
	percent, sent, total int
}

type uploadDoneMsg struct {
	result   serial.Result
	duration time.Duration
}

type UploadPage struct {
	fileInput  textinput.Model
	portInput  textinput.Model
	chunkInput textinput.Model

	focusedField uploadField
	state        uploadState
	bar          progress.Model
	percent      int
	bytesSent    int
	totalBytes   int
	result       *serial.Result
	duration     time.Duration
	message      string

	progCh chan tea.Msg

	store       *store.Store
	cfg         *config.Config
	workDir     string
	newUploader UploaderFactory

	uploadStart time.Time
	uploadPort  string
	uploadFile  string
	uploadChunk int

	width, height int
}

func NewUploadPage(s *store.Store, cfg *config.Config, workDir string, factory UploaderFactory) *UploadPage {
	file := textinput.New()
	file.Placeholder = "/path/to/firmware.hex"
	file.CharLimit = 256
	file.Prompt = ""
	if cfg.FirmwarePath != "" {
		file.SetValue(cfg.FirmwarePath)
	}

	port := textinput.New()
	port.Placeholder = "detect a device or press p in the sidebar"
	port.CharLimit = 128
	port.Prompt = ""
	if cfg.SerialPort != "" {
		port.SetValue(cfg.SerialPort)
	}

	chunk := textinput.New()
	chunk.Placeholder = strconv.Itoa(config.DefaultChunkSize)
	chunk.CharLimit = 4
	chunk.Prompt = ""
	if cfg.ChunkSize != 0 && cfg.ChunkSize != config.DefaultChunkSize {
		chunk.SetValue(strconv.Itoa(cfg.ChunkSize))
	}

	file.Focus()

	return &UploadPage{
		fileInput:   file,
		portInput:   port,
		chunkInput:  chunk,
		bar:         progress.New(progress.WithDefaultGradient()),
		store:       s,
		cfg:         cfg,
		workDir:     workDir,
		newUploader: factory,
	}
}

func (p *UploadPage) Init() tea.Cmd { return nil }

func (p *UploadPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.PortSelectedMsg:
		p.portInput.SetValue(msg.Port)
		return p, nil

	case uploadProgressMsg:
		if p.state != uploadStateRunning {
			return p, nil
		}
		p.percent = msg.percent
		p.bytesSent = msg.sent
		p.totalBytes = msg.total
		return p, listenUpload(p.progCh)

	case uploadDoneMsg:
		if p.state != uploadStateRunning {
			return p, nil
		}
		p.state = uploadStateDone
		p.result = &msg.result
		p.duration = msg.duration
		if msg.result.Success {
			p.percent = 100
			p.bytesSent = msg.result.BytesSent
		}

		if p.store != nil {
			p.store.AddUpload(store.UploadRecord{
				Port:      p.uploadPort,
				File:      p.uploadFile,
				BaudRate:  p.cfg.SerialBaudRate,
				ChunkSize: p.uploadChunk,
				Timestamp: p.uploadStart,
				Success:   msg.result.Success,
				BytesSent: msg.result.BytesSent,
				Duration:  msg.duration.String(),
				Message:   msg.result.Message,
			})
		}

		// Remember what worked for next time.
		if msg.result.Success {
			p.cfg.FirmwarePath = p.uploadFile
			p.cfg.SerialPort = p.uploadPort
			p.cfg.ChunkSize = p.uploadChunk
			config.Save(*p.cfg, p.workDir, false)
		}
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *UploadPage) handleKey(msg tea.KeyMsg) (app.Page, tea.Cmd) {
	// No cancellation mid-transfer; the protocol has no abort frame.
	if p.state == uploadStateRunning {
		return p, nil
	}

	switch msg.String() {
	case "tab":
		p.advanceField(1)
		return p, nil
	case "shift+tab":
		p.advanceField(-1)
		return p, nil
	case "up":
		p.advanceField(-1)
		return p, nil
	case "down":
		p.advanceField(1)
		return p, nil
	case "enter", "ctrl+u":
		return p, p.startUpload()
	case "esc":
		if p.state == uploadStateDone {
			p.state = uploadStateIdle
			p.result = nil
			p.percent = 0
			p.bytesSent = 0
			p.totalBytes = 0
			return p, nil
		}
		p.blurAll()
		return p, nil
	}

	var cmd tea.Cmd
	switch p.focusedField {
	case uploadFieldFile:
		p.fileInput, cmd = p.fileInput.Update(msg)
	case uploadFieldPort:
		p.portInput, cmd = p.portInput.Update(msg)
	case uploadFieldChunk:
		p.chunkInput, cmd = p.chunkInput.Update(msg)
	}
	return p, cmd
}

func (p *UploadPage) startUpload() tea.Cmd {
	port := p.portInput.Value()
	if port == "" {
		p.message = "No port selected. Detect a device or pick a port first."
		return nil
	}
	file := p.fileInput.Value()
	if file == "" {
		p.message = "Firmware file path is required."
		return nil
	}
	chunk := p.chunkValue()

	p.state = uploadStateRunning
	p.message = ""
	p.result = nil
	p.percent = 0
	p.bytesSent = 0
	p.totalBytes = 0
	p.uploadStart = time.Now()
	p.uploadPort = port
	p.uploadFile = file
	p.uploadChunk = chunk

	ch := make(chan tea.Msg, 32)
	p.progCh = ch
	up := p.newUploader(port, p.cfg.SerialBaudRate)

	go func() {
		start := time.Now()
		if !up.OpenConnection() {
			ch <- uploadDoneMsg{
				result:   serial.Result{Message: fmt.Sprintf("could not open port %s", port)},
				duration: time.Since(start),
			}
			close(ch)
			return
		}

		result := up.Upload(file, chunk, func(percent, sent, total int) {
			// Never stall the transfer on a busy UI; the done message
			// carries the authoritative totals.
			select {
			case ch <- uploadProgressMsg{percent: percent, sent: sent, total: total}:
			default:
			}
		})
		// Release the port before the result becomes visible.
		up.CloseConnection()
		ch <- uploadDoneMsg{result: result, duration: time.Since(start)}
		close(ch)
	}()

	return listenUpload(ch)
}

func listenUpload(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (p *UploadPage) chunkValue() int {
	n, err := strconv.Atoi(p.chunkInput.Value())
	if err != nil || n == 0 {
		n = p.cfg.ClampedChunkSize()
	}
	if n < config.MinChunkSize {
		n = config.MinChunkSize
	}
	if n > config.MaxChunkSize {
		n = config.MaxChunkSize
	}
	return n
}

func (p *UploadPage) advanceField(dir int) {
	p.blurCurrent()
	p.focusedField = uploadField((int(p.focusedField) + int(uploadFieldCount) + dir) % int(uploadFieldCount))
	p.focusCurrent()
}

func (p *UploadPage) blurAll() {
	p.fileInput.Blur()
	p.portInput.Blur()
	p.chunkInput.Blur()
}

func (p *UploadPage) blurCurrent() {
	switch p.focusedField {
	case uploadFieldFile:
		p.fileInput.Blur()
	case uploadFieldPort:
		p.portInput.Blur()
	case uploadFieldChunk:
		p.chunkInput.Blur()
	}
}

func (p *UploadPage) focusCurrent() {
	switch p.focusedField {
	case uploadFieldFile:
		p.fileInput.Focus()
	case uploadFieldPort:
		p.portInput.Focus()
	case uploadFieldChunk:
		p.chunkInput.Focus()
	}
}

func (p *UploadPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("Upload Firmware"))
	b.WriteString("\n")

	if p.message != "" {
		b.WriteString(ui.ErrorStyle.Render(p.message) + "\n\n")
	}

	inputWidth := p.width - uploadLabelWidth - 4
	if inputWidth < 10 {
		inputWidth = 10
	}
	p.fileInput.Width = inputWidth
	p.portInput.Width = inputWidth
	p.chunkInput.Width = inputWidth

	renderLabel := func(name string, field uploadField) string {
		padded := fmt.Sprintf("%-9s", name)
		if p.focusedField == field && p.state == uploadStateIdle {
			return ui.BoldStyle.Foreground(ui.Primary).Render(padded)
		}
		return padded
	}

	b.WriteString(renderLabel("File", uploadFieldFile) + " " + p.fileInput.View() + "\n")
	b.WriteString(renderLabel("Port", uploadFieldPort) + " " + p.portInput.View() + "\n")
	b.WriteString(renderLabel("Chunk", uploadFieldChunk) + " " + p.chunkInput.View() + "\n")
	b.WriteString("\n")

	switch p.state {
	case uploadStateIdle:
		b.WriteString(ui.DimStyle.Render("enter: upload  tab: next field  esc: unfocus"))

	case uploadStateRunning:
		b.WriteString(p.viewProgress())

	case uploadStateDone:
		b.WriteString(p.viewResult())
	}

	return b.String()
}

func (p *UploadPage) viewProgress() string {
	barWidth := p.width - 8
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar.Width = barWidth

	var b strings.Builder
	b.WriteString(p.bar.ViewAs(float64(p.percent) / 100))
	b.WriteString("\n")
	b.WriteString(ui.DimStyle.Render(
		fmt.Sprintf("Uploading: %d/%d bytes (%d%%)", p.bytesSent, p.totalBytes, p.percent)))
	return b.String()
}

func (p *UploadPage) viewResult() string {
	r := p.result
	if r == nil {
		return ""
	}

	width := p.width - 4
	if width > 64 {
		width = 64
	}
	innerWidth := width - 6
	if innerWidth < 10 {
		innerWidth = 10
	}

	var inner strings.Builder
	if r.Success {
		inner.WriteString(ui.SuccessBadge("SUCCESS") + "  " + r.Message + "\n\n")
		inner.WriteString(ui.Field("Bytes Sent", strconv.Itoa(r.BytesSent)) + "\n")
		inner.WriteString(ui.Field("Duration", p.duration.Round(time.Millisecond).String()) + "\n")
		if r.Response != "" {
			inner.WriteString("\n" + ui.DimStyle.Render("Device response:") + "\n")
			inner.WriteString(wrap.String(strings.TrimSpace(r.Response), innerWidth) + "\n")
		}
	} else {
		inner.WriteString(ui.ErrorBadge("FAILED") + "  " + r.Message + "\n")
	}
	inner.WriteString("\n" + ui.DimStyle.Render("esc: reset"))

	return ui.Panel("Upload Result", inner.String(), width, 0, true)
}

func (p *UploadPage) Name() string { return "Upload" }

func (p *UploadPage) ShortHelp() []key.Binding {
	if p.state == uploadStateRunning {
		return []key.Binding{
			key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "unfocus")),
	}
}

func (p *UploadPage) InputCaptured() bool {
	return p.state == uploadStateIdle &&
		(p.fileInput.Focused() || p.portInput.Focused() || p.chunkInput.Focused())
}

func (p *UploadPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
