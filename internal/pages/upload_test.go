package pages

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/config"
	"github.com/akeeley/uplink/internal/serial"
	"github.com/akeeley/uplink/internal/store"
)

// drive pumps the upload page's command loop until it settles, the way
// the bubbletea runtime would.
func drive(t *testing.T, p app.Page, cmd tea.Cmd) app.Page {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return p
		}
		p, cmd = p.Update(msg)
	}
	return p
}

func enterKey() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestUploadPageRequiresPort(t *testing.T) {
	cfg := config.Defaults()
	factory := &fakeFactory{uploader: &fakeUploader{openOK: true}}
	p := NewUploadPage(nil, &cfg, t.TempDir(), factory.new)
	p.fileInput.SetValue("fw.bin")
	p.portInput.SetValue("")

	_, cmd := p.Update(enterKey())
	if cmd != nil {
		t.Fatal("expected no command without a port")
	}
	if !strings.Contains(p.message, "No port selected") {
		t.Fatalf("unexpected message: %q", p.message)
	}
	if factory.calls != 0 {
		t.Fatal("expected no uploader to be built")
	}
}

func TestUploadPageRequiresFile(t *testing.T) {
	cfg := config.Defaults()
	factory := &fakeFactory{uploader: &fakeUploader{openOK: true}}
	p := NewUploadPage(nil, &cfg, t.TempDir(), factory.new)
	p.portInput.SetValue("/dev/ttyACM0")
	p.fileInput.SetValue("")

	_, cmd := p.Update(enterKey())
	if cmd != nil {
		t.Fatal("expected no command without a file")
	}
	if !strings.Contains(p.message, "file path is required") {
		t.Fatalf("unexpected message: %q", p.message)
	}
}

func TestUploadPageRunsTransfer(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Defaults()
	st := store.New(tmp)
	fake := &fakeUploader{
		openOK: true,
		result: serial.Result{
			Success:   true,
			Message:   "successfully uploaded 130 bytes",
			BytesSent: 130,
			Response:  "FLASH OK",
		},
		ticks: [][3]int{{49, 64, 130}, {98, 128, 130}, {100, 130, 130}},
	}
	factory := &fakeFactory{uploader: fake}

	p := NewUploadPage(st, &cfg, tmp, factory.new)
	p.fileInput.SetValue("blink.hex")
	p.portInput.SetValue("/dev/ttyACM0")

	page, cmd := p.Update(enterKey())
	if cmd == nil {
		t.Fatal("expected upload command")
	}
	page = drive(t, page, cmd)
	updated := page.(*UploadPage)

	if updated.state != uploadStateDone {
		t.Fatalf("expected done state, got %v", updated.state)
	}
	if updated.result == nil || !updated.result.Success {
		t.Fatal("expected successful result")
	}
	if updated.percent != 100 || updated.bytesSent != 130 {
		t.Fatalf("expected final progress 100%%/130B, got %d%%/%dB", updated.percent, updated.bytesSent)
	}

	if factory.port != "/dev/ttyACM0" || factory.baud != config.DefaultBaudRate {
		t.Fatalf("uploader bound to %s@%d", factory.port, factory.baud)
	}
	if fake.lastPath != "blink.hex" || fake.lastChunk != 64 {
		t.Fatalf("uploaded %q with chunk %d", fake.lastPath, fake.lastChunk)
	}
	if fake.closeCalls != 1 {
		t.Fatalf("expected connection closed once, got %d", fake.closeCalls)
	}

	uploads, err := st.Uploads()
	if err != nil {
		t.Fatalf("Uploads failed: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected 1 upload record, got %d", len(uploads))
	}
	if !uploads[0].Success || uploads[0].BytesSent != 130 {
		t.Fatalf("unexpected record: %+v", uploads[0])
	}

	// The working setup is remembered.
	if cfg.FirmwarePath != "blink.hex" || cfg.SerialPort != "/dev/ttyACM0" {
		t.Fatalf("expected config updated, got %+v", cfg)
	}
}

func TestUploadPageReportsOpenFailure(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.Defaults()
	st := store.New(tmp)
	fake := &fakeUploader{openOK: false}
	factory := &fakeFactory{uploader: fake}

	p := NewUploadPage(st, &cfg, tmp, factory.new)
	p.fileInput.SetValue("blink.hex")
	p.portInput.SetValue("/dev/ttyACM0")

	page, cmd := p.Update(enterKey())
	page = drive(t, page, cmd)
	updated := page.(*UploadPage)

	if updated.state != uploadStateDone {
		t.Fatalf("expected done state, got %v", updated.state)
	}
	if updated.result.Success {
		t.Fatal("expected failure result")
	}
	if !strings.Contains(updated.result.Message, "could not open port /dev/ttyACM0") {
		t.Fatalf("unexpected message: %q", updated.result.Message)
	}
	if fake.uploadCalls != 0 {
		t.Fatal("expected no upload after open failure")
	}

	uploads, _ := st.Uploads()
	if len(uploads) != 1 || uploads[0].Success {
		t.Fatalf("expected 1 failed record, got %+v", uploads)
	}
}

func TestUploadPageClampsChunkSize(t *testing.T) {
	cfg := config.Defaults()
	fake := &fakeUploader{openOK: true, result: serial.Result{Success: true}}
	factory := &fakeFactory{uploader: fake}

	p := NewUploadPage(nil, &cfg, t.TempDir(), factory.new)
	p.fileInput.SetValue("fw.bin")
	p.portInput.SetValue("/dev/ttyACM0")
	p.chunkInput.SetValue("9999")

	page, cmd := p.Update(enterKey())
	drive(t, page, cmd)

	if fake.lastChunk != config.MaxChunkSize {
		t.Fatalf("expected chunk clamped to %d, got %d", config.MaxChunkSize, fake.lastChunk)
	}
}

func TestUploadPageAdoptsBroadcastPort(t *testing.T) {
	cfg := config.Defaults()
	p := NewUploadPage(nil, &cfg, t.TempDir(), (&fakeFactory{}).new)

	page, _ := p.Update(app.PortSelectedMsg{Port: "/dev/ttyUSB7", DeviceType: "ESP32"})
	updated := page.(*UploadPage)
	if updated.portInput.Value() != "/dev/ttyUSB7" {
		t.Fatalf("expected port adopted, got %q", updated.portInput.Value())
	}
}
