package pages

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akeeley/uplink/internal/app"
	"github.com/akeeley/uplink/internal/store"
	"github.com/akeeley/uplink/internal/ui"
)

const maxHistoryRows = 15

type historyLoadedMsg struct {
	uploads    []store.UploadRecord
	detections []store.DetectRecord
}

type HistoryPage struct {
	store *store.Store

	uploads    []store.UploadRecord
	detections []store.DetectRecord

	width, height int
}

func NewHistoryPage(s *store.Store) *HistoryPage {
	return &HistoryPage{store: s}
}

func (p *HistoryPage) Init() tea.Cmd {
	return p.load()
}

func (p *HistoryPage) load() tea.Cmd {
	return func() tea.Msg {
		var msg historyLoadedMsg
		if p.store != nil {
			msg.uploads, _ = p.store.Uploads()
			msg.detections, _ = p.store.Detections()
		}
		return msg
	}
}

func (p *HistoryPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		p.uploads = msg.uploads
		p.detections = msg.detections
		return p, nil

	case uploadDoneMsg, detectResultMsg:
		// Another page just wrote a record; reload lazily.
		return p, p.load()

	case tea.KeyMsg:
		if msg.String() == "r" {
			return p, p.load()
		}
	}
	return p, nil
}

func (p *HistoryPage) View() string {
	var b strings.Builder
	b.WriteString(ui.Title("History"))
	b.WriteString("\n")

	b.WriteString(ui.BoldStyle.Render("Uploads") + "\n")
	if len(p.uploads) == 0 {
		b.WriteString(ui.DimStyle.Render("  No uploads yet.") + "\n")
	} else {
		for _, r := range lastUploads(p.uploads, maxHistoryRows) {
			badge := ui.ErrorBadge("FAIL")
			detail := r.Message
			if r.Success {
				badge = ui.SuccessBadge("OK")
				detail = fmt.Sprintf("%d bytes in %s", r.BytesSent, r.Duration)
			}
			b.WriteString(fmt.Sprintf("  %s  %s  %s  %s  %s\n",
				r.Timestamp.Format("2006-01-02 15:04"), badge, r.Port, r.File, ui.DimStyle.Render(detail)))
		}
	}

	b.WriteString("\n" + ui.BoldStyle.Render("Detections") + "\n")
	if len(p.detections) == 0 {
		b.WriteString(ui.DimStyle.Render("  No detections yet.") + "\n")
	} else {
		for _, r := range lastDetections(p.detections, maxHistoryRows) {
			badge := ui.WarningBadge("UNVERIFIED")
			if r.Verified {
				badge = ui.SuccessBadge("VERIFIED")
			}
			b.WriteString(fmt.Sprintf("  %s  %s  %s  %s\n",
				r.Timestamp.Format("2006-01-02 15:04"), badge, r.Port, r.DeviceType))
		}
	}

	return b.String()
}

// Records append chronologically; show the most recent first.
func lastUploads(records []store.UploadRecord, n int) []store.UploadRecord {
	out := make([]store.UploadRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out
}

func lastDetections(records []store.DetectRecord, n int) []store.DetectRecord {
	out := make([]store.DetectRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out
}

func (p *HistoryPage) Name() string { return "History" }

func (p *HistoryPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (p *HistoryPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
