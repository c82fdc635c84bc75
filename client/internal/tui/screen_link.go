package tui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

// openLinks открывает окно ссылок отчета и загружает связанные страницы.
func (m *model) openLinks(reportID int64) (tea.Model, tea.Cmd) {
	m.prevState = m.state
	m.state = linkScreen
	m.linkReportID = reportID
	m.lastLink = ""
	cmd := m.linkList.SetItems(nil)
	return m, tea.Batch(cmd, loadLinkedPagesCmd(m.ctx, m.dash, reportID))
}

// updateLinkScreen обрабатывает окно ссылок.
func (m *model) updateLinkScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc, keyBack:
			m.state = m.prevState
			return m, nil
		case keyRefresh:
			m.dash.RefreshLinkedPages(m.linkReportID)
			return m, loadLinkedPagesCmd(m.ctx, m.dash, m.linkReportID)
		case keyGenerate:
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			return m, generateLinkCmd(m.ctx, m.dash, m.linkReportID)
		}
	}
	var cmd tea.Cmd
	m.linkList, cmd = m.linkList.Update(msg)
	return m, cmd
}

// handleLinkedPagesLoaded заполняет список связанных страниц.
func (m *model) handleLinkedPagesLoaded(msg linkedPagesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.reportID != m.linkReportID {
		slog.Debug("Страницы другого отчета отброшены", "report_id", msg.reportID)
		return m, nil
	}
	if msg.err != nil {
		return m.handleLoadError(msg.err)
	}
	items := make([]list.Item, 0, len(msg.pages))
	for _, p := range msg.pages {
		items = append(items, linkedPageItem{page: p})
	}
	return m, m.linkList.SetItems(items)
}

// handleLinkGenerated показывает созданную ссылку и перезагружает связанные страницы.
func (m *model) handleLinkGenerated(msg linkGeneratedMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		return m.handleLoadError(msg.err)
	}
	if msg.link != nil && msg.link.ReportID == m.linkReportID {
		m.lastLink = msg.link.URL
	}
	return m, loadLinkedPagesCmd(m.ctx, m.dash, m.linkReportID)
}

// viewLinkScreen отрисовывает окно ссылок.
func (m *model) viewLinkScreen() string {
	var b strings.Builder
	b.WriteString(m.linkList.View())
	if m.lastLink != "" {
		b.WriteString("\n\nНовая ссылка: ")
		b.WriteString(m.lastLink)
	}
	if m.submitting {
		b.WriteString("\n\nСоздание ссылки...")
	}
	return b.String()
}
