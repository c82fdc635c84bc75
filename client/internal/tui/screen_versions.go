package tui

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// pageVersions возвращает текущую страницу версий выбранного отчета.
func (m *model) pageVersions() []models.ReportVersion {
	return store.Paginate(m.dash.VisibleVersions(), m.dash.State().VersionsPagination)
}

// updateVersionListScreen обрабатывает список версий.
//
//nolint:gocyclo // Много клавиш
func (m *model) updateVersionListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	page := m.pageVersions()
	cursor, hasCursor := m.cursorVersion(page)

	switch keyMsg.String() {
	case keyEsc, keyBack:
		m.dash.Dispatch(store.SetSelectedVersionIDs{IDs: nil})
		m.state = reportListScreen
		return m, nil
	case keyUp, "k":
		if m.versionCursor > 0 {
			m.versionCursor--
		}
	case keyDown, "j":
		if m.versionCursor < len(page)-1 {
			m.versionCursor++
		}
	case keyNextPage, keyRight:
		p := m.dash.State().VersionsPagination
		if p.Skip+p.Take < len(m.dash.VisibleVersions()) {
			p.Skip += p.Take
			m.dash.Dispatch(store.SetVersionsPagination{Pagination: p})
			m.versionCursor = 0
		}
	case keyPrevPage, keyLeft:
		p := m.dash.State().VersionsPagination
		p.Skip -= p.Take
		m.dash.Dispatch(store.SetVersionsPagination{Pagination: p})
		m.versionCursor = 0
	case keySpace:
		if hasCursor {
			m.dash.Dispatch(store.ToggleVersionSelection{ID: cursor.ID})
		}
	case keyPublish:
		if hasCursor {
			if cursor.IsPublished {
				m.dash.Notifications().Push(notify.Info, "Версия уже опубликована")
				return m, nil
			}
			return m.openConfirm(workflow.Publish, cursor.ID)
		}
	case keyUnpublish:
		if hasCursor {
			if !cursor.IsPublished {
				m.dash.Notifications().Push(notify.Info, "Версия не опубликована")
				return m, nil
			}
			return m.openConfirm(workflow.Unpublish, cursor.ID)
		}
	case keyDelete:
		if len(m.dash.State().SelectedVersionIDs) == 0 && hasCursor {
			return m.openConfirm(workflow.DeleteVersions, cursor.ID)
		}
		return m.openConfirm(workflow.DeleteVersions)
	case keyDownload:
		if hasCursor {
			m.dash.Notifications().Push(notify.Info, "Скачивание макета...")
			return m, downloadCmd(m.ctx, m.dash, m.downloadDir, cursor.ReportID, cursor.ID)
		}
	case keyDesigner:
		if hasCursor {
			u, err := m.dash.DesignerURL(cursor.ReportID, cursor.ID)
			if err != nil {
				slog.Error("Не удалось собрать адрес дизайнера", "error", err)
				m.dash.Notifications().Push(notify.Error, "Адрес дизайнера недоступен")
				return m, nil
			}
			m.dash.Notifications().Push(notify.Info, "Дизайнер: "+u)
		}
	case keyRefresh:
		m.dash.RefreshVersions()
		m.loadingVers = true
		return m, loadVersionsCmd(m.ctx, m.dash)
	}
	return m, nil
}

// cursorVersion возвращает версию под курсором.
func (m *model) cursorVersion(page []models.ReportVersion) (models.ReportVersion, bool) {
	if m.versionCursor < 0 || m.versionCursor >= len(page) {
		return models.ReportVersion{}, false
	}
	return page[m.versionCursor], true
}

// clampVersionCursor держит курсор в пределах страницы версий.
func (m *model) clampVersionCursor() {
	n := len(m.pageVersions())
	if m.versionCursor >= n {
		m.versionCursor = max(n-1, 0)
	}
}

// viewVersionListScreen отрисовывает список версий.
func (m *model) viewVersionListScreen() string {
	var b strings.Builder
	s := m.dash.State()
	title := "Версии отчета"
	if s.SelectedReportID != nil {
		title = fmt.Sprintf("Версии отчета #%d", *s.SelectedReportID)
		if reports := m.dash.SelectedReports(); len(reports) == 1 {
			title = fmt.Sprintf("Версии отчета %q", reports[0].Name)
		}
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n\n")

	page := m.pageVersions()
	switch {
	case s.SelectedReportID == nil:
		b.WriteString("Выберите один отчет.\n")
	case m.loadingVers && len(page) == 0:
		b.WriteString("Загрузка версий...\n")
	case len(page) == 0:
		b.WriteString("Версий нет.\n")
	default:
		for i, v := range page {
			mark := "[ ]"
			if s.IsVersionSelected(v.ID) {
				mark = "[x]"
			}
			published := ""
			if v.IsPublished {
				published = " (опубликована)"
			}
			row := fmt.Sprintf("%s #%d %s - %s, %s%s",
				mark, v.ID, v.Version, v.CreatedOn.Format(dateLayout), v.ModifiedBy, published)
			if i == m.versionCursor {
				row = selectedRowStyle.Render("> " + row)
			} else {
				row = "  " + row
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
	}
	if n := len(s.SelectedVersionIDs); n > 0 {
		b.WriteString(fmt.Sprintf("\nОтмечено версий: %d", n))
	}
	return b.String()
}
