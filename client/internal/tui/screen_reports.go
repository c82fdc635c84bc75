package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

const dateLayout = "2006-01-02 15:04"

// updateReportListScreen обрабатывает таблицу отчетов.
//
//nolint:gocyclo // Много клавиш
func (m *model) updateReportListScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.queryInput.Focused() {
		return m.updateQueryInput(keyMsg)
	}

	visible := m.dash.VisibleReports()
	switch keyMsg.String() {
	case keyQuit:
		return m, tea.Quit
	case keySearch:
		m.queryInput.Focus()
		return m, nil
	case keyUp, "k":
		if m.reportCursor > 0 {
			m.reportCursor--
		}
	case keyDown, "j":
		if m.reportCursor < len(visible)-1 {
			m.reportCursor++
		}
	case keyNextPage, keyRight:
		m.dash.Dispatch(store.NextReportsPage{Total: m.dash.FilteredCount()})
		m.reportCursor = 0
	case keyPrevPage, keyLeft:
		m.dash.Dispatch(store.PrevReportsPage{})
		m.reportCursor = 0
	case keySpace:
		if r, found := m.cursorReport(visible); found {
			m.dash.Dispatch(store.ToggleReportSelection{ID: r.ID})
		}
	case keyEsc:
		m.dash.Dispatch(store.ClearSelection{})
	case keyEnter:
		r, found := m.cursorReport(visible)
		if !found {
			return m, nil
		}
		m.selectReport(r.ID)
		m.versionCursor = 0
		m.state = versionListScreen
		m.loadingVers = true
		return m, loadVersionsCmd(m.ctx, m.dash)
	case keyCopy:
		kind := m.prepareReportAction(visible, workflow.Copy, workflow.BulkCopy)
		return m.openCopy(kind)
	case keyDelete:
		kind := m.prepareReportAction(visible, workflow.Delete, workflow.BulkDelete)
		return m.openConfirm(kind)
	case keyLink:
		r, found := m.cursorReport(visible)
		if !found {
			return m, nil
		}
		m.selectReport(r.ID)
		return m.openLinks(r.ID)
	case keyCompany:
		m.state = companyScreen
		return m, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
	case keyEnv:
		return m.openEnvironments()
	case keyLogin:
		return m.openLogin()
	case keyRefresh:
		m.dash.RefreshReports()
		m.loadingReports = true
		return m, loadOverviewCmd(m.ctx, m.dash)
	}
	return m, nil
}

// updateQueryInput передает ввод в строку поиска и применяет запрос к списку.
func (m *model) updateQueryInput(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case keyEnter, keyEsc:
		m.queryInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(keyMsg)
	if m.queryInput.Value() != m.dash.State().Query {
		// Новый запрос возвращает на первую страницу
		m.dash.Dispatch(store.SetQuery{Text: m.queryInput.Value()})
		m.reportCursor = 0
	}
	return m, cmd
}

// cursorReport возвращает отчет под курсором.
func (m *model) cursorReport(visible []models.Report) (models.Report, bool) {
	if m.reportCursor < 0 || m.reportCursor >= len(visible) {
		return models.Report{}, false
	}
	return visible[m.reportCursor], true
}

// selectReport делает отчет одиночно выбранным.
func (m *model) selectReport(id int64) {
	m.dash.Dispatch(store.SetSelectedReportID{ID: &id})
}

// prepareReportAction выбирает одиночное или массовое действие.
// Без отметок действие применяется к отчету под курсором.
func (m *model) prepareReportAction(visible []models.Report, single, bulk workflow.Kind) workflow.Kind {
	if len(m.dash.State().SelectedReportIDs) > 0 {
		return bulk
	}
	if r, found := m.cursorReport(visible); found {
		m.selectReport(r.ID)
	}
	return single
}

// clampReportCursor держит курсор в пределах текущей страницы.
func (m *model) clampReportCursor() {
	n := len(m.dash.VisibleReports())
	if m.reportCursor >= n {
		m.reportCursor = max(n-1, 0)
	}
}

// viewKPIs возвращает строку статистики компании.
func (m *model) viewKPIs() string {
	stats := m.dash.Stats()
	line := fmt.Sprintf("Найдено: %d (активных %d, неактивных %d)", stats.Total, stats.Active, stats.Inactive)
	if kpis, ok := m.dash.KPIs(); ok && kpis != nil {
		line += fmt.Sprintf(" | Всего отчетов: %d | Версий: %d, опубликовано: %d",
			kpis.TotalReports, kpis.TotalVersions, kpis.PublishedVersions)
	}
	return line
}

// viewReportListScreen отрисовывает таблицу отчетов.
func (m *model) viewReportListScreen() string {
	var b strings.Builder
	b.WriteString(m.queryInput.View())
	b.WriteString("\n")
	b.WriteString(m.viewKPIs())
	b.WriteString("\n\n")

	s := m.dash.State()
	visible := m.dash.VisibleReports()
	switch {
	case m.loadingReports && len(visible) == 0:
		b.WriteString("Загрузка отчетов...\n")
	case len(visible) == 0 && s.Query != "":
		b.WriteString(fmt.Sprintf("Ничего не найдено по запросу %q.\n", s.Query))
	case len(visible) == 0:
		b.WriteString("Отчетов нет.\n")
	default:
		b.WriteString(headerStyle.Render(fmt.Sprintf("    %-6s %-40s %-8s %-16s %s", "ID", "Имя", "Статус", "Изменен", "Автор")))
		b.WriteString("\n")
		for i, r := range visible {
			mark := "[ ]"
			if s.IsReportSelected(r.ID) {
				mark = "[x]"
			}
			status := "off"
			if r.Active {
				status = "on"
			}
			row := fmt.Sprintf("%s %-6d %-40s %-8s %-16s %s",
				mark, r.ID, truncate(r.Name, 40), status, r.ModifiedOn.Format(dateLayout), r.ModifiedBy)
			if i == m.reportCursor {
				row = selectedRowStyle.Render("> " + row)
			} else {
				row = "  " + row
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
	}

	total := m.dash.FilteredCount()
	p := s.ReportsPagination
	pages := 1
	if total > 0 && p.Take > 0 {
		pages = (total + p.Take - 1) / p.Take
	}
	page := 1
	if p.Take > 0 {
		page = p.Skip/p.Take + 1
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("\nСтраница %d из %d", page, pages)))
	if n := len(s.SelectedReportIDs); n > 0 {
		b.WriteString(fmt.Sprintf("  | Отмечено: %d", n))
	}
	return b.String()
}

// truncate обрезает строку до n символов.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// openCopy открывает окно копирования для kind.
func (m *model) openCopy(kind workflow.Kind) (tea.Model, tea.Cmd) {
	if err := m.dash.Begin(kind); err != nil {
		if !errors.Is(err, workflow.ErrNoSelection) {
			slog.Error("Не удалось открыть окно копирования", "error", err)
		}
		return m, nil
	}
	m.prevState = m.state
	m.copyKind = kind
	m.state = copyScreen
	m.copyFocus = copyFieldEnvironment
	m.copyNameInput.SetValue("")
	m.copyNameInput.Blur()
	s := m.dash.State()
	if s.CopyEnvironment == nil {
		return m, nil
	}
	return m, loadCopyCompaniesCmd(m.ctx, m.dash, *s.CopyEnvironment)
}

// openConfirm открывает подтверждение действия kind.
func (m *model) openConfirm(kind workflow.Kind, targets ...int64) (tea.Model, tea.Cmd) {
	if err := m.dash.Begin(kind, targets...); err != nil {
		if !errors.Is(err, workflow.ErrNoSelection) {
			slog.Error("Не удалось открыть подтверждение", "kind", kind.String(), "error", err)
		}
		return m, nil
	}
	m.prevState = m.state
	m.confirmKind = kind
	m.state = confirmScreen
	return m, nil
}
