package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
)

// updateCompanyScreen обрабатывает выбор компании.
func (m *model) updateCompanyScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.companyList.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case keyQuit:
			return m, tea.Quit
		case keyEnv:
			return m.openEnvironments()
		case keyLogin:
			return m.openLogin()
		case keyRefresh:
			m.dash.Cache().Invalidate(m.dash.CompaniesKey(query.ScopeGlobal))
			return m, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
		case keyEsc:
			if m.dash.State().CurrentCompanyID != nil {
				m.state = reportListScreen
				return m, nil
			}
		case keyEnter:
			item, isCompany := m.companyList.SelectedItem().(companyItem)
			if !isCompany {
				return m, nil
			}
			id := item.company.ID
			m.dash.Dispatch(store.SetCurrentCompany{ID: &id})
			slog.Info("Компания выбрана", "company_id", id)
			m.reportCursor = 0
			m.state = reportListScreen
			m.loadingReports = true
			return m, loadOverviewCmd(m.ctx, m.dash)
		}
	}

	var cmd tea.Cmd
	m.companyList, cmd = m.companyList.Update(msg)
	return m, cmd
}
