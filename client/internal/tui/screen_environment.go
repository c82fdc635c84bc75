package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
)

// updateEnvironmentScreen обрабатывает выбор окружения.
func (m *model) updateEnvironmentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.environmentList.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case keyQuit:
			return m, tea.Quit
		case keyEsc:
			// Возврат без смены окружения, если оно уже выбрано
			if m.dash.State().CurrentEnvironment != nil {
				m.state = reportListScreen
				return m, nil
			}
		case keyEnter:
			item, isEnv := m.environmentList.SelectedItem().(environmentItem)
			if !isEnv {
				return m, nil
			}
			env := item.env
			if m.dash.State().EnvironmentID() == env.ID {
				m.state = companyScreen
				return m, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
			}
			// Смена окружения сбрасывает компанию и выделение
			m.dash.Dispatch(store.SetCurrentEnvironment{Env: &env})
			slog.Info("Окружение выбрано", "env", env.ID)
			m.reportCursor, m.versionCursor = 0, 0
			m.companyList.ResetFilter()
			cmd := m.companyList.SetItems(nil)
			m.state = companyScreen
			return m, tea.Batch(cmd, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal))
		}
	}

	var cmd tea.Cmd
	m.environmentList, cmd = m.environmentList.Update(msg)
	return m, cmd
}

// openEnvironments открывает выбор окружения с курсором на текущем.
func (m *model) openEnvironments() (tea.Model, tea.Cmd) {
	current := m.dash.State().EnvironmentID()
	for i, it := range m.environmentList.Items() {
		if env, ok := it.(environmentItem); ok && env.env.ID == current {
			m.environmentList.Select(i)
			break
		}
	}
	m.state = environmentScreen
	return m, nil
}
