package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/query"
)

// openLogin открывает экран входа в текущее окружение.
func (m *model) openLogin() (tea.Model, tea.Cmd) {
	if m.state != loginScreen {
		m.prevState = m.state
	}
	m.state = loginScreen
	m.loginFocus = 0
	m.passwordInput.SetValue("")
	m.passwordInput.Blur()
	m.usernameInput.Focus()
	return m, textinput.Blink
}

// updateLoginScreen обрабатывает ввод логина и пароля.
func (m *model) updateLoginScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case keyEsc:
			m.state = m.prevState
			if m.state == loginScreen {
				m.state = environmentScreen
			}
			return m, nil
		case keyTab, keyShiftTab, keyUp, keyDown:
			m.loginFocus = 1 - m.loginFocus
			if m.loginFocus == 0 {
				m.passwordInput.Blur()
				m.usernameInput.Focus()
			} else {
				m.usernameInput.Blur()
				m.passwordInput.Focus()
			}
			return m, textinput.Blink
		case keyEnter:
			username := strings.TrimSpace(m.usernameInput.Value())
			password := m.passwordInput.Value()
			if username == "" || password == "" {
				return m, nil
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			return m, loginCmd(m.ctx, m.dash, username, password)
		}
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.usernameInput, cmd = m.usernameInput.Update(msg)
	} else {
		m.passwordInput, cmd = m.passwordInput.Update(msg)
	}
	return m, cmd
}

// handleLoginDone возвращает на предыдущий экран и перезагружает его данные.
func (m *model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		m.passwordInput.SetValue("")
		return m, nil
	}
	m.passwordInput.SetValue("")
	m.state = m.prevState
	switch m.state {
	case reportListScreen:
		m.loadingReports = true
		return m, loadOverviewCmd(m.ctx, m.dash)
	case versionListScreen:
		m.loadingVers = true
		return m, loadVersionsCmd(m.ctx, m.dash)
	case loginScreen, environmentScreen:
		m.state = companyScreen
		return m, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
	default:
		return m, loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
	}
}

// viewLoginScreen отрисовывает экран входа.
func (m *model) viewLoginScreen() string {
	env := "не выбрано"
	if e := m.dash.State().CurrentEnvironment; e != nil {
		env = fmt.Sprintf("%s (%s)", e.Name, e.URL)
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Вход в окружение " + env))
	b.WriteString("\n\n")
	b.WriteString(m.usernameInput.View())
	b.WriteString("\n")
	b.WriteString(m.passwordInput.View())
	if m.submitting {
		b.WriteString("\n\nВыполняется вход...")
	}
	return b.String()
}
