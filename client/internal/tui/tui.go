// Package tui - терминальный дашборд отчетов на bubbletea.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/maynagashev/reportkeeper/client/internal/dashboard"
	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/query"
)

const (
	defaultListWidth         = 80
	defaultListHeight        = 20
	helpStatusHeightOffset   = 4 // Заголовок, помощь и уведомления
	docStyleMarginVertical   = 1
	docStyleMarginHorizontal = 2
	inputWidthOffset         = 6
	filePermissions          = 0o600
)

// Стили уведомлений по видам.
//
//nolint:gochecknoglobals // Стили неизменяемы
var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	selectedRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	notificationStyle = map[notify.Kind]lipgloss.Style{
		notify.Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		notify.Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		notify.Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		notify.Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	}
)

// Init - команда, выполняемая при запуске приложения.
func (m *model) Init() tea.Cmd {
	s := m.dash.State()
	switch {
	case s.CurrentEnvironment == nil:
		m.state = environmentScreen
		return nil
	case s.CurrentCompanyID == nil:
		m.state = companyScreen
		return loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal)
	default:
		m.state = reportListScreen
		m.loadingReports = true
		return tea.Batch(
			loadCompaniesCmd(m.ctx, m.dash, query.ScopeGlobal),
			loadOverviewCmd(m.ctx, m.dash),
		)
	}
}

// notificationTicks запускает таймеры скрытия для новых уведомлений.
func (m *model) notificationTicks() tea.Cmd {
	now := time.Now()
	var cmds []tea.Cmd
	for _, n := range m.dash.Notifications().Active(now) {
		if m.scheduled[n.ID] {
			continue
		}
		m.scheduled[n.ID] = true
		cmds = append(cmds, dismissNotificationCmd(n.ID, n.ExpiresAt.Sub(now)))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// getMainContentView возвращает основное содержимое для текущего состояния.
func (m *model) getMainContentView() string {
	switch m.state {
	case environmentScreen:
		return m.environmentList.View()
	case companyScreen:
		return m.companyList.View()
	case reportListScreen:
		return m.viewReportListScreen()
	case versionListScreen:
		return m.viewVersionListScreen()
	case copyScreen:
		return m.viewCopyScreen()
	case linkScreen:
		return m.viewLinkScreen()
	case confirmScreen:
		return m.viewConfirmScreen()
	case loginScreen:
		return m.viewLoginScreen()
	default:
		return "Неизвестное состояние!"
	}
}

// viewHeader возвращает строку с окружением и компанией.
func (m *model) viewHeader() string {
	s := m.dash.State()
	env := "не выбрано"
	if s.CurrentEnvironment != nil {
		env = s.CurrentEnvironment.Name
	}
	company := "не выбрана"
	if s.CurrentCompanyID != nil {
		company = fmt.Sprintf("#%d", *s.CurrentCompanyID)
		for _, c := range m.dash.CachedCompanies(query.ScopeGlobal) {
			if c.ID == *s.CurrentCompanyID {
				company = c.Name
				break
			}
		}
	}
	return headerStyle.Render(fmt.Sprintf("ReportKeeper | Окружение: %s | Компания: %s", env, company))
}

// viewNotifications отрисовывает активные уведомления.
func (m *model) viewNotifications() string {
	active := m.dash.Notifications().Active(time.Now())
	if len(active) == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range active {
		b.WriteString("\n")
		b.WriteString(notificationStyle[n.Kind].Render(n.Text))
	}
	return b.String()
}

// getDebugInfoString генерирует отладочную информацию.
func (m *model) getDebugInfoString() string {
	s := m.dash.State()
	var b strings.Builder
	b.WriteString(fmt.Sprintf(" [State: %s]\n", m.state.String()))
	b.WriteString(fmt.Sprintf(" [Env: %s, Copy env: %s]\n", s.EnvironmentID(), s.CopyEnvironmentID()))
	b.WriteString(fmt.Sprintf(" [Selected: %v %v, versions %v]\n", s.SelectedReportID, s.SelectedReportIDs, s.SelectedVersionIDs))
	b.WriteString(fmt.Sprintf(" [Pagination: %+v, query %q]\n", s.ReportsPagination, s.Query))
	b.WriteString(fmt.Sprintf(" [Cache entries: %d, overrides: %d]\n", m.dash.Cache().Len(), m.dash.Overrides().Len()))
	return b.String()
}

// View отрисовывает пользовательский интерфейс.
func (m *model) View() string {
	mainContent := m.getMainContentView()
	help, ok := m.helpTextMap[m.state]
	if !ok {
		help = "Unknown state"
	}

	var footer strings.Builder
	footer.WriteString(m.viewNotifications())
	if m.debugMode {
		footer.WriteString("\n\n---\nОтладка:\n")
		footer.WriteString(m.getDebugInfoString())
	}

	styledContent := m.docStyle.Render(m.viewHeader() + "\n\n" + mainContent)
	return fmt.Sprintf("%s\n%s%s", styledContent, dimStyle.Render(help), footer.String())
}

// Options - параметры запуска TUI.
type Options struct {
	Debug       bool
	DownloadDir string
}

// Start восстанавливает сохраненный выбор и запускает TUI.
func Start(ctx context.Context, dash *dashboard.Dashboard, opts Options) error {
	if err := dash.Mount(); err != nil {
		// Сохраненный выбор не критичен, начинаем с пустого состояния
		slog.Error("Не удалось восстановить состояние", "error", err)
	}
	m := initModel(ctx, dash, opts.Debug, opts.DownloadDir)

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		slog.Error("Ошибка при запуске TUI", "error", err)
		return fmt.Errorf("run tui: %w", err)
	}
	slog.Info("TUI завершен")
	return nil
}
