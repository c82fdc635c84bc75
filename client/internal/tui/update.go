package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
)

// Update обрабатывает входящие сообщения. После каждого сообщения запускаются таймеры новых уведомлений.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	return next, tea.Batch(cmd, m.notificationTicks())
}

//nolint:gocyclo // Роутинг сообщений
func (m *model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	// == Глобальные сообщения (не зависят от экрана) ==
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h, v := m.docStyle.GetFrameSize()
		listWidth := msg.Width - h
		listHeight := msg.Height - v - helpStatusHeightOffset
		m.environmentList.SetSize(listWidth, listHeight)
		m.companyList.SetSize(listWidth, listHeight)
		m.linkList.SetSize(listWidth, listHeight/2)
		m.queryInput.Width = listWidth - inputWidthOffset
		m.copyNameInput.Width = listWidth - inputWidthOffset
		return m, nil

	case dismissNotificationMsg:
		m.dash.Notifications().Dismiss(msg.id)
		delete(m.scheduled, msg.id)
		return m, nil

	case companiesLoadedMsg:
		return m.handleCompaniesLoaded(msg)

	case overviewLoadedMsg:
		if msg.key != m.dash.ReportsKey() {
			slog.Debug("Ответ для устаревшего ключа отброшен", "key", msg.key.String())
			return m, nil
		}
		m.loadingReports = false
		m.clampReportCursor()
		return m.handleLoadError(msg.err)

	case versionsLoadedMsg:
		if msg.key != m.dash.VersionsKey() {
			slog.Debug("Ответ для устаревшего ключа отброшен", "key", msg.key.String())
			return m, nil
		}
		m.loadingVers = false
		m.clampVersionCursor()
		return m.handleLoadError(msg.err)

	case linkedPagesLoadedMsg:
		return m.handleLinkedPagesLoaded(msg)

	case linkGeneratedMsg:
		return m.handleLinkGenerated(msg)

	case workflowDoneMsg:
		return m.handleWorkflowDone(msg)

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case downloadDoneMsg:
		if msg.err == nil {
			m.dash.Notifications().Push(notify.Success, fmt.Sprintf("Макет сохранен: %s (%d байт)", msg.path, msg.bytes))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == keyCtrlC {
			return m, tea.Quit
		}
	}

	switch m.state {
	case environmentScreen:
		return m.updateEnvironmentScreen(msg)
	case companyScreen:
		return m.updateCompanyScreen(msg)
	case reportListScreen:
		return m.updateReportListScreen(msg)
	case versionListScreen:
		return m.updateVersionListScreen(msg)
	case copyScreen:
		return m.updateCopyScreen(msg)
	case linkScreen:
		return m.updateLinkScreen(msg)
	case confirmScreen:
		return m.updateConfirmScreen(msg)
	case loginScreen:
		return m.updateLoginScreen(msg)
	default:
		return m, nil
	}
}

// handleLoadError открывает экран входа, если сервер требует авторизацию.
// Остальные ошибки уже показаны уведомлением.
func (m *model) handleLoadError(err error) (tea.Model, tea.Cmd) {
	if err != nil && errors.Is(err, api.ErrAuthorization) && m.state != loginScreen {
		return m.openLogin()
	}
	return m, nil
}

// handleCompaniesLoaded заполняет список компаний.
func (m *model) handleCompaniesLoaded(msg companiesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.key.Scope == query.ScopeCopy {
		// Окно копирования читает компании из кэша при отрисовке
		if msg.key.Environment != m.dash.State().CopyEnvironmentID() {
			slog.Debug("Компании устаревшего окружения копирования отброшены", "key", msg.key.String())
			return m, nil
		}
		m.clampCopyCompany()
		return m, nil
	}
	if msg.key != m.dash.CompaniesKey(query.ScopeGlobal) {
		slog.Debug("Ответ для устаревшего ключа отброшен", "key", msg.key.String())
		return m, nil
	}
	if msg.err != nil {
		return m.handleLoadError(msg.err)
	}
	companies := m.dash.CachedCompanies(query.ScopeGlobal)
	items := make([]list.Item, 0, len(companies))
	for _, c := range companies {
		items = append(items, companyItem{company: c})
	}
	cmd := m.companyList.SetItems(items)
	return m, cmd
}

// handleWorkflowDone возвращает на экран-источник после успешного действия и перезагружает данные.
// При ошибке окно остается открытым с прежними полями.
func (m *model) handleWorkflowDone(msg workflowDoneMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	if msg.err != nil {
		slog.Warn("Действие не выполнено", "kind", msg.kind.String(), "error", msg.err)
		if errors.Is(msg.err, api.ErrAuthorization) {
			return m.openLogin()
		}
		return m, nil
	}

	switch msg.kind {
	case workflow.Publish, workflow.Unpublish, workflow.DeleteVersions:
		m.state = versionListScreen
		m.loadingVers = true
		return m, tea.Batch(loadVersionsCmd(m.ctx, m.dash), loadOverviewCmd(m.ctx, m.dash))
	default:
		m.state = reportListScreen
		m.loadingReports = true
		return m, loadOverviewCmd(m.ctx, m.dash)
	}
}
