package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maynagashev/reportkeeper/client/internal/dashboard"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// loadCompaniesCmd загружает компании области scope.
func loadCompaniesCmd(ctx context.Context, d *dashboard.Dashboard, scope query.Scope) tea.Cmd {
	key := d.CompaniesKey(scope)
	return func() tea.Msg {
		_, err := d.Companies(ctx, scope)
		return companiesLoadedMsg{key: key, err: err}
	}
}

// loadCopyCompaniesCmd загружает компании окружения окна копирования.
func loadCopyCompaniesCmd(ctx context.Context, d *dashboard.Dashboard, env models.Environment) tea.Cmd {
	key := query.Key{Scope: query.ScopeCopy, Endpoint: query.EndpointCompanies, Environment: env.ID}
	return func() tea.Msg {
		_, err := d.CompaniesFor(ctx, query.ScopeCopy, env)
		return companiesLoadedMsg{key: key, err: err}
	}
}

// loadOverviewCmd загружает отчеты и статистику текущей компании.
func loadOverviewCmd(ctx context.Context, d *dashboard.Dashboard) tea.Cmd {
	key := d.ReportsKey()
	return func() tea.Msg {
		_, err := d.Overview(ctx)
		return overviewLoadedMsg{key: key, err: err}
	}
}

// loadVersionsCmd загружает версии выбранного отчета.
func loadVersionsCmd(ctx context.Context, d *dashboard.Dashboard) tea.Cmd {
	key := d.VersionsKey()
	return func() tea.Msg {
		_, err := d.Versions(ctx)
		return versionsLoadedMsg{key: key, err: err}
	}
}

// loadLinkedPagesCmd загружает связанные страницы отчета.
func loadLinkedPagesCmd(ctx context.Context, d *dashboard.Dashboard, reportID int64) tea.Cmd {
	return func() tea.Msg {
		res, err := d.LinkedPages(ctx, reportID)
		return linkedPagesLoadedMsg{reportID: reportID, pages: res.Data, err: err}
	}
}

// submitCmd отправляет открытое действие kind.
func submitCmd(ctx context.Context, d *dashboard.Dashboard, kind workflow.Kind) tea.Cmd {
	return func() tea.Msg {
		return workflowDoneMsg{kind: kind, err: d.Submit(ctx, kind)}
	}
}

// generateLinkCmd создает ссылку на отчет.
func generateLinkCmd(ctx context.Context, d *dashboard.Dashboard, reportID int64) tea.Cmd {
	return func() tea.Msg {
		link, err := d.GenerateLink(ctx, reportID)
		return linkGeneratedMsg{link: link, err: err}
	}
}

// loginCmd выполняет вход в текущее окружение.
func loginCmd(ctx context.Context, d *dashboard.Dashboard, username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: d.Login(ctx, username, password)}
	}
}

// downloadCmd сохраняет макет версии в каталог dir.
func downloadCmd(ctx context.Context, d *dashboard.Dashboard, dir string, reportID, versionID int64) tea.Cmd {
	return func() tea.Msg {
		path := filepath.Join(dir, fmt.Sprintf("report_%d_version_%d.repx", reportID, versionID))
		//nolint:gosec // Путь собирается из числовых id
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
		if err != nil {
			return downloadDoneMsg{path: path, err: fmt.Errorf("create %s: %w", path, err)}
		}
		n, err := d.DownloadVersion(ctx, reportID, versionID, f)
		if errClose := f.Close(); errClose != nil && err == nil {
			err = errClose
		}
		if err != nil {
			slog.Error("Ошибка скачивания макета", "path", path, "error", err)
			_ = os.Remove(path)
		}
		return downloadDoneMsg{path: path, bytes: n, err: err}
	}
}

// dismissNotificationCmd отправляет dismissNotificationMsg через delay.
func dismissNotificationCmd(id uint64, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return dismissNotificationMsg{id: id}
	})
}
