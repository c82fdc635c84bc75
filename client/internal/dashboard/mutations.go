package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// ErrNoReportSelected - действие над версиями без выбранного отчета.
var ErrNoReportSelected = errors.New("report is not selected")

// ErrVersionMismatch - сервер вернул версию другого отчета.
var ErrVersionMismatch = errors.New("version belongs to another report")

// CopyTarget - куда копировать отчеты.
type CopyTarget struct {
	Environment     models.Environment
	CompanyID       int64
	Name            string
	IncludeVersions bool
}

// Login выполняет вход в текущее окружение и передает токен в TokenSink.
func (d *Dashboard) Login(ctx context.Context, username, password string) error {
	s := d.State()
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return err
	}
	token, err := c.Login(ctx, username, password)
	if err != nil {
		d.notifyError("Ошибка входа", err)
		return fmt.Errorf("login to %s: %w", s.EnvironmentID(), err)
	}
	c.SetAuthToken(token)
	// Данные, полученные без авторизации, больше не актуальны
	env := s.EnvironmentID()
	d.cache.InvalidateWhere(func(k query.Key) bool { return k.Environment == env })
	if d.onToken != nil {
		if errSink := d.onToken(*s.CurrentEnvironment, username, token); errSink != nil {
			slog.Error("Не удалось сохранить токен", "env", env, "error", errSink)
		}
	}
	d.notes.Push(notify.Success, "Вход выполнен: "+s.CurrentEnvironment.Name)
	return nil
}

// DeleteReports удаляет отчеты. Пустой список не отправляется, показывается предупреждение.
func (d *Dashboard) DeleteReports(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		d.notes.Push(notify.Warning, "Не выбраны отчеты для удаления")
		return workflow.ErrNoSelection
	}
	s := d.State()
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return err
	}
	slog.Info("Удаление отчетов", "ids", ids, "env", s.EnvironmentID())
	if err = c.DeleteReports(ctx, ids); err != nil {
		d.notifyError("Ошибка удаления отчетов", err)
		return fmt.Errorf("delete reports: %w", err)
	}

	env := s.EnvironmentID()
	d.cache.InvalidateWhere(companyData(env, companyID(s)))
	d.cache.InvalidateWhere(reportData(env, ids))
	d.Dispatch(store.ClearSelection{})
	d.notes.Push(notify.Success, fmt.Sprintf("Удалено отчетов: %d", len(ids)))
	return nil
}

// CopyReport копирует один отчет в компанию target. Запрос отправляется в окружение target.
func (d *Dashboard) CopyReport(ctx context.Context, reportID int64, target CopyTarget) (*models.Report, error) {
	c, err := d.client(&target.Environment)
	if err != nil {
		return nil, err
	}
	copied, err := c.CopyReport(ctx, reportID, models.CopyReportRequest{CompanyID: target.CompanyID, Name: target.Name})
	if err != nil {
		d.notifyError("Ошибка копирования отчета", err)
		return nil, fmt.Errorf("copy report %d: %w", reportID, err)
	}
	d.afterCopy(target, 1)
	return copied, nil
}

// CopyReports копирует несколько отчетов. IncludeVersions копирует и версии с макетами.
func (d *Dashboard) CopyReports(ctx context.Context, ids []int64, target CopyTarget) ([]models.Report, error) {
	if len(ids) == 0 {
		d.notes.Push(notify.Warning, "Не выбраны отчеты для копирования")
		return nil, workflow.ErrNoSelection
	}
	c, err := d.client(&target.Environment)
	if err != nil {
		return nil, err
	}
	var copied []models.Report
	if target.IncludeVersions {
		copied, err = c.CopyReportsWithMetadata(ctx, models.CopyWithMetadataRequest{
			ReportIDs:       ids,
			CompanyID:       target.CompanyID,
			IncludeVersions: true,
		})
	} else {
		copied, err = c.CopyReports(ctx, models.BulkCopyRequest{ReportIDs: ids, CompanyID: target.CompanyID})
	}
	if err != nil {
		d.notifyError("Ошибка копирования отчетов", err)
		return nil, fmt.Errorf("copy reports: %w", err)
	}
	d.afterCopy(target, len(ids))
	return copied, nil
}

func (d *Dashboard) afterCopy(target CopyTarget, n int) {
	d.cache.InvalidateWhere(companyData(target.Environment.ID, target.CompanyID))
	d.Dispatch(store.ClearSelection{})
	d.notes.Push(notify.Success, fmt.Sprintf("Скопировано отчетов: %d", n))
}

// Publish публикует версию выбранного отчета.
func (d *Dashboard) Publish(ctx context.Context, versionID int64) error {
	return d.setPublished(ctx, versionID, true)
}

// Unpublish снимает публикацию версии выбранного отчета.
func (d *Dashboard) Unpublish(ctx context.Context, versionID int64) error {
	return d.setPublished(ctx, versionID, false)
}

// setPublished меняет статус публикации. Поправка ставится до запроса и откатывается при ошибке.
func (d *Dashboard) setPublished(ctx context.Context, versionID int64, published bool) error {
	s := d.State()
	reportID := singleReportID(s)
	if reportID == 0 {
		d.notes.Push(notify.Warning, "Не выбран отчет")
		return ErrNoReportSelected
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return err
	}

	before := d.overrides.Snapshot()
	if published {
		// У отчета может быть только одна опубликованная версия
		for _, v := range d.VisibleVersions() {
			if v.ID != versionID && v.IsPublished {
				d.overrides.Set(v.ID, false)
			}
		}
	}
	d.overrides.Set(versionID, published)

	if published {
		err = c.PublishVersion(ctx, reportID, versionID)
	} else {
		err = c.UnpublishVersion(ctx, reportID, versionID)
	}
	if err != nil {
		d.overrides.Restore(before)
		d.notifyError("Ошибка изменения публикации", err)
		return fmt.Errorf("set published=%t for version %d: %w", published, versionID, err)
	}

	env := s.EnvironmentID()
	// Публикация меняет статус и у версии, с которой она снята
	d.cache.InvalidateWhere(reportVersions(env, reportID))
	d.cache.InvalidateWhere(func(k query.Key) bool {
		return k.Environment == env && k.Endpoint == query.EndpointReportKPIs && k.CompanyID == companyID(s)
	})
	if published {
		d.notes.Push(notify.Success, "Версия опубликована")
	} else {
		d.notes.Push(notify.Success, "Публикация версии снята")
	}
	return nil
}

// DeleteVersions удаляет версии выбранного отчета.
func (d *Dashboard) DeleteVersions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		d.notes.Push(notify.Warning, "Не выбраны версии для удаления")
		return workflow.ErrNoSelection
	}
	s := d.State()
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return err
	}
	if err = c.DeleteVersions(ctx, ids); err != nil {
		d.notifyError("Ошибка удаления версий", err)
		return fmt.Errorf("delete versions: %w", err)
	}

	env := s.EnvironmentID()
	d.cache.InvalidateWhere(versionEntries(env, ids))
	if reportID := singleReportID(s); reportID != 0 {
		d.cache.Invalidate(versionsKey(env, reportID))
	}
	d.cache.Invalidate(kpisKey(query.ScopeGlobal, env, companyID(s)))
	d.cache.Invalidate(kpisKey(query.ScopeCopy, env, companyID(s)))
	for _, id := range ids {
		d.overrides.Delete(id)
	}
	d.Dispatch(store.SetSelectedVersionIDs{IDs: nil})
	d.notes.Push(notify.Success, fmt.Sprintf("Удалено версий: %d", len(ids)))
	return nil
}

// GenerateLink создает ссылку на отчет и обновляет список связанных страниц.
func (d *Dashboard) GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error) {
	s := d.State()
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return nil, err
	}
	link, err := c.GenerateLink(ctx, reportID)
	if err != nil {
		d.notifyError("Ошибка создания ссылки", err)
		return nil, fmt.Errorf("generate link for report %d: %w", reportID, err)
	}
	d.cache.Invalidate(linkedPagesKey(s.EnvironmentID(), reportID))
	d.notes.Push(notify.Success, "Ссылка создана")
	return link, nil
}

// DownloadVersion записывает макет версии в w и возвращает число байт.
func (d *Dashboard) DownloadVersion(ctx context.Context, reportID, versionID int64, w io.Writer) (int64, error) {
	s := d.State()
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return 0, err
	}
	body, err := c.DownloadVersion(ctx, reportID, versionID)
	if err != nil {
		d.notifyError("Ошибка скачивания макета", err)
		return 0, fmt.Errorf("download version %d: %w", versionID, err)
	}
	defer body.Close()
	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("write layout: %w", err)
	}
	return n, nil
}

// DesignerURL возвращает reportUrl для внешнего дизайнера отчетов.
func (d *Dashboard) DesignerURL(reportID, versionID int64) (string, error) {
	s := d.State()
	if s.CurrentEnvironment == nil {
		return "", ErrNoEnvironment
	}
	return api.DesignerURL(s.CurrentEnvironment.URL, reportID, versionID)
}
