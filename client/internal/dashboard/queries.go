package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/models"
)

// Overview - отчеты и статистика компании, загруженные параллельно.
type Overview struct {
	Reports query.Result[[]models.Report]
	KPIs    query.Result[*models.ReportKPIs]
}

// Keys текущего состояния. Используются TUI, чтобы отбрасывать ответы для устаревших ключей.

// ReportsKey возвращает ключ списка отчетов текущей компании.
func (d *Dashboard) ReportsKey() query.Key {
	s := d.State()
	return reportsKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s), "")
}

// VersionsKey возвращает ключ списка версий выбранного отчета.
func (d *Dashboard) VersionsKey() query.Key {
	s := d.State()
	return versionsKey(s.EnvironmentID(), singleReportID(s))
}

// CompaniesKey возвращает ключ списка компаний области scope.
func (d *Dashboard) CompaniesKey(scope query.Scope) query.Key {
	s := d.State()
	env := environmentFor(s, scope)
	id := ""
	if env != nil {
		id = env.ID
	}
	return companiesKey(scope, id)
}

func companyID(s store.State) int64 {
	if s.CurrentCompanyID == nil {
		return 0
	}
	return *s.CurrentCompanyID
}

// singleReportID возвращает id одиночно выбранного отчета или 0.
func singleReportID(s store.State) int64 {
	if s.SelectedReportID == nil || s.HasMultiSelection() {
		return 0
	}
	return *s.SelectedReportID
}

// Companies загружает компании окружения области scope. Без окружения запрос пропускается.
func (d *Dashboard) Companies(ctx context.Context, scope query.Scope) (query.Result[[]models.Company], error) {
	env := environmentFor(d.State(), scope)
	if env == nil {
		return query.Result[[]models.Company]{Skipped: true}, nil
	}
	c, err := d.client(env)
	if err != nil {
		return query.Result[[]models.Company]{}, err
	}
	return query.Fetch(ctx, d.cache, companiesKey(scope, env.ID), false,
		func(ctx context.Context) ([]models.Company, error) {
			return c.ListCompanies(ctx)
		})
}

// CompaniesFor загружает компании произвольной области и окружения, используется окном копирования.
func (d *Dashboard) CompaniesFor(ctx context.Context, scope query.Scope, env models.Environment) (query.Result[[]models.Company], error) {
	c, err := d.client(&env)
	if err != nil {
		return query.Result[[]models.Company]{}, err
	}
	return query.Fetch(ctx, d.cache, companiesKey(scope, env.ID), false,
		func(ctx context.Context) ([]models.Company, error) {
			return c.ListCompanies(ctx)
		})
}

// Reports загружает отчеты текущей компании. Без компании запрос пропускается.
func (d *Dashboard) Reports(ctx context.Context) (query.Result[[]models.Report], error) {
	s := d.State()
	key := reportsKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s), "")
	skip := s.CurrentEnvironment == nil || s.CurrentCompanyID == nil
	return d.fetchReports(ctx, s, key, skip)
}

// SearchReports загружает отчеты с серверным поиском по имени.
func (d *Dashboard) SearchReports(ctx context.Context, search string) (query.Result[[]models.Report], error) {
	s := d.State()
	key := reportsKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s), search)
	skip := s.CurrentEnvironment == nil || s.CurrentCompanyID == nil
	return d.fetchReports(ctx, s, key, skip)
}

func (d *Dashboard) fetchReports(
	ctx context.Context,
	s store.State,
	key query.Key,
	skip bool,
) (query.Result[[]models.Report], error) {
	if skip {
		return query.Fetch[[]models.Report](ctx, d.cache, key, true, nil)
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return query.Result[[]models.Report]{}, err
	}
	return query.Fetch(ctx, d.cache, key, false, func(ctx context.Context) ([]models.Report, error) {
		return c.ListReports(ctx, key.CompanyID, key.Search)
	})
}

// ReportKPIs загружает статистику текущей компании.
func (d *Dashboard) ReportKPIs(ctx context.Context) (query.Result[*models.ReportKPIs], error) {
	s := d.State()
	key := kpisKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s))
	if s.CurrentEnvironment == nil || s.CurrentCompanyID == nil {
		return query.Fetch[*models.ReportKPIs](ctx, d.cache, key, true, nil)
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return query.Result[*models.ReportKPIs]{}, err
	}
	return query.Fetch(ctx, d.cache, key, false, func(ctx context.Context) (*models.ReportKPIs, error) {
		return c.GetReportKPIs(ctx, key.CompanyID)
	})
}

// Overview загружает отчеты и статистику компании параллельно.
func (d *Dashboard) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := d.Reports(gctx)
		ov.Reports = res
		if err != nil {
			return fmt.Errorf("reports: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		res, err := d.ReportKPIs(gctx)
		ov.KPIs = res
		if err != nil {
			return fmt.Errorf("report kpis: %w", err)
		}
		return nil
	})
	err := g.Wait()
	if err != nil {
		d.notifyError("Ошибка загрузки отчетов", err)
	}
	return ov, err
}

// Versions загружает версии выбранного отчета. Свежий ответ сервера снимает локальные поправки.
func (d *Dashboard) Versions(ctx context.Context) (query.Result[[]models.ReportVersion], error) {
	s := d.State()
	reportID := singleReportID(s)
	key := versionsKey(s.EnvironmentID(), reportID)
	if s.CurrentEnvironment == nil || reportID == 0 {
		return query.Fetch[[]models.ReportVersion](ctx, d.cache, key, true, nil)
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return query.Result[[]models.ReportVersion]{}, err
	}
	res, err := query.Fetch(ctx, d.cache, key, false, func(ctx context.Context) ([]models.ReportVersion, error) {
		return c.ListVersions(ctx, reportID)
	})
	if err != nil {
		d.notifyError("Ошибка загрузки версий", err)
		return res, err
	}
	if res.Fresh && !res.Stale && singleReportID(d.State()) == reportID {
		d.overrides.Clear()
		slog.Debug("Версии обновлены с сервера, поправки сняты", "report_id", reportID)
	}
	return res, nil
}

// Version загружает одну версию выбранного отчета.
func (d *Dashboard) Version(ctx context.Context, versionID int64) (query.Result[*models.ReportVersion], error) {
	s := d.State()
	reportID := singleReportID(s)
	key := versionKey(s.EnvironmentID(), reportID, versionID)
	if s.CurrentEnvironment == nil || reportID == 0 || versionID == 0 {
		return query.Fetch[*models.ReportVersion](ctx, d.cache, key, true, nil)
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return query.Result[*models.ReportVersion]{}, err
	}
	res, err := query.Fetch(ctx, d.cache, key, false, func(ctx context.Context) (*models.ReportVersion, error) {
		v, errGet := c.GetVersion(ctx, versionID)
		if errGet != nil {
			return nil, errGet
		}
		if v.ReportID != reportID {
			return nil, fmt.Errorf("версия %d не относится к отчету %d: %w", versionID, reportID, ErrVersionMismatch)
		}
		return v, nil
	})
	if err != nil {
		d.notifyError("Ошибка загрузки версии", err)
	}
	return res, err
}

// LinkedPages загружает страницы, на которые встроен отчет.
func (d *Dashboard) LinkedPages(ctx context.Context, reportID int64) (query.Result[[]models.LinkedPage], error) {
	s := d.State()
	key := linkedPagesKey(s.EnvironmentID(), reportID)
	if s.CurrentEnvironment == nil || reportID == 0 {
		return query.Fetch[[]models.LinkedPage](ctx, d.cache, key, true, nil)
	}
	c, err := d.client(s.CurrentEnvironment)
	if err != nil {
		return query.Result[[]models.LinkedPage]{}, err
	}
	return query.Fetch(ctx, d.cache, key, false, func(ctx context.Context) ([]models.LinkedPage, error) {
		return c.ListLinkedPages(ctx, reportID)
	})
}

// Представления над закэшированными данными.

func (d *Dashboard) cachedReports(s store.State) []models.Report {
	reports, _ := query.Get[[]models.Report](d.cache,
		reportsKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s), ""))
	return reports
}

// FilteredReports возвращает отчеты текущей компании, отфильтрованные строкой поиска.
func (d *Dashboard) FilteredReports() []models.Report {
	s := d.State()
	return d.selectors.FilteredReports(d.cachedReports(s), s.CurrentCompanyID, s.Query)
}

// VisibleReports возвращает текущую страницу отфильтрованных отчетов.
func (d *Dashboard) VisibleReports() []models.Report {
	s := d.State()
	filtered := d.selectors.FilteredReports(d.cachedReports(s), s.CurrentCompanyID, s.Query)
	return d.selectors.PaginatedReports(filtered, s.ReportsPagination)
}

// FilteredCount возвращает число отчетов после фильтрации.
func (d *Dashboard) FilteredCount() int {
	return len(d.FilteredReports())
}

// Stats возвращает агрегаты по отфильтрованным отчетам.
func (d *Dashboard) Stats() store.Stats {
	return d.selectors.ReportStats(d.FilteredReports())
}

// KPIs возвращает закэшированную статистику компании.
func (d *Dashboard) KPIs() (*models.ReportKPIs, bool) {
	s := d.State()
	return query.Get[*models.ReportKPIs](d.cache, kpisKey(query.ScopeGlobal, s.EnvironmentID(), companyID(s)))
}

// VisibleVersions возвращает версии выбранного отчета с примененными поправками.
func (d *Dashboard) VisibleVersions() []models.ReportVersion {
	s := d.State()
	versions, _ := query.Get[[]models.ReportVersion](d.cache, versionsKey(s.EnvironmentID(), singleReportID(s)))
	return d.selectors.VersionsForSelectedReport(versions, s, d.overrides)
}

// CachedCompanies возвращает закэшированные компании области scope.
func (d *Dashboard) CachedCompanies(scope query.Scope) []models.Company {
	companies, _ := query.Get[[]models.Company](d.cache, d.CompaniesKey(scope))
	return companies
}

// SelectedReports возвращает отчеты текущего выделения из закэшированного списка.
func (d *Dashboard) SelectedReports() []models.Report {
	s := d.State()
	return store.SelectedReports(d.cachedReports(s), s)
}

// RefreshReports помечает отчеты и статистику текущей компании устаревшими.
func (d *Dashboard) RefreshReports() int {
	s := d.State()
	return d.cache.InvalidateWhere(companyData(s.EnvironmentID(), companyID(s)))
}

// RefreshVersions помечает версии выбранного отчета устаревшими.
func (d *Dashboard) RefreshVersions() {
	d.cache.Invalidate(d.VersionsKey())
}

// RefreshLinkedPages помечает связанные страницы отчета устаревшими.
func (d *Dashboard) RefreshLinkedPages(reportID int64) {
	d.cache.Invalidate(linkedPagesKey(d.State().EnvironmentID(), reportID))
}
