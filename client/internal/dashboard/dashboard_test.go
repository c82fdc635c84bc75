package dashboard_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/client/internal/api/apitest"
	"github.com/maynagashev/reportkeeper/client/internal/dashboard"
	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/settings"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

var (
	devEnv  = models.Environment{ID: "dev", Name: "Development", URL: "http://dev.local/api"}
	prodEnv = models.Environment{ID: "prod", Name: "Production", URL: "https://prod.local/api"}
)

// memorySettings - SettingsStore в памяти.
type memorySettings struct {
	mu    sync.Mutex
	sel   settings.Selection
	saves int
}

func (m *memorySettings) Load() (settings.Selection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sel, nil
}

func (m *memorySettings) SaveCompany(id *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.CompanyID = id
	m.saves++
	return nil
}

func (m *memorySettings) SaveEnvironment(env *models.Environment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel.Environment = env
	m.saves++
	return nil
}

type fixture struct {
	d        *dashboard.Dashboard
	clients  map[string]*apitest.MockClient
	settings *memorySettings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clients: map[string]*apitest.MockClient{
			devEnv.ID:  new(apitest.MockClient),
			prodEnv.ID: new(apitest.MockClient),
		},
		settings: &memorySettings{},
	}
	f.d = dashboard.New(dashboard.Deps{
		Clients: func(env models.Environment) api.Client {
			return f.clients[env.ID]
		},
		Settings:     f.settings,
		Environments: []models.Environment{devEnv, prodEnv},
	})
	return f
}

func (f *fixture) dev() *apitest.MockClient { return f.clients[devEnv.ID] }

// selectCompany выбирает окружение dev и компанию id.
func (f *fixture) selectCompany(id int64) {
	env := devEnv
	f.d.Dispatch(store.SetCurrentEnvironment{Env: &env})
	f.d.Dispatch(store.SetCurrentCompany{ID: &id})
}

func ptr(v int64) *int64 { return &v }

func lastNotification(t *testing.T, d *dashboard.Dashboard) notify.Notification {
	t.Helper()
	active := d.Notifications().Active(time.Now())
	require.NotEmpty(t, active, "ожидалось уведомление")
	return active[len(active)-1]
}

func TestMount(t *testing.T) {
	f := newFixture(t)
	env := prodEnv
	f.settings.sel = settings.Selection{CompanyID: ptr(5), Environment: &env}

	require.NoError(t, f.d.Mount())
	s := f.d.State()
	assert.Equal(t, "prod", s.EnvironmentID())
	require.NotNil(t, s.CurrentCompanyID)
	assert.Equal(t, int64(5), *s.CurrentCompanyID)
	assert.Equal(t, 0, f.settings.saves, "восстановление не перезаписывает настройки")
}

func TestMount_UnknownEnvironmentFallsBack(t *testing.T) {
	f := newFixture(t)
	f.settings.sel = settings.Selection{Environment: &models.Environment{ID: "gone", URL: "http://gone"}}

	require.NoError(t, f.d.Mount())
	assert.Equal(t, "dev", f.d.State().EnvironmentID())
}

func TestDispatch_PersistsSelection(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(3)

	sel, err := f.settings.Load()
	require.NoError(t, err)
	require.NotNil(t, sel.Environment)
	assert.Equal(t, "dev", sel.Environment.ID)
	require.NotNil(t, sel.CompanyID)
	assert.Equal(t, int64(3), *sel.CompanyID)
}

func TestReports_SkippedWithoutCompany(t *testing.T) {
	f := newFixture(t)
	res, err := f.d.Reports(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	f.dev().AssertNotCalled(t, "ListReports", mock.Anything, mock.Anything, mock.Anything)
}

func TestReports_CachedAndFiltered(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	reports := []models.Report{
		{ID: 1, Name: "Loadlist", CompanyID: 1, Active: true},
		{ID: 2, Name: "Unloadlist", CompanyID: 1},
		{ID: 3, Name: "Invoice", CompanyID: 1, Active: true},
	}
	f.dev().On("ListReports", mock.Anything, int64(1), "").Return(reports, nil).Once()

	res, err := f.d.Reports(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	res, err = f.d.Reports(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Fresh)

	f.d.Dispatch(store.SetQuery{Text: "LOAD"})
	visible := f.d.VisibleReports()
	require.Len(t, visible, 2)
	assert.Equal(t, "Loadlist", visible[0].Name)
	assert.Equal(t, store.Stats{Total: 2, Active: 1, Inactive: 1}, f.d.Stats())

	f.d.Dispatch(store.SetQuery{Text: "xyz"})
	assert.Empty(t, f.d.VisibleReports())
	f.dev().AssertExpectations(t)
}

func TestOverview_LoadsInParallel(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.dev().On("ListReports", mock.Anything, int64(1), "").
		Return([]models.Report{{ID: 1, Name: "A", CompanyID: 1}}, nil).Once()
	f.dev().On("GetReportKPIs", mock.Anything, int64(1)).
		Return(&models.ReportKPIs{CompanyID: 1, TotalReports: 1}, nil).Once()

	ov, err := f.d.Overview(context.Background())
	require.NoError(t, err)
	assert.Len(t, ov.Reports.Data, 1)
	assert.Equal(t, 1, ov.KPIs.Data.TotalReports)
	kpis, ok := f.d.KPIs()
	require.True(t, ok)
	assert.Equal(t, int64(1), kpis.CompanyID)
	f.dev().AssertExpectations(t)
}

func TestOverview_ErrorNotifies(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.dev().On("ListReports", mock.Anything, int64(1), "").Return(nil, &api.Error{StatusCode: 500, Message: "db down"})
	f.dev().On("GetReportKPIs", mock.Anything, int64(1)).Return(&models.ReportKPIs{}, nil)

	_, err := f.d.Overview(context.Background())
	require.Error(t, err)
	n := lastNotification(t, f.d)
	assert.Equal(t, notify.Error, n.Kind)
	assert.Contains(t, n.Text, "db down")
}

func TestPublish_OverrideThenRefetch(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})

	f.dev().On("ListVersions", mock.Anything, int64(10)).Return([]models.ReportVersion{
		{ID: 1, ReportID: 10, IsPublished: true},
		{ID: 2, ReportID: 10},
	}, nil).Once()
	_, err := f.d.Versions(context.Background())
	require.NoError(t, err)

	f.dev().On("PublishVersion", mock.Anything, int64(10), int64(2)).Return(nil).Once()
	require.NoError(t, f.d.Publish(context.Background(), 2))

	// Версии инвалидированы, но прежний список с поправками виден до повторной загрузки
	assert.True(t, f.d.Cache().Peek(f.d.VersionsKey()).Invalidated)
	optimistic := f.d.VisibleVersions()
	require.Len(t, optimistic, 2)
	assert.False(t, optimistic[0].IsPublished)
	assert.True(t, optimistic[1].IsPublished)
	published, ok := f.d.Overrides().Get(2)
	require.True(t, ok)
	assert.True(t, published)
	previous, ok := f.d.Overrides().Get(1)
	require.True(t, ok)
	assert.False(t, previous, "у отчета одна опубликованная версия")

	// Сервер вернул версию 2 неопубликованной
	f.dev().On("ListVersions", mock.Anything, int64(10)).Return([]models.ReportVersion{
		{ID: 1, ReportID: 10},
		{ID: 2, ReportID: 10, IsPublished: false},
	}, nil).Once()
	_, err = f.d.Versions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, f.d.Overrides().Len())
	versions := f.d.VisibleVersions()
	require.Len(t, versions, 2)
	assert.False(t, versions[1].IsPublished)
	f.dev().AssertExpectations(t)
}

func TestPublish_RefreshesPreviouslyPublishedVersion(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	ctx := context.Background()

	f.dev().On("GetVersion", mock.Anything, int64(1)).
		Return(&models.ReportVersion{ID: 1, ReportID: 10, IsPublished: true}, nil).Once()
	res, err := f.d.Version(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Data.IsPublished)

	f.dev().On("PublishVersion", mock.Anything, int64(10), int64(2)).Return(nil).Once()
	require.NoError(t, f.d.Publish(ctx, 2))

	// Версия 1 потеряла публикацию, ее запись перезапрашивается
	f.dev().On("GetVersion", mock.Anything, int64(1)).
		Return(&models.ReportVersion{ID: 1, ReportID: 10, IsPublished: false}, nil).Once()
	res, err = f.d.Version(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	assert.False(t, res.Data.IsPublished)
	f.dev().AssertExpectations(t)
}

func TestVersion_RequiresMatchingReport(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	ctx := context.Background()

	res, err := f.d.Version(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Skipped, "без выбранного отчета запрос не выполняется")

	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	f.dev().On("GetVersion", mock.Anything, int64(5)).
		Return(&models.ReportVersion{ID: 5, ReportID: 11}, nil).Once()
	_, err = f.d.Version(ctx, 5)
	require.ErrorIs(t, err, dashboard.ErrVersionMismatch)
	assert.Equal(t, notify.Error, lastNotification(t, f.d).Kind)
}

func TestPublish_RollbackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	f.dev().On("ListVersions", mock.Anything, int64(10)).
		Return([]models.ReportVersion{{ID: 2, ReportID: 10}}, nil).Once()
	_, err := f.d.Versions(context.Background())
	require.NoError(t, err)

	f.dev().On("PublishVersion", mock.Anything, int64(10), int64(2)).
		Return(&api.Error{StatusCode: 409, Message: "conflict"}).Once()
	err = f.d.Publish(context.Background(), 2)
	require.Error(t, err)

	assert.Equal(t, 0, f.d.Overrides().Len())
	assert.False(t, f.d.VisibleVersions()[0].IsPublished)
	_, ok := query.Get[[]models.ReportVersion](f.d.Cache(), f.d.VersionsKey())
	assert.True(t, ok, "при ошибке кэш не инвалидируется")
	assert.Equal(t, notify.Error, lastNotification(t, f.d).Kind)
}

func TestSelectedReportChangeClearsOverrides(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	f.d.Overrides().Set(2, true)

	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	assert.Equal(t, 1, f.d.Overrides().Len(), "тот же отчет не сбрасывает поправки")

	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(11)})
	assert.Equal(t, 0, f.d.Overrides().Len())
}

func TestBulkDelete_EmptySelection(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)

	err := f.d.Begin(workflow.BulkDelete)
	require.ErrorIs(t, err, workflow.ErrNoSelection)
	assert.Equal(t, workflow.Idle, f.d.Workflow(workflow.BulkDelete).Phase)
	assert.Equal(t, notify.Warning, lastNotification(t, f.d).Kind)
	f.dev().AssertNotCalled(t, "DeleteReports", mock.Anything, mock.Anything)

	err = f.d.DeleteReports(context.Background(), nil)
	require.ErrorIs(t, err, workflow.ErrNoSelection)
	f.dev().AssertNotCalled(t, "DeleteReports", mock.Anything, mock.Anything)
}

func TestBulkDelete_InvalidatesCompanyData(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	ctx := context.Background()

	f.dev().On("ListReports", mock.Anything, int64(1), "").
		Return([]models.Report{{ID: 1, Name: "A", CompanyID: 1}, {ID: 2, Name: "B", CompanyID: 1}}, nil).Once()
	f.dev().On("GetReportKPIs", mock.Anything, int64(1)).Return(&models.ReportKPIs{TotalReports: 2}, nil).Once()
	_, err := f.d.Overview(ctx)
	require.NoError(t, err)

	f.d.Dispatch(store.ToggleReportSelection{ID: 1})
	f.d.Dispatch(store.ToggleReportSelection{ID: 2})
	require.NoError(t, f.d.Begin(workflow.BulkDelete))
	assert.Equal(t, []int64{1, 2}, f.d.Workflow(workflow.BulkDelete).Targets)

	f.dev().On("DeleteReports", mock.Anything, []int64{1, 2}).Return(nil).Once()
	require.NoError(t, f.d.Submit(ctx, workflow.BulkDelete))

	assert.Equal(t, workflow.Idle, f.d.Workflow(workflow.BulkDelete).Phase)
	assert.Empty(t, f.d.State().SelectedReportIDs, "выделение сброшено")
	assert.Equal(t, notify.Success, lastNotification(t, f.d).Kind)
	assert.True(t, f.d.Cache().Peek(f.d.ReportsKey()).Invalidated)
	kpisKey := query.Key{Scope: query.ScopeGlobal, Endpoint: query.EndpointReportKPIs, Environment: "dev", CompanyID: 1}
	assert.True(t, f.d.Cache().Peek(kpisKey).Invalidated)

	// Следующее чтение идет в сеть
	f.dev().On("ListReports", mock.Anything, int64(1), "").Return([]models.Report{}, nil).Once()
	res, err := f.d.Reports(ctx)
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	f.dev().AssertExpectations(t)
}

func TestCopy_FailureKeepsFormAndInvalidatesTargetOnSuccess(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	ctx := context.Background()
	prod := f.clients[prodEnv.ID]

	// Кэш компаний окна копирования и отчетов компании назначения в prod
	env := prodEnv
	require.NoError(t, f.d.Begin(workflow.BulkCopy, 1, 2))
	f.d.Dispatch(store.SetCopyEnvironment{Env: &env})
	prod.On("ListCompanies", mock.Anything).Return([]models.Company{{ID: 7, Name: "Target"}}, nil).Once()
	_, err := f.d.Companies(ctx, query.ScopeCopy)
	require.NoError(t, err)
	assert.Equal(t, "prod", f.d.State().CopyEnvironmentID())
	assert.Equal(t, "dev", f.d.State().EnvironmentID(), "окно копирования не меняет текущее окружение")

	targetKey := query.Key{Scope: query.ScopeCopy, Endpoint: query.EndpointReports, Environment: "prod", CompanyID: 7}
	_, err = query.Fetch(ctx, f.d.Cache(), targetKey, false, func(context.Context) ([]models.Report, error) {
		return []models.Report{}, nil
	})
	require.NoError(t, err)

	form := workflow.Form{TargetEnvironment: "prod", TargetCompanyID: 7, IncludeVersions: true}
	require.NoError(t, f.d.UpdateForm(workflow.BulkCopy, form))

	req := models.CopyWithMetadataRequest{ReportIDs: []int64{1, 2}, CompanyID: 7, IncludeVersions: true}
	prod.On("CopyReportsWithMetadata", mock.Anything, req).Return(nil, errors.New("timeout")).Once()
	err = f.d.Submit(ctx, workflow.BulkCopy)
	require.Error(t, err)

	w := f.d.Workflow(workflow.BulkCopy)
	assert.Equal(t, workflow.ConfirmPending, w.Phase)
	assert.Equal(t, form, w.Form)
	assert.Equal(t, []int64{1, 2}, w.Targets)

	prod.On("CopyReportsWithMetadata", mock.Anything, req).
		Return([]models.Report{{ID: 100, CompanyID: 7}, {ID: 101, CompanyID: 7}}, nil).Once()
	require.NoError(t, f.d.Submit(ctx, workflow.BulkCopy))

	assert.Equal(t, workflow.Idle, f.d.Workflow(workflow.BulkCopy).Phase)
	assert.True(t, f.d.Cache().Peek(targetKey).Invalidated)
	copyCompanies := query.Key{Scope: query.ScopeCopy, Endpoint: query.EndpointCompanies, Environment: "prod"}
	assert.Equal(t, query.StatusSuccess, f.d.Cache().Peek(copyCompanies).Status,
		"компании окна копирования не инвалидируются")
	assert.Nil(t, f.d.State().CopyEnvironment, "окно копирования закрыто")
	prod.AssertExpectations(t)
	f.dev().AssertNotCalled(t, "CopyReportsWithMetadata", mock.Anything, mock.Anything)
}

func TestCopy_RequiresTargetCompany(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(4)})

	require.NoError(t, f.d.Begin(workflow.Copy))
	require.NoError(t, f.d.UpdateForm(workflow.Copy, workflow.Form{TargetEnvironment: "dev"}))
	err := f.d.Submit(context.Background(), workflow.Copy)
	require.ErrorIs(t, err, dashboard.ErrNoTargetCompany)
	assert.Equal(t, workflow.ConfirmPending, f.d.Workflow(workflow.Copy).Phase)

	f.dev().On("CopyReport", mock.Anything, int64(4), models.CopyReportRequest{CompanyID: 2, Name: "Copy"}).
		Return(&models.Report{ID: 5, CompanyID: 2}, nil).Once()
	require.NoError(t, f.d.UpdateForm(workflow.Copy, workflow.Form{TargetEnvironment: "dev", TargetCompanyID: 2, Name: "Copy"}))
	require.NoError(t, f.d.Submit(context.Background(), workflow.Copy))
	f.dev().AssertExpectations(t)
}

func TestDeleteVersions(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.d.Dispatch(store.SetSelectedReportID{ID: ptr(10)})
	f.d.Dispatch(store.ToggleVersionSelection{ID: 2})

	f.dev().On("DeleteVersions", mock.Anything, []int64{2}).Return(nil).Once()
	require.NoError(t, f.d.Begin(workflow.DeleteVersions))
	require.NoError(t, f.d.Submit(context.Background(), workflow.DeleteVersions))
	assert.Empty(t, f.d.State().SelectedVersionIDs)
	f.dev().AssertExpectations(t)
}

func TestGenerateLinkInvalidatesLinkedPages(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	ctx := context.Background()

	f.dev().On("ListLinkedPages", mock.Anything, int64(10)).Return([]models.LinkedPage{}, nil).Twice()
	_, err := f.d.LinkedPages(ctx, 10)
	require.NoError(t, err)

	f.dev().On("GenerateLink", mock.Anything, int64(10)).
		Return(&models.GeneratedLink{ReportID: 10, URL: "https://r/10?t=x", Token: "x"}, nil).Once()
	link, err := f.d.GenerateLink(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "x", link.Token)

	res, err := f.d.LinkedPages(ctx, 10)
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	f.dev().AssertExpectations(t)
}

func TestDownloadVersion(t *testing.T) {
	f := newFixture(t)
	f.selectCompany(1)
	f.dev().On("DownloadVersion", mock.Anything, int64(10), int64(2)).
		Return(io.NopCloser(strings.NewReader("<layout/>")), nil).Once()

	var buf bytes.Buffer
	n, err := f.d.DownloadVersion(context.Background(), 10, 2, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "<layout/>", buf.String())

	u, err := f.d.DesignerURL(10, 2)
	require.NoError(t, err)
	assert.Equal(t, "http://dev.local/api/10/versions/2/download", u)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	var saved string
	f.d = dashboard.New(dashboard.Deps{
		Clients:  func(env models.Environment) api.Client { return f.clients[env.ID] },
		Settings: f.settings,
		OnToken: func(env models.Environment, username, token string) error {
			saved = env.ID + ":" + username + ":" + token
			return nil
		},
	})
	env := devEnv
	f.d.Dispatch(store.SetCurrentEnvironment{Env: &env})

	f.dev().On("Login", mock.Anything, "admin", "secret").Return("jwt", nil).Once()
	f.dev().On("SetAuthToken", "jwt").Return().Once()
	require.NoError(t, f.d.Login(context.Background(), "admin", "secret"))
	assert.Equal(t, "dev:admin:jwt", saved)
	f.dev().AssertExpectations(t)
}
