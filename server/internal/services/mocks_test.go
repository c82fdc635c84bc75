package services_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/reportkeeper/models"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
)

// --- Mocks ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]models.Company), args.Error(1)
}

func (m *MockCompanyRepository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*models.Company), args.Error(1)
}

func (m *MockCompanyRepository) ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*models.ReportKPIs), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) ListByCompany(ctx context.Context, companyID int64, search string) ([]models.Report, error) {
	args := m.Called(ctx, companyID, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]models.Report), args.Error(1)
}

func (m *MockReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*models.Report), args.Error(1)
}

func (m *MockReportRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(int64), args.Error(1)
}

// Copy вызывает copyLayout для каждой пары из layouts, имитируя копирование версий.
func (m *MockReportRepository) Copy(
	ctx context.Context,
	params srvmodels.CopyParams,
	copyLayout repository.LayoutCopier,
) ([]models.Report, error) {
	args := m.Called(ctx, params)
	if len(args) < 3 {
		return reportsOrNil(args)
	}
	if layouts, ok := args.Get(2).([]layoutCall); ok {
		for _, l := range layouts {
			if _, err := copyLayout(ctx, l.src, l.reportID, l.versionID); err != nil {
				return nil, err
			}
		}
	}
	return reportsOrNil(args)
}

func reportsOrNil(args mock.Arguments) ([]models.Report, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]models.Report), args.Error(1)
}

type layoutCall struct {
	src       string
	reportID  int64
	versionID int64
}

type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) ListByReport(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]models.ReportVersion), args.Error(1)
}

func (m *MockVersionRepository) GetByID(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*models.ReportVersion), args.Error(1)
}

func (m *MockVersionRepository) Create(
	ctx context.Context,
	version *models.ReportVersion,
) (*models.ReportVersion, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*models.ReportVersion), args.Error(1)
}

func (m *MockVersionRepository) SetObjectKey(ctx context.Context, versionID int64, key string) error {
	return m.Called(ctx, versionID, key).Error(0)
}

func (m *MockVersionRepository) Publish(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockVersionRepository) Unpublish(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockVersionRepository) ObjectKeys(ctx context.Context, versionIDs []int64) ([]string, error) {
	args := m.Called(ctx, versionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVersionRepository) ObjectKeysByReports(ctx context.Context, reportIDs []int64) ([]string, error) {
	args := m.Called(ctx, reportIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockVersionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(int64), args.Error(1)
}

type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) ListByReport(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).([]models.LinkedPage), args.Error(1)
}

func (m *MockLinkRepository) Create(
	ctx context.Context,
	link *srvmodels.LinkRecord,
) (*srvmodels.LinkRecord, error) {
	args := m.Called(ctx, link)
	if fn, ok := args.Get(0).(func(context.Context, *srvmodels.LinkRecord) *srvmodels.LinkRecord); ok {
		return fn(ctx, link), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(*srvmodels.LinkRecord), args.Error(1)
}

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	args := m.Called(ctx, objectKey, reader, size, contentType)
	_, _ = io.Copy(io.Discard, reader)
	return args.Error(0)
}

func (m *MockFileStorage) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, objectKey)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	//nolint:errcheck // Ошибки кастования в моках приемлемы
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockFileStorage) CopyFile(ctx context.Context, srcKey, dstKey string) error {
	return m.Called(ctx, srcKey, dstKey).Error(0)
}

func (m *MockFileStorage) DeleteFiles(ctx context.Context, objectKeys []string) error {
	return m.Called(ctx, objectKeys).Error(0)
}
