package handlers_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	companies, _ := args.Get(0).([]models.Company)
	return companies, args.Error(1)
}

func (m *MockReportService) ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error) {
	args := m.Called(ctx, companyID, search)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockReportService) ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	args := m.Called(ctx, companyID)
	kpis, _ := args.Get(0).(*models.ReportKPIs)
	return kpis, args.Error(1)
}

func (m *MockReportService) DeleteReports(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockReportService) CopyReport(
	ctx context.Context,
	reportID int64,
	req models.CopyReportRequest,
	user string,
) (*models.Report, error) {
	args := m.Called(ctx, reportID, req, user)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

func (m *MockReportService) CopyReports(
	ctx context.Context,
	req models.BulkCopyRequest,
	user string,
) ([]models.Report, error) {
	args := m.Called(ctx, req, user)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockReportService) CopyReportsWithMetadata(
	ctx context.Context,
	req models.CopyWithMetadataRequest,
	user string,
) ([]models.Report, error) {
	args := m.Called(ctx, req, user)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	args := m.Called(ctx, reportID)
	versions, _ := args.Get(0).([]models.ReportVersion)
	return versions, args.Error(1)
}

func (m *MockVersionService) GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	args := m.Called(ctx, versionID)
	version, _ := args.Get(0).(*models.ReportVersion)
	return version, args.Error(1)
}

func (m *MockVersionService) Publish(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockVersionService) Unpublish(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockVersionService) DeleteVersions(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockVersionService) DownloadLayout(
	ctx context.Context,
	reportID, versionID int64,
) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, reportID, versionID)
	body, _ := args.Get(0).(io.ReadCloser)
	size, _ := args.Get(1).(int64)
	return body, size, args.Error(2)
}

func (m *MockVersionService) UploadVersion(
	ctx context.Context,
	upload services.LayoutUpload,
) (*models.ReportVersion, error) {
	args := m.Called(ctx, upload.ReportID, upload.Version, upload.ModifiedBy, upload.Size)
	if upload.Body != nil {
		_, _ = io.Copy(io.Discard, upload.Body)
	}
	version, _ := args.Get(0).(*models.ReportVersion)
	return version, args.Error(1)
}

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	args := m.Called(ctx, reportID)
	pages, _ := args.Get(0).([]models.LinkedPage)
	return pages, args.Error(1)
}

func (m *MockLinkService) GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error) {
	args := m.Called(ctx, reportID)
	link, _ := args.Get(0).(*models.GeneratedLink)
	return link, args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password string) error {
	return m.Called(ctx, username, password).Error(0)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}
