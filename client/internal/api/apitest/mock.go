// Package apitest содержит мок API клиента на testify для тестов клиентских пакетов.
package apitest

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/models"
)

// MockClient - мок api.Client.
type MockClient struct {
	mock.Mock
}

var _ api.Client = (*MockClient)(nil)

// getAs безопасно приводит аргумент мока к типу T, nil дает нулевое значение.
func getAs[T any](args mock.Arguments, i int) T {
	var zero T
	v := args.Get(i)
	if v == nil {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		panic("mock: unexpected argument type")
	}
	return typed
}

func (m *MockClient) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockClient) ListCompanies(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	return getAs[[]models.Company](args, 0), args.Error(1)
}

func (m *MockClient) ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error) {
	args := m.Called(ctx, companyID, search)
	return getAs[[]models.Report](args, 0), args.Error(1)
}

func (m *MockClient) DeleteReports(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockClient) CopyReport(
	ctx context.Context,
	reportID int64,
	req models.CopyReportRequest,
) (*models.Report, error) {
	args := m.Called(ctx, reportID, req)
	return getAs[*models.Report](args, 0), args.Error(1)
}

func (m *MockClient) CopyReports(ctx context.Context, req models.BulkCopyRequest) ([]models.Report, error) {
	args := m.Called(ctx, req)
	return getAs[[]models.Report](args, 0), args.Error(1)
}

func (m *MockClient) CopyReportsWithMetadata(
	ctx context.Context,
	req models.CopyWithMetadataRequest,
) ([]models.Report, error) {
	args := m.Called(ctx, req)
	return getAs[[]models.Report](args, 0), args.Error(1)
}

func (m *MockClient) ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	args := m.Called(ctx, reportID)
	return getAs[[]models.ReportVersion](args, 0), args.Error(1)
}

func (m *MockClient) GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	args := m.Called(ctx, versionID)
	return getAs[*models.ReportVersion](args, 0), args.Error(1)
}

func (m *MockClient) PublishVersion(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockClient) UnpublishVersion(ctx context.Context, reportID, versionID int64) error {
	return m.Called(ctx, reportID, versionID).Error(0)
}

func (m *MockClient) DeleteVersions(ctx context.Context, ids []int64) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockClient) DownloadVersion(ctx context.Context, reportID, versionID int64) (io.ReadCloser, error) {
	args := m.Called(ctx, reportID, versionID)
	return getAs[io.ReadCloser](args, 0), args.Error(1)
}

func (m *MockClient) GetReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	args := m.Called(ctx, companyID)
	return getAs[*models.ReportKPIs](args, 0), args.Error(1)
}

func (m *MockClient) ListLinkedPages(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	args := m.Called(ctx, reportID)
	return getAs[[]models.LinkedPage](args, 0), args.Error(1)
}

func (m *MockClient) GenerateLink(ctx context.Context, reportID int64) (*models.GeneratedLink, error) {
	args := m.Called(ctx, reportID)
	return getAs[*models.GeneratedLink](args, 0), args.Error(1)
}

func (m *MockClient) SetAuthToken(token string) {
	m.Called(token)
}
