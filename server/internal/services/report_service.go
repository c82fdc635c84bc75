package services

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/maynagashev/reportkeeper/models"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

// ReportService определяет операции над компаниями и отчетами.
type ReportService interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error)
	ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error)
	DeleteReports(ctx context.Context, ids []int64) error
	CopyReport(ctx context.Context, reportID int64, req models.CopyReportRequest, user string) (*models.Report, error)
	CopyReports(ctx context.Context, req models.BulkCopyRequest, user string) ([]models.Report, error)
	CopyReportsWithMetadata(ctx context.Context, req models.CopyWithMetadataRequest, user string) ([]models.Report, error)
}

var _ ReportService = (*reportService)(nil)

type reportService struct {
	companies repository.CompanyRepository
	reports   repository.ReportRepository
	versions  repository.VersionRepository
	files     storage.FileStorage
}

// NewReportService создает сервис отчетов.
func NewReportService(
	companies repository.CompanyRepository,
	reports repository.ReportRepository,
	versions repository.VersionRepository,
	files storage.FileStorage,
) ReportService {
	return &reportService{companies: companies, reports: reports, versions: versions, files: files}
}

func (s *reportService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	companies, err := s.companies.ListCompanies(ctx)
	if err != nil {
		return nil, mapRepoError("получение компаний", err)
	}
	return companies, nil
}

// ListReports возвращает отчеты существующей компании.
func (s *reportService) ListReports(ctx context.Context, companyID int64, search string) ([]models.Report, error) {
	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return nil, mapRepoError("поиск компании", err)
	}
	reports, err := s.reports.ListByCompany(ctx, companyID, search)
	if err != nil {
		return nil, mapRepoError("получение отчетов", err)
	}
	return reports, nil
}

func (s *reportService) ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		return nil, mapRepoError("поиск компании", err)
	}
	kpis, err := s.companies.ReportKPIs(ctx, companyID)
	if err != nil {
		return nil, mapRepoError("расчет статистики", err)
	}
	return kpis, nil
}

// DeleteReports удаляет отчеты вместе с версиями. Макеты удаляются из хранилища после
// фиксации в БД, ошибка хранилища только логируется.
func (s *reportService) DeleteReports(ctx context.Context, ids []int64) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	keys, err := s.versions.ObjectKeysByReports(ctx, ids)
	if err != nil {
		return mapRepoError("получение макетов отчетов", err)
	}
	n, err := s.reports.DeleteByIDs(ctx, ids)
	if err != nil {
		return mapRepoError("удаление отчетов", err)
	}
	if n == 0 {
		return ErrReportNotFound
	}
	s.removeLayouts(ctx, keys)
	log.Printf("[ReportService] Удалено отчетов: %d из %d, макетов: %d", n, len(ids), len(keys))
	return nil
}

// CopyReport копирует один отчет, опционально под новым именем.
func (s *reportService) CopyReport(
	ctx context.Context,
	reportID int64,
	req models.CopyReportRequest,
	user string,
) (*models.Report, error) {
	copies, err := s.copy(ctx, srvmodels.CopyParams{
		ReportIDs:  []int64{reportID},
		CompanyID:  req.CompanyID,
		Name:       req.Name,
		ModifiedBy: user,
	})
	if err != nil {
		return nil, err
	}
	return &copies[0], nil
}

func (s *reportService) CopyReports(
	ctx context.Context,
	req models.BulkCopyRequest,
	user string,
) ([]models.Report, error) {
	return s.copy(ctx, srvmodels.CopyParams{
		ReportIDs:  req.ReportIDs,
		CompanyID:  req.CompanyID,
		ModifiedBy: user,
	})
}

// CopyReportsWithMetadata копирует отчеты, а с IncludeVersions и их версии с макетами.
func (s *reportService) CopyReportsWithMetadata(
	ctx context.Context,
	req models.CopyWithMetadataRequest,
	user string,
) ([]models.Report, error) {
	return s.copy(ctx, srvmodels.CopyParams{
		ReportIDs:       req.ReportIDs,
		CompanyID:       req.CompanyID,
		IncludeVersions: req.IncludeVersions,
		ModifiedBy:      user,
	})
}

func (s *reportService) copy(ctx context.Context, params srvmodels.CopyParams) ([]models.Report, error) {
	params.ReportIDs = uniqueIDs(params.ReportIDs)
	if len(params.ReportIDs) == 0 {
		return nil, ErrEmptySelection
	}
	if params.CompanyID <= 0 {
		return nil, ErrInvalidInput
	}

	var (
		mu     sync.Mutex
		copied []string
	)
	copier := func(ctx context.Context, srcKey string, reportID, versionID int64) (string, error) {
		dst := storage.LayoutKey(reportID, versionID)
		if err := s.files.CopyFile(ctx, srcKey, dst); err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) {
				log.Printf("[ReportService] Макет '%s' отсутствует, версия %d скопирована без макета", srcKey, versionID)
				return "", nil
			}
			return "", err
		}
		mu.Lock()
		copied = append(copied, dst)
		mu.Unlock()
		return dst, nil
	}

	copies, err := s.reports.Copy(ctx, params, copier)
	if err != nil {
		// Транзакция откатилась, скопированные макеты больше ни на что не ссылаются.
		s.removeLayouts(ctx, copied)
		return nil, mapRepoError("копирование отчетов", err)
	}
	return copies, nil
}

func (s *reportService) removeLayouts(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.files.DeleteFiles(ctx, keys); err != nil {
		log.Printf("[ReportService] Не удалось удалить макеты %v: %v", keys, err)
	}
}
