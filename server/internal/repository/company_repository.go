package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/reportkeeper/models"
)

// CompanyRepository читает компании и их статистику.
type CompanyRepository interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error)
}

type postgresCompanyRepository struct {
	db *sqlx.DB
}

// NewPostgresCompanyRepository создает репозиторий компаний для PostgreSQL.
func NewPostgresCompanyRepository(db *sqlx.DB) CompanyRepository {
	return &postgresCompanyRepository{db: db}
}

// ListCompanies возвращает все компании, отсортированные по имени.
func (r *postgresCompanyRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	query := `SELECT id, name, status FROM companies ORDER BY name, id`
	companies := make([]models.Company, 0)
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		log.Printf("[CompanyRepo] Ошибка получения списка компаний: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение компаний: %w", err)
	}
	return companies, nil
}

// GetCompany находит компанию по id.
func (r *postgresCompanyRepository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	query := `SELECT id, name, status FROM companies WHERE id=$1`
	var company models.Company
	err := r.db.GetContext(ctx, &company, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		log.Printf("[CompanyRepo] Ошибка при поиске компании %d: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение компании: %w", err)
	}
	return &company, nil
}

// ReportKPIs агрегирует отчеты и версии компании одним запросом.
func (r *postgresCompanyRepository) ReportKPIs(ctx context.Context, companyID int64) (*models.ReportKPIs, error) {
	query := `SELECT $1::bigint AS company_id,
	          COUNT(r.id) AS total_reports,
	          COUNT(r.id) FILTER (WHERE r.active) AS active_reports,
	          COUNT(r.id) FILTER (WHERE NOT r.active) AS inactive_reports,
	          COALESCE(SUM(v.total), 0) AS total_versions,
	          COALESCE(SUM(v.published), 0) AS published_versions
	          FROM reports r
	          LEFT JOIN (
	              SELECT report_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE is_published) AS published
	              FROM report_versions GROUP BY report_id
	          ) v ON v.report_id = r.id
	          WHERE r.company_id = $1`
	var kpis models.ReportKPIs
	if err := r.db.GetContext(ctx, &kpis, query, companyID); err != nil {
		log.Printf("[CompanyRepo] Ошибка расчета статистики компании %d: %v", companyID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение статистики: %w", err)
	}
	return &kpis, nil
}

// ErrCompanyNotFound - компания не найдена.
var ErrCompanyNotFound = errors.New("компания не найдена")
