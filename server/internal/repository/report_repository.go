package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/reportkeeper/models"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
)

const reportColumns = `id, name, created_on, modified_on, modified_by, active, company_id`

// LayoutCopier копирует макет версии и возвращает ключ копии.
// Вызывается внутри транзакции копирования, ошибка откатывает копию.
// Пустой ключ оставляет версию без макета.
type LayoutCopier func(ctx context.Context, srcKey string, reportID, versionID int64) (string, error)

// ReportRepository определяет операции над отчетами.
type ReportRepository interface {
	ListByCompany(ctx context.Context, companyID int64, search string) ([]models.Report, error)
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	Copy(ctx context.Context, params srvmodels.CopyParams, copyLayout LayoutCopier) ([]models.Report, error)
}

type postgresReportRepository struct {
	db *sqlx.DB
}

// NewPostgresReportRepository создает репозиторий отчетов для PostgreSQL.
func NewPostgresReportRepository(db *sqlx.DB) ReportRepository {
	return &postgresReportRepository{db: db}
}

// ListByCompany возвращает отчеты компании. Непустой search фильтрует по подстроке имени без учета регистра.
func (r *postgresReportRepository) ListByCompany(
	ctx context.Context,
	companyID int64,
	search string,
) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports
	          WHERE company_id=$1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
	          ORDER BY modified_on DESC, id`
	reports := make([]models.Report, 0)
	if err := r.db.SelectContext(ctx, &reports, query, companyID, search); err != nil {
		log.Printf("[ReportRepo] Ошибка получения отчетов компании %d: %v", companyID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение отчетов: %w", err)
	}
	return reports, nil
}

// GetByID находит отчет по id.
func (r *postgresReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	return getReport(ctx, r.db, id)
}

func getReport(ctx context.Context, q sqlx.QueryerContext, id int64) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id=$1`
	var report models.Report
	err := sqlx.GetContext(ctx, q, &report, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ReportRepo] Отчет %d не найден", id)
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение отчета: %w", err)
	}
	return &report, nil
}

// DeleteByIDs удаляет отчеты. Версии и ссылки удаляются каскадно.
func (r *postgresReportRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		log.Printf("[ReportRepo] Ошибка удаления отчетов %v: %v", ids, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на удаление отчетов: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения числа удаленных отчетов: %w", err)
	}
	log.Printf("[ReportRepo] Удалено отчетов: %d", n)
	return n, nil
}

// Copy копирует отчеты в компанию params.CompanyID в одной транзакции.
// С IncludeVersions копируются и версии (без публикации) вместе с макетами.
func (r *postgresReportRepository) Copy(
	ctx context.Context,
	params srvmodels.CopyParams,
	copyLayout LayoutCopier,
) ([]models.Report, error) {
	copies := make([]models.Report, 0, len(params.ReportIDs))
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, id := range params.ReportIDs {
			src, err := getReport(ctx, tx, id)
			if err != nil {
				return err
			}
			name := src.Name
			if params.Name != "" {
				name = params.Name
			}
			dst, err := insertReportCopy(ctx, tx, src, name, params)
			if err != nil {
				return err
			}
			if params.IncludeVersions {
				if err = copyVersions(ctx, tx, src.ID, dst.ID, params.ModifiedBy, copyLayout); err != nil {
					return err
				}
			}
			copies = append(copies, *dst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ReportRepo] Скопировано отчетов: %d в компанию %d (версии: %t)",
		len(copies), params.CompanyID, params.IncludeVersions)
	return copies, nil
}

func insertReportCopy(
	ctx context.Context,
	tx *sqlx.Tx,
	src *models.Report,
	name string,
	params srvmodels.CopyParams,
) (*models.Report, error) {
	query := `INSERT INTO reports (name, company_id, active, modified_by, created_on, modified_on)
	          VALUES ($1, $2, $3, $4, now(), now()) RETURNING ` + reportColumns
	var dst models.Report
	err := tx.GetContext(ctx, &dst, query, name, params.CompanyID, src.Active, params.ModifiedBy)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на копирование отчета %d: %w", src.ID, err)
	}
	return &dst, nil
}

func copyVersions(
	ctx context.Context,
	tx *sqlx.Tx,
	srcReportID, dstReportID int64,
	modifiedBy string,
	copyLayout LayoutCopier,
) error {
	versions, err := listVersions(ctx, tx, srcReportID)
	if err != nil {
		return err
	}
	for _, v := range versions {
		var newID int64
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO report_versions (report_id, version, is_published, modified_by, object_key, created_on)
			 VALUES ($1, $2, false, $3, '', now()) RETURNING id`,
			dstReportID, v.Version, modifiedBy,
		).Scan(&newID)
		if err != nil {
			return fmt.Errorf("ошибка выполнения запроса на копирование версии %d: %w", v.ID, err)
		}
		if v.ObjectKey == "" || copyLayout == nil {
			continue
		}
		key, errCopy := copyLayout(ctx, v.ObjectKey, dstReportID, newID)
		if errCopy != nil {
			return fmt.Errorf("ошибка копирования макета версии %d: %w", v.ID, errCopy)
		}
		if key == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `UPDATE report_versions SET object_key=$1 WHERE id=$2`, key, newID); err != nil {
			return fmt.Errorf("ошибка сохранения ключа макета версии %d: %w", newID, err)
		}
	}
	return nil
}

// ErrReportNotFound - отчет не найден.
var ErrReportNotFound = errors.New("отчет не найден")
