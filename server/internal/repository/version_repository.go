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
)

const versionColumns = `id, version, report_id, is_published, created_on, modified_by, object_key`

// VersionRepository определяет операции над версиями отчетов.
type VersionRepository interface {
	ListByReport(ctx context.Context, reportID int64) ([]models.ReportVersion, error)
	GetByID(ctx context.Context, versionID int64) (*models.ReportVersion, error)
	Create(ctx context.Context, version *models.ReportVersion) (*models.ReportVersion, error)
	SetObjectKey(ctx context.Context, versionID int64, key string) error
	Publish(ctx context.Context, reportID, versionID int64) error
	Unpublish(ctx context.Context, reportID, versionID int64) error
	ObjectKeys(ctx context.Context, versionIDs []int64) ([]string, error)
	ObjectKeysByReports(ctx context.Context, reportIDs []int64) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

type postgresVersionRepository struct {
	db *sqlx.DB
}

// NewPostgresVersionRepository создает репозиторий версий для PostgreSQL.
func NewPostgresVersionRepository(db *sqlx.DB) VersionRepository {
	return &postgresVersionRepository{db: db}
}

func listVersions(ctx context.Context, q sqlx.QueryerContext, reportID int64) ([]models.ReportVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM report_versions WHERE report_id=$1 ORDER BY created_on DESC, id DESC`
	versions := make([]models.ReportVersion, 0)
	if err := sqlx.SelectContext(ctx, q, &versions, query, reportID); err != nil {
		log.Printf("[VersionRepo] Ошибка получения версий отчета %d: %v", reportID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение версий: %w", err)
	}
	return versions, nil
}

// ListByReport возвращает версии отчета, сначала новые.
func (r *postgresVersionRepository) ListByReport(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	return listVersions(ctx, r.db, reportID)
}

// GetByID находит версию по id.
func (r *postgresVersionRepository) GetByID(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM report_versions WHERE id=$1`
	var version models.ReportVersion
	err := r.db.GetContext(ctx, &version, query, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[VersionRepo] Версия %d не найдена", versionID)
			return nil, ErrVersionNotFound
		}
		return nil, fmt.Errorf("ошибка выполнения запроса на получение версии: %w", err)
	}
	return &version, nil
}

// Create добавляет неопубликованную версию отчета.
func (r *postgresVersionRepository) Create(
	ctx context.Context,
	version *models.ReportVersion,
) (*models.ReportVersion, error) {
	query := `INSERT INTO report_versions (report_id, version, is_published, modified_by, object_key, created_on)
	          VALUES ($1, $2, false, $3, $4, now()) RETURNING ` + versionColumns
	var created models.ReportVersion
	err := r.db.GetContext(ctx, &created, query,
		version.ReportID, version.Version, version.ModifiedBy, version.ObjectKey)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			return nil, ErrReportNotFound
		}
		log.Printf("[VersionRepo] Ошибка создания версии отчета %d: %v", version.ReportID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на создание версии: %w", err)
	}
	log.Printf("[VersionRepo] Версия %d создана для отчета %d", created.ID, created.ReportID)
	return &created, nil
}

// SetObjectKey сохраняет ключ макета версии.
func (r *postgresVersionRepository) SetObjectKey(ctx context.Context, versionID int64, key string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE report_versions SET object_key=$1 WHERE id=$2`, key, versionID)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса на обновление ключа макета: %w", err)
	}
	return expectAffected(res, ErrVersionNotFound)
}

// Publish публикует версию и снимает публикацию с остальных версий отчета в одной транзакции.
func (r *postgresVersionRepository) Publish(ctx context.Context, reportID, versionID int64) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var id int64
		err := tx.QueryRowxContext(ctx,
			`SELECT id FROM report_versions WHERE id=$1 AND report_id=$2 FOR UPDATE`,
			versionID, reportID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrVersionNotFound
			}
			return fmt.Errorf("ошибка блокировки версии: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE report_versions SET is_published=false WHERE report_id=$1 AND id<>$2 AND is_published`,
			reportID, versionID,
		); err != nil {
			return fmt.Errorf("ошибка снятия публикации с других версий: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE report_versions SET is_published=true WHERE id=$1`, versionID,
		); err != nil {
			return fmt.Errorf("ошибка публикации версии: %w", err)
		}
		log.Printf("[VersionRepo] Версия %d отчета %d опубликована", versionID, reportID)
		return nil
	})
}

// Unpublish снимает публикацию версии.
func (r *postgresVersionRepository) Unpublish(ctx context.Context, reportID, versionID int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE report_versions SET is_published=false WHERE id=$1 AND report_id=$2`, versionID, reportID)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса на снятие публикации: %w", err)
	}
	return expectAffected(res, ErrVersionNotFound)
}

// ObjectKeys возвращает непустые ключи макетов версий.
func (r *postgresVersionRepository) ObjectKeys(ctx context.Context, versionIDs []int64) ([]string, error) {
	keys := make([]string, 0, len(versionIDs))
	err := r.db.SelectContext(ctx, &keys,
		`SELECT object_key FROM report_versions WHERE id = ANY($1) AND object_key <> ''`, pq.Array(versionIDs))
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение ключей макетов: %w", err)
	}
	return keys, nil
}

// ObjectKeysByReports возвращает непустые ключи макетов всех версий отчетов.
func (r *postgresVersionRepository) ObjectKeysByReports(ctx context.Context, reportIDs []int64) ([]string, error) {
	keys := make([]string, 0)
	err := r.db.SelectContext(ctx, &keys,
		`SELECT object_key FROM report_versions WHERE report_id = ANY($1) AND object_key <> ''`, pq.Array(reportIDs))
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса на получение ключей макетов: %w", err)
	}
	return keys, nil
}

// DeleteByIDs удаляет версии и возвращает число удаленных.
func (r *postgresVersionRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_versions WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		log.Printf("[VersionRepo] Ошибка удаления версий %v: %v", ids, err)
		return 0, fmt.Errorf("ошибка выполнения запроса на удаление версий: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения числа удаленных версий: %w", err)
	}
	return n, nil
}

// expectAffected возвращает notFound, если запрос не изменил ни одной строки.
func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа измененных строк: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// ErrVersionNotFound - версия отчета не найдена.
var ErrVersionNotFound = errors.New("версия отчета не найдена")
