package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/reportkeeper/models"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
)

// LinkRepository хранит ссылки и страницы, на которые встроены отчеты.
type LinkRepository interface {
	ListByReport(ctx context.Context, reportID int64) ([]models.LinkedPage, error)
	Create(ctx context.Context, link *srvmodels.LinkRecord) (*srvmodels.LinkRecord, error)
}

type postgresLinkRepository struct {
	db *sqlx.DB
}

// NewPostgresLinkRepository создает репозиторий ссылок для PostgreSQL.
func NewPostgresLinkRepository(db *sqlx.DB) LinkRepository {
	return &postgresLinkRepository{db: db}
}

// ListByReport возвращает связанные страницы отчета, сначала новые.
func (r *postgresLinkRepository) ListByReport(ctx context.Context, reportID int64) ([]models.LinkedPage, error) {
	query := `SELECT id, report_id, title, url, created_on FROM linked_pages
	          WHERE report_id=$1 ORDER BY created_on DESC, id DESC`
	pages := make([]models.LinkedPage, 0)
	if err := r.db.SelectContext(ctx, &pages, query, reportID); err != nil {
		log.Printf("[LinkRepo] Ошибка получения страниц отчета %d: %v", reportID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение связанных страниц: %w", err)
	}
	return pages, nil
}

// Create сохраняет ссылку. Токен уникален.
func (r *postgresLinkRepository) Create(
	ctx context.Context,
	link *srvmodels.LinkRecord,
) (*srvmodels.LinkRecord, error) {
	query := `INSERT INTO linked_pages (report_id, title, url, token, created_on)
	          VALUES ($1, $2, $3, $4, now()) RETURNING id, report_id, title, url, token, created_on`
	var created srvmodels.LinkRecord
	err := r.db.GetContext(ctx, &created, query, link.ReportID, link.Title, link.URL, link.Token)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgForeignKeyViolationCode:
				return nil, ErrReportNotFound
			case pgUniqueViolationCode:
				return nil, fmt.Errorf("ссылка с токеном '%s' уже существует: %w", link.Token, err)
			}
		}
		log.Printf("[LinkRepo] Ошибка создания ссылки для отчета %d: %v", link.ReportID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на создание ссылки: %w", err)
	}
	log.Printf("[LinkRepo] Ссылка %d создана для отчета %d", created.ID, created.ReportID)
	return &created, nil
}
