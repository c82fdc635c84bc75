package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
	srvmodels "github.com/maynagashev/reportkeeper/server/internal/models"
)

func TestListLinkedPages(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id, report_id, title, url, created_on FROM linked_pages`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "title", "url", "created_on"}).
			AddRow(int64(1), int64(7), "Portal", "https://portal.example/sales", now))

	pages, err := repository.NewPostgresLinkRepository(db).ListByReport(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []models.LinkedPage{
		{ID: 1, ReportID: 7, Title: "Portal", URL: "https://portal.example/sales", CreatedOn: now},
	}, pages)
}

func TestCreateLink(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	cols := []string{"id", "report_id", "title", "url", "token", "created_on"}
	link := &srvmodels.LinkRecord{ReportID: 7, Title: "Sales", URL: "https://r.example/shared/tok", Token: "tok"}

	t.Run("Успешное создание", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO linked_pages`).WithArgs(link.ReportID, link.Title, link.URL, link.Token).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(3), int64(7), "Sales", link.URL, "tok", now))

		created, err := repository.NewPostgresLinkRepository(db).Create(context.Background(), link)
		require.NoError(t, err)
		assert.Equal(t, int64(3), created.ID)
		assert.Equal(t, now, created.CreatedOn)
	})

	t.Run("Отчет не существует", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(`INSERT INTO linked_pages`).WithArgs(link.ReportID, link.Title, link.URL, link.Token).
			WillReturnError(&pq.Error{Code: "23503"})

		_, err := repository.NewPostgresLinkRepository(db).Create(context.Background(), link)
		require.ErrorIs(t, err, repository.ErrReportNotFound)
	})
}
