package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

// nopStorage - хранилище макетов, которое ничего не делает.
type nopStorage struct{}

func (nopStorage) UploadFile(context.Context, string, io.Reader, int64, string) error { return nil }
func (nopStorage) DownloadFile(context.Context, string) (io.ReadCloser, int64, error) {
	return nil, 0, storage.ErrObjectNotFound
}
func (nopStorage) CopyFile(context.Context, string, string) error { return nil }
func (nopStorage) DeleteFiles(context.Context, []string) error    { return nil }

// stubDependencies подменяет подключения к БД и MinIO на время теста.
func stubDependencies(t *testing.T) {
	t.Helper()
	origDB, origStorage := newPostgresDB, newFileStorage
	t.Cleanup(func() { newPostgresDB, newFileStorage = origDB, origStorage })

	newPostgresDB = func(_ string) (*sqlx.DB, error) {
		mockDB, _, err := sqlmock.New()
		require.NoError(t, err)
		return sqlx.NewDb(mockDB, "sqlmock"), nil
	}
	newFileStorage = func(context.Context, storage.MinioConfig) (storage.FileStorage, error) {
		return nopStorage{}, nil
	}
}

func testConfig() *config {
	return &config{
		Port:        defaultServerPort,
		DatabaseDSN: "dummy-dsn-for-mock",
		JWTSecret:   "test-secret",
		PublicURL:   "http://localhost:8080",
	}
}

// hasRoute проверяет наличие маршрута в роутере.
func hasRoute(r chi.Router, method, pattern string) bool {
	found := false
	// Ошибка используется только для прерывания обхода
	_ = chi.Walk(r, func(m, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if m == method && route == pattern {
			found = true
			return errors.New("found")
		}
		return nil
	})
	return found
}

func TestSetupRouter(t *testing.T) {
	stubDependencies(t)
	deps, err := setupDependencies(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.db.Close() })

	r := setupRouter(deps)
	require.NotNil(t, r)

	routes := []struct {
		method  string
		pattern string
	}{
		{http.MethodGet, "/ping"},
		{http.MethodPost, "/api/register"},
		{http.MethodPost, "/api/login"},
		{http.MethodGet, "/api/companies"},
		{http.MethodGet, "/api/companies/{companyID}/reports"},
		{http.MethodGet, "/api/companies/{companyID}/report-kpis"},
		{http.MethodDelete, "/api/reports"},
		{http.MethodPost, "/api/reports/{reportID}/copy"},
		{http.MethodPost, "/api/copy"},
		{http.MethodPost, "/api/copy-with-metadata"},
		{http.MethodGet, "/api/versions/{versionID}"},
		{http.MethodDelete, "/api/versions"},
		{http.MethodGet, "/api/{reportID}/versions"},
		{http.MethodPost, "/api/{reportID}/versions"},
		{http.MethodPost, "/api/{reportID}/versions/publish"},
		{http.MethodGet, "/api/{reportID}/versions/{versionID}/download"},
		{http.MethodGet, "/api/{reportID}/linked-pages"},
		{http.MethodPost, "/api/{reportID}/generate-link"},
	}
	for _, rt := range routes {
		assert.True(t, hasRoute(r, rt.method, rt.pattern), "%s %s", rt.method, rt.pattern)
	}

	t.Run("ping доступен без токена", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong\n", rec.Body.String())
	})

	t.Run("приватные маршруты требуют токен", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSetupDependencies(t *testing.T) {
	t.Run("Ошибка: Некорректный DatabaseDSN", func(t *testing.T) {
		stubDependencies(t)
		newPostgresDB = func(_ string) (*sqlx.DB, error) {
			return nil, errors.New("connection refused")
		}
		_, err := setupDependencies(context.Background(), testConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ошибка инициализации БД")
	})

	t.Run("Ошибка: Некорректный MinIO Endpoint", func(t *testing.T) {
		stubDependencies(t)
		newFileStorage = func(ctx context.Context, cfg storage.MinioConfig) (storage.FileStorage, error) {
			return storage.NewMinioClient(ctx, cfg)
		}
		cfg := testConfig()
		cfg.MinioEndpoint = "invalid-endpoint:!!!"

		_, err := setupDependencies(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ошибка инициализации клиента MinIO")
	})

	t.Run("Успешное выполнение", func(t *testing.T) {
		stubDependencies(t)
		var gotCfg storage.MinioConfig
		newFileStorage = func(_ context.Context, cfg storage.MinioConfig) (storage.FileStorage, error) {
			gotCfg = cfg
			return nopStorage{}, nil
		}
		cfg := testConfig()
		cfg.MinioEndpoint = "minio:9000"
		cfg.MinioBucket = "layouts"

		deps, err := setupDependencies(context.Background(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { _ = deps.db.Close() })

		assert.Equal(t, "minio:9000", gotCfg.Endpoint)
		assert.Equal(t, "layouts", gotCfg.BucketName)
		assert.Equal(t, []byte("test-secret"), deps.jwtSecret)
		assert.NotNil(t, deps.fileStorage)
		assert.NotNil(t, deps.authHandler)
		assert.NotNil(t, deps.reportHandler)
		assert.NotNil(t, deps.versionHandler)
		assert.NotNil(t, deps.linkHandler)
	})
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()} //nolint:gosec // Тестовый сервер
	cancel()
	require.NoError(t, serve(ctx, server, &config{Port: "0"}))
}
