package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/maynagashev/reportkeeper/server/internal/handlers"
	appmiddleware "github.com/maynagashev/reportkeeper/server/internal/middleware"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
	"github.com/maynagashev/reportkeeper/server/internal/services"
	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second // Скачивание макетов
	defaultIdleTimeout     = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
	dotEnvFile             = ".env"
)

// Подменяются в тестах.
//
//nolint:gochecknoglobals // Точки внедрения зависимостей
var (
	newPostgresDB  = repository.NewPostgresDB
	newFileStorage = func(ctx context.Context, cfg storage.MinioConfig) (storage.FileStorage, error) {
		return storage.NewMinioClient(ctx, cfg)
	}
)

// dependencies - инициализированные зависимости сервера.
type dependencies struct {
	db             *sqlx.DB
	fileStorage    storage.FileStorage
	jwtSecret      []byte
	authHandler    *handlers.AuthHandler
	reportHandler  *handlers.ReportHandler
	versionHandler *handlers.VersionHandler
	linkHandler    *handlers.LinkHandler
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(); err != nil {
		log.Printf("Ошибка выполнения сервера: %v", err)
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run() error {
	log.Println("Запуск сервера ReportKeeper...")

	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка чтения %s: %w", dotEnvFile, err)
	}
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer func() {
		if closeErr := deps.db.Close(); closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", closeErr)
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      setupRouter(deps),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	return serve(ctx, server, cfg)
}

// serve запускает сервер и останавливает его при отмене ctx.
func serve(ctx context.Context, server *http.Server, cfg *config) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg.useTLS() {
			log.Printf("Запуск HTTPS-сервера на порту %s (сертификат: %s)", cfg.Port, cfg.CertFile)
			err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			log.Printf("Запуск HTTP-сервера на порту %s", cfg.Port)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Остановка сервера...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ошибка остановки сервера: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{jwtSecret: []byte(cfg.JWTSecret)}
	var err error

	deps.db, err = newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}

	deps.fileStorage, err = newFileStorage(ctx, storage.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioUser,
		SecretAccessKey: cfg.MinioPassword,
		UseSSL:          cfg.MinioUseSSL,
		BucketName:      cfg.MinioBucket,
	})
	if err != nil {
		if dbCloseErr := deps.db.Close(); dbCloseErr != nil {
			log.Printf("Ошибка закрытия соединения с БД при ошибке MinIO: %v", dbCloseErr)
		}
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	userRepo := repository.NewPostgresUserRepository(deps.db)
	companyRepo := repository.NewPostgresCompanyRepository(deps.db)
	reportRepo := repository.NewPostgresReportRepository(deps.db)
	versionRepo := repository.NewPostgresVersionRepository(deps.db)
	linkRepo := repository.NewPostgresLinkRepository(deps.db)

	authService := services.NewAuthService(userRepo, services.TokenConfig{Secret: deps.jwtSecret, TTL: cfg.TokenTTL})
	reportService := services.NewReportService(companyRepo, reportRepo, versionRepo, deps.fileStorage)
	versionService := services.NewVersionService(reportRepo, versionRepo, deps.fileStorage)
	linkService := services.NewLinkService(reportRepo, linkRepo, cfg.PublicURL)

	deps.authHandler = handlers.NewAuthHandler(authService)
	deps.reportHandler = handlers.NewReportHandler(reportService)
	deps.versionHandler = handlers.NewVersionHandler(versionService)
	deps.linkHandler = handlers.NewLinkHandler(linkService)
	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты
		r.Post("/register", deps.authHandler.Register)
		r.Post("/login", deps.authHandler.Login)

		// Приватные маршруты
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(deps.jwtSecret))

			r.Get("/companies", deps.reportHandler.ListCompanies)
			r.Get("/companies/{companyID}/reports", deps.reportHandler.ListReports)
			r.Get("/companies/{companyID}/report-kpis", deps.reportHandler.ReportKPIs)

			r.Delete("/reports", deps.reportHandler.DeleteReports)
			r.Post("/reports/{reportID}/copy", deps.reportHandler.CopyReport)
			r.Post("/copy", deps.reportHandler.CopyReports)
			r.Post("/copy-with-metadata", deps.reportHandler.CopyReportsWithMetadata)

			r.Get("/versions/{versionID}", deps.versionHandler.GetVersion)
			r.Delete("/versions", deps.versionHandler.DeleteVersions)

			r.Route("/{reportID}", func(r chi.Router) {
				r.Get("/versions", deps.versionHandler.ListVersions)
				r.Post("/versions", deps.versionHandler.Upload)
				r.Post("/versions/publish", deps.versionHandler.Publish)
				r.Get("/versions/{versionID}/download", deps.versionHandler.Download)
				r.Get("/linked-pages", deps.linkHandler.ListLinkedPages)
				r.Post("/generate-link", deps.linkHandler.GenerateLink)
			})
		})
	})
	return r
}
