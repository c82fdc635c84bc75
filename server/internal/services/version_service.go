package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
	"github.com/maynagashev/reportkeeper/server/internal/storage"
)

// VersionService определяет операции над версиями отчетов и их макетами.
type VersionService interface {
	ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error)
	GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error)
	Publish(ctx context.Context, reportID, versionID int64) error
	Unpublish(ctx context.Context, reportID, versionID int64) error
	DeleteVersions(ctx context.Context, ids []int64) error
	// DownloadLayout возвращает поток макета и его размер. Поток нужно закрыть.
	DownloadLayout(ctx context.Context, reportID, versionID int64) (io.ReadCloser, int64, error)
	UploadVersion(ctx context.Context, upload LayoutUpload) (*models.ReportVersion, error)
}

// LayoutUpload - новая версия отчета вместе с макетом.
type LayoutUpload struct {
	ReportID    int64
	Version     string
	ModifiedBy  string
	Body        io.Reader
	Size        int64
	ContentType string
}

var _ VersionService = (*versionService)(nil)

type versionService struct {
	reports  repository.ReportRepository
	versions repository.VersionRepository
	files    storage.FileStorage
}

// NewVersionService создает сервис версий.
func NewVersionService(
	reports repository.ReportRepository,
	versions repository.VersionRepository,
	files storage.FileStorage,
) VersionService {
	return &versionService{reports: reports, versions: versions, files: files}
}

// ListVersions возвращает версии существующего отчета.
func (s *versionService) ListVersions(ctx context.Context, reportID int64) ([]models.ReportVersion, error) {
	if _, err := s.reports.GetByID(ctx, reportID); err != nil {
		return nil, mapRepoError("поиск отчета", err)
	}
	versions, err := s.versions.ListByReport(ctx, reportID)
	if err != nil {
		return nil, mapRepoError("получение версий", err)
	}
	return versions, nil
}

func (s *versionService) GetVersion(ctx context.Context, versionID int64) (*models.ReportVersion, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, mapRepoError("получение версии", err)
	}
	return version, nil
}

// Publish делает версию единственной опубликованной версией отчета.
func (s *versionService) Publish(ctx context.Context, reportID, versionID int64) error {
	if err := s.versions.Publish(ctx, reportID, versionID); err != nil {
		return mapRepoError("публикация версии", err)
	}
	return nil
}

func (s *versionService) Unpublish(ctx context.Context, reportID, versionID int64) error {
	if err := s.versions.Unpublish(ctx, reportID, versionID); err != nil {
		return mapRepoError("снятие публикации", err)
	}
	return nil
}

// DeleteVersions удаляет версии и их макеты.
func (s *versionService) DeleteVersions(ctx context.Context, ids []int64) error {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	keys, err := s.versions.ObjectKeys(ctx, ids)
	if err != nil {
		return mapRepoError("получение макетов версий", err)
	}
	n, err := s.versions.DeleteByIDs(ctx, ids)
	if err != nil {
		return mapRepoError("удаление версий", err)
	}
	if n == 0 {
		return ErrVersionNotFound
	}
	if len(keys) > 0 {
		if err = s.files.DeleteFiles(ctx, keys); err != nil {
			log.Printf("[VersionService] Не удалось удалить макеты %v: %v", keys, err)
		}
	}
	log.Printf("[VersionService] Удалено версий: %d из %d", n, len(ids))
	return nil
}

func (s *versionService) DownloadLayout(
	ctx context.Context,
	reportID, versionID int64,
) (io.ReadCloser, int64, error) {
	version, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, 0, mapRepoError("получение версии", err)
	}
	if version.ReportID != reportID {
		return nil, 0, ErrVersionNotFound
	}
	if version.ObjectKey == "" {
		return nil, 0, ErrLayoutNotFound
	}
	body, size, err := s.files.DownloadFile(ctx, version.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, 0, ErrLayoutNotFound
		}
		log.Printf("[VersionService] Ошибка скачивания макета '%s': %v", version.ObjectKey, err)
		return nil, 0, errors.New("внутренняя ошибка сервера при скачивании макета")
	}
	return body, size, nil
}

// UploadVersion создает версию и загружает ее макет. Если загрузка не удалась,
// созданная версия удаляется.
func (s *versionService) UploadVersion(ctx context.Context, upload LayoutUpload) (*models.ReportVersion, error) {
	upload.Version = strings.TrimSpace(upload.Version)
	if upload.Version == "" || upload.Size <= 0 || upload.Body == nil {
		return nil, ErrInvalidInput
	}
	if upload.ContentType == "" {
		upload.ContentType = storage.LayoutContentType
	}

	version, err := s.versions.Create(ctx, &models.ReportVersion{
		ReportID:   upload.ReportID,
		Version:    upload.Version,
		ModifiedBy: upload.ModifiedBy,
	})
	if err != nil {
		return nil, mapRepoError("создание версии", err)
	}

	key := storage.LayoutKey(version.ReportID, version.ID)
	if err = s.files.UploadFile(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		s.dropVersion(ctx, version.ID)
		return nil, fmt.Errorf("внутренняя ошибка сервера при загрузке макета: %w", err)
	}
	if err = s.versions.SetObjectKey(ctx, version.ID, key); err != nil {
		s.dropVersion(ctx, version.ID)
		if delErr := s.files.DeleteFiles(ctx, []string{key}); delErr != nil {
			log.Printf("[VersionService] Не удалось удалить макет '%s': %v", key, delErr)
		}
		return nil, mapRepoError("сохранение ключа макета", err)
	}
	version.ObjectKey = key
	log.Printf("[VersionService] Версия %d отчета %d загружена (%d байт)", version.ID, version.ReportID, upload.Size)
	return version, nil
}

func (s *versionService) dropVersion(ctx context.Context, versionID int64) {
	if _, err := s.versions.DeleteByIDs(ctx, []int64{versionID}); err != nil {
		log.Printf("[VersionService] Не удалось удалить версию %d после ошибки загрузки: %v", versionID, err)
	}
}
