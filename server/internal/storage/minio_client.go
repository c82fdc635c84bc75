package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LayoutContentType - тип содержимого макетов отчетов.
const LayoutContentType = "application/octet-stream"

const minioNoSuchKey = "NoSuchKey"

// FileStorage определяет интерфейс для взаимодействия с объектным хранилищем макетов.
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, int64, error)
	CopyFile(ctx context.Context, srcKey, dstKey string) error
	DeleteFiles(ctx context.Context, objectKeys []string) error
}

// LayoutKey возвращает ключ макета версии отчета.
func LayoutKey(reportID, versionID int64) string {
	return fmt.Sprintf("reports/%d/versions/%d.repx", reportID, versionID)
}

// MinioClient реализует FileStorage для MinIO.
type MinioClient struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig содержит параметры для подключения к MinIO.
type MinioConfig struct {
	Endpoint        string // Адрес MinIO (например, "localhost:9000")
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// NewMinioClient создает клиент MinIO и создает бакет макетов, если его нет.
func NewMinioClient(ctx context.Context, cfg MinioConfig) (*MinioClient, error) {
	log.Printf("Инициализация клиента MinIO для эндпоинта %s...", cfg.Endpoint)

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
	}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки существования бакета '%s': %w", cfg.BucketName, err)
	}
	if !exists {
		log.Printf("Бакет '%s' не найден, создаем...", cfg.BucketName)
		err = minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета '%s': %w", cfg.BucketName, err)
		}
	}

	log.Printf("Клиент MinIO инициализирован для бакета '%s'.", cfg.BucketName)
	return &MinioClient{
		client:     minioClient,
		bucketName: cfg.BucketName,
	}, nil
}

// UploadFile загружает макет в MinIO.
func (c *MinioClient) UploadFile(
	ctx context.Context,
	objectKey string,
	reader io.Reader,
	size int64,
	contentType string,
) error {
	uploadInfo, err := c.client.PutObject(ctx, c.bucketName, objectKey, reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Printf("[Minio] Ошибка загрузки '%s': %v", objectKey, err)
		return fmt.Errorf("ошибка загрузки файла в MinIO: %w", err)
	}
	log.Printf("[Minio] Файл '%s' загружен, размер: %d, ETag: %s", objectKey, uploadInfo.Size, uploadInfo.ETag)
	return nil
}

// DownloadFile открывает макет для чтения и возвращает его размер.
// Возвращенный io.ReadCloser нужно закрыть.
func (c *MinioClient) DownloadFile(ctx context.Context, objectKey string) (io.ReadCloser, int64, error) {
	object, err := c.client.GetObject(ctx, c.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, c.mapError(objectKey, err)
	}
	// GetObject ленивый, отсутствие объекта видно только после Stat.
	stat, err := object.Stat()
	if err != nil {
		_ = object.Close()
		return nil, 0, c.mapError(objectKey, err)
	}
	log.Printf("[Minio] Файл '%s' получен, размер: %d", objectKey, stat.Size)
	return object, stat.Size, nil
}

// CopyFile копирует макет внутри бакета.
func (c *MinioClient) CopyFile(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucketName, Object: dstKey},
		minio.CopySrcOptions{Bucket: c.bucketName, Object: srcKey},
	)
	if err != nil {
		return c.mapError(srcKey, err)
	}
	log.Printf("[Minio] Файл '%s' скопирован в '%s'", srcKey, dstKey)
	return nil
}

// DeleteFiles удаляет макеты. Отсутствующие объекты не считаются ошибкой.
func (c *MinioClient) DeleteFiles(ctx context.Context, objectKeys []string) error {
	var errs []error
	for _, key := range objectKeys {
		if err := c.client.RemoveObject(ctx, c.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
			if errors.Is(c.mapError(key, err), ErrObjectNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("ошибка удаления '%s': %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("[Minio] Удалено файлов: %d", len(objectKeys))
	return nil
}

func (c *MinioClient) mapError(objectKey string, err error) error {
	if minio.ToErrorResponse(err).Code == minioNoSuchKey {
		log.Printf("[Minio] Файл '%s' не найден в бакете '%s'", objectKey, c.bucketName)
		return ErrObjectNotFound
	}
	log.Printf("[Minio] Ошибка операции с файлом '%s': %v", objectKey, err)
	return fmt.Errorf("ошибка обращения к MinIO: %w", err)
}

// ErrObjectNotFound - объект отсутствует в хранилище.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")
