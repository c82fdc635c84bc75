package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/maynagashev/reportkeeper/server/internal/services"
)

const (
	defaultServerPort    = "8080"
	defaultMinioEndpoint = "localhost:9000"
	defaultMinioUser     = "minioadmin"
	defaultMinioPassword = "minioadmin"
	defaultMinioBucket   = "reportkeeper-layouts"

	// Переменные окружения.
	envServerPort    = "SERVER_PORT"
	envTLSCertFile   = "TLS_CERT_FILE"
	envTLSKeyFile    = "TLS_KEY_FILE"
	envDatabaseDSN   = "DATABASE_DSN"
	envJWTSecret     = "JWT_SECRET" //nolint:gosec // Имя переменной окружения
	envJWTTTL        = "JWT_TTL"
	envPublicURL     = "PUBLIC_URL"
	envMinioEndpoint = "MINIO_ENDPOINT"
	envMinioUser     = "MINIO_USER"
	envMinioPassword = "MINIO_PASSWORD" //nolint:gosec // Имя переменной окружения
	envMinioBucket   = "MINIO_BUCKET"
	envMinioUseSSL   = "MINIO_USE_SSL"
)

// config хранит конфигурацию сервера.
type config struct {
	Port        string
	CertFile    string
	KeyFile     string
	DatabaseDSN string
	JWTSecret   string
	TokenTTL    time.Duration
	// PublicURL - внешний адрес сервера для сгенерированных ссылок.
	PublicURL string

	MinioEndpoint string
	MinioUser     string
	MinioPassword string
	MinioBucket   string
	MinioUseSSL   bool
}

// useTLS сообщает, заданы ли сертификат и ключ.
func (c *config) useTLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// parseFlags разбирает флаги и переменные окружения. Явно заданный флаг важнее
// переменной окружения, переменная важнее значения по умолчанию.
func parseFlags(args []string) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	flagEnv := map[string]string{}
	bind := func(name, env string) string {
		flagEnv[name] = env
		return fmt.Sprintf(" (env: %s)", env)
	}

	fs.StringVar(&cfg.Port, "port", defaultServerPort, "Порт HTTP(S)-сервера"+bind("port", envServerPort))
	fs.StringVar(&cfg.CertFile, "cert-file", "", "Путь к файлу TLS-сертификата"+bind("cert-file", envTLSCertFile))
	fs.StringVar(&cfg.KeyFile, "key-file", "", "Путь к файлу TLS-ключа"+bind("key-file", envTLSKeyFile))
	fs.StringVar(&cfg.DatabaseDSN, "database-dsn", "",
		"Строка подключения к базе данных"+bind("database-dsn", envDatabaseDSN))
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Секрет подписи JWT"+bind("jwt-secret", envJWTSecret))
	fs.DurationVar(&cfg.TokenTTL, "jwt-ttl", services.DefaultTokenTTL, "Время жизни токена"+bind("jwt-ttl", envJWTTTL))
	fs.StringVar(&cfg.PublicURL, "public-url", "", "Внешний адрес для ссылок на отчеты"+bind("public-url", envPublicURL))
	fs.StringVar(&cfg.MinioEndpoint, "minio-endpoint", defaultMinioEndpoint,
		"Адрес MinIO"+bind("minio-endpoint", envMinioEndpoint))
	fs.StringVar(&cfg.MinioUser, "minio-user", defaultMinioUser, "Логин MinIO"+bind("minio-user", envMinioUser))
	fs.StringVar(&cfg.MinioPassword, "minio-password", defaultMinioPassword,
		"Пароль MinIO"+bind("minio-password", envMinioPassword))
	fs.StringVar(&cfg.MinioBucket, "minio-bucket", defaultMinioBucket,
		"Бакет для макетов"+bind("minio-bucket", envMinioBucket))
	fs.BoolVar(&cfg.MinioUseSSL, "minio-ssl", false, "HTTPS для MinIO"+bind("minio-ssl", envMinioUseSSL))

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Переменные окружения применяются только к флагам, не заданным явно.
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for name, env := range flagEnv {
		if set[name] {
			continue
		}
		if value, ok := os.LookupEnv(env); ok {
			if err := fs.Set(name, value); err != nil {
				return nil, fmt.Errorf("неверное значение %s: %w", env, err)
			}
		}
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("не указана строка подключения к БД (--database-dsn или " + envDatabaseDSN + ")")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("не указан секрет подписи токенов (--jwt-secret или " + envJWTSecret + ")")
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return nil, errors.New("сертификат и ключ TLS задаются вместе (" + envTLSCertFile + ", " + envTLSKeyFile + ")")
	}
	if cfg.PublicURL == "" {
		scheme := "http"
		if cfg.useTLS() {
			scheme = "https"
		}
		cfg.PublicURL = fmt.Sprintf("%s://localhost:%s", scheme, cfg.Port)
	}
	return cfg, nil
}
