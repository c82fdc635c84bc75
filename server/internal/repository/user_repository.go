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

// UserRepository хранит учетные записи, под которыми входят в API.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает репозиторий пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, username, password_hash, created_at, updated_at`

// CreateUser добавляет пользователя и возвращает запись с id и временем создания.
func (r *postgresUserRepository) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING ` + userColumns
	var user models.User
	err := r.db.QueryRowxContext(ctx, query, username, passwordHash).StructScan(&user)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			return nil, ErrUsernameTaken
		}
		log.Printf("[UserRepo] Ошибка создания пользователя '%s': %v", username, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}
	return &user, nil
}

// GetUserByUsername находит пользователя по имени.
func (r *postgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя '%s': %v", username, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}
	return &user, nil
}

var (
	// ErrUserNotFound - пользователь с таким именем не зарегистрирован.
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrUsernameTaken - имя уже принадлежит другому пользователю.
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
)
