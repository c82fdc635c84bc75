package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// User представляет пользователя API отчетов.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
}

// Validate проверяет, что имя и пароль заданы.
func (r LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("%w: имя пользователя и пароль обязательны", ErrInvalidEntity)
	}
	return nil
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Ограничения на учетные данные при регистрации. Длина имени совпадает с колонкой users.username.
const (
	MaxUsernameLength = 255
	MinPasswordLength = 8
)

// Validate проверяет учетные данные нового пользователя.
func (r RegisterRequest) Validate() error {
	switch {
	case r.Username == "" || r.Password == "":
		return fmt.Errorf("%w: имя пользователя и пароль обязательны", ErrInvalidEntity)
	case strings.TrimSpace(r.Username) != r.Username:
		return fmt.Errorf("%w: имя пользователя начинается или заканчивается пробелом", ErrInvalidEntity)
	case utf8.RuneCountInString(r.Username) > MaxUsernameLength:
		return fmt.Errorf("%w: имя пользователя длиннее %d символов", ErrInvalidEntity, MaxUsernameLength)
	case utf8.RuneCountInString(r.Password) < MinPasswordLength:
		return fmt.Errorf("%w: пароль короче %d символов", ErrInvalidEntity, MinPasswordLength)
	}
	return nil
}
