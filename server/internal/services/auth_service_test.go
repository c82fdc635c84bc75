package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/repository"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

var testTokens = services.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour}

// hashOf проверяет, что репозиторий получил bcrypt-хеш пароля, а не сам пароль.
func hashOf(password string) any {
	return mock.MatchedBy(func(hash string) bool {
		return hash != password && bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		repoResult  *models.User
		repoErr     error
		expectedErr error
	}{
		{
			name:       "Пользователь зарегистрирован",
			repoResult: &models.User{ID: 11, Username: "designer"},
		},
		{
			name:        "Имя занято",
			repoErr:     repository.ErrUsernameTaken,
			expectedErr: services.ErrUsernameTaken,
		},
		{
			name:        "Сбой базы скрыт за внутренней ошибкой",
			repoErr:     errors.New("connection reset"),
			expectedErr: errors.New("внутренняя ошибка сервера: регистрация пользователя"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("CreateUser", ctx, "designer", hashOf("s3cret")).Return(tt.repoResult, tt.repoErr).Once()

			err := services.NewAuthService(repo, testTokens).Register(ctx, "designer", "s3cret")
			switch {
			case tt.expectedErr == nil:
				require.NoError(t, err)
			case errors.Is(tt.expectedErr, services.ErrUsernameTaken):
				require.ErrorIs(t, err, services.ErrUsernameTaken)
			default:
				require.EqualError(t, err, tt.expectedErr.Error())
				assert.NotContains(t, err.Error(), "connection reset")
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	designer := &models.User{ID: 11, Username: "designer", PasswordHash: string(hash)}

	tests := []struct {
		name        string
		password    string
		repoResult  *models.User
		repoErr     error
		expectedErr error
	}{
		{
			name:       "Успешный вход",
			password:   "s3cret",
			repoResult: designer,
		},
		{
			name:        "Неизвестный пользователь неотличим от неверного пароля",
			password:    "s3cret",
			repoErr:     repository.ErrUserNotFound,
			expectedErr: services.ErrInvalidCredentials,
		},
		{
			name:        "Неверный пароль",
			password:    "wrong",
			repoResult:  designer,
			expectedErr: services.ErrInvalidCredentials,
		},
		{
			name:        "Сбой базы скрыт за внутренней ошибкой",
			password:    "s3cret",
			repoErr:     errors.New("connection reset"),
			expectedErr: errors.New("внутренняя ошибка сервера: вход пользователя"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			repo.On("GetUserByUsername", ctx, "designer").Return(tt.repoResult, tt.repoErr).Once()

			token, err := services.NewAuthService(repo, testTokens).Login(ctx, "designer", tt.password)
			repo.AssertExpectations(t)
			if tt.expectedErr != nil {
				require.EqualError(t, err, tt.expectedErr.Error())
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)

			claims := &services.Claims{}
			_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
				return testTokens.Secret, nil
			}, jwt.WithIssuer(services.TokenIssuer), jwt.WithValidMethods([]string{"HS256"}))
			require.NoError(t, err)
			assert.Equal(t, int64(11), claims.UserID)
			assert.Equal(t, "designer", claims.Username)
			assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
		})
	}
}

func TestAuthService_DefaultTTL(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := new(MockUserRepository)
	repo.On("GetUserByUsername", ctx, "designer").
		Return(&models.User{ID: 11, Username: "designer", PasswordHash: string(hash)}, nil).Once()

	token, err := services.NewAuthService(repo, services.TokenConfig{Secret: []byte("s")}).Login(ctx, "designer", "s3cret")
	require.NoError(t, err)

	claims := &services.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return []byte("s"), nil })
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(services.DefaultTokenTTL), claims.ExpiresAt.Time, time.Minute)
}
