package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/handlers"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

func setupAuthRouter(svc services.AuthService) *chi.Mux {
	h := handlers.NewAuthHandler(svc)
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rr
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		serviceErr      error
		callsService    bool
		expectedStatus  int
		expectedMessage string
		expectedDetail  string
	}{
		{
			name:            "Пользователь создан",
			body:            `{"username":"designer","password":"s3cret-pass"}`,
			callsService:    true,
			expectedStatus:  http.StatusCreated,
			expectedMessage: "Пользователь успешно зарегистрирован",
		},
		{
			name:            "Имя занято",
			body:            `{"username":"designer","password":"s3cret-pass"}`,
			serviceErr:      services.ErrUsernameTaken,
			callsService:    true,
			expectedStatus:  http.StatusConflict,
			expectedMessage: services.ErrUsernameTaken.Error(),
		},
		{
			name:            "Сбой сервиса",
			body:            `{"username":"designer","password":"s3cret-pass"}`,
			serviceErr:      errors.New("внутренняя ошибка сервера: регистрация пользователя"),
			callsService:    true,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Внутренняя ошибка сервера",
		},
		{
			name:            "Сломанный JSON",
			body:            `{"username":"designer"`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Неверный формат запроса",
		},
		{
			name:            "Короткий пароль",
			body:            `{"username":"designer","password":"short"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Некорректные учетные данные",
			expectedDetail:  "пароль короче 8 символов",
		},
		{
			name:            "Пробел вокруг имени",
			body:            `{"username":" designer","password":"s3cret-pass"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Некорректные учетные данные",
			expectedDetail:  "пробелом",
		},
		{
			name:            "Нет имени",
			body:            `{"password":"s3cret-pass"}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Некорректные учетные данные",
			expectedDetail:  "обязательны",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.callsService {
				svc.On("Register", mock.Anything, "designer", "s3cret-pass").Return(tt.serviceErr).Once()
			}

			rr := postJSON(setupAuthRouter(svc), "/register", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var env models.Envelope[any]
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			assert.Equal(t, tt.expectedStatus == http.StatusCreated, env.Success)
			assert.Equal(t, tt.expectedMessage, env.Message)
			if tt.expectedDetail != "" {
				require.Len(t, env.Errors, 1)
				assert.Contains(t, env.Errors[0], tt.expectedDetail)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		token           string
		serviceErr      error
		callsService    bool
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "Токен в конверте",
			body:           `{"username":"designer","password":"pw"}`,
			token:          "jwt-token",
			callsService:   true,
			expectedStatus: http.StatusOK,
		},
		{
			name:            "Неверные учетные данные",
			body:            `{"username":"designer","password":"pw"}`,
			serviceErr:      services.ErrInvalidCredentials,
			callsService:    true,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: services.ErrInvalidCredentials.Error(),
		},
		{
			name:            "Сбой сервиса не раскрывает причину",
			body:            `{"username":"designer","password":"pw"}`,
			serviceErr:      errors.New("pq: connection reset"),
			callsService:    true,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Внутренняя ошибка сервера",
		},
		{
			name:            "Пустой пароль",
			body:            `{"username":"designer","password":""}`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Некорректные учетные данные",
		},
		{
			name:            "Не объект",
			body:            `["designer","pw"]`,
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Неверный формат запроса",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockAuthService)
			if tt.callsService {
				svc.On("Login", mock.Anything, "designer", "pw").Return(tt.token, tt.serviceErr).Once()
			}

			rr := postJSON(setupAuthRouter(svc), "/login", tt.body)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var env models.Envelope[models.LoginResponse]
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
			if tt.expectedStatus == http.StatusOK {
				assert.True(t, env.Success)
				assert.Equal(t, tt.token, env.Data.Token)
			} else {
				assert.False(t, env.Success)
				assert.Empty(t, env.Data.Token)
				assert.Equal(t, tt.expectedMessage, env.Message)
				assert.NotContains(t, rr.Body.String(), "pq:")
			}
			svc.AssertExpectations(t)
		})
	}
}
