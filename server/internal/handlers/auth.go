package handlers

import (
	"log"
	"net/http"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	service services.AuthService
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(s services.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

const msgBadCredentials = "Некорректные учетные данные"

// Register обрабатывает запрос на регистрацию нового пользователя.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, "Register", &req) || !validCredentials(w, "Register", req) {
		return
	}

	if err := h.service.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, "Register", err)
		return
	}
	log.Printf("[AuthHandler] Зарегистрирован пользователь: %s", req.Username)
	writeMessage(w, http.StatusCreated, "Пользователь успешно зарегистрирован")
}

// Login обрабатывает запрос на вход и возвращает JWT токен в конверте.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, "Login", &req) || !validCredentials(w, "Login", req) {
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, "Login", err)
		return
	}
	log.Printf("[AuthHandler] Успешный вход: %s", req.Username)
	writeData(w, http.StatusOK, models.LoginResponse{Token: token})
}

// validCredentials отвечает 400 с причиной, если учетные данные не проходят проверку модели.
func validCredentials(w http.ResponseWriter, op string, req interface{ Validate() error }) bool {
	if err := req.Validate(); err != nil {
		log.Printf("[Handler:%s] %v", op, err)
		writeMessage(w, http.StatusBadRequest, msgBadCredentials, err.Error())
		return false
	}
	return true
}
