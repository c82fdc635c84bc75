package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/middleware"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

const (
	msgBadRequest = "Неверный формат запроса"
	msgInternal   = "Внутренняя ошибка сервера"
)

var errBadID = errors.New("неверный идентификатор")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handler] Ошибка кодирования ответа: %v", err)
	}
}

// writeData отвечает конвертом с одной сущностью.
func writeData[T any](w http.ResponseWriter, status int, data T) {
	writeJSON(w, status, models.Envelope[T]{Data: data, Success: true})
}

// writeList отвечает списочным конвертом, в котором все элементы на одной странице.
func writeList[T any](w http.ResponseWriter, items []T) {
	writeJSON(w, http.StatusOK, models.NewListEnvelope(items))
}

func writeMessage(w http.ResponseWriter, status int, message string, errs ...string) {
	writeJSON(w, status, models.Envelope[any]{
		Success: status < http.StatusBadRequest,
		Message: message,
		Errors:  errs,
	})
}

// writeError переводит ошибку сервиса в статус и неуспешный конверт.
func writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, services.ErrReportNotFound),
		errors.Is(err, services.ErrVersionNotFound),
		errors.Is(err, services.ErrLayoutNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrEmptySelection),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, errBadID):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrUsernameTaken):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		log.Printf("[Handler:%s] Внутренняя ошибка: %v", op, err)
		writeMessage(w, status, msgInternal)
		return
	}
	log.Printf("[Handler:%s] %v", op, err)
	writeMessage(w, status, err.Error())
}

// decodeBody декодирует JSON тела запроса, отвечая 400 при ошибке.
func decodeBody(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Printf("[Handler:%s] Ошибка декодирования запроса: %v", op, err)
		writeMessage(w, http.StatusBadRequest, msgBadRequest, err.Error())
		return false
	}
	return true
}

// idParam читает положительный id из параметра пути.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", errBadID, name, raw)
	}
	return id, nil
}

// idsQuery читает список id из параметра ids=1,2,3.
func idsQuery(r *http.Request) ([]int64, error) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		return nil, services.ErrEmptySelection
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: ids=%q", errBadID, raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// currentUser возвращает имя пользователя для поля modifiedBy.
func currentUser(r *http.Request) string {
	if name, ok := middleware.GetUsernameFromContext(r.Context()); ok {
		return name
	}
	if id, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "unknown"
}
