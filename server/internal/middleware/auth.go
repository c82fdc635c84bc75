package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/maynagashev/reportkeeper/models"
	"github.com/maynagashev/reportkeeper/server/internal/services"
)

// Тип для ключа контекста.
type contextKey string

// Ключи данных пользователя в контексте запроса.
const (
	UserIDKey   contextKey = "userID"
	UsernameKey contextKey = "username"
)

// Authenticator возвращает middleware, проверяющий JWT токен, подписанный secret.
// Отказ отдается тем же JSON конвертом, что и ответы обработчиков.
func Authenticator(secret []byte) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(services.TokenIssuer),
		jwt.WithExpirationRequired(),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Printf("[AuthMiddleware] %s %s без Bearer токена", r.Method, r.URL.Path)
				unauthorized(w, msgAuthRequired)
				return
			}

			claims := &services.Claims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				log.Printf("[AuthMiddleware] Токен отклонен: %v", err)
				unauthorized(w, msgInvalidToken)
				return
			}
			if claims.UserID <= 0 {
				log.Printf("[AuthMiddleware] Токен без идентификатора пользователя")
				unauthorized(w, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Username)))
		})
	}
}

const (
	msgAuthRequired = "Требуется аутентификация"
	msgInvalidToken = "Невалидный токен"
)

// bearerToken достает токен из заголовка "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="reportkeeper"`)
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(models.Envelope[any]{Message: message}); err != nil {
		log.Printf("[AuthMiddleware] Ошибка кодирования ответа: %v", err)
	}
}

// WithUser кладет в контекст пользователя, от имени которого выполняется запрос.
func WithUser(ctx context.Context, userID int64, username string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UsernameKey, username)
}

// GetUserIDFromContext извлекает UserID из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе 0 и false.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetUsernameFromContext извлекает имя пользователя из контекста запроса.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok && username != ""
}
