package services

import (
	"errors"
	"log"

	"github.com/maynagashev/reportkeeper/server/internal/repository"
)

// Ошибки предметной области, которые обработчики переводят в статусы HTTP.
var (
	ErrCompanyNotFound = errors.New("компания не найдена")
	ErrReportNotFound  = errors.New("отчет не найден")
	ErrVersionNotFound = errors.New("версия отчета не найдена")
	ErrLayoutNotFound  = errors.New("макет версии не найден")
	ErrEmptySelection  = errors.New("не выбрано ни одного элемента")
	ErrInvalidInput    = errors.New("некорректные параметры запроса")

	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
)

// mapRepoError переводит ошибки репозитория в ошибки сервиса.
// Неизвестные ошибки логируются и скрываются за общей внутренней ошибкой.
func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrCompanyNotFound):
		return ErrCompanyNotFound
	case errors.Is(err, repository.ErrReportNotFound):
		return ErrReportNotFound
	case errors.Is(err, repository.ErrVersionNotFound):
		return ErrVersionNotFound
	case errors.Is(err, repository.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, repository.ErrUserNotFound):
		// Отсутствие пользователя не раскрывается: это та же ошибка, что и неверный пароль.
		return ErrInvalidCredentials
	}
	log.Printf("[Service] Ошибка при операции '%s': %v", op, err)
	return errors.New("внутренняя ошибка сервера: " + op)
}

// uniqueIDs убирает повторы и неположительные id, сохраняя порядок.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
