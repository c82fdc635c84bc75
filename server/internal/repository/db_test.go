package repository_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/reportkeeper/server/internal/repository"
)

// getTestDSN возвращает DSN тестовой БД из DATABASE_DSN. Пустая строка - БД недоступна.
func getTestDSN() string {
	return os.Getenv("DATABASE_DSN")
}

func TestNewPostgresDB(t *testing.T) {
	t.Run("Успешное подключение", func(t *testing.T) {
		dsn := getTestDSN()
		if dsn == "" {
			t.Skip("Пропуск теста: переменная окружения DATABASE_DSN не установлена")
		}

		db, err := repository.NewPostgresDB(dsn)
		require.NoError(t, err)
		require.NotNil(t, db)

		err = db.Ping()
		require.NoError(t, err, "Не удалось пинговать БД после создания")
		require.NoError(t, db.Close())
	})

	t.Run("Ошибка: Невалидный DSN", func(t *testing.T) {
		db, err := repository.NewPostgresDB("это точно не dsn")
		require.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "ошибка подключения к БД")
	})
}
