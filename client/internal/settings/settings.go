// Package settings хранит выбор пользователя между запусками: компанию и окружение.
// Файл - JSON-объект строковых значений, аналог localStorage.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"github.com/maynagashev/reportkeeper/models"
)

// Ключи хранилища.
const (
	KeySelectedCompanyID   = "selectedCompanyId"
	KeySelectedEnvironment = "selectedEnvironment"
)

const filePerm = 0o600

// Selection - сохраненный выбор пользователя.
type Selection struct {
	CompanyID   *int64
	Environment *models.Environment
}

// Store - файл настроек. Каждое чтение-изменение-запись выполняется под коротким flock.
// Разные сессии не согласуются между собой: побеждает последняя запись.
type Store struct {
	path string
	lock *flock.Flock
}

// New создает хранилище по пути path. Файл создается при первой записи.
func New(path string) *Store {
	return &Store{path: path, lock: flock.New(path + ".lock")}
}

// Path возвращает путь к файлу настроек.
func (s *Store) Path() string { return s.path }

// Load читает сохраненный выбор. Значения, которые не удалось разобрать,
// записываются в лог и удаляются из файла.
func (s *Store) Load() (Selection, error) {
	var sel Selection
	err := s.update(func(values map[string]string) bool {
		changed := false
		if raw, ok := values[KeySelectedCompanyID]; ok {
			id, errParse := strconv.ParseInt(raw, 10, 64)
			if errParse != nil || id <= 0 {
				slog.Warn("Некорректное значение в настройках, ключ удален",
					"key", KeySelectedCompanyID, "value", raw, "error", errParse)
				delete(values, KeySelectedCompanyID)
				changed = true
			} else {
				sel.CompanyID = &id
			}
		}
		if raw, ok := values[KeySelectedEnvironment]; ok {
			var env models.Environment
			errParse := json.Unmarshal([]byte(raw), &env)
			if errParse == nil {
				errParse = env.Validate()
			}
			if errParse != nil {
				slog.Warn("Некорректное значение в настройках, ключ удален",
					"key", KeySelectedEnvironment, "error", errParse)
				delete(values, KeySelectedEnvironment)
				changed = true
			} else {
				sel.Environment = &env
			}
		}
		return changed
	})
	return sel, err
}

// SaveCompany записывает выбранную компанию. nil удаляет ключ.
func (s *Store) SaveCompany(id *int64) error {
	return s.update(func(values map[string]string) bool {
		if id == nil {
			delete(values, KeySelectedCompanyID)
		} else {
			values[KeySelectedCompanyID] = strconv.FormatInt(*id, 10)
		}
		return true
	})
}

// SaveEnvironment записывает выбранное окружение. nil удаляет ключ.
func (s *Store) SaveEnvironment(env *models.Environment) error {
	var encoded []byte
	if env != nil {
		var err error
		encoded, err = json.Marshal(env)
		if err != nil {
			return fmt.Errorf("failed to encode environment: %w", err)
		}
	}
	return s.update(func(values map[string]string) bool {
		if env == nil {
			delete(values, KeySelectedEnvironment)
		} else {
			values[KeySelectedEnvironment] = string(encoded)
		}
		return true
	})
}

// update читает файл под блокировкой, применяет fn и записывает результат, если fn вернула true.
func (s *Store) update(fn func(values map[string]string) bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock settings file %s: %w", s.path, err)
	}
	defer func() {
		if errUnlock := s.lock.Unlock(); errUnlock != nil {
			slog.Error("Ошибка при снятии блокировки настроек", "path", s.path, "error", errUnlock)
		}
	}()

	values, corrupt, err := s.read()
	if err != nil {
		return err
	}
	if !fn(values) && !corrupt {
		return nil
	}
	return s.write(values)
}

// read возвращает значения файла. Поврежденный файл считается пустым, corrupt = true.
func (s *Store) read() (map[string]string, bool, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read settings file: %w", err)
	}
	if len(data) == 0 {
		return values, false, nil
	}
	if errJSON := json.Unmarshal(data, &values); errJSON != nil {
		slog.Warn("Файл настроек поврежден, значения сброшены", "path", s.path, "error", errJSON)
		return make(map[string]string), true, nil
	}
	return values, false, nil
}

func (s *Store) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if errWrite := os.WriteFile(tmp, data, filePerm); errWrite != nil {
		return fmt.Errorf("failed to write settings file: %w", errWrite)
	}
	if errRename := os.Rename(tmp, s.path); errRename != nil {
		return fmt.Errorf("failed to replace settings file: %w", errRename)
	}
	return nil
}
