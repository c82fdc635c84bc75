// Package vault хранит токены доступа к API окружений в зашифрованном KDBX файле.
package vault

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	gokeepasslib "github.com/tobischo/gokeepasslib/v3"
)

// rootGroupName - имя корневой группы новой базы.
const rootGroupName = "ReportKeeper"

// OpenFile открывает и дешифрует KDBX файл по указанному пути и паролю.
func OpenFile(filePath string, password string) (*gokeepasslib.Database, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия файла '%s': %w", filePath, err)
	}
	defer file.Close()

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)

	if err = gokeepasslib.NewDecoder(file).Decode(db); err != nil {
		return nil, fmt.Errorf("ошибка дешифрования файла '%s': %w", filePath, err)
	}

	// Разблокируем защищенные значения (токены)
	if err = db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("ошибка разблокировки защищенных полей: %w", err)
	}

	return db, nil
}

// CreateDatabase создает пустую базу с одной корневой группой и сохраняет ее в filePath.
func CreateDatabase(filePath string, password string) (*gokeepasslib.Database, error) {
	if password == "" {
		return nil, errors.New("пароль не может быть пустым")
	}

	db := gokeepasslib.NewDatabase()
	db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	db.Content = gokeepasslib.NewContent()
	db.Content.Meta.DatabaseName = rootGroupName
	db.Content.Meta.CustomData = []gokeepasslib.CustomData{}

	rootGroup := gokeepasslib.NewGroup()
	rootGroup.Name = rootGroupName
	db.Content.Root = &gokeepasslib.RootData{
		Groups: []gokeepasslib.Group{rootGroup},
	}

	if err := SaveFile(db, filePath, password); err != nil {
		return nil, err
	}
	slog.Info("Создан новый файл хранилища токенов", "path", filePath)
	return db, nil
}

// SaveFile кодирует и сохраняет базу данных KDBX в указанный файл.
func SaveFile(db *gokeepasslib.Database, filePath string, password string) error {
	if db == nil {
		return errors.New("база данных не инициализирована (nil)")
	}

	if db.Credentials == nil {
		if password == "" {
			return errors.New("пароль не может быть пустым при сохранении")
		}
		db.Credentials = gokeepasslib.NewPasswordCredentials(password)
	}

	// Перед кодированием защищенные поля блокируются
	if err := db.LockProtectedEntries(); err != nil {
		slog.Warn("Не удалось заблокировать поля перед сохранением", "error", err)
	}
	defer func() {
		if err := db.UnlockProtectedEntries(); err != nil {
			slog.Warn("Не удалось разблокировать поля после сохранения", "error", err)
		}
	}()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("ошибка создания/открытия файла '%s' для записи: %w", filePath, err)
	}
	defer file.Close()

	if encodeErr := gokeepasslib.NewEncoder(file).Encode(db); encodeErr != nil {
		return fmt.Errorf("ошибка кодирования и записи БД в файл '%s': %w", filePath, encodeErr)
	}
	return nil
}

// OpenOrCreate открывает файл, а если его нет - создает новую базу.
func OpenOrCreate(filePath string, password string) (*gokeepasslib.Database, error) {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return CreateDatabase(filePath, password)
	} else if err != nil {
		return nil, fmt.Errorf("ошибка доступа к файлу '%s': %w", filePath, err)
	}
	return OpenFile(filePath, password)
}
