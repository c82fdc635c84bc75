// Package config загружает список окружений клиента из YAML-файла.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maynagashev/reportkeeper/models"
)

// DefaultEnvironment используется, если файл окружений отсутствует.
var DefaultEnvironment = models.Environment{
	ID:   "local",
	Name: "Local",
	URL:  "http://localhost:8080/api",
}

// ErrEnvironmentNotFound - окружение с таким id не описано.
var ErrEnvironmentNotFound = errors.New("environment not found")

// Environments - содержимое файла окружений.
type Environments struct {
	Environments []models.Environment `yaml:"environments"`
}

// Load читает файл окружений. Отсутствующий файл дает одно окружение по умолчанию.
func Load(path string) (*Environments, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("Файл окружений не найден, используется окружение по умолчанию",
			"path", path, "url", DefaultEnvironment.URL)
		return &Environments{Environments: []models.Environment{DefaultEnvironment}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environments file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает и проверяет YAML с окружениями.
func Parse(data []byte) (*Environments, error) {
	var envs Environments
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("failed to parse environments: %w", err)
	}
	if err := envs.Validate(); err != nil {
		return nil, err
	}
	return &envs, nil
}

// Validate проверяет, что окружения заданы, их id уникальны и url корректны.
func (e *Environments) Validate() error {
	if len(e.Environments) == 0 {
		return errors.New("environments list is empty")
	}
	seen := make(map[string]struct{}, len(e.Environments))
	for _, env := range e.Environments {
		if err := env.Validate(); err != nil {
			return err
		}
		if _, dup := seen[env.ID]; dup {
			return fmt.Errorf("duplicate environment id '%s'", env.ID)
		}
		seen[env.ID] = struct{}{}
	}
	return nil
}

// Find возвращает окружение по id.
func (e *Environments) Find(id string) (models.Environment, error) {
	for _, env := range e.Environments {
		if env.ID == id {
			return env, nil
		}
	}
	return models.Environment{}, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, id)
}

// Resolve возвращает окружение по id, а при пустом id - первое из списка.
func (e *Environments) Resolve(id string) (models.Environment, error) {
	if id == "" {
		return e.Environments[0], nil
	}
	return e.Find(id)
}

// Marshal кодирует окружения обратно в YAML.
func (e *Environments) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode environments: %w", err)
	}
	return data, nil
}
