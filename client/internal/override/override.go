// Package override хранит локальные поправки статуса публикации версий,
// которые показываются до подтверждения сервером.
package override

import (
	"maps"
	"sync"

	"github.com/maynagashev/reportkeeper/models"
)

// Layer - карта versionID -> isPublished, накладываемая на данные сервера при чтении.
// Данные сервера никогда не изменяются.
type Layer struct {
	mu       sync.RWMutex
	values   map[int64]bool
	revision uint64
}

// New создает пустой слой поправок.
func New() *Layer {
	return &Layer{values: make(map[int64]bool)}
}

// Set записывает поправку для версии.
func (l *Layer) Set(versionID int64, published bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values[versionID] = published
	l.revision++
}

// Delete убирает поправку для версии.
func (l *Layer) Delete(versionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.values[versionID]; !ok {
		return
	}
	delete(l.values, versionID)
	l.revision++
}

// Get возвращает поправку для версии, если она есть.
func (l *Layer) Get(versionID int64) (bool, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.values[versionID]
	return v, ok
}

// Snapshot возвращает копию текущих поправок.
func (l *Layer) Snapshot() map[int64]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.values)
}

// Restore заменяет все поправки снимком, полученным из Snapshot.
func (l *Layer) Restore(snapshot map[int64]bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = maps.Clone(snapshot)
	if l.values == nil {
		l.values = make(map[int64]bool)
	}
	l.revision++
}

// Apply возвращает копию versions, где IsPublished заменен поправками.
func (l *Layer) Apply(versions []models.ReportVersion) []models.ReportVersion {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.ReportVersion, len(versions))
	copy(out, versions)
	if len(l.values) == 0 {
		return out
	}
	for i := range out {
		if v, ok := l.values[out[i].ID]; ok {
			out[i].IsPublished = v
		}
	}
	return out
}

// Clear удаляет все поправки.
func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.values) == 0 {
		return
	}
	clear(l.values)
	l.revision++
}

// Len возвращает число поправок.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.values)
}

// Revision растет при каждом изменении слоя.
func (l *Layer) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}
