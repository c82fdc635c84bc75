// Package query реализует кэш удаленных данных: дедупликацию одновременных запросов,
// хранение результатов по составному ключу и инвалидацию после мутаций.
package query

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Scope разделяет контексты окружений, существующие одновременно.
type Scope string

const (
	// ScopeGlobal - текущее окружение дашборда.
	ScopeGlobal Scope = "global"
	// ScopeCopy - окружение модального окна копирования.
	ScopeCopy Scope = "copy"
)

// Логические эндпоинты, используемые в ключах.
const (
	EndpointCompanies   = "companies"
	EndpointReports     = "reports"
	EndpointReportKPIs  = "report-kpis"
	EndpointVersions    = "versions"
	EndpointVersion     = "version"
	EndpointLinkedPages = "linked-pages"
)

// Key - составной ключ записи кэша. Нулевые id означают отсутствие компонента.
type Key struct {
	Scope       Scope
	Endpoint    string
	Environment string
	CompanyID   int64
	ReportID    int64
	VersionID   int64
	Search      string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|c=%d|r=%d|v=%d|q=%s",
		k.Scope, k.Endpoint, k.Environment, k.CompanyID, k.ReportID, k.VersionID, k.Search)
}

// Status - состояние записи кэша.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot - тройка loading/error/data для ключа.
type Snapshot struct {
	Status    Status
	Data      any
	Err       error
	UpdatedAt time.Time
	// Invalidated - данные устарели после мутации и будут перезапрошены при следующем Fetch.
	Invalidated bool
}

// Loading сообщает, идет ли запрос по ключу.
func (s Snapshot) Loading() bool { return s.Status == StatusLoading }

type entry struct {
	Snapshot
	// Число запросов в полете по ключу.
	inflight int
	// loaded - по ключу хотя бы раз получен успешный ответ. Data может быть nil.
	loaded bool
}

// settle возвращает статус записи без запросов в полете.
func (e *entry) settle() {
	switch {
	case e.Err != nil:
		e.Status = StatusError
	case e.loaded:
		e.Status = StatusSuccess
	default:
		e.Status = StatusIdle
	}
}

// Cache хранит результаты запросов. Безопасен для конкурентного использования.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// Поколение ключа увеличивается при каждой инвалидации и не удаляется.
	generations map[Key]uint64
	group       singleflight.Group
	now         func() time.Time
}

// New создает пустой кэш.
func New() *Cache {
	return &Cache{
		entries:     make(map[Key]*entry),
		generations: make(map[Key]uint64),
		now:         time.Now,
	}
}

// Peek возвращает текущее состояние записи без сетевого запроса.
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.Snapshot
	}
	return Snapshot{Status: StatusIdle}
}

// Generation возвращает поколение ключа.
func (c *Cache) Generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[key]
}

// Invalidate помечает данные ключа устаревшими и делает недействительными запросы в полете.
// Данные остаются доступны через Get и Peek до завершения следующего запроса.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
}

// InvalidateWhere инвалидирует все известные ключи, удовлетворяющие предикату.
// Возвращает число затронутых ключей.
func (c *Cache) InvalidateWhere(match func(Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.generations {
		if match(key) {
			c.invalidateLocked(key)
			n++
		}
	}
	return n
}

// Clear удаляет данные всех записей. Запросы в полете будут отброшены.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.generations {
		c.generations[key]++
	}
	for key, e := range c.entries {
		if e.inflight > 0 {
			e.Data, e.Err, e.loaded, e.Invalidated = nil, nil, false, false
			continue
		}
		delete(c.entries, key)
	}
}

// Len возвращает число записей в кэше.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) invalidateLocked(key Key) {
	c.generations[key]++
	e, ok := c.entries[key]
	if !ok {
		return
	}
	if !e.loaded && e.Err == nil && e.inflight == 0 {
		delete(c.entries, key)
		return
	}
	e.Invalidated = true
	slog.Debug("Запись кэша инвалидирована", "key", key.String())
}

// register делает ключ известным кэшу и возвращает его текущее поколение.
func (c *Cache) register(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, known := c.generations[key]
	if !known {
		c.generations[key] = 0
	}
	return gen
}

// begin отмечает начало запроса по ключу.
func (c *Cache) begin(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.inflight++
	e.Status = StatusLoading
}

// complete сохраняет результат, если поколение ключа не изменилось.
// Возвращает false, если результат устарел и отброшен.
func (c *Cache) complete(key Key, gen uint64, data any, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if e.inflight > 0 {
		e.inflight--
	}
	if c.generations[key] != gen {
		if e.inflight == 0 {
			if !e.loaded && e.Err == nil {
				delete(c.entries, key)
				return false
			}
			e.settle()
		}
		return false
	}
	e.UpdatedAt = c.now()
	if err != nil {
		e.Status = StatusError
		e.Err = err
		// Предыдущие данные сохраняются, чтобы экран не опустел из-за ошибки обновления
		return true
	}
	e.Status = StatusSuccess
	e.Data = data
	e.Err = nil
	e.loaded = true
	e.Invalidated = false
	return true
}

// fresh возвращает данные ключа, если их можно отдать без сетевого запроса.
func (c *Cache) fresh(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.loaded || e.Err != nil || e.Invalidated {
		return nil, false
	}
	return e.Data, true
}

// cached возвращает последние успешно полученные данные ключа,
// в том числе устаревшие и сохраненные после ошибки обновления.
func (c *Cache) cached(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.loaded {
		return nil, false
	}
	return e.Data, true
}
