// Package notify хранит всплывающие уведомления с автоматическим скрытием.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Kind - тип уведомления.
type Kind int

const (
	Success Kind = iota
	Error
	Warning
	Info
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "info"
	}
}

// Delay возвращает время жизни уведомления данного типа.
func (k Kind) Delay() time.Duration {
	switch k {
	case Success:
		return 3 * time.Second
	case Error:
		return 4 * time.Second
	case Warning:
		return 3 * time.Second
	default:
		return 2500 * time.Millisecond
	}
}

// Notification - одно уведомление.
type Notification struct {
	ID        uint64
	Kind      Kind
	Text      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Center - очередь уведомлений.
type Center struct {
	mu     sync.Mutex
	nextID uint64
	items  []Notification
	now    func() time.Time
}

// NewCenter создает пустую очередь.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// NewCenterWithClock создает очередь с заданными часами.
func NewCenterWithClock(now func() time.Time) *Center {
	return &Center{now: now}
}

// Push добавляет уведомление и возвращает его.
func (c *Center) Push(kind Kind, text string) Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	now := c.now()
	n := Notification{
		ID:        c.nextID,
		Kind:      kind,
		Text:      text,
		CreatedAt: now,
		ExpiresAt: now.Add(kind.Delay()),
	}
	c.items = append(c.items, n)

	level := slog.LevelInfo
	switch kind {
	case Error:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "Уведомление", "kind", kind.String(), "text", text)
	return n
}

// Dismiss удаляет уведомление по id. Возвращает false, если его уже нет.
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.IndexFunc(c.items, func(n Notification) bool { return n.ID == id })
	if idx < 0 {
		return false
	}
	c.items = slices.Delete(c.items, idx, idx+1)
	return true
}

// Active возвращает уведомления, не истекшие к моменту now, и удаляет истекшие.
func (c *Center) Active(now time.Time) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.DeleteFunc(c.items, func(n Notification) bool { return !now.Before(n.ExpiresAt) })
	return slices.Clone(c.items)
}

// Latest возвращает последнее активное уведомление.
func (c *Center) Latest(now time.Time) (Notification, bool) {
	active := c.Active(now)
	if len(active) == 0 {
		return Notification{}, false
	}
	return active[len(active)-1], true
}
