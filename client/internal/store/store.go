package store

import (
	"log/slog"
	"sync"
)

// Listener вызывается после каждого перехода с предыдущим и новым состоянием.
type Listener func(prev, next State, action Action)

// Store - контейнер состояния. Все изменения идут через Dispatch.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners []Listener
}

// New создает контейнер с начальным состоянием.
func New(initial State) *Store {
	return &Store{state: initial.Clone()}
}

// State возвращает копию текущего состояния.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch применяет действие, оповещает подписчиков и возвращает новое состояние.
func (s *Store) Dispatch(action Action) State {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action)
	s.state = next
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	slog.Debug("Переход состояния", "action", action.actionName())

	// Подписчики вызываются вне блокировки, им разрешено читать State()
	for _, l := range listeners {
		l(prev.Clone(), next.Clone(), action)
	}
	return next.Clone()
}

// Subscribe регистрирует подписчика.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
