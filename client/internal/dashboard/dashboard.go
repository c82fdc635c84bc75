// Package dashboard связывает состояние сессии, кэш удаленных данных, локальные поправки,
// уведомления и API клиентов окружений в единый поток управления дашборда отчетов.
package dashboard

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/client/internal/notify"
	"github.com/maynagashev/reportkeeper/client/internal/override"
	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/settings"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/workflow"
	"github.com/maynagashev/reportkeeper/models"
)

// ErrNoEnvironment - окружение не выбрано, запрос невозможен.
var ErrNoEnvironment = errors.New("environment is not selected")

// ClientFactory создает API клиента для окружения.
type ClientFactory func(env models.Environment) api.Client

// SettingsStore - хранилище выбора пользователя между запусками.
type SettingsStore interface {
	Load() (settings.Selection, error)
	SaveCompany(id *int64) error
	SaveEnvironment(env *models.Environment) error
}

// TokenSink получает токен после успешного входа в окружение.
type TokenSink func(env models.Environment, username, token string) error

// Deps - зависимости дашборда.
type Deps struct {
	Clients  ClientFactory
	Settings SettingsStore
	// Необязательные.
	OnToken       TokenSink
	Notifications *notify.Center
	Environments  []models.Environment
}

// Dashboard - контроллер дашборда. Методы безопасны для вызова из нескольких горутин.
type Dashboard struct {
	store     *store.Store
	selectors *store.Selectors
	cache     *query.Cache
	overrides *override.Layer
	notes     *notify.Center
	settings  SettingsStore
	onToken   TokenSink
	factory   ClientFactory
	envs      []models.Environment

	mu      sync.Mutex
	clients map[string]api.Client

	wfMu      sync.Mutex
	workflows map[workflow.Kind]*workflow.Workflow
}

// New создает дашборд с пустым состоянием.
func New(deps Deps) *Dashboard {
	notes := deps.Notifications
	if notes == nil {
		notes = notify.NewCenter()
	}
	d := &Dashboard{
		store:     store.New(store.NewState()),
		selectors: store.NewSelectors(),
		cache:     query.New(),
		overrides: override.New(),
		notes:     notes,
		settings:  deps.Settings,
		onToken:   deps.OnToken,
		factory:   deps.Clients,
		envs:      deps.Environments,
		clients:   make(map[string]api.Client),
		workflows: make(map[workflow.Kind]*workflow.Workflow),
	}
	d.store.Subscribe(d.onTransition)
	return d
}

// State возвращает копию текущего состояния.
func (d *Dashboard) State() store.State { return d.store.State() }

// Cache возвращает кэш удаленных данных.
func (d *Dashboard) Cache() *query.Cache { return d.cache }

// Overrides возвращает слой локальных поправок.
func (d *Dashboard) Overrides() *override.Layer { return d.overrides }

// Notifications возвращает очередь уведомлений.
func (d *Dashboard) Notifications() *notify.Center { return d.notes }

// Environments возвращает известные окружения.
func (d *Dashboard) Environments() []models.Environment { return d.envs }

// Mount читает сохраненный выбор один раз при запуске и восстанавливает его в состоянии.
// Сохраненное окружение, отсутствующее в списке известных, игнорируется.
func (d *Dashboard) Mount() error {
	if d.settings == nil {
		return nil
	}
	sel, err := d.settings.Load()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	env := sel.Environment
	if env != nil && len(d.envs) > 0 && !d.knownEnvironment(*env) {
		slog.Warn("Сохраненное окружение не найдено в конфигурации", "env", env.ID)
		env = nil
	}
	if env == nil && len(d.envs) > 0 {
		env = &d.envs[0]
	}
	if env != nil {
		d.store.Dispatch(store.SetCurrentEnvironment{Env: env})
	}
	if sel.CompanyID != nil {
		d.store.Dispatch(store.SetCurrentCompany{ID: sel.CompanyID})
	}
	slog.Info("Состояние восстановлено", "env", d.State().EnvironmentID(), "company_id", sel.CompanyID)
	return nil
}

func (d *Dashboard) knownEnvironment(env models.Environment) bool {
	for _, e := range d.envs {
		if e.ID == env.ID {
			return true
		}
	}
	return false
}

// Dispatch применяет действие пользователя. Явная смена окружения или компании сохраняется.
func (d *Dashboard) Dispatch(action store.Action) store.State {
	next := d.store.Dispatch(action)
	if d.settings == nil {
		return next
	}
	switch action.(type) {
	case store.SetCurrentEnvironment:
		if err := d.settings.SaveEnvironment(next.CurrentEnvironment); err != nil {
			slog.Error("Не удалось сохранить окружение", "error", err)
		}
		// Компания сбрасывается вместе с окружением
		if err := d.settings.SaveCompany(nil); err != nil {
			slog.Error("Не удалось сохранить компанию", "error", err)
		}
	case store.SetCurrentCompany:
		if err := d.settings.SaveCompany(next.CurrentCompanyID); err != nil {
			slog.Error("Не удалось сохранить компанию", "error", err)
		}
	}
	return next
}

// onTransition снимает поправки при смене выбранного отчета.
func (d *Dashboard) onTransition(prev, next store.State, _ store.Action) {
	if !sameReport(prev, next) {
		d.overrides.Clear()
	}
}

func sameReport(a, b store.State) bool {
	switch {
	case a.SelectedReportID == nil && b.SelectedReportID == nil:
		return true
	case a.SelectedReportID == nil || b.SelectedReportID == nil:
		return false
	default:
		return *a.SelectedReportID == *b.SelectedReportID
	}
}

// client возвращает API клиента окружения, создавая его при первом обращении.
func (d *Dashboard) client(env *models.Environment) (api.Client, error) {
	if env == nil {
		return nil, ErrNoEnvironment
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[env.ID]; ok {
		return c, nil
	}
	c := d.factory(*env)
	d.clients[env.ID] = c
	return c, nil
}

// Client возвращает API клиента текущего окружения.
func (d *Dashboard) Client() (api.Client, error) {
	s := d.State()
	return d.client(s.CurrentEnvironment)
}

// environmentFor возвращает окружение области scope.
func environmentFor(s store.State, scope query.Scope) *models.Environment {
	if scope == query.ScopeCopy {
		return s.CopyEnvironment
	}
	return s.CurrentEnvironment
}

// Workflow возвращает копию состояния автомата действия kind.
func (d *Dashboard) Workflow(kind workflow.Kind) workflow.Workflow {
	d.wfMu.Lock()
	defer d.wfMu.Unlock()
	w := *d.workflowLocked(kind)
	w.Targets = slices.Clone(w.Targets)
	return w
}

// workflowLocked возвращает автомат kind. Вызывается под wfMu.
func (d *Dashboard) workflowLocked(kind workflow.Kind) *workflow.Workflow {
	w, ok := d.workflows[kind]
	if !ok {
		w = workflow.New(kind)
		d.workflows[kind] = w
	}
	return w
}

// notifyError показывает ошибку сети или API.
func (d *Dashboard) notifyError(prefix string, err error) {
	if errors.Is(err, api.ErrAuthorization) {
		d.notes.Push(notify.Error, prefix+": требуется вход (login)")
		return
	}
	d.notes.Push(notify.Error, fmt.Sprintf("%s: %v", prefix, err))
}
