package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tobischo/gokeepasslib/v3"

	"github.com/maynagashev/reportkeeper/client/internal/api"
	"github.com/maynagashev/reportkeeper/client/internal/config"
	"github.com/maynagashev/reportkeeper/client/internal/dashboard"
	"github.com/maynagashev/reportkeeper/client/internal/settings"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/vault"
	"github.com/maynagashev/reportkeeper/models"
)

// errVaultLocked - токен некуда сохранить без мастер-пароля.
var errVaultLocked = errors.New("хранилище токенов не открыто: укажите --vault-password")

// app - собранные зависимости клиента для одной команды.
type app struct {
	flags    *rootFlags
	envs     *config.Environments
	settings *settings.Store
	dash     *dashboard.Dashboard

	vaultMu sync.Mutex
	db      *gokeepasslib.Database
}

// newApp загружает окружения, открывает хранилище токенов и создает дашборд.
// При persist = true выбор окружения и компании сохраняется между запусками.
func newApp(flags *rootFlags, persist bool) (*app, error) {
	envs, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	a := &app{
		flags:    flags,
		envs:     envs,
		settings: settings.New(flags.statePath),
	}
	if flags.vaultPassword != "" {
		db, errVault := vault.OpenOrCreate(flags.vaultPath, flags.vaultPassword)
		if errVault != nil {
			return nil, fmt.Errorf("не удалось открыть хранилище токенов: %w", errVault)
		}
		a.db = db
	} else {
		slog.Warn("Мастер-пароль не задан, токены не загружаются и не сохраняются")
	}

	deps := dashboard.Deps{
		Clients:      a.newClient,
		OnToken:      a.saveToken,
		Environments: envs.Environments,
	}
	if persist {
		deps.Settings = a.settings
	}
	a.dash = dashboard.New(deps)
	return a, nil
}

// newClient создает API клиента окружения с токеном из хранилища.
func (a *app) newClient(env models.Environment) api.Client {
	c := api.NewHTTPClient(env.URL)
	a.vaultMu.Lock()
	defer a.vaultMu.Unlock()
	if a.db == nil {
		return c
	}
	if creds, ok := vault.TokenFor(a.db, env.ID); ok && creds.Token != "" {
		c.SetAuthToken(creds.Token)
		slog.Debug("Токен окружения загружен из хранилища", "env", env.ID, "user", creds.UserName)
	}
	return c
}

// saveToken записывает токен окружения в хранилище и сохраняет файл.
func (a *app) saveToken(env models.Environment, username, token string) error {
	a.vaultMu.Lock()
	defer a.vaultMu.Unlock()
	if a.db == nil {
		return errVaultLocked
	}
	err := vault.SetToken(a.db, vault.Credentials{
		EnvironmentID: env.ID,
		URL:           env.URL,
		UserName:      username,
		Token:         token,
	})
	if err != nil {
		return err
	}
	return vault.SaveFile(a.db, a.flags.vaultPath, a.flags.vaultPassword)
}

// useEnvironment делает окружение текущим. Порядок выбора: явный id,
// сохраненный выбор, окружение последнего входа, первое из списка.
func (a *app) useEnvironment(id string) (models.Environment, error) {
	if id == "" {
		id = a.fallbackEnvironmentID()
	}
	env, err := a.envs.Resolve(id)
	if err != nil {
		return models.Environment{}, err
	}
	a.dash.Dispatch(store.SetCurrentEnvironment{Env: &env})
	slog.Debug("Выбрано окружение", "env", env.ID)
	return env, nil
}

func (a *app) fallbackEnvironmentID() string {
	sel, err := a.settings.Load()
	if err != nil {
		slog.Warn("Не удалось прочитать сохраненный выбор", "error", err)
	}
	if sel.Environment != nil {
		if _, errFind := a.envs.Find(sel.Environment.ID); errFind == nil {
			return sel.Environment.ID
		}
	}
	a.vaultMu.Lock()
	defer a.vaultMu.Unlock()
	if last := vault.LastEnvironment(a.db); last != "" {
		if _, errFind := a.envs.Find(last); errFind == nil {
			return last
		}
	}
	return ""
}

// useCompany делает компанию текущей.
func (a *app) useCompany(id int64) {
	a.dash.Dispatch(store.SetCurrentCompany{ID: &id})
}

// useReport выбирает единственный отчет.
func (a *app) useReport(id int64) {
	a.dash.Dispatch(store.SetSelectedReportID{ID: &id})
}
