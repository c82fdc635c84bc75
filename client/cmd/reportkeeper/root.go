package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maynagashev/reportkeeper/client/internal/tui"
)

// Переменные окружения, переопределяющие значения флагов по умолчанию.
const (
	envConfig        = "REPORTKEEPER_CONFIG"
	envState         = "REPORTKEEPER_STATE"
	envVault         = "REPORTKEEPER_VAULT"
	envVaultPassword = "REPORTKEEPER_VAULT_PASSWORD"
	envDebug         = "REPORTKEEPER_DEBUG"
	envLogDir        = "REPORTKEEPER_LOG_DIR"
	envDownloadDir   = "REPORTKEEPER_DOWNLOAD_DIR"
)

const dotEnvFile = ".env"

// rootFlags - общие флаги всех команд.
type rootFlags struct {
	configPath    string
	statePath     string
	vaultPath     string
	vaultPassword string
	logDir        string
	downloadDir   string
	debug         bool

	logFile io.Closer
}

// flagEnv связывает флаг с переменной окружения.
var flagEnv = map[string]string{ //nolint:gochecknoglobals // Таблица соответствия флагов
	"config":         envConfig,
	"state":          envState,
	"vault":          envVault,
	"vault-password": envVaultPassword,
	"debug":          envDebug,
	"log-dir":        envLogDir,
	"download-dir":   envDownloadDir,
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "reportkeeper",
		Short: "Дашборд отчетов и их версий в нескольких окружениях",
		Long: "ReportKeeper управляет отчетами компаний: копирование между окружениями,\n" +
			"публикация версий, скачивание макетов и ссылки на отчеты.\n" +
			"Без подкоманды запускается интерактивный интерфейс.",
		Version:       fmt.Sprintf("%s (дата сборки: %s, коммит: %s)", version, buildDate, commitHash),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return flags.prepare(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			flags.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "environments.yaml", "файл со списком окружений")
	pf.StringVar(&flags.statePath, "state", defaultStatePath(), "файл сохраненного выбора")
	pf.StringVar(&flags.vaultPath, "vault", "reportkeeper.kdbx", "хранилище токенов KDBX")
	pf.StringVar(&flags.vaultPassword, "vault-password", "", "мастер-пароль хранилища токенов")
	pf.StringVar(&flags.logDir, "log-dir", "logs", "директория для логов")
	pf.StringVar(&flags.downloadDir, "download-dir", ".", "директория для скачанных макетов")
	pf.BoolVar(&flags.debug, "debug", false, "подробное логирование и отладочная панель")

	cmd.AddCommand(
		newLoginCmd(flags),
		newCompaniesCmd(flags),
		newReportsCmd(flags),
		newVersionsCmd(flags),
		newPublishCmd(flags, true),
		newPublishCmd(flags, false),
		newDownloadCmd(flags),
	)
	return cmd
}

// defaultStatePath возвращает путь к файлу выбора в пользовательской директории настроек.
func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("data", "state.json")
	}
	return filepath.Join(dir, "reportkeeper", "state.json")
}

// prepare читает .env, применяет переменные окружения и настраивает логирование.
// Явно заданный флаг имеет приоритет над переменной окружения.
func (f *rootFlags) prepare(cmd *cobra.Command) error {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("не удалось прочитать %s: %w", dotEnvFile, err)
	}
	var errApply error
	cmd.Flags().VisitAll(func(fl *pflag.Flag) {
		name, ok := flagEnv[fl.Name]
		if !ok || fl.Changed || errApply != nil {
			return
		}
		if value, found := os.LookupEnv(name); found {
			if err := fl.Value.Set(value); err != nil {
				errApply = fmt.Errorf("неверное значение %s: %w", name, err)
			}
		}
	})
	if errApply != nil {
		return errApply
	}

	logFile, err := setupLogging(f.logDir, f.debug)
	if err != nil {
		return err
	}
	f.logFile = logFile
	slog.Info("Запуск клиента", "version", version, "command", cmd.CommandPath())
	return nil
}

func (f *rootFlags) close() {
	if f.logFile != nil {
		_ = f.logFile.Close()
		f.logFile = nil
	}
}

// runTUI запускает интерактивный интерфейс с сохранением выбора между запусками.
func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	a, err := newApp(flags, true)
	if err != nil {
		return err
	}
	return tui.Start(cmd.Context(), a.dash, tui.Options{
		Debug:       flags.debug,
		DownloadDir: flags.downloadDir,
	})
}
