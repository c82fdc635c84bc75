package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const layoutFilePermissions = 0o600

type downloadFlags struct {
	env     string
	report  int64
	version int64
	output  string
}

func newDownloadCmd(root *rootFlags) *cobra.Command {
	flags := &downloadFlags{}
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Скачать макет версии отчета",
		Long:  "Скачивает макет версии. -o - записывает макет в stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDownload(cmd, root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.env, "env", "", "id окружения")
	cmd.Flags().Int64Var(&flags.report, "report", 0, "id отчета")
	cmd.Flags().Int64Var(&flags.version, "version", 0, "id версии")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "файл для макета")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runDownload(cmd *cobra.Command, root *rootFlags, flags *downloadFlags) error {
	a, err := newApp(root, false)
	if err != nil {
		return err
	}
	if _, err = a.useEnvironment(flags.env); err != nil {
		return err
	}

	if flags.output == "-" {
		_, err = a.dash.DownloadVersion(cmd.Context(), flags.report, flags.version, cmd.OutOrStdout())
		return err
	}

	path := flags.output
	if path == "" {
		path = filepath.Join(root.downloadDir, fmt.Sprintf("report_%d_version_%d.repx", flags.report, flags.version))
	}
	//nolint:gosec // Путь задается пользователем
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, layoutFilePermissions)
	if err != nil {
		return fmt.Errorf("не удалось создать файл: %w", err)
	}
	n, err := a.dash.DownloadVersion(cmd.Context(), flags.report, flags.version, f)
	errClose := f.Close()
	if err == nil {
		err = errClose
	}
	if err != nil {
		if errRemove := os.Remove(path); errRemove != nil {
			slog.Warn("Не удалось удалить неполный файл", "path", path, "error", errRemove)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Макет сохранен: %s (%d байт)\n", path, n)
	return nil
}

