package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maynagashev/reportkeeper/client/internal/query"
	"github.com/maynagashev/reportkeeper/client/internal/store"
	"github.com/maynagashev/reportkeeper/client/internal/vault"
	"github.com/maynagashev/reportkeeper/models"
)

const (
	tabMinWidth = 0
	tabWidth    = 8
	tabPadding  = 2
	dateLayout  = "2006-01-02 15:04"
)

func newTabWriter(cmd *cobra.Command) *tabwriter.Writer {
	return tabwriter.NewWriter(cmd.OutOrStdout(), tabMinWidth, tabWidth, tabPadding, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

// tokenSaved проверяет наличие токена окружения в хранилище. Вызывается под vaultMu.
func tokenSaved(a *app, envID string) (vault.Credentials, bool) {
	creds, ok := vault.TokenFor(a.db, envID)
	return creds, ok && creds.Token != ""
}

func newCompaniesCmd(root *rootFlags) *cobra.Command {
	var env string
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Список компаний окружения",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			if _, err = a.useEnvironment(env); err != nil {
				return err
			}
			res, err := a.dash.Companies(cmd.Context(), query.ScopeGlobal)
			if err != nil {
				return err
			}
			w := newTabWriter(cmd)
			fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tСТАТУС")
			for _, c := range res.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "id окружения")
	return cmd
}

type reportsFlags struct {
	env     string
	company int64
	search  string
	skip    int
	take    int
}

func newReportsCmd(root *rootFlags) *cobra.Command {
	flags := &reportsFlags{}
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Список отчетов компании",
		Long: "Выводит отчеты компании. --search выполняет поиск по имени на сервере,\n" +
			"--skip и --take задают окно над результатом.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReports(cmd, root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.env, "env", "", "id окружения")
	cmd.Flags().Int64Var(&flags.company, "company", 0, "id компании")
	cmd.Flags().StringVar(&flags.search, "search", "", "поиск по имени отчета")
	cmd.Flags().IntVar(&flags.skip, "skip", 0, "пропустить отчетов")
	cmd.Flags().IntVar(&flags.take, "take", store.DefaultPageSize, "вывести отчетов")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func runReports(cmd *cobra.Command, root *rootFlags, flags *reportsFlags) error {
	a, err := newApp(root, false)
	if err != nil {
		return err
	}
	if _, err = a.useEnvironment(flags.env); err != nil {
		return err
	}
	a.useCompany(flags.company)

	var res query.Result[[]models.Report]
	search := strings.TrimSpace(flags.search)
	if search != "" {
		res, err = a.dash.SearchReports(cmd.Context(), search)
	} else {
		res, err = a.dash.Reports(cmd.Context())
	}
	if err != nil {
		return err
	}
	page := store.Paginate(res.Data, store.Pagination{Skip: flags.skip, Take: flags.take})

	w := newTabWriter(cmd)
	fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tАКТИВЕН\tИЗМЕНЕН\tКЕМ")
	for _, r := range page {
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\n", r.ID, r.Name, r.Active, formatTime(r.ModifiedOn), r.ModifiedBy)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Показано %d из %d\n", len(page), len(res.Data))
	return nil
}

type versionsFlags struct {
	env     string
	report  int64
	version int64
}

func newVersionsCmd(root *rootFlags) *cobra.Command {
	flags := &versionsFlags{}
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Список версий отчета",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(root, false)
			if err != nil {
				return err
			}
			if _, err = a.useEnvironment(flags.env); err != nil {
				return err
			}
			a.useReport(flags.report)
			if flags.version != 0 {
				return printVersion(cmd, a, flags.version)
			}
			res, err := a.dash.Versions(cmd.Context())
			if err != nil {
				return err
			}
			w := newTabWriter(cmd)
			fmt.Fprintln(w, "ID\tВЕРСИЯ\tОПУБЛИКОВАНА\tСОЗДАНА")
			for _, v := range res.Data {
				fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", v.ID, v.Version, v.IsPublished, formatTime(v.CreatedOn))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&flags.env, "env", "", "id окружения")
	cmd.Flags().Int64Var(&flags.report, "report", 0, "id отчета")
	cmd.Flags().Int64Var(&flags.version, "version", 0, "id версии для подробного вывода")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}

// printVersion выводит карточку одной версии.
func printVersion(cmd *cobra.Command, a *app, versionID int64) error {
	res, err := a.dash.Version(cmd.Context(), versionID)
	if err != nil {
		return err
	}
	v := res.Data
	w := newTabWriter(cmd)
	fmt.Fprintf(w, "ID\t%d\n", v.ID)
	fmt.Fprintf(w, "Отчет\t%d\n", v.ReportID)
	fmt.Fprintf(w, "Версия\t%s\n", v.Version)
	fmt.Fprintf(w, "Опубликована\t%t\n", v.IsPublished)
	fmt.Fprintf(w, "Создана\t%s\n", formatTime(v.CreatedOn))
	fmt.Fprintf(w, "Автор\t%s\n", v.ModifiedBy)
	return w.Flush()
}
