package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type publishFlags struct {
	env     string
	report  int64
	version int64
}

// newPublishCmd создает команду publish или unpublish.
func newPublishCmd(root *rootFlags, publish bool) *cobra.Command {
	flags := &publishFlags{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Опубликовать версию отчета",
		Long:  "Публикует версию. Ранее опубликованная версия отчета снимается с публикации.",
		Args:  cobra.NoArgs,
	}
	if !publish {
		cmd.Use = "unpublish"
		cmd.Short = "Снять публикацию версии отчета"
		cmd.Long = ""
	}
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(root, false)
		if err != nil {
			return err
		}
		if _, err = a.useEnvironment(flags.env); err != nil {
			return err
		}
		a.useReport(flags.report)
		if publish {
			err = a.dash.Publish(cmd.Context(), flags.version)
		} else {
			err = a.dash.Unpublish(cmd.Context(), flags.version)
		}
		if err != nil {
			return err
		}
		state := "опубликована"
		if !publish {
			state = "снята с публикации"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Версия %d отчета %d %s\n", flags.version, flags.report, state)
		return nil
	}
	cmd.Flags().StringVar(&flags.env, "env", "", "id окружения")
	cmd.Flags().Int64Var(&flags.report, "report", 0, "id отчета")
	cmd.Flags().Int64Var(&flags.version, "version", 0, "id версии")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}
