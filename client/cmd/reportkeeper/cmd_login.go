package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type loginFlags struct {
	env      string
	user     string
	password string
}

func newLoginCmd(root *rootFlags) *cobra.Command {
	flags := &loginFlags{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Войти в окружение и сохранить токен в хранилище",
		Long: "Выполняет вход в окружение и сохраняет токен в хранилище KDBX.\n" +
			"Если --password не задан, пароль читается из первой строки stdin.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.env, "env", "", "id окружения")
	cmd.Flags().StringVar(&flags.user, "user", "", "имя пользователя")
	cmd.Flags().StringVar(&flags.password, "password", "", "пароль")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runLogin(cmd *cobra.Command, root *rootFlags, flags *loginFlags) error {
	if root.vaultPassword == "" {
		return errVaultLocked
	}
	password := flags.password
	if password == "" {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if scanner.Scan() {
			password = strings.TrimRight(scanner.Text(), "\r\n")
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("не удалось прочитать пароль: %w", err)
		}
	}
	if password == "" {
		return errors.New("пароль не задан")
	}

	a, err := newApp(root, false)
	if err != nil {
		return err
	}
	env, err := a.useEnvironment(flags.env)
	if err != nil {
		return err
	}
	if err = a.dash.Login(cmd.Context(), flags.user, password); err != nil {
		return err
	}
	// Токен сохраняется в хранилище из обработчика входа, проверяем результат
	a.vaultMu.Lock()
	_, saved := tokenSaved(a, env.ID)
	a.vaultMu.Unlock()
	if !saved {
		return fmt.Errorf("токен окружения %s не сохранен", env.ID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Вход выполнен: %s (%s) как %s\n", env.Name, env.URL, flags.user)
	return nil
}
