package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bnema/moonbix-cli/internal/application"
	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	cmd.AddCommand(
		newAccountListCmd(app),
		newAccountAddCmd(app),
		newAccountRemoveCmd(app),
		newAccountImportCmd(app),
	)

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.accounts.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, account := range accounts {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", account.Name, querySource(account), proxyLabel(account.Proxy))
			}
			return w.Flush()
		},
	}
}

func newAccountAddCmd(app *app) *cobra.Command {
	var (
		query   string
		proxy   string
		inVault bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := app.accounts.Add(cmd.Context(), application.AddAccountCommand{
				Name:    domain.AccountName(args[0]),
				Query:   query,
				Proxy:   proxy,
				InVault: inVault,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved account %s\n", args[0])
			return err
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Telegram web-app login query string")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Proxy URL for this account (http, https or socks5)")
	cmd.Flags().BoolVar(&inVault, "vault", false, "Store the login query in the credential vault")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an account and its stored login query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.accounts.Remove(cmd.Context(), domain.AccountName(args[0])); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed account %s\n", args[0])
			return err
		},
	}
}

func newAccountImportCmd(app *app) *cobra.Command {
	var inVault bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import accounts from a JSON object of name to login query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			var queries map[string]string
			if err := json.Unmarshal(data, &queries); err != nil {
				return fmt.Errorf("decode import file: %w", err)
			}

			imported, err := app.accounts.Import(cmd.Context(), queries, inVault)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d account(s)\n", imported)
			return err
		},
	}

	cmd.Flags().BoolVar(&inVault, "vault", false, "Store login queries in the credential vault")

	return cmd
}

func querySource(account domain.Account) string {
	if account.SecretRef != "" {
		return "vault"
	}
	return "inline"
}

func proxyLabel(proxy string) string {
	if proxy == "" {
		return "-"
	}
	return proxy
}
