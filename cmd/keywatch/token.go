package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliseohh/keywatchbot/internal/keychain"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token kept in the OS keychain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the bot token, used when TELEGRAM_TOKEN is empty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keychain.Set(keychain.TokenAccount, strings.TrimSpace(args[0])); err != nil {
				return err
			}
			cmd.Println("Token stored.")
			return nil
		},
	})
	return cmd
}
