// Command keywatch watches group chats for keywords and reports matches to
// an administrator.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "keywatch",
		Short:        "Telegram keyword monitor",
		Example:      "keywatch serve\nkeywatch keywords add \"big sale\"",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newServeCommand(),
		newKeywordsCommand(),
		newImportCommand(),
		newTokenCommand(),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "keywatch", version)
		},
	}
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
