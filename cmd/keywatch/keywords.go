package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliseohh/keywatchbot/internal/config"
	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/storage"
)

// withStore opens the configured store for one maintenance command.
func withStore(ctx context.Context, fn func(*config.Config, *keyword.Store) error) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, offlineLogger(cfg))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func newKeywordsCommand() *cobra.Command {
	var chat int64

	cmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "Maintain the keyword list without the bot",
	}
	cmd.PersistentFlags().Int64Var(&chat, "chat", 0, "Chat id of the keyword scope (per-chat mode)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print the keywords",
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return withStore(c.Context(), func(cfg *config.Config, s *keyword.Store) error {
					return listKeywords(c.OutOrStdout(), cfg, s, keyword.Scope(chat), c.Flags().Changed("chat"))
				})
			},
		},
		&cobra.Command{
			Use:   "add <word>",
			Short: "Add a keyword",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				word := strings.Join(args, " ")
				return withStore(c.Context(), func(_ *config.Config, s *keyword.Store) error {
					added, err := s.Add(c.Context(), keyword.Scope(chat), word)
					if err != nil {
						return err
					}
					if !added {
						fmt.Fprintf(c.OutOrStdout(), "already in the list: %s\n", keyword.Normalize(word))
						return nil
					}
					fmt.Fprintf(c.OutOrStdout(), "added: %s\n", keyword.Normalize(word))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <word>",
			Short: "Remove a keyword",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				word := strings.Join(args, " ")
				return withStore(c.Context(), func(_ *config.Config, s *keyword.Store) error {
					removed, err := s.Remove(c.Context(), keyword.Scope(chat), word)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("not found: %s", keyword.Normalize(word))
					}
					fmt.Fprintf(c.OutOrStdout(), "removed: %s\n", keyword.Normalize(word))
					return nil
				})
			},
		},
	)
	return cmd
}

func listKeywords(w io.Writer, cfg *config.Config, s *keyword.Store, scope keyword.Scope, scoped bool) error {
	if cfg.KeywordMode() == keyword.ScopeGlobal || scoped {
		words := s.List(scope)
		if len(words) == 0 {
			fmt.Fprintln(w, "(empty)")
		}
		for _, kw := range words {
			fmt.Fprintln(w, kw)
		}
		return nil
	}

	scopes := s.Scopes()
	if len(scopes) == 0 {
		fmt.Fprintln(w, "(empty)")
	}
	for _, sc := range scopes {
		fmt.Fprintf(w, "# chat %d\n", sc)
		for _, kw := range s.List(sc) {
			fmt.Fprintln(w, kw)
		}
	}
	return nil
}

func newImportCommand() *cobra.Command {
	var chat int64

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a flat keywords.txt file, one keyword per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			words, err := storage.ReadLegacy(f)
			if err != nil {
				return err
			}
			return withStore(c.Context(), func(_ *config.Config, s *keyword.Store) error {
				return importKeywords(c.Context(), c.OutOrStdout(), s, keyword.Scope(chat), words)
			})
		},
	}
	cmd.Flags().Int64Var(&chat, "chat", 0, "Chat id of the keyword scope (per-chat mode)")
	return cmd
}

func importKeywords(ctx context.Context, w io.Writer, s *keyword.Store, scope keyword.Scope, words []string) error {
	var added, skipped int
	for _, word := range words {
		ok, err := s.Add(ctx, scope, word)
		if errors.Is(err, keyword.ErrEmpty) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("after %d keywords: %w", added, err)
		}
		if ok {
			added++
		} else {
			skipped++
		}
	}
	fmt.Fprintf(w, "imported %d keywords, %d already present\n", added, skipped)
	return nil
}
