// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/book-search/internal/render"
	"github.com/pdiddy/book-search/internal/search"
	"github.com/pdiddy/book-search/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <keywords...>",
	Short: "Print one page of catalog results",
	Long: `Search sends the keywords to the catalog and prints a single page of
results. Use --page to jump to a later page and --format to choose table,
json, or yaml output. --output also saves the page to a YAML file.`,
	RunE: runSearch,
}

func init() {
	addSearchFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page", 1, "result page to fetch (10 books per page)")
	cmd.Flags().String("format", "table", "output format: table, json, or yaml")
	cmd.Flags().String("output", "", "also write the page to this YAML file")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("provide search keywords")
	}
	page, _ := cmd.Flags().GetInt("page")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q: use table, json, or yaml", format)
	}

	cfg := loadConfig()
	sess := newSession(cmd.Context(), cfg)
	defer sess.Close()

	sess.ctrl.SetQuery(query)
	if page > 1 {
		if err := sess.ctrl.GoToPage(page); err != nil {
			return err
		}
	} else if err := sess.ctrl.SubmitSearch(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), settleTimeout(cfg))
	defer cancel()
	st, err := sess.ctrl.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}
	if st.Status == types.StatusFailed {
		return st.Err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = search.FormatJSON(st, out)
	case "yaml":
		err = search.FormatYAML(st, out)
	default:
		render.Page(out, st)
	}
	if err != nil {
		return err
	}

	if output != "" {
		if err := search.WriteExport(output, st); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved page %d to %s\n", st.Paging.CurrentPage, output)
	}
	return nil
}

// settleTimeout bounds how long a command waits for a fetch, including
// retries and a possible clamp refetch.
func settleTimeout(cfg types.Config) time.Duration {
	attempts := time.Duration(cfg.Catalog.MaxRetries + 1)
	return 2*attempts*cfg.Catalog.Timeout + cfg.Controller.Debounce
}
