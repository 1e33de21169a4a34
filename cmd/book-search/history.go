// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/book-search/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or clear recorded searches",
	Long: `History shows the most recent successful searches with their catalog
result counts. Result pages themselves are never stored.`,
	RunE: runHistory,
}

func init() {
	addHistoryFlags(historyCmd)
	rootCmd.AddCommand(historyCmd)
}

func addHistoryFlags(cmd *cobra.Command) {
	cmd.Flags().Int("limit", 20, "maximum number of entries to list")
	cmd.Flags().Bool("clear", false, "delete all recorded searches")
	cmd.Flags().Bool("json", false, "output entries as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if wipe, _ := cmd.Flags().GetBool("clear"); wipe {
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d entries.\n", n)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No searches recorded.")
		return nil
	}
	fmt.Fprintf(out, "%-20s  %-8s  %s\n", "When", "Results", "Query")
	fmt.Fprintln(out, strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Fprintf(out, "%-20s  %-8d  %s\n", e.SearchedAt.Local().Format("2006-01-02 15:04:05"), e.TotalItems, e.Query)
	}
	return nil
}
