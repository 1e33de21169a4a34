// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/book-search/internal/render"
	"github.com/pdiddy/book-search/internal/search"
)

const browseHelp = `Type keywords and press enter to search.
  :n          next page
  :p          previous page
  :g <page>   go to page
  :q          quit`

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search and page through results interactively",
	Long: `Browse opens an interactive shell. Each line of keywords starts a new
search; :n, :p and :g move between result pages.

` + browseHelp,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	sess := newSession(cmd.Context(), cfg)
	defer sess.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := shellHistoryPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println(browseHelp)
	for {
		input, err := line.Prompt("books> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := dispatch(sess.ctrl, input)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), settleTimeout(cfg))
		st, err := sess.ctrl.Wait(ctx)
		cancel()
		if err != nil {
			logrus.WithError(err).Warn("gave up waiting for results")
		}
		fmt.Println()
		render.Page(os.Stdout, st)
	}
}

// dispatch maps one shell line onto controller operations.
func dispatch(ctrl *search.Controller, input string) (quit bool, err error) {
	if !strings.HasPrefix(input, ":") {
		ctrl.SetQuery(input)
		return false, ctrl.SubmitSearch()
	}

	nav := ctrl.Navigation()
	fields := strings.Fields(input)
	switch fields[0] {
	case ":q", ":quit":
		return true, nil
	case ":n", ":next":
		if !nav.HasNext() {
			return false, fmt.Errorf("already on the last page")
		}
		return false, nav.Next()
	case ":p", ":prev":
		if !nav.HasPrev() {
			return false, fmt.Errorf("already on the first page")
		}
		return false, nav.Prev()
	case ":g", ":go":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: :g <page>")
		}
		page, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("invalid page %q", fields[1])
		}
		return false, nav.OnNavigate(page)
	case ":h", ":help":
		return false, errors.New(browseHelp)
	default:
		return false, fmt.Errorf("unknown command %s (:h for help)", fields[0])
	}
}

func shellHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".book_search_history"
	}
	return filepath.Join(home, ".book_search_history")
}
