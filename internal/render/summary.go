// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws result pages and the page navigation bar as plain
// terminal text.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/book-search/internal/search"
	"github.com/pdiddy/book-search/pkg/types"
)

const (
	// NoAuthors replaces the author line when a book lists none.
	NoAuthors = "No authors"
	// NoDescription replaces an absent description.
	NoDescription = "No description"
	// PlaceholderThumbnail stands in for a missing cover image.
	PlaceholderThumbnail = "https://dummyimage.com/723x403"

	descriptionWidth = 240
	titleWidth       = 72
)

// Authors joins the author names, or returns NoAuthors when there are none.
func Authors(b types.Book) string {
	if !b.HasAuthors() {
		return NoAuthors
	}
	return strings.Join(b.Authors, ", ")
}

// Thumbnail returns the cover URL or the placeholder.
func Thumbnail(b types.Book) string {
	if b.ThumbnailURL == "" {
		return PlaceholderThumbnail
	}
	return b.ThumbnailURL
}

// Summary writes one book as an indented block.
func Summary(w io.Writer, n int, b types.Book) {
	fmt.Fprintf(w, "%3d. %s\n", n, truncate(b.Title, titleWidth))
	fmt.Fprintf(w, "     %s\n", Authors(b))
	if b.PublishedDate != "" {
		fmt.Fprintf(w, "     %s\n", b.PublishedDate)
	}
	desc := NoDescription
	if b.Description != "" {
		desc = truncate(b.Description, descriptionWidth)
	}
	fmt.Fprintf(w, "     %s\n", desc)
	fmt.Fprintf(w, "     cover: %s\n", Thumbnail(b))
	if b.InfoLink != "" {
		fmt.Fprintf(w, "     link:  %s\n", b.InfoLink)
	}
}

// Results writes every book on the page, numbered from the page offset.
func Results(w io.Writer, books []types.Book, paging types.PagingState) {
	offset := types.StartIndex(paging.CurrentPage, types.PageSize)
	for i, b := range books {
		Summary(w, offset+i+1, b)
		fmt.Fprintln(w)
	}
}

// Page writes a full view of s: a status line, the results and, when the
// page is non-empty, the navigation bar.
func Page(w io.Writer, s search.State) {
	switch s.Status {
	case types.StatusIdle:
		fmt.Fprintln(w, "Type keywords to search the catalog.")
		return
	case types.StatusLoading:
		fmt.Fprintf(w, "Searching for %q...\n", s.Query)
		return
	case types.StatusFailed:
		fmt.Fprintf(w, "Search failed: %v\n", s.Err)
		if len(s.Results) == 0 {
			return
		}
		fmt.Fprintln(w, "Showing previous results.")
	}

	if len(s.Results) == 0 {
		fmt.Fprintf(w, "No results found for %q.\n", s.Query)
		return
	}

	fmt.Fprintf(w, "%d results for %q\n\n", s.TotalItems, s.Query)
	Results(w, s.Results, s.Paging)
	NavigationBar(w, s.Paging)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
