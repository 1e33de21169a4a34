// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/book-search/pkg/types"
)

// navSpan is how many page numbers the bar shows around the current page.
const navSpan = 2

// PageWindow returns the page numbers shown in the navigation bar: up to
// navSpan pages either side of current, shifted to stay inside [1, last].
func PageWindow(current, last int) []int {
	if last <= 0 {
		return nil
	}
	if current > last {
		current = last
	}
	if current < 1 {
		current = 1
	}
	lo, hi := current-navSpan, current+navSpan
	if lo < 1 {
		hi += 1 - lo
		lo = 1
	}
	if hi > last {
		lo -= hi - last
		hi = last
	}
	if lo < 1 {
		lo = 1
	}
	pages := make([]int, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		pages = append(pages, p)
	}
	return pages
}

// NavigationBar writes "« 1 2 [3] 4 5 »  page 3 of 12". The arrows appear
// only when a previous or next page exists.
func NavigationBar(w io.Writer, p types.PagingState) {
	if p.LastPage <= 0 {
		return
	}
	var parts []string
	if p.CurrentPage > 1 {
		parts = append(parts, "«")
	}
	for _, n := range PageWindow(p.CurrentPage, p.LastPage) {
		if n == p.CurrentPage {
			parts = append(parts, fmt.Sprintf("[%d]", n))
		} else {
			parts = append(parts, fmt.Sprintf("%d", n))
		}
	}
	if p.CurrentPage < p.LastPage {
		parts = append(parts, "»")
	}
	fmt.Fprintf(w, "%s  page %d of %d\n", strings.Join(parts, " "), p.CurrentPage, p.LastPage)
}
