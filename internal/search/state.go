// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"slices"

	"github.com/pdiddy/book-search/pkg/types"
)

// Change names the mutation that produced a State.
type Change int

const (
	// ChangeNone marks the initial state.
	ChangeNone Change = iota
	// ChangeQuery follows SetQuery.
	ChangeQuery
	// ChangePage follows the optimistic page update in GoToPage.
	ChangePage
	// ChangeFetch follows a fetch being issued.
	ChangeFetch
	// ChangeResult follows a fetch resolving, successfully or not.
	ChangeResult
)

// State is an immutable snapshot of the controller. Observers may keep it;
// later mutations never alter a delivered State.
type State struct {
	// Version increases by one per mutation. Observers receiving snapshots
	// from several goroutines can drop any Version older than one already seen.
	Version uint64
	Change  Change

	Query  string
	Status types.Status
	// Err holds the failure reason when Status is StatusFailed.
	Err error

	Results    []types.Book
	TotalItems int
	Paging     types.PagingState
}

// HasResults reports whether any search has resolved successfully.
func (s State) HasResults() bool {
	return s.Paging.LastPage > 0 || len(s.Results) > 0
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	return s
}

// Navigation carries the props handed to the page navigation view: the
// paging position and the callback that requests a different page.
type Navigation struct {
	CurrentPage int
	LastPage    int
	OnNavigate  func(page int) error
}

// HasPrev reports whether a page before CurrentPage exists.
func (n Navigation) HasPrev() bool {
	return n.CurrentPage > 1
}

// HasNext reports whether a page after CurrentPage exists.
func (n Navigation) HasNext() bool {
	return n.CurrentPage < n.LastPage
}

// Next requests CurrentPage+1.
func (n Navigation) Next() error {
	return n.OnNavigate(n.CurrentPage + 1)
}

// Prev requests CurrentPage-1.
func (n Navigation) Prev() error {
	return n.OnNavigate(n.CurrentPage - 1)
}
