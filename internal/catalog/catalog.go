// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog fetches paged book results from a remote catalog
// service and maps them to types.Book.
package catalog

import (
	"context"
	"errors"

	"github.com/pdiddy/book-search/pkg/types"
)

var (
	// ErrHTTPStatus wraps any non-200 response that survived retries.
	ErrHTTPStatus = errors.New("catalog returned non-OK status")

	// ErrMalformedResponse wraps response bodies that could not be decoded.
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrEmptyQuery is returned when a request carries no keywords.
	ErrEmptyQuery = errors.New("empty catalog query")
)

// Catalog searches a remote book catalog one page at a time.
type Catalog interface {
	Search(ctx context.Context, req Request) (Result, error)
}

// Request selects one page of results for a keyword query.
type Request struct {
	Query    string
	Page     int
	PageSize int
}

// NewRequest builds a request for page using the standard page size.
func NewRequest(query string, page int) Request {
	return Request{Query: query, Page: page, PageSize: types.PageSize}
}

// StartIndex is the zero-based offset of the first item on the page.
func (r Request) StartIndex() int {
	return types.StartIndex(r.Page, r.pageSize())
}

func (r Request) pageSize() int {
	if r.PageSize <= 0 {
		return types.PageSize
	}
	return r.PageSize
}

// Result is one resolved page plus the catalog-wide item count.
type Result struct {
	Items      []types.Book
	TotalItems int
}

// LastPage derives the final page number from TotalItems.
func (r Result) LastPage(pageSize int) int {
	return types.LastPage(r.TotalItems, pageSize)
}
