// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// PageSize is the number of books requested per catalog page.
const PageSize = 10

// PagingState describes the position within a paginated result set.
// LastPage is zero until a search has resolved against a non-empty catalog
// result; CurrentPage is always at least 1.
type PagingState struct {
	CurrentPage int `json:"current_page" yaml:"current_page"`
	LastPage    int `json:"last_page" yaml:"last_page"`
}

// InitialPaging is the paging state before any search has completed.
func InitialPaging() PagingState {
	return PagingState{CurrentPage: 1, LastPage: 0}
}

// LastPage returns ceil(totalItems / pageSize), or 0 for an empty result set.
func LastPage(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// StartIndex returns the zero-based offset of the first item on page.
func StartIndex(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// Status is the lifecycle stage of the latest search.
type Status int

const (
	// StatusIdle means no search has been issued yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is scheduled or in flight.
	StatusLoading
	// StatusLoaded means the latest fetch resolved successfully.
	StatusLoaded
	// StatusFailed means the latest fetch returned an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText renders the status by name in JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusIdle, StatusLoading, StatusLoaded, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}
