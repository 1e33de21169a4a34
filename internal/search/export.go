// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/book-search/pkg/types"
)

// Export is the serialisable form of a settled result page.
type Export struct {
	Query      string            `json:"query" yaml:"query"`
	Status     types.Status      `json:"status" yaml:"status"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Paging     types.PagingState `json:"paging" yaml:"paging"`
	TotalItems int               `json:"total_items" yaml:"total_items"`
	Results    []types.Book      `json:"results" yaml:"results"`
	Timestamp  time.Time         `json:"timestamp" yaml:"timestamp"`
}

// NewExport captures s at the current time.
func NewExport(s State) Export {
	e := Export{
		Query:      s.Query,
		Status:     s.Status,
		Paging:     s.Paging,
		TotalItems: s.TotalItems,
		Results:    s.Results,
		Timestamp:  time.Now().UTC(),
	}
	if s.Err != nil {
		e.Error = s.Err.Error()
	}
	if e.Results == nil {
		e.Results = []types.Book{}
	}
	return e
}

// FormatJSON writes s as indented JSON to w.
func FormatJSON(s State, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExport(s))
}

// FormatYAML writes s as YAML to w.
func FormatYAML(s State, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewExport(s)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// WriteExport saves s to a YAML file at path.
func WriteExport(path string, s State) error {
	data, err := yaml.Marshal(NewExport(s))
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadExport loads a file written by WriteExport.
func ReadExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var e Export
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}
	return &e, nil
}
