// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the catalog client,
// the search controller and the terminal renderers.
package types

// Book is a single catalog volume as shown in a result page. Only ID is
// guaranteed to be set; every other field may be empty when the catalog
// does not supply it. Values are treated as immutable once built by the
// catalog client.
type Book struct {
	// ID is the catalog volume identifier.
	ID string `json:"id" yaml:"id"`

	// Title is the volume title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors lists author names in catalog order. Nil when the catalog
	// omits them.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Description is plain text with any markup already stripped.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// PublishedDate is kept as the catalog string ("1965", "1965-08", "1965-08-01").
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	ThumbnailURL string `json:"thumbnail_url,omitempty" yaml:"thumbnail_url,omitempty"`
	InfoLink     string `json:"info_link,omitempty" yaml:"info_link,omitempty"`
}

// HasAuthors reports whether the book carries at least one author name.
func (b Book) HasAuthors() bool {
	return len(b.Authors) > 0
}
