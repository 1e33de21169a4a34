// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for outbound catalog requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request
	// (e.g. "book-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds settings for the catalog client.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API root; the client appends /volumes.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional catalog API key sent as the key parameter.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestsPerSecond caps the client-side request rate (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ControllerConfig holds settings for the search controller.
type ControllerConfig struct {
	// Debounce is the trailing-edge quiet period before a fetch fires (default 100ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// HistoryConfig holds settings for the search history store.
type HistoryConfig struct {
	// Enabled controls whether successful searches are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`
}

// Config groups every configuration section.
type Config struct {
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Controller ControllerConfig `json:"controller" yaml:"controller"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Log        LogConfig        `json:"log" yaml:"log"`
}
