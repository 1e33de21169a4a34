// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/pdiddy/book-search/internal/catalog"
	"github.com/pdiddy/book-search/internal/history"
	"github.com/pdiddy/book-search/internal/search"
	"github.com/pdiddy/book-search/internal/secrets"
	"github.com/pdiddy/book-search/pkg/types"
)

func init() {
	// Nested keys map to BOOK_SEARCH_CATALOG_API_KEY and friends.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func setDefaults() {
	viper.SetDefault("secrets_dir", ".secrets")
	viper.SetDefault("catalog.base_url", catalog.DefaultBaseURL)
	viper.SetDefault("catalog.api_key", "")
	viper.SetDefault("catalog.timeout", 15*time.Second)
	viper.SetDefault("catalog.user_agent", "book-search/"+version)
	viper.SetDefault("catalog.requests_per_second", 5.0)
	viper.SetDefault("catalog.max_retries", 3)
	viper.SetDefault("controller.debounce", 100*time.Millisecond)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", defaultHistoryPath())
	viper.SetDefault("log.level", "warn")
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "book-search-history.db"
	}
	return filepath.Join(home, ".local", "share", "book-search", "history.db")
}

// loadConfig assembles the typed configuration from viper and secrets.
func loadConfig() types.Config {
	return types.Config{
		Catalog: types.CatalogConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("catalog.timeout"),
				UserAgent: viper.GetString("catalog.user_agent"),
			},
			BaseURL:           viper.GetString("catalog.base_url"),
			APIKey:            loadedSecrets.Get(secrets.GoogleBooksAPIKey, viper.GetString("catalog.api_key")),
			RequestsPerSecond: viper.GetFloat64("catalog.requests_per_second"),
			MaxRetries:        viper.GetInt("catalog.max_retries"),
		},
		Controller: types.ControllerConfig{
			Debounce: viper.GetDuration("controller.debounce"),
		},
		History: types.HistoryConfig{
			Enabled: viper.GetBool("history.enabled"),
			Path:    viper.GetString("history.path"),
		},
		Log: types.LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
}

// session bundles a controller with the resources it was built from.
type session struct {
	ctrl    *search.Controller
	history *history.Store
}

// newSession builds the catalog client and controller and, when enabled,
// wires the history store as an observer. History failures degrade to a
// warning so searching still works without a writable data directory.
func newSession(ctx context.Context, cfg types.Config) *session {
	cat := catalog.NewGoogleBooks(nil, cfg.Catalog)
	s := &session{ctrl: search.NewController(cat, cfg.Controller)}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logrus.WithError(err).Warn("search history disabled")
		} else {
			s.history = store
			s.ctrl.OnChange(store.Observe(ctx))
		}
	}
	return s
}

func (s *session) Close() {
	s.ctrl.Close()
	if s.history != nil {
		s.history.Close()
	}
}
