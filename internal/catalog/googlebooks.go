// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/time/rate"

	"github.com/pdiddy/book-search/internal/httputil"
	"github.com/pdiddy/book-search/internal/logger"
	"github.com/pdiddy/book-search/pkg/types"
)

// DefaultBaseURL is the Google Books API root.
const DefaultBaseURL = "https://www.googleapis.com/books/v1"

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "book-search/0.1"
	defaultRPS       = 5
)

// GoogleBooks queries the Google Books volumes endpoint.
type GoogleBooks struct {
	cfg       types.CatalogConfig
	retrier   *httputil.Retrier
	sanitizer *bluemonday.Policy
}

// NewGoogleBooks returns a client for cfg. A nil client gets one with
// cfg.Timeout (default 15s).
func NewGoogleBooks(client *http.Client, cfg types.CatalogConfig) *GoogleBooks {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &GoogleBooks{
		cfg: cfg,
		retrier: &httputil.Retrier{
			Client:     client,
			Limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
			MaxRetries: cfg.MaxRetries,
		},
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Search fetches one page of volumes matching req.Query.
func (c *GoogleBooks) Search(ctx context.Context, req Request) (Result, error) {
	if req.Query == "" {
		return Result{}, ErrEmptyQuery
	}
	defer logger.Track(ctx, "catalog search")()

	reqURL := c.cfg.BaseURL + "/volumes?" + c.encodeParams(req)
	logger.For(ctx).WithField("url", reqURL).Debug("catalog request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.retrier.Do(ctx, httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrHTTPStatus, resp.StatusCode)
	}

	var vr volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	res := Result{
		Items:      make([]types.Book, 0, len(vr.Items)),
		TotalItems: vr.TotalItems,
	}
	for _, v := range vr.Items {
		if v.ID == "" {
			logger.For(ctx).WithField("title", v.VolumeInfo.Title).Warn("skipping volume without id")
			continue
		}
		res.Items = append(res.Items, c.toBook(v))
	}
	return res, nil
}

// encodeParams keeps the parameter order q, maxResults, startIndex and
// escapes spaces as %20 rather than "+".
func (c *GoogleBooks) encodeParams(req Request) string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(encodeComponent(req.Query))
	b.WriteString("&maxResults=")
	b.WriteString(strconv.Itoa(req.pageSize()))
	b.WriteString("&startIndex=")
	b.WriteString(strconv.Itoa(req.StartIndex()))
	if c.cfg.APIKey != "" {
		b.WriteString("&key=")
		b.WriteString(encodeComponent(c.cfg.APIKey))
	}
	return b.String()
}

func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func (c *GoogleBooks) toBook(v volume) types.Book {
	info := v.VolumeInfo
	b := types.Book{
		ID:            v.ID,
		Title:         info.Title,
		Description:   c.plainText(info.Description),
		PublishedDate: info.PublishedDate,
		ThumbnailURL:  info.ImageLinks.Thumbnail,
		InfoLink:      info.InfoLink,
	}
	if len(info.Authors) > 0 {
		b.Authors = append([]string(nil), info.Authors...)
	}
	return b
}

// plainText strips markup the catalog sometimes embeds in descriptions.
func (c *GoogleBooks) plainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(c.sanitizer.Sanitize(s)))
}

// Google Books API JSON structures.
type volumesResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string     `json:"title"`
	Authors       []string   `json:"authors"`
	Description   string     `json:"description"`
	PublishedDate string     `json:"publishedDate"`
	ImageLinks    imageLinks `json:"imageLinks"`
	InfoLink      string     `json:"infoLink"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
